package localstore

import (
	"time"

	"github.com/kidandcat/bugracer/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// seed is the demo dataset a fresh store starts from.
func seed() dataset {
	d := dataset{
		Users: []model.User{
			{ID: "demo-user-1", Name: "Demo User", Username: "demo", Email: "demo@example.com", Role: model.RoleTester},
			{ID: "demo-user-2", Name: "Demo Admin", Username: "demo-admin", Email: "demo-admin@example.com", Role: model.RoleAdmin},
			{ID: "demo-user-3", Name: "Demo Developer", Username: "demo-dev", Email: "demo-dev@example.com", Role: model.RoleDeveloper},
		},
		Projects: []model.Project{
			{
				ID:          "proj-1",
				Name:        "E-commerce Platform",
				Description: "Online shopping platform with product management and cart features",
				Status:      model.ProjectActive,
				CreatedBy:   "demo-user-2",
				CreatedAt:   day("2025-03-01"),
				UpdatedAt:   day("2025-03-01"),
			},
			{
				ID:          "proj-2",
				Name:        "CRM System",
				Description: "Customer relationship management system for sales teams",
				Status:      model.ProjectActive,
				CreatedBy:   "demo-user-2",
				CreatedAt:   day("2025-03-01"),
				UpdatedAt:   day("2025-03-01"),
			},
		},
		Dashboards: []model.Dashboard{
			{ID: "dash-1", Name: "Products Dashboard", ProjectID: "proj-1"},
			{ID: "dash-2", Name: "Sales Dashboard", ProjectID: "proj-1"},
			{ID: "dash-3", Name: "Customer Dashboard", ProjectID: "proj-2"},
		},
		Bugs: []model.Bug{
			{
				ID:                 "bug-1",
				Name:               "Checkout process fails",
				Description:        "Users unable to complete checkout on mobile devices",
				ProjectID:          "proj-1",
				AffectedDashboards: []string{"dash-1"},
				ReporterID:         "demo-user-1",
				Priority:           model.PriorityHigh,
				Status:             model.StatusPending,
				CreatedAt:          day("2025-04-01"),
				UpdatedAt:          day("2025-04-01"),
				Screenshots:        []string{},
				Files:              []string{},
			},
			{
				ID:                 "bug-2",
				Name:               "Search results incorrect",
				Description:        "Search returns unrelated products",
				ProjectID:          "proj-1",
				AffectedDashboards: []string{"dash-1", "dash-2"},
				ReporterID:         "demo-user-1",
				AssigneeID:         "demo-user-3",
				Priority:           model.PriorityMedium,
				Status:             model.StatusPending,
				CreatedAt:          day("2025-04-02"),
				UpdatedAt:          day("2025-04-03"),
				Screenshots:        []string{},
				Files:              []string{},
			},
			{
				ID:                 "bug-3",
				Name:               "Customer data not loading",
				Description:        "Customer profiles show blank data",
				ProjectID:          "proj-2",
				AffectedDashboards: []string{"dash-3"},
				ReporterID:         "demo-user-2",
				AssigneeID:         "demo-user-3",
				Priority:           model.PriorityHigh,
				Status:             model.StatusFixed,
				CreatedAt:          day("2025-04-01"),
				UpdatedAt:          day("2025-04-05"),
				Screenshots:        []string{},
				Files:              []string{},
			},
		},
		Activities: []model.Activity{
			{
				ID:          "act-3",
				Type:        model.StatusActivity(model.StatusFixed),
				UserID:      "demo-user-3",
				Description: `Fixed bug: "Customer data not loading"`,
				ProjectID:   "proj-2",
				BugID:       "bug-3",
				CreatedAt:   day("2025-04-05"),
			},
			{
				ID:          "act-2",
				Type:        model.ActivityBugAssigned,
				UserID:      "demo-user-2",
				Description: `Assigned bug "Search results incorrect" to a developer`,
				ProjectID:   "proj-1",
				BugID:       "bug-2",
				CreatedAt:   day("2025-04-03"),
			},
			{
				ID:          "act-1",
				Type:        model.ActivityBugReported,
				UserID:      "demo-user-1",
				Description: `Reported a new bug: "Checkout process fails"`,
				ProjectID:   "proj-1",
				BugID:       "bug-1",
				CreatedAt:   day("2025-04-01"),
			},
		},
		Sessions:    map[string]string{},
		Credentials: map[string]string{},
	}
	return d
}
