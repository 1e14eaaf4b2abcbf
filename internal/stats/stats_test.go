package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidandcat/bugracer/internal/model"
)

func at(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	projects = []model.Project{{ID: "p1", Name: "Shop"}, {ID: "p2", Name: "CRM"}, {ID: "p3", Name: "Empty"}}
	bugs     = []model.Bug{
		{ID: "b1", ProjectID: "p1", ReporterID: "u1", Priority: model.PriorityHigh, Status: model.StatusPending},
		{ID: "b2", ProjectID: "p1", ReporterID: "u1", AssigneeID: "u3", Priority: model.PriorityMedium, Status: model.StatusInProgress},
		{ID: "b3", ProjectID: "p2", ReporterID: "u2", AssigneeID: "u3", Priority: model.PriorityHigh, Status: model.StatusFixed},
		{ID: "b4", ProjectID: "p2", ReporterID: "u1", Priority: model.PriorityLow, Status: model.StatusDeclined},
	}
	activities = []model.Activity{
		{ID: "a1", Type: model.ActivityBugReported, UserID: "u1", CreatedAt: at("2025-04-01 09:00:00")},
		{ID: "a2", Type: model.ActivityBugReported, UserID: "u1", CreatedAt: at("2025-04-01 18:30:00")},
		{ID: "a3", Type: model.StatusActivity(model.StatusFixed), UserID: "u3", CreatedAt: at("2025-04-03 10:00:00")},
		{ID: "a4", Type: model.ActivityBugAssigned, UserID: "u2", CreatedAt: at("2025-04-03 11:00:00")},
		{ID: "a5", Type: model.ActivityBugReported, UserID: "u1", CreatedAt: at("2025-03-20 11:00:00")},
		{ID: "a6", Type: model.StatusActivity(model.StatusInProgress), UserID: "u3", CreatedAt: at("2025-04-02 08:00:00")},
	}
)

func TestSummarize(t *testing.T) {
	s := Summarize(bugs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.ByStatus[model.StatusFixed])
	assert.Equal(t, 0, s.ByStatus[model.StatusRejected])
	assert.Equal(t, 2, s.Open())
	assert.Equal(t, 1, s.ByPriority[model.PriorityHigh][model.StatusFixed])
	assert.Equal(t, 1, s.ByPriority[model.PriorityLow][model.StatusDeclined])

	empty := Summarize(nil)
	assert.Zero(t, empty.Total)
	assert.Len(t, empty.ByStatus, len(model.Statuses))
}

func TestPerProject(t *testing.T) {
	got := PerProject(bugs, projects)
	assert.Equal(t, []ProjectStats{
		{ProjectID: "p1", ProjectName: "Shop", TotalBugs: 2, PendingBugs: 2},
		{ProjectID: "p2", ProjectName: "CRM", TotalBugs: 2, FixedBugs: 1},
		{ProjectID: "p3", ProjectName: "Empty"},
	}, got)
}

func TestWeekly(t *testing.T) {
	tests := []struct {
		name string
		days int
		want []Day
	}{
		{"three days", 3, []Day{
			{Date: "2025-04-01", Bugs: 2},
			{Date: "2025-04-02"},
			{Date: "2025-04-03", Fixes: 1},
		}},
		{"one day", 1, []Day{{Date: "2025-04-03", Fixes: 1}}},
		{"none", 0, []Day{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Weekly(activities, at("2025-04-03 23:00:00"), tt.days))
		})
	}

	week := Weekly(activities, at("2025-04-03 12:00:00"), 7)
	require.Len(t, week, 7)
	assert.Equal(t, "2025-03-28", week[0].Date)
}

func TestForUser(t *testing.T) {
	s := ForUser("u1", bugs, activities, 2)
	assert.Equal(t, 3, s.TotalReported)
	assert.Zero(t, s.TotalFixed)
	require.Len(t, s.RecentActivity, 2)
	assert.Equal(t, "a2", s.RecentActivity[0].ID)
	assert.Equal(t, "a1", s.RecentActivity[1].ID)

	dev := ForUser("u3", bugs, activities, 10)
	assert.Equal(t, 1, dev.TotalFixed)
	assert.Len(t, dev.RecentActivity, 2)

	nobody := ForUser("u9", bugs, activities, 5)
	assert.NotNil(t, nobody.RecentActivity)
	assert.Empty(t, nobody.RecentActivity)
}
