// Package stats computes the dashboard figures from loaded bugs and
// activities.
package stats

import (
	"slices"
	"time"

	"github.com/kidandcat/bugracer/internal/model"
)

type Summary struct {
	Total      int                                           `json:"total"`
	ByStatus   map[model.BugStatus]int                       `json:"by_status"`
	ByPriority map[model.BugPriority]map[model.BugStatus]int `json:"by_priority"`
}

// Open counts bugs not yet fixed, declined or rejected.
func (s Summary) Open() int {
	return s.ByStatus[model.StatusPending] + s.ByStatus[model.StatusInProgress]
}

type ProjectStats struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	TotalBugs   int    `json:"total_bugs"`
	FixedBugs   int    `json:"fixed_bugs"`
	PendingBugs int    `json:"pending_bugs"`
}

type Day struct {
	Date  string `json:"date"`
	Bugs  int    `json:"bugs"`
	Fixes int    `json:"fixes"`
}

type UserStats struct {
	TotalReported  int              `json:"total_reported"`
	TotalFixed     int              `json:"total_fixed"`
	RecentActivity []model.Activity `json:"recent_activity"`
}

func Summarize(bugs []model.Bug) Summary {
	s := Summary{
		Total:      len(bugs),
		ByStatus:   make(map[model.BugStatus]int, len(model.Statuses)),
		ByPriority: make(map[model.BugPriority]map[model.BugStatus]int, len(model.Priorities)),
	}
	for _, st := range model.Statuses {
		s.ByStatus[st] = 0
	}
	for _, p := range model.Priorities {
		s.ByPriority[p] = make(map[model.BugStatus]int)
	}
	for _, b := range bugs {
		s.ByStatus[b.Status]++
		if m, ok := s.ByPriority[b.Priority]; ok {
			m[b.Status]++
		}
	}
	return s
}

// PerProject returns one row per project, in project order. Pending counts
// both pending and in-progress bugs.
func PerProject(bugs []model.Bug, projects []model.Project) []ProjectStats {
	out := make([]ProjectStats, 0, len(projects))
	for _, p := range projects {
		ps := ProjectStats{ProjectID: p.ID, ProjectName: p.Name}
		for _, b := range bugs {
			if b.ProjectID != p.ID {
				continue
			}
			ps.TotalBugs++
			switch b.Status {
			case model.StatusFixed:
				ps.FixedBugs++
			case model.StatusPending, model.StatusInProgress:
				ps.PendingBugs++
			}
		}
		out = append(out, ps)
	}
	return out
}

// Weekly returns reported bugs and fixes per calendar day for the days
// ending with now's day, oldest first.
func Weekly(activities []model.Activity, now time.Time, days int) []Day {
	if days <= 0 {
		return []Day{}
	}
	start := truncateDay(now).AddDate(0, 0, -(days - 1))
	out := make([]Day, days)
	index := make(map[string]int, days)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
		index[out[i].Date] = i
	}
	for _, a := range activities {
		i, ok := index[a.CreatedAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch a.Type {
		case model.ActivityBugReported:
			out[i].Bugs++
		case model.StatusActivity(model.StatusFixed):
			out[i].Fixes++
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ForUser summarizes a user's contribution: bugs reported, assigned bugs
// fixed and the n most recent activities.
func ForUser(userID string, bugs []model.Bug, activities []model.Activity, n int) UserStats {
	var s UserStats
	for _, b := range bugs {
		if b.ReporterID == userID {
			s.TotalReported++
		}
		if b.AssigneeID == userID && b.Status == model.StatusFixed {
			s.TotalFixed++
		}
	}
	recent := []model.Activity{}
	for _, a := range activities {
		if a.UserID == userID {
			recent = append(recent, a)
		}
	}
	slices.SortStableFunc(recent, func(a, b model.Activity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if n >= 0 && len(recent) > n {
		recent = recent[:n]
	}
	s.RecentActivity = recent
	return s
}
