package localstore

import (
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
)

// legacyProject is a project as stored before schema version 2, which
// carried an isActive flag instead of a status.
type legacyProject struct {
	model.Project
	IsActive *bool `json:"isActive"`
}

// overlayLegacy reads an unversioned snapshot, normalizing project status,
// bug status and priority, and user roles.
func (s *Store) overlayLegacy() {
	read(s.kv, KeyDashboards, &s.data.Dashboards)
	read(s.kv, KeyActivities, &s.data.Activities)

	var users []model.User
	read(s.kv, KeyUsers, &users)
	if users != nil {
		s.data.Users = users[:0]
		for _, u := range users {
			r, err := model.ParseRole(string(u.Role))
			if err != nil {
				logger.Warningf("dropping stored user %s: %v", u.ID, err)
				continue
			}
			u.Role = r
			s.data.Users = append(s.data.Users, u)
		}
	}

	var projects []legacyProject
	read(s.kv, KeyProjects, &projects)
	if projects != nil {
		s.data.Projects = make([]model.Project, 0, len(projects))
		for _, lp := range projects {
			p := lp.Project
			if !p.Status.Valid() {
				p.Status = model.ProjectActive
				if lp.IsActive != nil && !*lp.IsActive {
					p.Status = model.ProjectArchived
				}
			}
			p.Dashboards = nil
			s.data.Projects = append(s.data.Projects, p)
		}
	}

	var bugs []model.Bug
	read(s.kv, KeyBugs, &bugs)
	if bugs != nil {
		for i := range bugs {
			bugs[i] = migrateBug(bugs[i])
		}
		s.data.Bugs = bugs
	}
}

func migrateBug(b model.Bug) model.Bug {
	st, err := model.ParseStatus(string(b.Status))
	if err != nil {
		logger.Warningf("bug %s: %v, using %s", b.ID, err, model.StatusPending)
		st = model.StatusPending
	}
	b.Status = st

	p, err := model.ParsePriority(string(b.Priority))
	if err != nil {
		p = model.PriorityMedium
	}
	b.Priority = p

	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	if b.Screenshots == nil {
		b.Screenshots = []string{}
	}
	if b.Files == nil {
		b.Files = []string{}
	}
	return b
}
