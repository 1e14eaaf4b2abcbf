package localstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
)

type bugRepo struct{ s *Store }

func (d *dataset) bugIndex(id string) int {
	return slices.IndexFunc(d.Bugs, func(b model.Bug) bool { return b.ID == id })
}

func (d *dataset) projectIndex(id string) int {
	return slices.IndexFunc(d.Projects, func(p model.Project) bool { return p.ID == id })
}

func matchBug(b model.Bug, f model.Filter) bool {
	if f.ProjectID != "" && b.ProjectID != f.ProjectID {
		return false
	}
	if f.AssigneeID != "" && b.AssigneeID != f.AssigneeID {
		return false
	}
	if f.ReporterID != "" && b.ReporterID != f.ReporterID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Priority != "" && b.Priority != f.Priority {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(b.Name), q) || strings.Contains(strings.ToLower(b.Description), q)
	}
	return true
}

// List returns matching bugs, most recently reported first.
func (r bugRepo) List(ctx context.Context, f model.Filter) ([]model.Bug, error) {
	var out []model.Bug
	err := r.s.view(ctx, "bugs.list", func(d *dataset) error {
		out = make([]model.Bug, 0, len(d.Bugs))
		for _, b := range d.Bugs {
			if matchBug(b, f) {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func (r bugRepo) Get(ctx context.Context, id string) (*model.Bug, error) {
	const op = "bugs.get"
	var out *model.Bug
	err := r.s.view(ctx, op, func(d *dataset) error {
		i := d.bugIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "bug %s not found", id)
		}
		b := d.Bugs[i]
		out = &b
		return nil
	})
	return out, err
}

// Create stores a new pending bug. The reporter defaults to the acting user.
func (r bugRepo) Create(ctx context.Context, in model.BugInput) (*model.Bug, error) {
	const op = "bugs.create"
	if in.ReporterID == "" {
		in.ReporterID = actorID(ctx)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ReporterID == "" {
		return nil, apperr.New(apperr.Validation, op, "Reporter is required")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	var out *model.Bug
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		if d.projectIndex(in.ProjectID) < 0 {
			return apperr.Newf(apperr.Validation, op, "unknown project %s", in.ProjectID)
		}
		now := r.s.now()
		b := model.Bug{
			ID:                 r.s.newID("bug", func(id string) bool { return d.bugIndex(id) >= 0 }),
			Name:               strings.TrimSpace(in.Name),
			Description:        in.Description,
			ProjectID:          in.ProjectID,
			AffectedDashboards: nonNil(in.AffectedDashboards),
			ReporterID:         in.ReporterID,
			AssigneeID:         in.AssigneeID,
			Priority:           in.Priority,
			Status:             model.StatusPending,
			CreatedAt:          now,
			UpdatedAt:          now,
			Screenshots:        nonNil(in.Screenshots),
			Files:              nonNil(in.Files),
		}
		d.Bugs = slices.Insert(d.Bugs, 0, b)
		d.addActivity(r.s, model.Activity{
			Type:        model.ActivityBugReported,
			UserID:      b.ReporterID,
			Description: fmt.Sprintf("Reported a new bug: %q", b.Name),
			ProjectID:   b.ProjectID,
			BugID:       b.ID,
		})
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies patch and records one activity describing the change.
func (r bugRepo) Update(ctx context.Context, id string, patch model.BugPatch) (*model.Bug, error) {
	const op = "bugs.update"
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var out *model.Bug
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.bugIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "bug %s not found", id)
		}
		before := d.Bugs[i]
		b := before
		patch.Apply(&b)
		b.UpdatedAt = r.s.now()
		d.Bugs[i] = b

		d.addActivity(r.s, bugChangeActivity(before, b, actorID(ctx)))
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func bugChangeActivity(before, after model.Bug, actor string) model.Activity {
	a := model.Activity{UserID: actor, ProjectID: after.ProjectID, BugID: after.ID}
	switch {
	case before.Status != after.Status:
		a.Type = model.StatusActivity(after.Status)
		switch after.Status {
		case model.StatusFixed:
			a.Description = fmt.Sprintf("Fixed bug: %q", after.Name)
		case model.StatusDeclined:
			a.Description = fmt.Sprintf("Declined bug: %q", after.Name)
		default:
			a.Description = fmt.Sprintf("Updated status of bug: %q to %s", after.Name, after.Status.Label())
		}
	case before.AssigneeID != after.AssigneeID && after.AssigneeID != "":
		a.Type = model.ActivityBugAssigned
		a.Description = fmt.Sprintf("Assigned bug %q to a developer", after.Name)
	default:
		a.Type = model.ActivityBugUpdated
		a.Description = fmt.Sprintf("Updated bug: %q", after.Name)
	}
	return a
}

func (r bugRepo) Delete(ctx context.Context, id string) error {
	const op = "bugs.delete"
	return r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.bugIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "bug %s not found", id)
		}
		b := d.Bugs[i]
		d.Bugs = slices.Delete(d.Bugs, i, i+1)
		d.addActivity(r.s, model.Activity{
			Type:        model.ActivityBugDeleted,
			UserID:      actorID(ctx),
			Description: fmt.Sprintf("Deleted bug: %q", b.Name),
			ProjectID:   b.ProjectID,
			BugID:       b.ID,
		})
		return nil
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
