package localstore

import (
	"context"

	"github.com/kidandcat/bugracer/internal/model"
)

type activityLog struct{ s *Store }

// List returns activities newest first, filtered by project and actor.
func (a activityLog) List(ctx context.Context, f model.Filter) ([]model.Activity, error) {
	var out []model.Activity
	err := a.s.view(ctx, "activities.list", func(d *dataset) error {
		out = make([]model.Activity, 0, len(d.Activities))
		for _, act := range d.Activities {
			if f.ProjectID != "" && act.ProjectID != f.ProjectID {
				continue
			}
			if f.UserID != "" && act.UserID != f.UserID {
				continue
			}
			out = append(out, act)
		}
		return nil
	})
	return out, err
}
