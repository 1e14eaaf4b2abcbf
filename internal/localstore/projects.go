package localstore

import (
	"context"
	"slices"
	"strings"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
)

type projectRepo struct{ s *Store }

// withDashboards links the project's dashboards from the dashboard collection.
func (d *dataset) withDashboards(p model.Project) model.Project {
	p.Dashboards = []model.Dashboard{}
	for _, db := range d.Dashboards {
		if db.ProjectID == p.ID {
			p.Dashboards = append(p.Dashboards, db)
		}
	}
	return p
}

func (r projectRepo) List(ctx context.Context, f model.Filter) ([]model.Project, error) {
	var out []model.Project
	err := r.s.view(ctx, "projects.list", func(d *dataset) error {
		q := strings.ToLower(strings.TrimSpace(f.Search))
		out = make([]model.Project, 0, len(d.Projects))
		for _, p := range d.Projects {
			if f.ProjectID != "" && p.ID != f.ProjectID {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
				continue
			}
			out = append(out, d.withDashboards(p))
		}
		return nil
	})
	return out, err
}

func (r projectRepo) Get(ctx context.Context, id string) (*model.Project, error) {
	const op = "projects.get"
	var out *model.Project
	err := r.s.view(ctx, op, func(d *dataset) error {
		i := d.projectIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "project %s not found", id)
		}
		p := d.withDashboards(d.Projects[i])
		out = &p
		return nil
	})
	return out, err
}

// Create adds an active project and one dashboard per name in in.Dashboards.
func (r projectRepo) Create(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	const op = "projects.create"
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *model.Project
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		now := r.s.now()
		p := model.Project{
			ID:          r.s.newID("proj", func(id string) bool { return d.projectIndex(id) >= 0 }),
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Status:      model.ProjectActive,
			CreatedBy:   actorID(ctx),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		d.Projects = append(d.Projects, p)
		for _, name := range in.Dashboards {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			d.Dashboards = append(d.Dashboards, model.Dashboard{
				ID: r.s.newID("dash", func(id string) bool {
					return slices.ContainsFunc(d.Dashboards, func(x model.Dashboard) bool { return x.ID == id })
				}),
				Name:      name,
				ProjectID: p.ID,
			})
		}
		p = d.withDashboards(p)
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r projectRepo) Update(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	const op = "projects.update"
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var out *model.Project
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.projectIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "project %s not found", id)
		}
		p := d.Projects[i]
		patch.Apply(&p)
		p.UpdatedAt = r.s.now()
		d.Projects[i] = p
		p = d.withDashboards(p)
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the project together with its dashboards and bugs.
func (r projectRepo) Delete(ctx context.Context, id string) error {
	const op = "projects.delete"
	return r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.projectIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "project %s not found", id)
		}
		d.Projects = slices.Delete(d.Projects, i, i+1)
		d.Dashboards = slices.DeleteFunc(d.Dashboards, func(x model.Dashboard) bool { return x.ProjectID == id })
		d.Bugs = slices.DeleteFunc(d.Bugs, func(b model.Bug) bool { return b.ProjectID == id })
		return nil
	})
}
