// Package tracker holds the bug and project view state for the signed-in
// user. Mutations are applied optimistically and rolled back when the data
// source rejects them.
package tracker

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
)

// ErrStale is returned by Refresh when a newer refresh, a mutation or a
// Reset happened while it was in flight; its results were discarded.
var ErrStale = errors.New("tracker: refresh superseded")

// Viewer is the session the tracker acts for.
type Viewer interface {
	Current() *model.User
	Context(ctx context.Context) context.Context
}

type Tracker struct {
	src    backend.Source
	viewer Viewer
	now    func() time.Time

	// epoch moves on every refresh, mutation and Reset; refreshes counts
	// refreshes alone and generation counts Resets.
	epoch      atomic.Uint64
	refreshes  atomic.Uint64
	generation atomic.Uint64

	mu        sync.RWMutex
	bugs      []model.Bug
	projects  []model.Project
	loading   bool
	err       error
	listeners map[int]func()
	nextID    int
}

func New(src backend.Source, viewer Viewer) *Tracker {
	return &Tracker{
		src:       src,
		viewer:    viewer,
		now:       time.Now,
		listeners: make(map[int]func()),
	}
}

// Refresh loads projects and bugs concurrently.
func (t *Tracker) Refresh(ctx context.Context) error {
	e := t.epoch.Inc()
	r := t.refreshes.Inc()
	t.update(func() { t.loading = true })

	ctx = t.viewer.Context(ctx)
	var bugs []model.Bug
	var projects []model.Project
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = t.src.Projects().List(gctx, model.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		bugs, err = t.src.Bugs().List(gctx, model.Filter{})
		return err
	})
	err := g.Wait()

	t.mu.Lock()
	if t.epoch.Load() != e {
		if t.refreshes.Load() == r {
			t.loading = false
		}
		t.mu.Unlock()
		t.notify()
		logger.Debug("discarding superseded refresh")
		return ErrStale
	}
	t.loading = false
	t.err = err
	if err == nil {
		t.bugs = bugs
		t.projects = projects
	}
	t.mu.Unlock()
	t.notify()

	if err != nil {
		logger.Warningf("refresh: %v", err)
	}
	return err
}

// Reset clears all state, e.g. on logout. Results of in-flight refreshes
// and mutations are discarded.
func (t *Tracker) Reset() {
	t.generation.Inc()
	t.epoch.Inc()
	t.update(func() {
		t.bugs = nil
		t.projects = nil
		t.loading = false
		t.err = nil
	})
}

func (t *Tracker) deny(op string, c gate.Capability, what string) error {
	if gate.Can(t.viewer.Current(), c) {
		return nil
	}
	return apperr.New(apperr.Unauthorized, op, "You do not have permission to "+what)
}

// AddBug reports a new bug as the current user. A placeholder is shown until
// the data source confirms it.
func (t *Tracker) AddBug(ctx context.Context, in model.BugInput) (*model.Bug, error) {
	const op = "tracker.add_bug"
	if err := t.deny(op, gate.CreateBug, "report bugs"); err != nil {
		return nil, err
	}
	in.ReporterID = t.viewer.Current().ID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	now := t.now()
	placeholder := model.Bug{
		ID:                 "tmp-" + uuid.NewString(),
		Name:               in.Name,
		Description:        in.Description,
		ProjectID:          in.ProjectID,
		AffectedDashboards: in.AffectedDashboards,
		ReporterID:         in.ReporterID,
		AssigneeID:         in.AssigneeID,
		Priority:           in.Priority,
		Status:             model.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	gen := t.generation.Load()
	t.epoch.Inc()
	t.update(func() { t.bugs = slices.Insert(t.bugs, 0, placeholder) })

	created, err := t.src.Bugs().Create(t.viewer.Context(ctx), in)
	t.update(func() {
		i := indexOf(t.bugs, placeholder.ID)
		if i < 0 || t.generation.Load() != gen {
			return
		}
		if err != nil {
			t.bugs = slices.Delete(t.bugs, i, i+1)
			return
		}
		t.bugs[i] = *created
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus moves a bug to status.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status model.BugStatus) (*model.Bug, error) {
	const op = "tracker.update_status"
	if err := t.deny(op, gate.UpdateBugStatus, "change bug status"); err != nil {
		return nil, err
	}
	patch := model.BugPatch{Status: &status}
	return t.patch(ctx, op, id, patch)
}

// Assign sets the bug's assignee; an empty assigneeID unassigns it.
func (t *Tracker) Assign(ctx context.Context, id, assigneeID string) (*model.Bug, error) {
	const op = "tracker.assign"
	if err := t.deny(op, gate.AssignBug, "assign bugs"); err != nil {
		return nil, err
	}
	return t.patch(ctx, op, id, model.BugPatch{AssigneeID: &assigneeID})
}

// Edit changes descriptive fields of a bug.
func (t *Tracker) Edit(ctx context.Context, id string, patch model.BugPatch) (*model.Bug, error) {
	const op = "tracker.edit"
	if err := t.deny(op, gate.EditBug, "edit bugs"); err != nil {
		return nil, err
	}
	return t.patch(ctx, op, id, patch)
}

func (t *Tracker) patch(ctx context.Context, op string, id string, patch model.BugPatch) (*model.Bug, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var prev model.Bug
	var had bool
	gen := t.generation.Load()
	t.epoch.Inc()
	t.update(func() {
		i := indexOf(t.bugs, id)
		if i < 0 {
			return
		}
		prev, had = t.bugs[i], true
		b := prev
		patch.Apply(&b)
		b.UpdatedAt = t.now()
		t.bugs[i] = b
	})

	updated, err := t.src.Bugs().Update(t.viewer.Context(ctx), id, patch)
	t.update(func() {
		if t.generation.Load() != gen {
			return
		}
		i := indexOf(t.bugs, id)
		switch {
		case err != nil && had && i >= 0:
			t.bugs[i] = prev
		case err == nil && i >= 0:
			t.bugs[i] = *updated
		case err == nil:
			t.bugs = slices.Insert(t.bugs, 0, *updated)
		}
	})
	if err != nil {
		logger.Debugf("%s %s rolled back: %v", op, id, err)
		return nil, err
	}
	return updated, nil
}

// DeleteBug removes a bug, restoring it at its position on failure.
func (t *Tracker) DeleteBug(ctx context.Context, id string) error {
	const op = "tracker.delete_bug"
	if err := t.deny(op, gate.DeleteBug, "delete bugs"); err != nil {
		return err
	}

	var prev model.Bug
	pos := -1
	gen := t.generation.Load()
	t.epoch.Inc()
	t.update(func() {
		if pos = indexOf(t.bugs, id); pos >= 0 {
			prev = t.bugs[pos]
			t.bugs = slices.Delete(t.bugs, pos, pos+1)
		}
	})

	err := t.src.Bugs().Delete(t.viewer.Context(ctx), id)
	if err != nil && pos >= 0 {
		t.update(func() {
			if t.generation.Load() != gen {
				return
			}
			at := min(pos, len(t.bugs))
			t.bugs = slices.Insert(t.bugs, at, prev)
		})
	}
	return err
}

// Subscribe registers fn to be called after every state change.
func (t *Tracker) Subscribe(fn func()) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) update(fn func()) {
	t.mu.Lock()
	fn()
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) notify() {
	t.mu.RLock()
	fns := make([]func(), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

func indexOf(bugs []model.Bug, id string) int {
	return slices.IndexFunc(bugs, func(b model.Bug) bool { return b.ID == id })
}

// Loading reports whether a refresh is in flight.
func (t *Tracker) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// Err is the error of the last refresh.
func (t *Tracker) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *Tracker) Bugs() []model.Bug {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.bugs)
}

func (t *Tracker) Projects() []model.Project {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.projects)
}

func (t *Tracker) selectBugs(keep func(model.Bug) bool) []model.Bug {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []model.Bug{}
	for _, b := range t.bugs {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// Visible returns the bugs the current user may see that match f.
func (t *Tracker) Visible(f model.Filter) []model.Bug {
	u := t.viewer.Current()
	q := strings.ToLower(strings.TrimSpace(f.Search))
	return t.selectBugs(func(b model.Bug) bool {
		if !gate.Visible(u, b) {
			return false
		}
		if f.ProjectID != "" && b.ProjectID != f.ProjectID {
			return false
		}
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.Priority != "" && b.Priority != f.Priority {
			return false
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Description), q) {
			return false
		}
		return true
	})
}

func (t *Tracker) ByProject(projectID string) []model.Bug {
	return t.selectBugs(func(b model.Bug) bool { return b.ProjectID == projectID })
}

func (t *Tracker) ByAssignee(userID string) []model.Bug {
	return t.selectBugs(func(b model.Bug) bool { return b.AssigneeID == userID })
}

func (t *Tracker) ByReporter(userID string) []model.Bug {
	return t.selectBugs(func(b model.Bug) bool { return b.ReporterID == userID })
}

func (t *Tracker) BugByID(id string) (model.Bug, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := indexOf(t.bugs, id); i >= 0 {
		return t.bugs[i], true
	}
	return model.Bug{}, false
}

func (t *Tracker) ProjectByID(id string) (model.Project, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func (t *Tracker) DashboardByID(id string) (model.Dashboard, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.projects {
		for _, d := range p.Dashboards {
			if d.ID == id {
				return d, true
			}
		}
	}
	return model.Dashboard{}, false
}
