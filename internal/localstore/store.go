// Package localstore is a data source that keeps every collection in memory,
// seeded with a demo dataset and persisted to durable storage after each
// mutation. It satisfies the same contract as the REST client so the app can
// run without a backend.
package localstore

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

// SchemaVersion is written to KeySchemaVersion with every snapshot.
const SchemaVersion = 2

// Storage keys.
const (
	KeyUsers         = "mock_users"
	KeyProjects      = "mock_projects"
	KeyDashboards    = "mock_dashboards"
	KeyBugs          = "mock_bugs"
	KeyActivities    = "mock_activities"
	KeySessions      = "mock_sessions"
	KeyCredentials   = "mock_credentials"
	KeySchemaVersion = "mock_schema_version"
)

type dataset struct {
	Users       []model.User
	Projects    []model.Project
	Dashboards  []model.Dashboard
	Bugs        []model.Bug
	Activities  []model.Activity
	Sessions    map[string]string // token -> user id
	Credentials map[string]string // user id -> bcrypt hash
}

func (d dataset) clone() dataset {
	return dataset{
		Users:       slices.Clone(d.Users),
		Projects:    slices.Clone(d.Projects),
		Dashboards:  slices.Clone(d.Dashboards),
		Bugs:        slices.Clone(d.Bugs),
		Activities:  slices.Clone(d.Activities),
		Sessions:    maps.Clone(d.Sessions),
		Credentials: maps.Clone(d.Credentials),
	}
}

type Option func(*Store)

// WithLatency delays every read and write, simulating a remote backend.
func WithLatency(read, write time.Duration) Option {
	return func(s *Store) {
		s.readDelay = read
		s.writeDelay = write
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.bcryptCost = cost }
}

// Store is safe for concurrent use. Concurrent mutations are applied in
// arrival order; the last writer wins.
type Store struct {
	kv         storage.Storage
	readDelay  time.Duration
	writeDelay time.Duration
	now        func() time.Time
	bcryptCost int

	mu   sync.RWMutex
	data dataset
}

var _ backend.Source = (*Store)(nil)

// Open seeds the store and overlays whatever snapshot kv already holds.
func Open(kv storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		kv:         kv,
		now:        time.Now,
		bcryptCost: defaultBcryptCost,
		data:       seed(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Bugs() backend.Bugs { return bugRepo{s} }
func (s *Store) Projects() backend.Projects { return projectRepo{s} }
func (s *Store) Users() backend.Users { return userRepo{s} }
func (s *Store) Activities() backend.ActivityLog { return activityLog{s} }

// Reset discards every stored collection and returns to the seed data.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.data
	s.data = seed()
	if err := s.persistLocked(); err != nil {
		s.data = prev
		return apperr.Wrap(apperr.Server, "localstore.reset", err)
	}
	return nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(KeySchemaVersion)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	version := 0
	if ok {
		version, err = strconv.Atoi(raw)
		if err != nil {
			logger.Warningf("unreadable schema version %q, reseeding", raw)
			return s.persistLocked()
		}
	}

	switch {
	case version > SchemaVersion:
		logger.Warningf("stored snapshot has schema version %d, newer than %d; reseeding", version, SchemaVersion)
		return s.persistLocked()
	case version == SchemaVersion:
		s.overlay()
		return nil
	}

	if !s.hasSnapshot() {
		return s.persistLocked()
	}
	logger.Noticef("migrating stored snapshot from schema version %d", version)
	s.overlayLegacy()
	return s.persistLocked()
}

func (s *Store) hasSnapshot() bool {
	for _, k := range []string{KeyUsers, KeyProjects, KeyDashboards, KeyBugs, KeyActivities} {
		if _, ok, _ := s.kv.Get(k); ok {
			return true
		}
	}
	return false
}

// overlay replaces each seeded collection that has a stored counterpart.
// A collection that fails to decode keeps its seed value.
func (s *Store) overlay() {
	read(s.kv, KeyUsers, &s.data.Users)
	read(s.kv, KeyProjects, &s.data.Projects)
	read(s.kv, KeyDashboards, &s.data.Dashboards)
	read(s.kv, KeyBugs, &s.data.Bugs)
	read(s.kv, KeyActivities, &s.data.Activities)
	read(s.kv, KeySessions, &s.data.Sessions)
	read(s.kv, KeyCredentials, &s.data.Credentials)
	if s.data.Sessions == nil {
		s.data.Sessions = map[string]string{}
	}
	if s.data.Credentials == nil {
		s.data.Credentials = map[string]string{}
	}
}

func read[T any](kv storage.Storage, key string, dst *T) {
	var v T
	found, err := storage.GetJSON(kv, key, &v)
	if err != nil {
		logger.Warningf("ignoring stored %s: %v", key, err)
		return
	}
	if found {
		*dst = v
	}
}

func (s *Store) persistLocked() error {
	entries := []struct {
		key string
		v   any
	}{
		{KeyUsers, s.data.Users},
		{KeyProjects, s.data.Projects},
		{KeyDashboards, s.data.Dashboards},
		{KeyBugs, s.data.Bugs},
		{KeyActivities, s.data.Activities},
		{KeySessions, s.data.Sessions},
		{KeyCredentials, s.data.Credentials},
	}
	for _, e := range entries {
		if err := storage.SetJSON(s.kv, e.key, e.v); err != nil {
			return err
		}
	}
	return s.kv.Set(KeySchemaVersion, strconv.Itoa(SchemaVersion))
}

// mutate runs fn against the live dataset under the write lock and persists
// the result. If fn fails or the snapshot cannot be written, the in-memory
// state is rolled back.
func (s *Store) mutate(ctx context.Context, op string, fn func(d *dataset) error) error {
	if err := s.wait(ctx, op, s.writeDelay); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.clone()
	if err := fn(&s.data); err != nil {
		s.data = prev
		return err
	}
	if err := s.persistLocked(); err != nil {
		s.data = prev
		if rerr := s.persistLocked(); rerr != nil {
			logger.Warningf("%s: restore snapshot: %v", op, rerr)
		}
		logger.Errorf("%s: persist: %v", op, err)
		return apperr.Wrap(apperr.Server, op, err)
	}
	return nil
}

// view runs fn under the read lock after the read delay.
func (s *Store) view(ctx context.Context, op string, fn func(d *dataset) error) error {
	if err := s.wait(ctx, op, s.readDelay); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.data)
}

func (s *Store) wait(ctx context.Context, op string, d time.Duration) error {
	if d <= 0 {
		return apperr.Wrap(apperr.Network, op, ctx.Err())
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return apperr.Wrap(apperr.Network, op, ctx.Err())
	case <-t.C:
		return nil
	}
}

// newID returns "<prefix>-<unix millis>-<0..999>", unique within taken.
func (s *Store) newID(prefix string, taken func(string) bool) string {
	ms := s.now().UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d-%d", prefix, ms, rand.IntN(1000))
		if !taken(id) {
			return id
		}
	}
}

func actorID(ctx context.Context) string {
	if u := model.UserFrom(ctx); u != nil {
		return u.ID
	}
	return ""
}

func (d *dataset) addActivity(s *Store, a model.Activity) {
	a.ID = s.newID("act", func(id string) bool {
		return slices.ContainsFunc(d.Activities, func(x model.Activity) bool { return x.ID == id })
	})
	a.CreatedAt = s.now()
	d.Activities = slices.Insert(d.Activities, 0, a)
}
