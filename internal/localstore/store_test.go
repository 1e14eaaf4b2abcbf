package localstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

var (
	tester = &model.User{ID: "demo-user-1", Role: model.RoleTester}
	admin  = &model.User{ID: "demo-user-2", Role: model.RoleAdmin}
	dev    = &model.User{ID: "demo-user-3", Role: model.RoleDeveloper}
)

func openStore(t *testing.T, kv storage.Storage, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	s, err := Open(kv, opts...)
	require.NoError(t, err)
	return s
}

func as(u *model.User) context.Context {
	return model.WithUser(context.Background(), u)
}

func TestSeed(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := context.Background()

	bugs, err := s.Bugs().List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, bugs, 3)

	projects, err := s.Projects().List(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Len(t, projects[0].Dashboards, 2)
	assert.Len(t, projects[1].Dashboards, 1)

	users, err := s.Users().List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, users, 3)

	acts, err := s.Activities().List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, acts, 3)
	assert.Equal(t, "act-3", acts[0].ID)
}

func TestCreateThenListShowsPendingBug(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	start := time.Now()

	created, err := s.Bugs().Create(as(tester), model.BugInput{
		Name:      "Cart total wrong",
		ProjectID: "proj-1",
		Priority:  model.PriorityLow,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^bug-\d+-\d{1,3}$`), created.ID)
	assert.Equal(t, "demo-user-1", created.ReporterID)

	bugs, err := s.Bugs().List(context.Background(), model.Filter{ProjectID: "proj-1"})
	require.NoError(t, err)
	require.NotEmpty(t, bugs)
	got := bugs[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.False(t, got.CreatedAt.Before(start))
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	acts, err := s.Activities().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, model.ActivityBugReported, acts[0].Type)
	assert.Equal(t, `Reported a new bug: "Cart total wrong"`, acts[0].Description)
}

func TestCreateBugValidation(t *testing.T) {
	s := openStore(t, storage.NewMemory())

	_, err := s.Bugs().Create(context.Background(), model.BugInput{Name: "x", ProjectID: "proj-1"})
	assert.True(t, apperr.IsValidation(err), "reporter required")

	_, err = s.Bugs().Create(as(tester), model.BugInput{Name: "x", ProjectID: "proj-404"})
	assert.True(t, apperr.IsValidation(err), "unknown project")

	_, err = s.Bugs().Create(as(tester), model.BugInput{ProjectID: "proj-1"})
	assert.True(t, apperr.IsValidation(err), "name required")
}

func TestMissingIDsAreNotFound(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := as(admin)

	assert.True(t, apperr.IsNotFound(s.Bugs().Delete(ctx, "bug-404")))
	_, err := s.Bugs().Get(ctx, "bug-404")
	assert.True(t, apperr.IsNotFound(err))
	_, err = s.Bugs().Update(ctx, "bug-404", model.BugPatch{Status: model.Ptr(model.StatusFixed)})
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(s.Projects().Delete(ctx, "proj-404")))
	assert.True(t, apperr.IsNotFound(s.Users().Delete(ctx, "user-404")))

	acts, err := s.Activities().List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, acts, 3, "failed mutations record nothing")
}

func TestDeveloperFixAppendsActivity(t *testing.T) {
	s := openStore(t, storage.NewMemory())

	b, err := s.Bugs().Update(as(dev), "bug-2", model.BugPatch{Status: model.Ptr(model.StatusFixed)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFixed, b.Status)
	assert.True(t, b.UpdatedAt.After(b.CreatedAt))

	acts, err := s.Activities().List(context.Background(), model.Filter{UserID: "demo-user-3"})
	require.NoError(t, err)
	require.NotEmpty(t, acts)
	assert.Equal(t, "bug_fixed", acts[0].Type)
	assert.Equal(t, "bug-2", acts[0].BugID)
	assert.Equal(t, `Fixed bug: "Search results incorrect"`, acts[0].Description)
}

func TestBugChangeActivity(t *testing.T) {
	base := model.Bug{ID: "bug-1", Name: "Crash", ProjectID: "proj-1", Status: model.StatusPending}

	tests := []struct {
		name     string
		patch    model.BugPatch
		wantType string
	}{
		{"declined", model.BugPatch{Status: model.Ptr(model.StatusDeclined)}, "bug_declined"},
		{"in progress", model.BugPatch{Status: model.Ptr(model.StatusInProgress)}, "bug_in_progress"},
		{"assigned", model.BugPatch{AssigneeID: model.Ptr("demo-user-3")}, model.ActivityBugAssigned},
		{"unassigned", model.BugPatch{AssigneeID: model.Ptr("")}, model.ActivityBugUpdated},
		{"renamed", model.BugPatch{Name: model.Ptr("Crash on save")}, model.ActivityBugUpdated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := base
			tt.patch.Apply(&after)
			a := bugChangeActivity(base, after, "demo-user-2")
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, "demo-user-2", a.UserID)
			assert.Equal(t, "proj-1", a.ProjectID)
		})
	}
}

func TestPersistAndReload(t *testing.T) {
	kv := storage.NewMemory()
	s := openStore(t, kv)

	b, err := s.Bugs().Create(as(tester), model.BugInput{Name: "Persisted", ProjectID: "proj-2"})
	require.NoError(t, err)
	_, err = s.Bugs().Update(as(admin), "bug-1", model.BugPatch{AssigneeID: model.Ptr("demo-user-3")})
	require.NoError(t, err)

	reloaded := openStore(t, kv)
	got, err := reloaded.Bugs().Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
	assert.True(t, got.CreatedAt.Equal(b.CreatedAt))

	bug1, err := reloaded.Bugs().Get(context.Background(), "bug-1")
	require.NoError(t, err)
	assert.Equal(t, "demo-user-3", bug1.AssigneeID)

	acts, err := reloaded.Activities().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, acts, 5)
}

func TestPersistFailureRollsBack(t *testing.T) {
	kv := storage.NewMemory()
	s := openStore(t, kv)
	kv.SetFailWrites(true)

	_, err := s.Bugs().Create(as(tester), model.BugInput{Name: "Lost", ProjectID: "proj-1"})
	assert.Equal(t, apperr.Server, apperr.KindOf(err))
	err = s.Bugs().Delete(as(admin), "bug-1")
	assert.Equal(t, apperr.Server, apperr.KindOf(err))

	kv.SetFailWrites(false)
	bugs, err := s.Bugs().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, bugs, 3)
	acts, err := s.Activities().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, acts, 3)
}

func TestNewerSchemaReseeds(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(KeySchemaVersion, "99"))
	require.NoError(t, kv.Set(KeyBugs, "[]"))

	s := openStore(t, kv)
	bugs, err := s.Bugs().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, bugs, 3)

	v, _, _ := kv.Get(KeySchemaVersion)
	assert.Equal(t, "2", v)
}

func TestLegacySnapshotMigrates(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(KeyProjects, `[
		{"id":"proj-1","name":"Shop","description":"","isActive":true,"dashboards":[]},
		{"id":"proj-9","name":"Old","description":"","isActive":false,"dashboards":[]}
	]`))
	require.NoError(t, kv.Set(KeyBugs, `[
		{"id":"bug-7","name":"Legacy","projectId":"proj-1","reporterId":"demo-user-1",
		 "priority":"high","status":"in-progress","createdAt":"2025-04-01T00:00:00.000Z"}
	]`))

	s := openStore(t, kv)
	ctx := context.Background()

	old, err := s.Projects().Get(ctx, "proj-9")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectArchived, old.Status)
	shop, err := s.Projects().Get(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectActive, shop.Status)
	assert.Len(t, shop.Dashboards, 2)

	b, err := s.Bugs().Get(ctx, "bug-7")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, b.Status)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)
	assert.NotNil(t, b.Files)

	v, _, _ := kv.Get(KeySchemaVersion)
	assert.Equal(t, "2", v)
}

func TestCorruptCollectionKeepsSeed(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(KeySchemaVersion, "2"))
	require.NoError(t, kv.Set(KeyUsers, "{broken"))

	s := openStore(t, kv)
	users, err := s.Users().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestLatencyHonoursCancellation(t *testing.T) {
	s := openStore(t, storage.NewMemory(), WithLatency(time.Hour, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Bugs().List(ctx, model.Filter{})
	assert.True(t, apperr.IsNetwork(err))
}

func TestLoginAndSessions(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := context.Background()

	res, err := s.Login(ctx, model.Credentials{Identifier: "DEMO-ADMIN@example.com", Secret: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
	assert.NotEmpty(t, res.Token)

	u, err := s.Me(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "demo-user-2", u.ID)

	require.NoError(t, s.Logout(ctx, res.Token))
	_, err = s.Me(ctx, res.Token)
	assert.True(t, apperr.IsUnauthorized(err))

	_, err = s.Login(ctx, model.Credentials{Identifier: "nobody@example.com", Secret: "x"})
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestRegisterHashesPassword(t *testing.T) {
	kv := storage.NewMemory()
	s := openStore(t, kv)
	ctx := context.Background()

	res, err := s.Register(ctx, model.Registration{Name: "Alice", Email: "alice@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTester, res.User.Role)
	assert.Equal(t, "alice", res.User.Username)

	_, err = s.Register(ctx, model.Registration{Name: "Alice", Email: "ALICE@example.com", Password: "s3cret!"})
	assert.True(t, apperr.IsValidation(err))

	reloaded := openStore(t, kv)
	_, err = reloaded.Login(ctx, model.Credentials{Identifier: "alice@example.com", Secret: "wrong"})
	assert.True(t, apperr.IsUnauthorized(err))
	_, err = reloaded.Login(ctx, model.Credentials{Identifier: "alice", Secret: "s3cret!"})
	assert.NoError(t, err)
}

func TestUsernamesAreUnique(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := context.Background()

	a, err := s.Register(ctx, model.Registration{Name: "Alice A", Email: "alice@a.com", Password: "s3cret!"})
	require.NoError(t, err)
	b, err := s.Register(ctx, model.Registration{Name: "Alice B", Email: "alice@b.com", Password: "other!!"})
	require.NoError(t, err)
	assert.Equal(t, "alice", a.User.Username)
	assert.Equal(t, "alice2", b.User.Username)

	res, err := s.Login(ctx, model.Credentials{Identifier: "alice2", Secret: "other!!"})
	require.NoError(t, err)
	assert.Equal(t, b.User.ID, res.User.ID)

	for i, name := range []string{"alice", "ALICE2", "demo", "demo@example.com"} {
		_, err = s.Users().Create(as(admin), model.UserInput{
			Name: "Dup", Username: name, Email: string(rune('a'+i)) + "-dup@x.com", Role: model.RoleTester,
		})
		require.Error(t, err, name)
		assert.Equal(t, "Username already taken", apperr.Message(err), name)
	}
}

func TestUserWithoutPasswordCannotLogin(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	_, err := s.Users().Create(as(admin), model.UserInput{Name: "Bob", Email: "bob@example.com", Role: model.RoleDeveloper})
	require.NoError(t, err)
	_, err = s.Login(context.Background(), model.Credentials{Identifier: "bob@example.com", Secret: "x"})
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestDeleteUserDropsSessions(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := context.Background()
	res, err := s.Login(ctx, model.Credentials{Identifier: "demo@example.com", Secret: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(as(admin), "demo-user-1"))
	_, err = s.Me(ctx, res.Token)
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestProjectLifecycle(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := as(admin)

	p, err := s.Projects().Create(ctx, model.ProjectInput{Name: "Mobile App", Dashboards: []string{"Home", " ", "Checkout"}})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectActive, p.Status)
	assert.Equal(t, "demo-user-2", p.CreatedBy)
	assert.Len(t, p.Dashboards, 2)

	p, err = s.Projects().Update(ctx, p.ID, model.ProjectPatch{Status: model.Ptr(model.ProjectCompleted)})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, p.Status)
	assert.Len(t, p.Dashboards, 2)

	require.NoError(t, s.Projects().Delete(ctx, "proj-1"))
	bugs, err := s.Bugs().List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, bugs, 1)
	assert.Equal(t, "bug-3", bugs[0].ID)
}

func TestListFilters(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name string
		f    model.Filter
		want []string
	}{
		{"assignee", model.Filter{AssigneeID: "demo-user-3"}, []string{"bug-2", "bug-3"}},
		{"reporter", model.Filter{ReporterID: "demo-user-2"}, []string{"bug-3"}},
		{"status", model.Filter{Status: model.StatusFixed}, []string{"bug-3"}},
		{"priority and project", model.Filter{Priority: model.PriorityHigh, ProjectID: "proj-1"}, []string{"bug-1"}},
		{"search", model.Filter{Search: "SEARCH"}, []string{"bug-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bugs, err := s.Bugs().List(ctx, tt.f)
			require.NoError(t, err)
			var ids []string
			for _, b := range bugs {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReset(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	require.NoError(t, s.Bugs().Delete(as(admin), "bug-1"))
	require.NoError(t, s.Reset())
	bugs, err := s.Bugs().List(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, bugs, 3)
}
