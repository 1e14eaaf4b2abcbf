package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidandcat/bugracer/internal/client"
	"github.com/kidandcat/bugracer/internal/localstore"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

func getenv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLocalRuntime(t *testing.T) {
	kv := storage.NewMemory()
	vars := getenv(map[string]string{EnvMode: "local", EnvLatency: "0s"})
	ctx := context.Background()

	e := newEnv(kv, vars)
	require.IsType(t, &localstore.Store{}, e.Source)
	assert.Nil(t, e.User(ctx))

	_, err := e.Session.Login(ctx, "demo-dev@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, e.Tracker.Refresh(ctx))
	assert.Len(t, e.Tracker.Visible(model.Filter{}), 2)

	restored := newEnv(kv, vars)
	u := restored.User(ctx)
	require.NotNil(t, u, "session restored from storage")
	assert.Equal(t, "demo-user-3", u.ID)

	restored.Session.Logout(ctx)
	assert.Empty(t, restored.Tracker.Bugs())
}

func TestLogoutResetsTracker(t *testing.T) {
	ctx := context.Background()
	e := newEnv(storage.NewMemory(), getenv(map[string]string{EnvMode: "local", EnvLatency: "0s"}))
	_, err := e.Session.Login(ctx, "demo-admin@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, e.Tracker.Refresh(ctx))
	require.NotEmpty(t, e.Tracker.Bugs())

	e.Session.Logout(ctx)
	assert.Empty(t, e.Tracker.Bugs())
	assert.Empty(t, e.Tracker.Projects())
}

func TestRemoteRuntime(t *testing.T) {
	e := newEnv(storage.NewMemory(), getenv(map[string]string{EnvLayout: "php"}))
	assert.IsType(t, &client.Client{}, e.Source)
	assert.Nil(t, e.Session.Current())
}

func TestLocalStorageOutsideBrowser(t *testing.T) {
	var ls LocalStorage
	_, ok, err := ls.Get("k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, ls.Set("k", "v"), errNoLocalStorage)
	assert.ErrorIs(t, ls.Delete("k"), errNoLocalStorage)
}

func TestMenu(t *testing.T) {
	paths := func(u *model.User) []string {
		var out []string
		for _, l := range menu(u) {
			out = append(out, l.path)
		}
		return out
	}
	assert.Empty(t, paths(nil))
	assert.Contains(t, paths(&model.User{Role: model.RoleAdmin}), "/users")
	assert.Contains(t, paths(&model.User{Role: model.RoleDeveloper}), "/fixes")
	tester := paths(&model.User{Role: model.RoleTester})
	assert.NotContains(t, tester, "/fixes")
	assert.NotContains(t, tester, "/settings")
	assert.Contains(t, tester, "/bugs")
}
