package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

type fakeAuth struct {
	users    map[string]model.User // token -> user
	loginErr error
	calls    int
	revoked  []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]model.User{
		"tok-admin": {ID: "demo-user-2", Name: "Demo Admin", Email: "demo-admin@example.com", Role: model.RoleAdmin},
	}}
}

func (f *fakeAuth) Login(_ context.Context, c model.Credentials) (*model.AuthResult, error) {
	f.calls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if c.Identifier != "demo-admin@example.com" || c.Secret != "secret" {
		return nil, apperr.New(apperr.Unauthorized, "login", "Invalid email or password")
	}
	return &model.AuthResult{User: f.users["tok-admin"], Token: "tok-admin"}, nil
}

func (f *fakeAuth) Register(_ context.Context, r model.Registration) (*model.AuthResult, error) {
	f.calls++
	u := model.User{ID: "user-new", Name: r.Name, Email: r.Email, Role: model.RoleTester}
	f.users["tok-new"] = u
	return &model.AuthResult{User: u, Token: "tok-new"}, nil
}

func (f *fakeAuth) Me(_ context.Context, token string) (*model.User, error) {
	f.calls++
	u, ok := f.users[token]
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "me", "invalid token")
	}
	return &u, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func TestLoginPersistsToken(t *testing.T) {
	kv := storage.NewMemory()
	s := New(newFakeAuth(), kv)

	u, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.NotEmpty(t, u.Avatar)

	tok, ok, _ := kv.Get(TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-admin", tok)
	assert.Equal(t, "tok-admin", s.Token())
	assert.True(t, s.State().Authenticated())
}

func TestFailedLoginLeavesStateUntouched(t *testing.T) {
	kv := storage.NewMemory()
	s := New(newFakeAuth(), kv)
	_, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)
	before := s.State()

	for i := 0; i < 3; i++ {
		_, err = s.Login(context.Background(), "demo-admin@example.com", "wrong")
		assert.True(t, apperr.IsUnauthorized(err))
		assert.Equal(t, before, s.State())
	}
	tok, _, _ := kv.Get(TokenKey)
	assert.Equal(t, "tok-admin", tok)
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	fa := newFakeAuth()
	s := New(fa, storage.NewMemory())
	_, err := s.Login(context.Background(), "  ", "")
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, fa.calls)
}

func TestLogoutIsIdempotent(t *testing.T) {
	fa := newFakeAuth()
	kv := storage.NewMemory()
	s := New(fa, kv)
	_, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)

	s.Logout(context.Background())
	assert.Nil(t, s.Current())
	_, ok, _ := kv.Get(TokenKey)
	assert.False(t, ok)
	assert.Equal(t, []string{"tok-admin"}, fa.revoked)

	s.Logout(context.Background())
	assert.Nil(t, s.Current())
	assert.Equal(t, []string{"tok-admin"}, fa.revoked)
}

func TestCheckSession(t *testing.T) {
	fa := newFakeAuth()
	kv := storage.NewMemory()

	s := New(fa, kv)
	assert.Nil(t, s.CheckSession(context.Background()))

	require.NoError(t, kv.Set(TokenKey, "tok-admin"))
	u := s.CheckSession(context.Background())
	require.NotNil(t, u)
	assert.Equal(t, "demo-user-2", u.ID)
	assert.Equal(t, "tok-admin", s.Token())

	require.NoError(t, kv.Set(TokenKey, "stale"))
	assert.Nil(t, s.CheckSession(context.Background()))
	assert.Nil(t, s.Current())
	_, ok, _ := kv.Get(TokenKey)
	assert.False(t, ok, "rejected token is cleared")
}

func TestOfflineDemoLogin(t *testing.T) {
	fa := newFakeAuth()
	kv := storage.NewMemory()

	s := New(fa, kv, WithDemo(true))
	_, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)
	tok, ok, _ := kv.Get(TokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok-admin", tok)

	fa.loginErr = apperr.New(apperr.Network, "login", "unreachable")
	u, err := s.Login(context.Background(), "demo-admin@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, OfflineUserID, u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.True(t, s.State().Offline)
	assert.Empty(t, s.Token())
	_, ok, _ = kv.Get(TokenKey)
	assert.False(t, ok, "previous session token dropped")
	assert.Nil(t, New(fa, kv).CheckSession(context.Background()))

	u, err = s.Login(context.Background(), "demo@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTester, u.Role)

	_, err = s.Login(context.Background(), "alice@example.com", "anything")
	assert.True(t, apperr.IsNetwork(err))

	strict := New(fa, storage.NewMemory())
	_, err = strict.Login(context.Background(), "demo@example.com", "anything")
	assert.True(t, apperr.IsNetwork(err))
	assert.Nil(t, strict.Current())
}

func TestRegister(t *testing.T) {
	s := New(newFakeAuth(), storage.NewMemory())
	_, err := s.Register(context.Background(), model.Registration{Name: "N", Email: "bad", Password: "123456"})
	assert.True(t, apperr.IsValidation(err))

	u, err := s.Register(context.Background(), model.Registration{Name: "New", Email: "new@example.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "user-new", u.ID)
	assert.Equal(t, "tok-new", s.Token())
}

func TestSubscribe(t *testing.T) {
	s := New(newFakeAuth(), storage.NewMemory())
	var seen []bool
	cancel := s.Subscribe(func(st State) { seen = append(seen, st.Authenticated()) })

	_, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)
	s.Logout(context.Background())
	cancel()
	_, err = s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, seen)
}

func TestContextCarriesUser(t *testing.T) {
	s := New(newFakeAuth(), storage.NewMemory())
	assert.Nil(t, model.UserFrom(s.Context(context.Background())))
	_, err := s.Login(context.Background(), "demo-admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "demo-user-2", model.UserFrom(s.Context(context.Background())).ID)
}
