// Package auth holds the client session: the current user and bearer token,
// persisted to durable storage and observable by the view layer.
package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

// TokenKey is the storage key the bearer token is persisted under.
const TokenKey = "auth_token"

// OfflineUserID identifies the synthetic user of an offline demo login.
const OfflineUserID = "offline-user"

// State is a snapshot of the session. A nil User means anonymous.
type State struct {
	User    *model.User
	Token   string
	Offline bool
}

func (s State) Authenticated() bool {
	return s.User != nil
}

type Option func(*Store)

// WithDemo enables offline demo logins when the authenticator is unreachable.
func WithDemo(enabled bool) Option {
	return func(s *Store) { s.demo = enabled }
}

// Store is the session store. It is safe for concurrent use; listeners are
// called synchronously after every state change, outside the lock.
type Store struct {
	auth backend.Authenticator
	kv   storage.Storage
	demo bool

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func New(a backend.Authenticator, kv storage.Storage, opts ...Option) *Store {
	s := &Store{
		auth:      a,
		kv:        kv,
		listeners: make(map[int]func(State)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login authenticates and, on success, persists the token and sets the
// current user. On failure the previous session is left untouched.
func (s *Store) Login(ctx context.Context, identifier, secret string) (*model.User, error) {
	creds := model.Credentials{Identifier: strings.TrimSpace(identifier), Secret: secret}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		if s.demo && apperr.IsNetwork(err) && strings.Contains(strings.ToLower(creds.Identifier), "demo") {
			return s.offlineLogin(creds.Identifier), nil
		}
		logger.Debugf("login %s failed: %v", creds.Identifier, err)
		return nil, err
	}
	return s.establish("session.login", res)
}

func (s *Store) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.establish("session.register", res)
}

func (s *Store) establish(op string, res *model.AuthResult) (*model.User, error) {
	if res == nil || res.Token == "" {
		return nil, apperr.New(apperr.Server, op, "authentication response did not include a token")
	}
	if err := s.kv.Set(TokenKey, res.Token); err != nil {
		return nil, apperr.Wrap(apperr.Unknown, op, err)
	}
	u := res.User.WithAvatar()
	s.set(State{User: &u, Token: res.Token})
	logger.Infof("signed in as %s (%s)", u.Email, u.Role)
	return cloneUser(&u), nil
}

func (s *Store) offlineLogin(identifier string) *model.User {
	role := model.RoleTester
	if strings.Contains(strings.ToLower(identifier), "admin") {
		role = model.RoleAdmin
	}
	u := model.User{
		ID:       OfflineUserID,
		Name:     "Demo User",
		Username: identifier,
		Email:    identifier,
		Role:     role,
	}.WithAvatar()
	if err := s.kv.Delete(TokenKey); err != nil {
		logger.Warningf("clear persisted token: %v", err)
	}
	s.set(State{User: &u, Offline: true})
	logger.Warningf("backend unreachable, signed in %s offline as %s", identifier, role)
	return cloneUser(&u)
}

// Logout clears the session. It never fails; token revocation is best effort.
func (s *Store) Logout(ctx context.Context) {
	token := s.Token()
	if err := s.kv.Delete(TokenKey); err != nil {
		logger.Warningf("clear persisted token: %v", err)
	}
	s.set(State{})

	if r, ok := s.auth.(backend.Revoker); ok && token != "" {
		if err := r.Logout(ctx, token); err != nil {
			logger.Debugf("revoke token: %v", err)
		}
	}
}

// CheckSession restores the session from the persisted token. Any failure
// clears the token and leaves the session anonymous; nothing is retried.
func (s *Store) CheckSession(ctx context.Context) *model.User {
	token, ok, err := s.kv.Get(TokenKey)
	if err != nil || !ok || token == "" {
		if err != nil {
			logger.Warningf("read persisted token: %v", err)
		}
		s.set(State{})
		return nil
	}

	u, err := s.auth.Me(ctx, token)
	if err != nil || u == nil {
		logger.Debugf("persisted session rejected: %v", err)
		if err := s.kv.Delete(TokenKey); err != nil {
			logger.Warningf("clear persisted token: %v", err)
		}
		s.set(State{})
		return nil
	}

	user := u.WithAvatar()
	s.set(State{User: &user, Token: token})
	return cloneUser(&user)
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.User = cloneUser(st.User)
	return st
}

// Current returns a copy of the current user, or nil.
func (s *Store) Current() *model.User {
	return s.State().User
}

// Token returns the bearer token, empty when anonymous or offline.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Context returns ctx carrying the current user as the acting user.
func (s *Store) Context(ctx context.Context) context.Context {
	return model.WithUser(ctx, s.Current())
}

// Subscribe registers fn for state changes and returns a cancel func.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	snap := st
	for _, fn := range fns {
		snap.User = cloneUser(st.User)
		fn(snap)
	}
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
