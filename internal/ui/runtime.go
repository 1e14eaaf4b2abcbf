// Package ui is the browser front end, built with go-app. The same
// components are registered on the server (for prerendering) and in the
// WebAssembly binary under app/.
package ui

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/auth"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/client"
	"github.com/kidandcat/bugracer/internal/localstore"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
	"github.com/kidandcat/bugracer/internal/tracker"
)

// Browser environment keys, set on the server's app.Handler.
const (
	EnvAPIURL  = "BUGRACER_API_URL"
	EnvMode    = "BUGRACER_MODE"
	EnvLayout  = "BUGRACER_LAYOUT"
	EnvDemo    = "BUGRACER_DEMO"
	EnvLatency = "BUGRACER_LATENCY"
)

// Env is the client state shared by every page.
type Env struct {
	Source  backend.Source
	Session *auth.Store
	Tracker *tracker.Tracker
	KV      storage.Storage

	restoreOnce sync.Once
}

var (
	envOnce sync.Once
	env     *Env
)

// Runtime returns the shared Env, building it on first use from the
// handler environment.
func Runtime() *Env {
	envOnce.Do(func() {
		env = newEnv(LocalStorage{}, app.Getenv)
	})
	return env
}

func newEnv(kv storage.Storage, getenv func(string) string) *Env {
	e := &Env{KV: kv}
	demo, _ := strconv.ParseBool(getenv(EnvDemo))

	if getenv(EnvMode) == "local" {
		read, write := 300*time.Millisecond, 500*time.Millisecond
		if d, err := time.ParseDuration(getenv(EnvLatency)); err == nil {
			read, write = d, d
		}
		ls, err := localstore.Open(kv, localstore.WithLatency(read, write))
		if err != nil {
			logger.Errorf("local store: %v", err)
		} else {
			e.Source = ls
			e.Session = auth.New(ls, kv, auth.WithDemo(demo))
		}
	}
	if e.Source == nil {
		apiURL := getenv(EnvAPIURL)
		if apiURL == "" {
			logger.Warningf("%s is not set, using /api", EnvAPIURL)
			apiURL = "/api"
		}
		layout, err := client.ParseLayout(getenv(EnvLayout))
		if err != nil {
			logger.Warningf("%v, using rest", err)
		}
		var sess *auth.Store
		c := client.New(apiURL, client.WithLayout(layout), client.WithTokenSource(func() string { return sess.Token() }))
		sess = auth.New(c, kv, auth.WithDemo(demo))
		e.Source, e.Session = c, sess
	}

	e.Tracker = tracker.New(e.Source, e.Session)
	e.Session.Subscribe(func(st auth.State) {
		if !st.Authenticated() {
			e.Tracker.Reset()
		}
	})
	return e
}

// User restores the persisted session on first call and returns the
// signed-in user, or nil.
func (e *Env) User(ctx context.Context) *model.User {
	e.restoreOnce.Do(func() {
		if e.Session.Current() == nil {
			e.Session.CheckSession(ctx)
		}
	})
	return e.Session.Current()
}
