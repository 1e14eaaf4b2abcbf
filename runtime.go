package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/auth"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/client"
	"github.com/kidandcat/bugracer/internal/config"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/localstore"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
	"github.com/kidandcat/bugracer/internal/tracker"
)

// runtime is what every command works with: the resolved configuration,
// durable storage, the data source and the session.
type runtime struct {
	cfg  config.Config
	kv   *storage.SQLite
	src  backend.Source
	sess *auth.Store
}

func setup(c *cli.Command) (*runtime, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("layout") {
		cfg.Layout = c.String("layout")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.InitLogger(level, "")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, err := storage.OpenSQLite(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, kv: kv}
	if cfg.Mode == config.ModeLocal {
		store, err := localstore.Open(kv, localstore.WithLatency(cfg.Latency, cfg.Latency))
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		rt.src = store
		rt.sess = auth.New(store, kv, auth.WithDemo(cfg.Demo))
		return rt, nil
	}

	layout, err := client.ParseLayout(cfg.Layout)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	rt.src = client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLayout(layout),
		client.WithTokenSource(func() string { return rt.sess.Token() }),
	)
	rt.sess = auth.New(rt.src, kv, auth.WithDemo(cfg.Demo))
	return rt, nil
}

func (rt *runtime) Close() {
	if err := rt.kv.Close(); err != nil {
		logger.Warningf("close storage: %v", err)
	}
}

// enter restores the session and evaluates the role gate for route, the
// web page the command corresponds to.
func (rt *runtime) enter(ctx context.Context, route string) (*model.User, error) {
	u := rt.sess.CheckSession(ctx)
	switch d, _ := gate.Guard(route, u); d {
	case gate.Allow:
		return u, nil
	case gate.RedirectToLogin:
		return nil, apperr.New(apperr.Unauthorized, route, "not signed in, run `bugracer login` first")
	default:
		return nil, apperr.Newf(apperr.Unauthorized, route, "the %s role cannot open %s", u.Role, route)
	}
}

// ctx returns ctx carrying the signed-in user as the acting user.
func (rt *runtime) ctx(ctx context.Context) context.Context {
	return rt.sess.Context(ctx)
}

// tracker returns a loaded view of bugs and projects for the session.
func (rt *runtime) tracker(ctx context.Context) (*tracker.Tracker, error) {
	t := tracker.New(rt.src, rt.sess)
	if err := t.Refresh(ctx); err != nil {
		return nil, err
	}
	return t, nil
}
