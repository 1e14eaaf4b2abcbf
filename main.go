package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"github.com/urfave/cli/v3"

	"github.com/kidandcat/bugracer/internal/api"
	"github.com/kidandcat/bugracer/internal/config"
	"github.com/kidandcat/bugracer/internal/localstore"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/ui"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	if err := newRoot().Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRoot() *cli.Command {
	return &cli.Command{
		Name:  "bugracer",
		Usage: "Bug tracking dashboard: development server and command line client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file (default ~/.bugracer/config.yaml)"},
			&cli.StringFlag{Name: "api-url", Usage: "backend base URL, e.g. https://bugs.example.com/api"},
			&cli.StringFlag{Name: "mode", Usage: "data source: remote or local"},
			&cli.StringFlag{Name: "layout", Usage: "backend endpoint layout: rest or php"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for the session and local data"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, notice, warning or error"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			bugsCommand(),
			projectsCommand(),
			usersCommand(),
			activityCommand(),
			statsCommand(),
			settingsCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development backend and the web front end",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (default from config, :8080)"},
			&cli.StringFlag{Name: "web", Value: ".", Usage: "directory containing web/app.wasm and web/app.css"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			addr := rt.cfg.Addr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			return runServer(ctx, rt, addr, c.String("web"))
		},
	}
}

// runServer serves the REST backend from the local store under /api and
// the go-app front end everywhere else.
func runServer(ctx context.Context, rt *runtime, addr, webRoot string) error {
	store, ok := rt.src.(*localstore.Store)
	if !ok {
		var err error
		if store, err = localstore.Open(rt.kv, localstore.WithLatency(rt.cfg.Latency, rt.cfg.Latency)); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, store)

	ui.Routes()
	mux.Handle("/", ui.Handler(webRoot, app.Environment{
		ui.EnvAPIURL: "/api",
		ui.EnvMode:   config.ModeRemote,
		ui.EnvLayout: rt.cfg.Layout,
		ui.EnvDemo:   fmt.Sprint(rt.cfg.Demo),
	}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Infof("received signal %s, shutting down", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
