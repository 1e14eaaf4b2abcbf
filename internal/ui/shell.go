package ui

import (
	"bytes"
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"github.com/yuin/goldmark"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
)

// Routes registers every page. It must run both in the server and in the
// WebAssembly binary.
func Routes() {
	app.Route("/", func() app.Composer { return &home{} })
	app.Route("/login", func() app.Composer { return &loginPage{} })
	app.Route("/register", func() app.Composer { return &registerPage{} })
	app.Route("/dashboard", func() app.Composer { return &dashboardPage{} })
	app.Route("/reports", func() app.Composer { return &reportsPage{} })
	app.Route("/bugs", func() app.Composer { return &bugListPage{} })
	app.Route("/bugs/new", func() app.Composer { return &newBugPage{} })
	app.RouteWithRegexp(`^/bugs/[^/]+$`, func() app.Composer { return &bugPage{} })
	app.Route("/fixes", func() app.Composer { return &fixesPage{} })
	app.Route("/projects", func() app.Composer { return &projectListPage{} })
	app.Route("/projects/new", func() app.Composer { return &newProjectPage{} })
	app.RouteWithRegexp(`^/projects/[^/]+$`, func() app.Composer { return &projectPage{} })
	app.Route("/activity", func() app.Composer { return &activityPage{} })
	app.Route("/users", func() app.Composer { return &usersPage{} })
	app.Route("/settings", func() app.Composer { return &settingsPage{} })
	app.Route("/profile", func() app.Composer { return &profilePage{} })
}

// enter restores the session and evaluates the route gate for the current
// page. Denied visits are redirected before ready runs.
func enter(ctx app.Context, ready func(ctx app.Context, e *Env, u *model.User)) {
	path := ctx.Page().URL().Path
	e := Runtime()
	ctx.Async(func() {
		u := e.User(context.Background())
		ctx.Dispatch(func(ctx app.Context) {
			if d, target := gate.Guard(path, u); d != gate.Allow {
				logger.Debugf("%s: %s", path, d)
				ctx.Navigate(target)
				return
			}
			ready(ctx, e, u)
		})
	})
}

// watch calls sync now and after every tracker change, and starts a refresh.
func watch(ctx app.Context, e *Env, sync func()) (cancel func()) {
	cancel = e.Tracker.Subscribe(func() {
		ctx.Dispatch(func(app.Context) { sync() })
	})
	sync()
	ctx.Async(func() { _ = e.Tracker.Refresh(context.Background()) })
	return cancel
}

func logout(ctx app.Context, _ app.Event) {
	e := Runtime()
	ctx.Async(func() {
		e.Session.Logout(context.Background())
		ctx.Dispatch(func(ctx app.Context) { ctx.Navigate(gate.LoginPath) })
	})
}

type navLink struct{ path, label string }

var navLinks = []navLink{
	{"/dashboard", "Dashboard"},
	{"/projects", "Projects"},
	{"/bugs", "Bugs"},
	{"/fixes", "My Fixes"},
	{"/activity", "Activity"},
	{"/reports", "Reports"},
	{"/users", "Users"},
	{"/settings", "Settings"},
}

// menu lists the links u may open.
func menu(u *model.User) []navLink {
	var out []navLink
	for _, l := range navLinks {
		if d, _ := gate.Guard(l.path, u); d == gate.Allow {
			out = append(out, l)
		}
	}
	return out
}

// shell wraps a page in the navigation bar.
func shell(u *model.User, title string, body ...app.UI) app.UI {
	var links []app.UI
	for _, l := range menu(u) {
		links = append(links, app.A().Href(l.path).Text(l.label))
	}
	return app.Div().Class("layout").Body(
		app.Nav().Class("sidebar").Body(
			app.Div().Class("brand").Text("BugRacer"),
			app.Div().Class("nav-links").Body(links...),
			app.If(u != nil, func() app.UI {
				return app.Div().Class("nav-user").Body(
					app.A().Href("/profile").Body(
						app.Img().Class("avatar").Src(u.Avatar).Alt(u.Name),
						app.Span().Text(u.Name),
					),
					app.Span().Class("role").Text(u.Role.Title()),
					app.Button().Class("link").Text("Sign out").OnClick(logout),
				)
			}),
		),
		app.Main().Class("content").Body(
			app.H1().Text(title),
			app.Div().Body(body...),
		),
	)
}

func errorBox(msg string) app.UI {
	return app.If(msg != "", func() app.UI {
		return app.Div().Class("error").Text(msg)
	})
}

func loading(on bool) app.UI {
	return app.If(on, func() app.UI {
		return app.Div().Class("loading").Text("Loading...")
	})
}

func statusBadge(s model.BugStatus) app.UI {
	return app.Span().Class("badge status-" + string(s)).Text(s.Label())
}

func priorityBadge(p model.BugPriority) app.UI {
	return app.Span().Class("badge priority-" + string(p)).Text(string(p))
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return apperr.Message(err)
}

// markdown renders bug descriptions. Raw HTML in the source is dropped.
func markdown(src string) app.UI {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return app.P().Text(src)
	}
	return app.Raw(`<div class="markdown">` + buf.String() + `</div>`)
}

func value(ctx app.Context) string { return ctx.JSSrc().Get("value").String() }

type home struct {
	app.Compo
}

func (h *home) OnNav(ctx app.Context) {
	enter(ctx, func(ctx app.Context, _ *Env, _ *model.User) {
		ctx.Navigate(gate.DefaultPath)
	})
}

func (h *home) Render() app.UI {
	return loading(true)
}
