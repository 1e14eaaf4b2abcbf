package ui

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/stats"
)

type projectListPage struct {
	app.Compo

	user   *model.User
	rows   []stats.ProjectStats
	err    string
	cancel func()
}

func (p *projectListPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Projects | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user = u
		p.cancel = watch(ctx, e, func() {
			p.rows = stats.PerProject(e.Tracker.Visible(model.Filter{}), e.Tracker.Projects())
			p.err = message(e.Tracker.Err())
		})
	})
}

func (p *projectListPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *projectListPage) Render() app.UI {
	return shell(p.user, "Projects",
		errorBox(p.err),
		app.If(gate.Can(p.user, gate.ManageProjects), func() app.UI {
			return app.A().Class("button").Href("/projects/new").Text("New project")
		}),
		app.Div().Class("cards").Body(
			app.Range(p.rows).Slice(func(i int) app.UI {
				r := p.rows[i]
				return app.A().Class("card").Href("/projects/"+r.ProjectID).Body(
					app.Div().Class("card-label").Text(r.ProjectName),
					app.Div().Class("card-value").Text(strconv.Itoa(r.TotalBugs)+" bugs"),
					app.Div().Class("card-detail").Text(strconv.Itoa(r.FixedBugs)+" fixed, "+strconv.Itoa(r.PendingBugs)+" pending"),
				)
			}),
		),
	)
}

type projectPage struct {
	app.Compo

	user    *model.User
	env     *Env
	id      string
	project model.Project
	found   bool
	bugs    []model.Bug
	busy    bool
	err     string
	cancel  func()
}

func (p *projectPage) OnNav(ctx app.Context) {
	p.id = path.Base(ctx.Page().URL().Path)
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.cancel = watch(ctx, e, func() {
			p.project, p.found = e.Tracker.ProjectByID(p.id)
			p.bugs = e.Tracker.Visible(model.Filter{ProjectID: p.id})
			if p.found {
				ctx.Page().SetTitle(p.project.Name + " | BugRacer")
			}
		})
	})
}

func (p *projectPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *projectPage) setStatus(s model.ProjectStatus) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if p.busy {
			return
		}
		p.busy, p.err = true, ""
		env, id := p.env, p.id
		ctx.Async(func() {
			c := env.Session.Context(context.Background())
			_, err := env.Source.Projects().Update(c, id, model.ProjectPatch{Status: &s})
			if err == nil {
				_ = env.Tracker.Refresh(context.Background())
			}
			ctx.Dispatch(func(app.Context) {
				p.busy = false
				p.err = message(err)
			})
		})
	}
}

func (p *projectPage) Render() app.UI {
	if !p.found {
		return shell(p.user, "Project", loading(p.env == nil || p.env.Tracker.Loading()))
	}
	dashboards := make([]app.UI, 0, len(p.project.Dashboards))
	for _, d := range p.project.Dashboards {
		dashboards = append(dashboards, app.Li().Text(d.Name))
	}
	return shell(p.user, p.project.Name,
		errorBox(p.err),
		app.P().Text(p.project.Description),
		app.Div().Class("meta").Body(
			app.Span().Class("badge").Text(string(p.project.Status)),
			app.Span().Class("when").Text("created "+ago(p.project.CreatedAt)),
		),
		app.If(gate.Can(p.user, gate.ManageProjects), func() app.UI {
			buttons := make([]app.UI, 0, 3)
			for _, s := range []model.ProjectStatus{model.ProjectActive, model.ProjectCompleted, model.ProjectArchived} {
				buttons = append(buttons, app.Button().
					Disabled(p.busy || s == p.project.Status).
					Text("Mark "+string(s)).
					OnClick(p.setStatus(s)))
			}
			return app.Div().Class("actions").Body(buttons...)
		}),
		app.H2().Text("Dashboards"),
		app.Ul().Body(dashboards...),
		app.H2().Text("Bugs"),
		bugTable(p.bugs, func(string) string { return p.project.Name }),
	)
}

type newProjectPage struct {
	app.Compo

	user       *model.User
	env        *Env
	in         model.ProjectInput
	dashboards string
	busy       bool
	err        string
}

func (p *newProjectPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("New project | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
	})
}

func (p *newProjectPage) submit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.busy || p.env == nil {
		return
	}
	in := p.in
	in.Dashboards = nil
	for _, name := range strings.Split(p.dashboards, ",") {
		if name = strings.TrimSpace(name); name != "" {
			in.Dashboards = append(in.Dashboards, name)
		}
	}
	p.busy, p.err = true, ""
	env := p.env
	ctx.Async(func() {
		created, err := env.Source.Projects().Create(env.Session.Context(context.Background()), in)
		if err == nil {
			_ = env.Tracker.Refresh(context.Background())
		}
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			ctx.Navigate("/projects/" + created.ID)
		})
	})
}

func (p *newProjectPage) Render() app.UI {
	return shell(p.user, "New project",
		errorBox(p.err),
		app.Form().OnSubmit(p.submit).Body(
			app.Label().Text("Name"),
			app.Input().Type("text").Value(p.in.Name).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Name = value(ctx) }),
			app.Label().Text("Description"),
			app.Textarea().Rows(4).Text(p.in.Description).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Description = value(ctx) }),
			app.Label().Text("Dashboards (comma separated)"),
			app.Input().Type("text").Value(p.dashboards).
				OnInput(func(ctx app.Context, e app.Event) { p.dashboards = value(ctx) }),
			app.Button().Type("submit").Disabled(p.busy).Text("Create project"),
		),
	)
}
