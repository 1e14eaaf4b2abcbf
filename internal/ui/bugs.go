package ui

import (
	"context"
	"path"
	"slices"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/model"
)

func bugTable(bugs []model.Bug, projectName func(string) string) app.UI {
	if len(bugs) == 0 {
		return app.P().Class("empty").Text("No bugs found.")
	}
	return app.Table().Class("bugs").Body(
		app.THead().Body(app.Tr().Body(
			app.Th().Text("Bug"), app.Th().Text("Project"), app.Th().Text("Priority"),
			app.Th().Text("Status"), app.Th().Text("Updated"),
		)),
		app.TBody().Body(
			app.Range(bugs).Slice(func(i int) app.UI {
				b := bugs[i]
				return app.Tr().Body(
					app.Td().Body(app.A().Href("/bugs/"+b.ID).Text(b.Name)),
					app.Td().Text(projectName(b.ProjectID)),
					app.Td().Body(priorityBadge(b.Priority)),
					app.Td().Body(statusBadge(b.Status)),
					app.Td().Text(ago(b.UpdatedAt)),
				)
			}),
		),
	)
}

func projectNamer(e *Env) func(string) string {
	return func(id string) string {
		if p, ok := e.Tracker.ProjectByID(id); ok {
			return p.Name
		}
		return id
	}
}

type bugListPage struct {
	app.Compo

	user    *model.User
	env     *Env
	filter  model.Filter
	bugs    []model.Bug
	loading bool
	err     string
	cancel  func()
}

func (p *bugListPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Bugs | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.cancel = watch(ctx, e, p.sync)
	})
}

func (p *bugListPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *bugListPage) sync() {
	p.bugs = p.env.Tracker.Visible(p.filter)
	p.loading = p.env.Tracker.Loading()
	p.err = message(p.env.Tracker.Err())
}

func (p *bugListPage) Render() app.UI {
	if p.env == nil {
		return shell(p.user, "Bugs", loading(true))
	}
	statuses := []app.UI{app.Option().Value("").Text("All statuses")}
	for _, s := range model.Statuses {
		statuses = append(statuses, app.Option().Value(string(s)).Selected(p.filter.Status == s).Text(s.Label()))
	}
	priorities := []app.UI{app.Option().Value("").Text("All priorities")}
	for _, pr := range model.Priorities {
		priorities = append(priorities, app.Option().Value(string(pr)).Selected(p.filter.Priority == pr).Text(string(pr)))
	}

	return shell(p.user, "Bugs",
		app.Div().Class("toolbar").Body(
			app.Input().Type("search").Placeholder("Search bugs").Value(p.filter.Search).
				OnInput(func(ctx app.Context, e app.Event) {
					p.filter.Search = value(ctx)
					p.sync()
				}),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.filter.Status = model.BugStatus(value(ctx))
				p.sync()
			}).Body(statuses...),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.filter.Priority = model.BugPriority(value(ctx))
				p.sync()
			}).Body(priorities...),
			app.If(gate.Can(p.user, gate.CreateBug), func() app.UI {
				return app.A().Class("button").Href("/bugs/new").Text("Report bug")
			}),
		),
		loading(p.loading),
		errorBox(p.err),
		bugTable(p.bugs, projectNamer(p.env)),
	)
}

// fixesPage lists the bugs assigned to the signed-in user.
type fixesPage struct {
	app.Compo

	user   *model.User
	env    *Env
	bugs   []model.Bug
	cancel func()
}

func (p *fixesPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("My Fixes | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.cancel = watch(ctx, e, func() { p.bugs = e.Tracker.ByAssignee(u.ID) })
	})
}

func (p *fixesPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *fixesPage) Render() app.UI {
	if p.env == nil {
		return shell(p.user, "My Fixes", loading(true))
	}
	return shell(p.user, "My Fixes", bugTable(p.bugs, projectNamer(p.env)))
}

type bugPage struct {
	app.Compo

	user       *model.User
	env        *Env
	id         string
	bug        model.Bug
	found      bool
	project    model.Project
	developers []model.User
	busy       bool
	err        string
	cancel     func()
}

func (p *bugPage) OnNav(ctx app.Context) {
	p.id = path.Base(ctx.Page().URL().Path)
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.cancel = watch(ctx, e, func() {
			p.bug, p.found = e.Tracker.BugByID(p.id)
			p.found = p.found && gate.Visible(u, p.bug)
			p.project, _ = e.Tracker.ProjectByID(p.bug.ProjectID)
			if p.found {
				ctx.Page().SetTitle(p.bug.Name + " | BugRacer")
			}
		})
		if gate.Can(u, gate.AssignBug) {
			ctx.Async(func() {
				users, err := e.Source.Users().List(e.Session.Context(context.Background()), model.Filter{})
				ctx.Dispatch(func(app.Context) {
					if err != nil {
						p.err = message(err)
						return
					}
					p.developers = slices.DeleteFunc(users, func(u model.User) bool { return u.Role != model.RoleDeveloper })
				})
			})
		}
	})
}

func (p *bugPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

// run performs a tracker mutation off the UI goroutine. The tracker updates
// the page through the subscription; only the error is handled here.
func (p *bugPage) run(ctx app.Context, fn func(context.Context) error, after func(ctx app.Context)) {
	if p.busy {
		return
	}
	p.busy, p.err = true, ""
	ctx.Async(func() {
		err := fn(context.Background())
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			if after != nil {
				after(ctx)
			}
		})
	})
}

func (p *bugPage) setStatus(s model.BugStatus) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		p.run(ctx, func(c context.Context) error {
			_, err := p.env.Tracker.UpdateStatus(c, p.id, s)
			return err
		}, nil)
	}
}

func (p *bugPage) assign(ctx app.Context, e app.Event) {
	assignee := value(ctx)
	p.run(ctx, func(c context.Context) error {
		_, err := p.env.Tracker.Assign(c, p.id, assignee)
		return err
	}, nil)
}

func (p *bugPage) remove(ctx app.Context, e app.Event) {
	if !app.Window().Call("confirm", "Delete this bug?").Bool() {
		return
	}
	p.run(ctx, func(c context.Context) error {
		return p.env.Tracker.DeleteBug(c, p.id)
	}, func(ctx app.Context) { ctx.Navigate("/bugs") })
}

func (p *bugPage) Render() app.UI {
	if !p.found {
		return shell(p.user, "Bug", loading(p.env == nil || p.env.Tracker.Loading()),
			app.If(p.env != nil && !p.env.Tracker.Loading(), func() app.UI {
				return app.P().Class("empty").Text("Bug not found.")
			}),
		)
	}
	b := p.bug

	dashboards := make([]app.UI, 0, len(b.AffectedDashboards))
	for _, id := range b.AffectedDashboards {
		name := id
		if d, ok := p.env.Tracker.DashboardByID(id); ok {
			name = d.Name
		}
		dashboards = append(dashboards, app.Li().Text(name))
	}

	return shell(p.user, b.Name,
		errorBox(p.err),
		app.Div().Class("meta").Body(
			statusBadge(b.Status),
			priorityBadge(b.Priority),
			app.A().Href("/projects/"+p.project.ID).Text(p.project.Name),
			app.Span().Class("when").Text("reported "+ago(b.CreatedAt)),
		),
		markdown(b.Description),
		app.If(len(dashboards) > 0, func() app.UI {
			return app.Div().Body(app.H3().Text("Affected dashboards"), app.Ul().Body(dashboards...))
		}),
		app.If(gate.Can(p.user, gate.UpdateBugStatus), func() app.UI {
			buttons := make([]app.UI, 0, len(model.Statuses))
			for _, s := range model.Statuses {
				buttons = append(buttons, app.Button().
					Disabled(p.busy || s == b.Status).
					Text(s.Label()).
					OnClick(p.setStatus(s)))
			}
			return app.Div().Class("actions").Body(buttons...)
		}),
		app.If(gate.Can(p.user, gate.AssignBug), func() app.UI {
			opts := []app.UI{app.Option().Value("").Text("Unassigned")}
			for _, d := range p.developers {
				opts = append(opts, app.Option().Value(d.ID).Selected(d.ID == b.AssigneeID).Text(d.Name))
			}
			return app.Div().Class("actions").Body(
				app.Label().Text("Assignee"),
				app.Select().Disabled(p.busy).OnChange(p.assign).Body(opts...),
			)
		}),
		app.If(gate.Can(p.user, gate.DeleteBug), func() app.UI {
			return app.Button().Class("danger").Disabled(p.busy).Text("Delete bug").OnClick(p.remove)
		}),
	)
}

type newBugPage struct {
	app.Compo

	user     *model.User
	env      *Env
	projects []model.Project
	in       model.BugInput
	busy     bool
	err      string
	cancel   func()
}

func (p *newBugPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Report bug | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.in.Priority = model.PriorityMedium
		p.cancel = watch(ctx, e, func() { p.projects = e.Tracker.Projects() })
	})
}

func (p *newBugPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *newBugPage) submit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.busy {
		return
	}
	p.busy, p.err = true, ""
	in := p.in
	ctx.Async(func() {
		b, err := p.env.Tracker.AddBug(context.Background(), in)
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			ctx.Navigate("/bugs/" + b.ID)
		})
	})
}

func (p *newBugPage) toggleDashboard(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if ctx.JSSrc().Get("checked").Bool() {
			p.in.AffectedDashboards = append(p.in.AffectedDashboards, id)
			return
		}
		p.in.AffectedDashboards = slices.DeleteFunc(p.in.AffectedDashboards, func(d string) bool { return d == id })
	}
}

func (p *newBugPage) Render() app.UI {
	projects := []app.UI{app.Option().Value("").Text("Choose a project")}
	var dashboards []model.Dashboard
	for _, pr := range p.projects {
		projects = append(projects, app.Option().Value(pr.ID).Selected(pr.ID == p.in.ProjectID).Text(pr.Name))
		if pr.ID == p.in.ProjectID {
			dashboards = pr.Dashboards
		}
	}
	priorities := make([]app.UI, 0, len(model.Priorities))
	for _, pr := range model.Priorities {
		priorities = append(priorities, app.Option().Value(string(pr)).Selected(pr == p.in.Priority).Text(string(pr)))
	}

	return shell(p.user, "Report a bug",
		errorBox(p.err),
		app.Form().OnSubmit(p.submit).Body(
			app.Label().Text("Title"),
			app.Input().Type("text").Value(p.in.Name).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Name = value(ctx) }),
			app.Label().Text("Description (Markdown)"),
			app.Textarea().Rows(6).Text(p.in.Description).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Description = value(ctx) }),
			app.Label().Text("Project"),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.in.ProjectID = value(ctx)
				p.in.AffectedDashboards = nil
			}).Body(projects...),
			app.Range(dashboards).Slice(func(i int) app.UI {
				d := dashboards[i]
				return app.Label().Class("check").Body(
					app.Input().Type("checkbox").
						Checked(slices.Contains(p.in.AffectedDashboards, d.ID)).
						OnChange(p.toggleDashboard(d.ID)),
					app.Text(d.Name),
				)
			}),
			app.Label().Text("Priority"),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.in.Priority = model.BugPriority(value(ctx))
			}).Body(priorities...),
			app.H3().Text("Preview"),
			markdown(p.in.Description),
			app.Button().Type("submit").Disabled(p.busy).Text("Report bug"),
		),
	)
}
