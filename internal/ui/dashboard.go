package ui

import (
	"context"
	"strconv"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/stats"
)

const recentActivities = 5

type dashboardPage struct {
	app.Compo

	user       *model.User
	summary    stats.Summary
	projects   []stats.ProjectStats
	activities []model.Activity
	loading    bool
	err        string
	cancel     func()
}

func (p *dashboardPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Dashboard | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user = u
		p.cancel = watch(ctx, e, func() {
			visible := e.Tracker.Visible(model.Filter{})
			p.summary = stats.Summarize(visible)
			p.projects = stats.PerProject(visible, e.Tracker.Projects())
			p.loading = e.Tracker.Loading()
			p.err = message(e.Tracker.Err())
		})
		ctx.Async(func() {
			acts, err := e.Source.Activities().List(e.Session.Context(context.Background()), model.Filter{})
			ctx.Dispatch(func(app.Context) {
				if err != nil {
					p.err = message(err)
					return
				}
				if len(acts) > recentActivities {
					acts = acts[:recentActivities]
				}
				p.activities = acts
			})
		})
	})
}

func (p *dashboardPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func card(label string, n int) app.UI {
	return app.Div().Class("card").Body(
		app.Div().Class("card-label").Text(label),
		app.Div().Class("card-value").Text(strconv.Itoa(n)),
	)
}

func (p *dashboardPage) Render() app.UI {
	return shell(p.user, "Dashboard",
		loading(p.loading),
		errorBox(p.err),
		app.Div().Class("cards").Body(
			card("Total bugs", p.summary.Total),
			card("Open", p.summary.Open()),
			card("Fixed", p.summary.ByStatus[model.StatusFixed]),
			card("Declined", p.summary.ByStatus[model.StatusDeclined]),
		),
		app.H2().Text("Projects"),
		app.Table().Body(
			app.THead().Body(app.Tr().Body(
				app.Th().Text("Project"), app.Th().Text("Bugs"), app.Th().Text("Fixed"), app.Th().Text("Pending"),
			)),
			app.TBody().Body(
				app.Range(p.projects).Slice(func(i int) app.UI {
					ps := p.projects[i]
					return app.Tr().Body(
						app.Td().Body(app.A().Href("/projects/"+ps.ProjectID).Text(ps.ProjectName)),
						app.Td().Text(strconv.Itoa(ps.TotalBugs)),
						app.Td().Text(strconv.Itoa(ps.FixedBugs)),
						app.Td().Text(strconv.Itoa(ps.PendingBugs)),
					)
				}),
			),
		),
		app.H2().Text("Recent activity"),
		activityList(p.activities),
	)
}

func activityList(acts []model.Activity) app.UI {
	if len(acts) == 0 {
		return app.P().Class("empty").Text("No activity yet.")
	}
	return app.Ul().Class("activity").Body(
		app.Range(acts).Slice(func(i int) app.UI {
			a := acts[i]
			li := app.Li().Class("activity-" + a.Type)
			if a.BugID != "" {
				return li.Body(
					app.A().Href("/bugs/"+a.BugID).Text(a.Description),
					app.Span().Class("when").Text(ago(a.CreatedAt)),
				)
			}
			return li.Body(
				app.Span().Text(a.Description),
				app.Span().Class("when").Text(ago(a.CreatedAt)),
			)
		}),
	)
}

// reportsPage shows the last week's reports and fixes and the priority
// breakdown of visible bugs.
type reportsPage struct {
	app.Compo

	user    *model.User
	weekly  []stats.Day
	summary stats.Summary
	err     string
	cancel  func()
}

func (p *reportsPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Reports | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user = u
		p.cancel = watch(ctx, e, func() {
			p.summary = stats.Summarize(e.Tracker.Visible(model.Filter{}))
		})
		ctx.Async(func() {
			acts, err := e.Source.Activities().List(e.Session.Context(context.Background()), model.Filter{})
			ctx.Dispatch(func(app.Context) {
				p.err = message(err)
				p.weekly = stats.Weekly(acts, time.Now(), 7)
			})
		})
	})
}

func (p *reportsPage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *reportsPage) Render() app.UI {
	return shell(p.user, "Reports",
		errorBox(p.err),
		app.H2().Text("Last 7 days"),
		app.Table().Body(
			app.THead().Body(app.Tr().Body(app.Th().Text("Day"), app.Th().Text("Reported"), app.Th().Text("Fixed"))),
			app.TBody().Body(
				app.Range(p.weekly).Slice(func(i int) app.UI {
					d := p.weekly[i]
					return app.Tr().Body(
						app.Td().Text(d.Date),
						app.Td().Text(strconv.Itoa(d.Bugs)),
						app.Td().Text(strconv.Itoa(d.Fixes)),
					)
				}),
			),
		),
		app.H2().Text("By priority"),
		app.Table().Body(
			app.THead().Body(app.Tr().Body(
				app.Th().Text("Priority"), app.Th().Text("Fixed"), app.Th().Text("Pending"), app.Th().Text("Declined"),
			)),
			app.TBody().Body(
				app.Range(model.Priorities).Slice(func(i int) app.UI {
					pr := model.Priorities[i]
					row := p.summary.ByPriority[pr]
					return app.Tr().Body(
						app.Td().Body(priorityBadge(pr)),
						app.Td().Text(strconv.Itoa(row[model.StatusFixed])),
						app.Td().Text(strconv.Itoa(row[model.StatusPending])),
						app.Td().Text(strconv.Itoa(row[model.StatusDeclined])),
					)
				}),
			),
		),
	)
}
