package ui

import (
	"context"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/stats"
)

type profilePage struct {
	app.Compo

	user   *model.User
	stats  stats.UserStats
	err    string
	cancel func()
}

func (p *profilePage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Profile | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user = u
		var acts []model.Activity
		update := func() { p.stats = stats.ForUser(u.ID, e.Tracker.Bugs(), acts, 10) }
		p.cancel = watch(ctx, e, update)
		ctx.Async(func() {
			list, err := e.Source.Activities().List(e.Session.Context(context.Background()), model.Filter{UserID: u.ID})
			ctx.Dispatch(func(app.Context) {
				p.err = message(err)
				acts = list
				update()
			})
		})
	})
}

func (p *profilePage) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *profilePage) Render() app.UI {
	if p.user == nil {
		return shell(nil, "Profile", loading(true))
	}
	u := p.user
	return shell(u, "Profile",
		errorBox(p.err),
		app.Div().Class("profile").Body(
			app.Img().Class("avatar large").Src(u.Avatar).Alt(u.Name),
			app.H2().Text(u.Name),
			app.P().Text(u.Email),
			app.Span().Class("role").Text(u.Role.Title()),
		),
		app.Div().Class("cards").Body(
			card("Bugs reported", p.stats.TotalReported),
			card("Bugs fixed", p.stats.TotalFixed),
		),
		app.H2().Text("Recent activity"),
		activityList(p.stats.RecentActivity),
	)
}

type activityPage struct {
	app.Compo

	user       *model.User
	activities []model.Activity
	err        string
}

func (p *activityPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Activity | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user = u
		ctx.Async(func() {
			acts, err := e.Source.Activities().List(e.Session.Context(context.Background()), model.Filter{})
			ctx.Dispatch(func(app.Context) {
				p.err = message(err)
				p.activities = acts
			})
		})
	})
}

func (p *activityPage) Render() app.UI {
	return shell(p.user, "Activity",
		errorBox(p.err),
		activityList(p.activities),
	)
}
