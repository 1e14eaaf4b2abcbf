package ui

import (
	"context"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/model"
)

type loginPage struct {
	app.Compo

	email    string
	password string
	busy     bool
	err      string
}

func (p *loginPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Sign in | BugRacer")
	enter(ctx, func(ctx app.Context, _ *Env, u *model.User) {
		if u != nil {
			ctx.Navigate(gate.DefaultPath)
		}
	})
}

func (p *loginPage) submit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.busy {
		return
	}
	p.busy, p.err = true, ""
	email, password := p.email, p.password
	env := Runtime()
	ctx.Async(func() {
		_, err := env.Session.Login(context.Background(), email, password)
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			ctx.Navigate(gate.DefaultPath)
		})
	})
}

func (p *loginPage) Render() app.UI {
	return app.Div().Class("auth-card").Body(
		app.H1().Text("Sign in to BugRacer"),
		errorBox(p.err),
		app.Form().OnSubmit(p.submit).Body(
			app.Label().Text("Email or username"),
			app.Input().Type("text").Value(p.email).AutoFocus(true).
				OnInput(func(ctx app.Context, e app.Event) { p.email = value(ctx) }),
			app.Label().Text("Password"),
			app.Input().Type("password").Value(p.password).
				OnInput(func(ctx app.Context, e app.Event) { p.password = value(ctx) }),
			app.Button().Type("submit").Disabled(p.busy).Text("Sign in"),
		),
		app.P().Class("hint").Text("Demo accounts: demo@example.com, demo-admin@example.com and demo-dev@example.com accept any password."),
		app.P().Body(app.Text("No account? "), app.A().Href("/register").Text("Register")),
	)
}

type registerPage struct {
	app.Compo

	reg  model.Registration
	busy bool
	err  string
}

func (p *registerPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Register | BugRacer")
	enter(ctx, func(ctx app.Context, _ *Env, u *model.User) {
		if u != nil {
			ctx.Navigate(gate.DefaultPath)
		}
	})
}

func (p *registerPage) submit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.busy {
		return
	}
	p.busy, p.err = true, ""
	reg := p.reg
	env := Runtime()
	ctx.Async(func() {
		_, err := env.Session.Register(context.Background(), reg)
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			ctx.Navigate(gate.DefaultPath)
		})
	})
}

func (p *registerPage) Render() app.UI {
	roles := make([]app.UI, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, app.Option().Value(string(r)).Selected(p.reg.Role == r).Text(r.Title()))
	}
	return app.Div().Class("auth-card").Body(
		app.H1().Text("Create an account"),
		errorBox(p.err),
		app.Form().OnSubmit(p.submit).Body(
			app.Label().Text("Name"),
			app.Input().Type("text").Value(p.reg.Name).
				OnInput(func(ctx app.Context, e app.Event) { p.reg.Name = value(ctx) }),
			app.Label().Text("Email"),
			app.Input().Type("email").Value(p.reg.Email).
				OnInput(func(ctx app.Context, e app.Event) { p.reg.Email = value(ctx) }),
			app.Label().Text("Password"),
			app.Input().Type("password").Value(p.reg.Password).
				OnInput(func(ctx app.Context, e app.Event) { p.reg.Password = value(ctx) }),
			app.Label().Text("Role"),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.reg.Role = model.Role(value(ctx))
			}).Body(
				append([]app.UI{app.Option().Value("").Text("Choose a role")}, roles...)...,
			),
			app.Button().Type("submit").Disabled(p.busy).Text("Register"),
		),
		app.P().Body(app.Text("Already registered? "), app.A().Href("/login").Text("Sign in")),
	)
}
