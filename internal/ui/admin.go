package ui

import (
	"context"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/settings"
)

type usersPage struct {
	app.Compo

	user  *model.User
	env   *Env
	users []model.User
	in    model.UserInput
	busy  bool
	err   string
}

func (p *usersPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Users | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		p.in.Role = model.RoleTester
		p.load(ctx)
	})
}

func (p *usersPage) load(ctx app.Context) {
	env := p.env
	ctx.Async(func() {
		users, err := env.Source.Users().List(env.Session.Context(context.Background()), model.Filter{})
		ctx.Dispatch(func(app.Context) {
			p.err = message(err)
			p.users = users
		})
	})
}

func (p *usersPage) create(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.busy {
		return
	}
	p.busy, p.err = true, ""
	env, in := p.env, p.in
	ctx.Async(func() {
		_, err := env.Source.Users().Create(env.Session.Context(context.Background()), in)
		ctx.Dispatch(func(ctx app.Context) {
			p.busy = false
			if err != nil {
				p.err = message(err)
				return
			}
			p.in = model.UserInput{Role: model.RoleTester}
			p.load(ctx)
		})
	})
}

func (p *usersPage) remove(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if p.busy || !app.Window().Call("confirm", "Delete this user?").Bool() {
			return
		}
		p.busy, p.err = true, ""
		env := p.env
		ctx.Async(func() {
			err := env.Source.Users().Delete(env.Session.Context(context.Background()), id)
			ctx.Dispatch(func(ctx app.Context) {
				p.busy = false
				p.err = message(err)
				p.load(ctx)
			})
		})
	}
}

func (p *usersPage) Render() app.UI {
	roles := make([]app.UI, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, app.Option().Value(string(r)).Selected(p.in.Role == r).Text(r.Title()))
	}
	return shell(p.user, "Users",
		errorBox(p.err),
		app.Table().Body(
			app.THead().Body(app.Tr().Body(
				app.Th(), app.Th().Text("Name"), app.Th().Text("Email"), app.Th().Text("Role"), app.Th(),
			)),
			app.TBody().Body(
				app.Range(p.users).Slice(func(i int) app.UI {
					u := p.users[i]
					return app.Tr().Body(
						app.Td().Body(app.Img().Class("avatar").Src(u.Avatar).Alt(u.Name)),
						app.Td().Text(u.Name),
						app.Td().Text(u.Email),
						app.Td().Text(u.Role.Title()),
						app.Td().Body(
							app.If(p.user != nil && u.ID != p.user.ID, func() app.UI {
								return app.Button().Class("danger").Disabled(p.busy).Text("Delete").OnClick(p.remove(u.ID))
							}),
						),
					)
				}),
			),
		),
		app.H2().Text("Add user"),
		app.Form().OnSubmit(p.create).Body(
			app.Input().Type("text").Placeholder("Name").Value(p.in.Name).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Name = value(ctx) }),
			app.Input().Type("email").Placeholder("Email").Value(p.in.Email).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Email = value(ctx) }),
			app.Input().Type("password").Placeholder("Password (optional)").Value(p.in.Password).
				OnInput(func(ctx app.Context, e app.Event) { p.in.Password = value(ctx) }),
			app.Select().OnChange(func(ctx app.Context, e app.Event) {
				p.in.Role = model.Role(value(ctx))
			}).Body(roles...),
			app.Button().Type("submit").Disabled(p.busy).Text("Add user"),
		),
	)
}

var settingLabels = map[string]string{
	"emailNotifications":        "Email notifications",
	"browserNotifications":      "Browser notifications",
	"newBugNotifications":       "New bug reports",
	"statusChangeNotifications": "Status changes",
	"mentionNotifications":      "Mentions",
	"notificationSound":         "Notification sound",
}

type settingsPage struct {
	app.Compo

	user  *model.User
	env   *Env
	prefs map[string]bool
	err   string
	saved bool
}

func (p *settingsPage) OnNav(ctx app.Context) {
	ctx.Page().SetTitle("Settings | BugRacer")
	enter(ctx, func(ctx app.Context, e *Env, u *model.User) {
		p.user, p.env = u, e
		s, err := settings.Load(e.KV, u.ID)
		p.err = message(err)
		p.prefs = prefsOf(s)
	})
}

func prefsOf(s model.NotificationSettings) map[string]bool {
	return map[string]bool{
		"emailNotifications":        s.EmailNotifications,
		"browserNotifications":      s.BrowserNotifications,
		"newBugNotifications":       s.NewBugNotifications,
		"statusChangeNotifications": s.StatusChangeNotifications,
		"mentionNotifications":      s.MentionNotifications,
		"notificationSound":         s.NotificationSound,
	}
}

func (p *settingsPage) toggle(name string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		on := ctx.JSSrc().Get("checked").Bool()
		s, err := settings.Set(p.env.KV, p.user.ID, name, on)
		p.err, p.saved = message(err), err == nil
		p.prefs = prefsOf(s)
	}
}

func (p *settingsPage) Render() app.UI {
	names := settings.Names()
	return shell(p.user, "Notification settings",
		errorBox(p.err),
		app.If(p.saved, func() app.UI { return app.Div().Class("notice").Text("Settings saved.") }),
		app.Range(names).Slice(func(i int) app.UI {
			name := names[i]
			return app.Label().Class("check").Body(
				app.Input().Type("checkbox").Checked(p.prefs[name]).OnChange(p.toggle(name)),
				app.Text(settingLabels[name]),
			)
		}),
	)
}
