package ui

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Handler serves the app shell and the static files under root/web,
// including web/app.wasm. env is exposed to the browser through app.Getenv.
func Handler(root string, env app.Environment) *app.Handler {
	return &app.Handler{
		Name:        "BugRacer",
		ShortName:   "BugRacer",
		Title:       "BugRacer",
		Description: "Bug tracking dashboard",
		Styles:      []string{"/web/app.css"},
		Resources:   app.LocalDir(root),
		Env:         env,
	}
}
