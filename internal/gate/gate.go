// Package gate decides whether the current user may enter a view or perform
// an action. Decisions are computed on every call and never cached.
package gate

import (
	"slices"
	"strings"

	"github.com/kidandcat/bugracer/internal/model"
)

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToDefault
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDefault:
		return "redirect_to_default"
	}
	return "unknown"
}

const (
	LoginPath   = "/login"
	DefaultPath = "/dashboard"
)

// Evaluate applies the access rule: no user goes to login, an empty required
// set admits anyone signed in, a role outside the set goes to the default view.
func Evaluate(required []model.Role, user *model.User) Decision {
	if user == nil {
		return RedirectToLogin
	}
	if len(required) == 0 {
		return Allow
	}
	if !slices.Contains(required, user.Role) {
		return RedirectToDefault
	}
	return Allow
}

// Target is the path a decision redirects to, empty for Allow.
func (d Decision) Target() string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToDefault:
		return DefaultPath
	}
	return ""
}

// Route is one protected view. Pattern segments starting with ':' match any
// single segment.
type Route struct {
	Pattern  string
	Required []model.Role
	Public   bool
}

var (
	adminOnly      = []model.Role{model.RoleAdmin}
	reporters      = []model.Role{model.RoleAdmin, model.RoleTester}
	statusUpdaters = []model.Role{model.RoleAdmin, model.RoleDeveloper}
)

// Routes is the view table. Order matters: the first match wins.
var Routes = []Route{
	{Pattern: "/login", Public: true},
	{Pattern: "/register", Public: true},
	{Pattern: "/dashboard"},
	{Pattern: "/projects"},
	{Pattern: "/projects/new", Required: adminOnly},
	{Pattern: "/projects/:id"},
	{Pattern: "/bugs"},
	{Pattern: "/bugs/new", Required: reporters},
	{Pattern: "/bugs/:id"},
	{Pattern: "/activity"},
	{Pattern: "/users", Required: adminOnly},
	{Pattern: "/fixes", Required: statusUpdaters},
	{Pattern: "/settings", Required: adminOnly},
	{Pattern: "/profile"},
	{Pattern: "/reports"},
}

// Lookup finds the route for path. Unknown paths report false.
func Lookup(path string) (Route, bool) {
	segs := split(path)
	for _, r := range Routes {
		if match(split(r.Pattern), segs) {
			return r, true
		}
	}
	return Route{}, false
}

// Guard evaluates the route for path. Public routes are always allowed and
// unknown paths behave as signed-in-only views.
func Guard(path string, user *model.User) (Decision, string) {
	r, ok := Lookup(path)
	if ok && r.Public {
		return Allow, ""
	}
	d := Evaluate(r.Required, user)
	return d, d.Target()
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func match(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}
