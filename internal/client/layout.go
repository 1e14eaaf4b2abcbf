package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kidandcat/bugracer/internal/model"
)

// Layout selects the endpoint naming scheme of the backend.
type Layout int

const (
	// LayoutREST uses resource paths: GET /bugs, PUT /bugs/{id}.
	LayoutREST Layout = iota
	// LayoutPHP uses one script per action: bugs/getAll.php, bugs/update.php?id=.
	LayoutPHP
)

func (l Layout) String() string {
	if l == LayoutPHP {
		return "php"
	}
	return "rest"
}

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rest":
		return LayoutREST, nil
	case "php":
		return LayoutPHP, nil
	}
	return LayoutREST, fmt.Errorf("unknown layout %q", s)
}

type route struct {
	method string
	path   string
	query  url.Values
}

func filterQuery(l Layout, f model.Filter) url.Values {
	q := url.Values{}
	set := func(rest, php, v string) {
		if v == "" {
			return
		}
		if l == LayoutPHP {
			q.Set(php, v)
		} else {
			q.Set(rest, v)
		}
	}
	set("projectId", "project_id", f.ProjectID)
	set("assigneeId", "assignee_id", f.AssigneeID)
	set("reporterId", "reporter_id", f.ReporterID)
	set("userId", "user_id", f.UserID)
	set("status", "status", string(f.Status))
	set("priority", "priority", string(f.Priority))
	set("q", "search", f.Search)
	return q
}

func (l Layout) list(resource string, f model.Filter) route {
	if l == LayoutPHP {
		return route{http.MethodGet, resource + "/getAll.php", filterQuery(l, f)}
	}
	return route{http.MethodGet, "/" + resource, filterQuery(l, f)}
}

func (l Layout) get(resource, id string) route {
	if l == LayoutPHP {
		return route{http.MethodGet, resource + "/get.php", url.Values{"id": {id}}}
	}
	return route{method: http.MethodGet, path: "/" + resource + "/" + url.PathEscape(id)}
}

func (l Layout) create(resource string) route {
	if l == LayoutPHP {
		return route{method: http.MethodPost, path: resource + "/create.php"}
	}
	return route{method: http.MethodPost, path: "/" + resource}
}

func (l Layout) update(resource, id string) route {
	if l == LayoutPHP {
		return route{http.MethodPut, resource + "/update.php", url.Values{"id": {id}}}
	}
	return route{method: http.MethodPut, path: "/" + resource + "/" + url.PathEscape(id)}
}

func (l Layout) delete(resource, id string) route {
	if l == LayoutPHP {
		return route{http.MethodDelete, resource + "/delete.php", url.Values{"id": {id}}}
	}
	return route{method: http.MethodDelete, path: "/" + resource + "/" + url.PathEscape(id)}
}

// auth builds the route for login, register, me or logout.
func (l Layout) auth(action string) route {
	method := http.MethodPost
	if action == "me" {
		method = http.MethodGet
	}
	if l == LayoutPHP {
		return route{method: method, path: "auth/" + action + ".php"}
	}
	return route{method: method, path: "/auth/" + action}
}
