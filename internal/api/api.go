// Package api is the development backend: the REST contract the client
// speaks, served from any data source. Both endpoint layouts are mounted
// under /api.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
)

func RegisterRoutes(mux *http.ServeMux, src backend.Source) {
	RegisterAuthRoutes(mux, src)
	authed := requireUser(src)

	// Bugs
	bugs := src.Bugs()
	mux.Handle("GET /api/bugs", authed(handleList(bugs)))
	mux.Handle("POST /api/bugs", authed(requireCap(gate.CreateBug, handleCreate(bugs))))
	mux.Handle("GET /api/bugs/{id}", authed(handleGet(bugs, pathID)))
	mux.Handle("PUT /api/bugs/{id}", authed(handleUpdateBug(bugs, pathID)))
	mux.Handle("DELETE /api/bugs/{id}", authed(requireCap(gate.DeleteBug, handleDelete(bugs, pathID))))

	// Projects
	projects := src.Projects()
	mux.Handle("GET /api/projects", authed(handleList(projects)))
	mux.Handle("POST /api/projects", authed(requireCap(gate.ManageProjects, handleCreate(projects))))
	mux.Handle("GET /api/projects/{id}", authed(handleGet(projects, pathID)))
	mux.Handle("PUT /api/projects/{id}", authed(requireCap(gate.ManageProjects, handleUpdate(projects, pathID))))
	mux.Handle("DELETE /api/projects/{id}", authed(requireCap(gate.ManageProjects, handleDelete(projects, pathID))))

	// Users
	users := src.Users()
	mux.Handle("GET /api/users", authed(handleList(users)))
	mux.Handle("POST /api/users", authed(requireCap(gate.ManageUsers, handleCreate(users))))
	mux.Handle("GET /api/users/{id}", authed(handleGet(users, pathID)))
	mux.Handle("PUT /api/users/{id}", authed(requireCap(gate.ManageUsers, handleUpdate(users, pathID))))
	mux.Handle("DELETE /api/users/{id}", authed(requireCap(gate.ManageUsers, handleDelete(users, pathID))))

	// Activities
	mux.Handle("GET /api/activities", authed(handleActivities(src.Activities())))

	registerScriptRoutes(mux, src, authed)
}

// registerScriptRoutes mounts the one-script-per-action layout, e.g.
// GET /api/bugs/getAll.php and PUT /api/bugs/update.php?id=.
func registerScriptRoutes(mux *http.ServeMux, src backend.Source, authed func(http.Handler) http.Handler) {
	bugs := src.Bugs()
	mux.Handle("GET /api/bugs/getAll.php", authed(handleList(bugs)))
	mux.Handle("GET /api/bugs/get.php", authed(handleGet(bugs, queryID)))
	mux.Handle("POST /api/bugs/create.php", authed(requireCap(gate.CreateBug, handleCreate(bugs))))
	mux.Handle("PUT /api/bugs/update.php", authed(handleUpdateBug(bugs, queryID)))
	mux.Handle("DELETE /api/bugs/delete.php", authed(requireCap(gate.DeleteBug, handleDelete(bugs, queryID))))

	projects := src.Projects()
	mux.Handle("GET /api/projects/getAll.php", authed(handleList(projects)))
	mux.Handle("GET /api/projects/get.php", authed(handleGet(projects, queryID)))
	mux.Handle("POST /api/projects/create.php", authed(requireCap(gate.ManageProjects, handleCreate(projects))))
	mux.Handle("PUT /api/projects/update.php", authed(requireCap(gate.ManageProjects, handleUpdate(projects, queryID))))
	mux.Handle("DELETE /api/projects/delete.php", authed(requireCap(gate.ManageProjects, handleDelete(projects, queryID))))

	users := src.Users()
	mux.Handle("GET /api/users/getAll.php", authed(handleList(users)))
	mux.Handle("GET /api/users/get.php", authed(handleGet(users, queryID)))
	mux.Handle("POST /api/users/create.php", authed(requireCap(gate.ManageUsers, handleCreate(users))))
	mux.Handle("PUT /api/users/update.php", authed(requireCap(gate.ManageUsers, handleUpdate(users, queryID))))
	mux.Handle("DELETE /api/users/delete.php", authed(requireCap(gate.ManageUsers, handleDelete(users, queryID))))

	mux.Handle("GET /api/activities/getAll.php", authed(handleActivities(src.Activities())))
}

func pathID(r *http.Request) string { return r.PathValue("id") }
func queryID(r *http.Request) string { return r.URL.Query().Get("id") }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debugf("write response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, model.Envelope[any]{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.Envelope[any]{Success: false, Message: msg})
}

// writeErr maps a data-source error onto a status code.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Unauthorized:
		status = http.StatusUnauthorized
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Network:
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, apperr.Message(err))
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.Validation, "", "request body required")
		}
		return apperr.New(apperr.Validation, "", "invalid JSON")
	}
	return nil
}

func filterFrom(r *http.Request) model.Filter {
	q := r.URL.Query()
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := q.Get(k); v != "" {
				return v
			}
		}
		return ""
	}
	f := model.Filter{
		ProjectID:  first("projectId", "project_id"),
		AssigneeID: first("assigneeId", "assignee_id"),
		ReporterID: first("reporterId", "reporter_id"),
		UserID:     first("userId", "user_id"),
		Search:     first("q", "search"),
	}
	if s := q.Get("status"); s != "" {
		if st, err := model.ParseStatus(s); err == nil {
			f.Status = st
		}
	}
	if p := q.Get("priority"); p != "" {
		if pr, err := model.ParsePriority(p); err == nil {
			f.Priority = pr
		}
	}
	return f
}

func handleList[T, C, P any](repo backend.Repository[T, C, P]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := repo.List(r.Context(), filterFrom(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeData(w, http.StatusOK, items)
	}
}

func handleGet[T, C, P any](repo backend.Repository[T, C, P], id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := repo.Get(r.Context(), id(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, item)
	}
}

func handleCreate[T, C, P any](repo backend.Repository[T, C, P]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in C
		if err := decode(r, &in); err != nil {
			writeErr(w, r, err)
			return
		}
		item, err := repo.Create(r.Context(), in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, item)
	}
}

func handleUpdate[T, C, P any](repo backend.Repository[T, C, P], id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch P
		if err := decode(r, &patch); err != nil {
			writeErr(w, r, err)
			return
		}
		item, err := repo.Update(r.Context(), id(r), patch)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, item)
	}
}

// handleUpdateBug checks the capability matching the fields being changed:
// status changes, assignment and other edits are permitted separately.
func handleUpdateBug(repo backend.Bugs, id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch model.BugPatch
		if err := decode(r, &patch); err != nil {
			writeErr(w, r, err)
			return
		}
		u := model.UserFrom(r.Context())
		if patch.Status != nil && !gate.Can(u, gate.UpdateBugStatus) {
			writeError(w, http.StatusForbidden, "You cannot change the status of bugs")
			return
		}
		if patch.AssigneeID != nil && !gate.Can(u, gate.AssignBug) {
			writeError(w, http.StatusForbidden, "You cannot assign bugs")
			return
		}
		if (patch.Name != nil || patch.Description != nil || patch.Priority != nil || patch.AffectedDashboards != nil) && !gate.Can(u, gate.EditBug) {
			writeError(w, http.StatusForbidden, "You cannot edit bugs")
			return
		}
		item, err := repo.Update(r.Context(), id(r), patch)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, item)
	}
}

func handleDelete[T, C, P any](repo backend.Repository[T, C, P], id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Delete(r.Context(), id(r)); err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

func handleActivities(acts backend.ActivityLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := acts.List(r.Context(), filterFrom(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if items == nil {
			items = []model.Activity{}
		}
		writeData(w, http.StatusOK, items)
	}
}
