package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidandcat/bugracer/internal/localstore"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

func setup(t *testing.T) (*http.ServeMux, *localstore.Store) {
	t.Helper()
	src, err := localstore.Open(storage.NewMemory(), localstore.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	mux := http.NewServeMux()
	RegisterRoutes(mux, src)
	return mux, src
}

func tokenFor(t *testing.T, src *localstore.Store, email string) string {
	t.Helper()
	res, err := src.Login(context.Background(), model.Credentials{Identifier: email, Secret: "x"})
	require.NoError(t, err)
	return res.Token
}

func do(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func envelopeOf(t *testing.T, rec *httptest.ResponseRecorder) model.Envelope[json.RawMessage] {
	t.Helper()
	var env model.Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestUnauthenticated(t *testing.T) {
	mux, _ := setup(t)
	rec := do(mux, http.MethodGet, "/api/bugs", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := envelopeOf(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Authentication required", env.Message)

	rec = do(mux, http.MethodGet, "/api/bugs", "nope", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEnvelope(t *testing.T) {
	mux, _ := setup(t)
	rec := do(mux, http.MethodPost, "/api/auth/login", "", `{"email":"demo@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env model.Envelope[model.AuthResult]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "demo-user-1", env.Data.User.ID)
	assert.NotEmpty(t, env.Data.Token)

	rec = do(mux, http.MethodPost, "/api/auth/login", "", `{"email":"demo@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/auth/login", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", envelopeOf(t, rec).Message)
}

func TestBugUpdateCapabilities(t *testing.T) {
	mux, src := setup(t)
	dev := tokenFor(t, src, "demo-dev@example.com")
	tester := tokenFor(t, src, "demo@example.com")
	admin := tokenFor(t, src, "demo-admin@example.com")

	tests := []struct {
		name  string
		token string
		body  string
		want  int
	}{
		{"developer changes status", dev, `{"status":"fixed"}`, http.StatusOK},
		{"developer assigns", dev, `{"assigneeId":"demo-user-1"}`, http.StatusForbidden},
		{"tester changes status", tester, `{"status":"declined"}`, http.StatusForbidden},
		{"tester renames", tester, `{"name":"Other"}`, http.StatusForbidden},
		{"admin renames", admin, `{"name":"Other"}`, http.StatusOK},
		{"admin bad status", admin, `{"status":"done"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, http.MethodPut, "/api/bugs/bug-2", tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestScriptRoutesUseQueryID(t *testing.T) {
	mux, src := setup(t)
	admin := tokenFor(t, src, "demo-admin@example.com")

	rec := do(mux, http.MethodGet, "/api/bugs/get.php?id=bug-3", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env model.Envelope[model.Bug]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Customer data not loading", env.Data.Name)

	rec = do(mux, http.MethodDelete, "/api/bugs/delete.php?id=bug-404", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodGet, "/api/bugs/getAll.php?status=resolved", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.Envelope[[]model.Bug]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "bug-3", list.Data[0].ID)
}

func TestAdminOnlyRoutes(t *testing.T) {
	mux, src := setup(t)
	tester := tokenFor(t, src, "demo@example.com")
	admin := tokenFor(t, src, "demo-admin@example.com")

	body := `{"name":"Eve","email":"eve@example.com","role":"developer"}`
	assert.Equal(t, http.StatusForbidden, do(mux, http.MethodPost, "/api/users", tester, body).Code)
	assert.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/api/users", admin, body).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/api/users", admin, body).Code, "duplicate email")

	assert.Equal(t, http.StatusForbidden, do(mux, http.MethodDelete, "/api/projects/proj-1", tester, "").Code)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodGet, "/api/projects/proj-1", tester, "").Code)
}
