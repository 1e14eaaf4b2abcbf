package api

import (
	"net/http"
	"strings"

	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/model"
)

func RegisterAuthRoutes(mux *http.ServeMux, src backend.Source) {
	mux.HandleFunc("POST /api/auth/login", handleLogin(src))
	mux.HandleFunc("POST /api/auth/register", handleRegister(src))
	mux.HandleFunc("GET /api/auth/me", handleMe(src))
	mux.HandleFunc("POST /api/auth/logout", handleLogout(src))

	mux.HandleFunc("POST /api/auth/login.php", handleLogin(src))
	mux.HandleFunc("POST /api/auth/register.php", handleRegister(src))
	mux.HandleFunc("GET /api/auth/me.php", handleMe(src))
	mux.HandleFunc("POST /api/auth/logout.php", handleLogout(src))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// requireUser resolves the bearer token and puts the user in the request
// context. Requests without a valid token get 401.
func requireUser(src backend.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			u, err := src.Me(r.Context(), token)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(model.WithUser(r.Context(), u)))
		})
	}
}

func requireCap(c gate.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !gate.Can(model.UserFrom(r.Context()), c) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next(w, r)
	}
}

func handleLogin(src backend.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds model.Credentials
		if err := decode(r, &creds); err != nil {
			writeErr(w, r, err)
			return
		}
		res, err := src.Login(r.Context(), creds)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, res)
	}
}

func handleRegister(src backend.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg model.Registration
		if err := decode(r, &reg); err != nil {
			writeErr(w, r, err)
			return
		}
		res, err := src.Register(r.Context(), reg)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, res)
	}
}

func handleMe(src backend.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		u, err := src.Me(r.Context(), token)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, u)
	}
}

func handleLogout(src backend.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rv, ok := src.(backend.Revoker); ok {
			if token := bearerToken(r); token != "" {
				if err := rv.Logout(r.Context(), token); err != nil {
					writeErr(w, r, err)
					return
				}
			}
		}
		writeData(w, http.StatusOK, nil)
	}
}
