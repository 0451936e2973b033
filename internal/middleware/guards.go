package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
)

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "please log in", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSelf only lets the user named by the URL parameter through.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "please log in", nil)
				return
			}
			if u.ID != chi.URLParam(r, param) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "not allowed", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "please log in", nil)
			return
		}
		if !u.Admin {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "admin only", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
