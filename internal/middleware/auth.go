package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/models"
)

// SessionUsers is the part of the user service the session layer needs.
type SessionUsers interface {
	Get(ctx context.Context, id string) (models.User, error)
	Authenticated(u models.User, token string) bool
	SessionValid(u models.User, sessionToken string) bool
}

type SessionAuth struct {
	TM            *auth.TokenManager
	Users         SessionUsers
	SecureCookies bool
}

func NewSessionAuth(tm *auth.TokenManager, users SessionUsers, secureCookies bool) *SessionAuth {
	return &SessionAuth{TM: tm, Users: users, SecureCookies: secureCookies}
}

// Load resolves the current user, if any, and stores it in the request
// context. It never rejects a request; see RequireUser.
func (m *SessionAuth) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := m.current(w, r); ok {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// current tries the session token first and falls back to the persistent
// remember cookies, starting a new session when those are valid.
func (m *SessionAuth) current(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()
	if tok := sessionToken(r); tok != "" {
		if c, err := m.TM.Parse(tok, auth.KindSession); err == nil {
			if u, err := m.Users.Get(ctx, c.UserID); err == nil && m.Users.SessionValid(u, c.SessionToken) {
				return u, true
			}
		}
	}

	uc, err := r.Cookie(httpx.RememberUserCookie)
	if err != nil {
		return models.User{}, false
	}
	tc, err := r.Cookie(httpx.RememberTokenCookie)
	if err != nil {
		return models.User{}, false
	}
	c, err := m.TM.Parse(uc.Value, auth.KindRemember)
	if err != nil {
		return models.User{}, false
	}
	u, err := m.Users.Get(ctx, c.UserID)
	if err != nil || !m.Users.Authenticated(u, tc.Value) {
		return models.User{}, false
	}

	st, exp, err := m.TM.IssueSession(u.ID, *u.RememberDigest)
	if err != nil {
		slog.Warn("session reissue failed", "err", err, "user_id", u.ID)
		return u, true
	}
	httpx.SetCookie(w, httpx.SessionCookie, st, exp, m.SecureCookies)
	return u, true
}

func sessionToken(r *http.Request) string {
	if ah := r.Header.Get("Authorization"); len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	if c, err := r.Cookie(httpx.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
