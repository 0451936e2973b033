package handlers

import (
	"net/http"
	"time"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/api/validate"
	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/middleware"
	"github.com/ichinomiya1038/sample-app/internal/models"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type SessionsHandler struct {
	Users         *services.UserService
	TM            *auth.TokenManager
	SecureCookies bool
}

func NewSessionsHandler(users *services.UserService, tm *auth.TokenManager, secureCookies bool) *SessionsHandler {
	return &SessionsHandler{Users: users, TM: tm, SecureCookies: secureCookies}
}

type loginReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type sessionResp struct {
	User         models.User `json:"user"`
	SessionToken string      `json:"session_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

func (h *SessionsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := validate.Collect(validate.Required("email", req.Email), validate.Required("password", req.Password)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.RememberMe {
		err = h.remember(w, r, &u)
	} else {
		err = h.forget(w, r, &u)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.startSession(w, r, u, http.StatusOK)
}

// Logout forgets the current user, which also invalidates every session
// issued for them, and clears the cookies.
func (h *SessionsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := middleware.CurrentUser(r.Context()); ok {
		if err := h.Users.Forget(r.Context(), &u); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	for _, name := range []string{httpx.SessionCookie, httpx.RememberUserCookie, httpx.RememberTokenCookie} {
		httpx.ClearCookie(w, name, h.SecureCookies)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) remember(w http.ResponseWriter, r *http.Request, u *models.User) error {
	token, err := h.Users.Remember(r.Context(), u)
	if err != nil {
		return err
	}
	signed, exp, err := h.TM.IssueRemember(u.ID)
	if err != nil {
		return err
	}
	httpx.SetCookie(w, httpx.RememberUserCookie, signed, exp, h.SecureCookies)
	httpx.SetCookie(w, httpx.RememberTokenCookie, token, exp, h.SecureCookies)
	return nil
}

func (h *SessionsHandler) forget(w http.ResponseWriter, r *http.Request, u *models.User) error {
	if err := h.Users.Forget(r.Context(), u); err != nil {
		return err
	}
	httpx.ClearCookie(w, httpx.RememberUserCookie, h.SecureCookies)
	httpx.ClearCookie(w, httpx.RememberTokenCookie, h.SecureCookies)
	return nil
}

// startSession logs u in: the session carries u's session token and is
// returned both as a cookie and in the body for bearer clients.
func (h *SessionsHandler) startSession(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	st, err := h.Users.SessionToken(r.Context(), &u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	signed, exp, err := h.TM.IssueSession(u.ID, st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.SetCookie(w, httpx.SessionCookie, signed, exp, h.SecureCookies)
	httpx.WriteJSON(w, status, sessionResp{User: u, SessionToken: signed, ExpiresAt: exp})
}
