package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/middleware"
	"github.com/ichinomiya1038/sample-app/internal/models"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type UsersHandler struct {
	Users    *services.UserService
	Rels     *services.RelationshipService
	Posts    *services.MicropostService
	Sessions *SessionsHandler
	PerPage  int
}

// Create registers a user and logs them in.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	u, err := h.Users.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Sessions.startSession(w, r, u, http.StatusCreated)
}

func (h *UsersHandler) Index(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r, h.PerPage)
	users, err := h.Users.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := h.Users.Count(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newList(users, p, total))
}

type profileResp struct {
	User       models.User                `json:"user"`
	Stats      services.Stats             `json:"stats"`
	Following  *bool                      `json:"followed_by_you,omitempty"`
	Microposts listResp[models.Micropost] `json:"microposts"`
}

// Show returns a profile with its stats and one page of microposts.
func (h *UsersHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.Users.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, err := h.Rels.Stats(ctx, u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p := pageFrom(r, h.PerPage)
	posts, err := h.Posts.ListByUser(ctx, u.ID, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	n, err := h.Posts.CountByUser(ctx, u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := profileResp{User: u, Stats: st, Microposts: newList(posts, p, n)}
	if me, ok := middleware.CurrentUser(ctx); ok && me.ID != u.ID {
		following, err := h.Rels.IsFollowing(ctx, me.ID, u.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp.Following = &following
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	u, err := h.Users.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
