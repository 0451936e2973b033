package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/models"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type RelationshipsHandler struct {
	Rels    *services.RelationshipService
	PerPage int
}

type followResp struct {
	Following bool `json:"following"`
	Followers int  `json:"followers"`
}

func (h *RelationshipsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.Rels.Follow)
}

func (h *RelationshipsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.Rels.Unfollow)
}

// change applies op from the current user to the user in the URL and
// reports the resulting state.
func (h *RelationshipsHandler) change(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, targetID string) error) {
	ctx := r.Context()
	me, target := currentUser(r).ID, chi.URLParam(r, "id")
	if err := op(ctx, me, target); err != nil {
		writeServiceError(w, r, err)
		return
	}
	following, err := h.Rels.IsFollowing(ctx, me, target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, err := h.Rels.Stats(ctx, target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, followResp{Following: following, Followers: st.Followers})
}

func (h *RelationshipsHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Rels.Following, func(st services.Stats) int { return st.Following })
}

func (h *RelationshipsHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Rels.Followers, func(st services.Stats) int { return st.Followers })
}

func (h *RelationshipsHandler) list(
	w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context, userID string, page models.Page) ([]models.User, error),
	total func(services.Stats) int,
) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	p := pageFrom(r, h.PerPage)
	users, err := fetch(ctx, id, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, err := h.Rels.Stats(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newList(users, p, total(st)))
}
