package handlers

import (
	"net/http"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/models"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type FeedHandler struct {
	Feed    *services.FeedService
	PerPage int
}

type feedResp struct {
	Items   []models.FeedItem `json:"items"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// Show serves the current user's feed. The feed has no cheap total, so
// only the page window is reported.
func (h *FeedHandler) Show(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r, h.PerPage)
	items, err := h.Feed.Feed(r.Context(), currentUser(r).ID, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, feedResp{Items: items, Page: p.Number, PerPage: p.PerPage})
}
