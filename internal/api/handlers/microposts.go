package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type MicropostsHandler struct {
	Posts *services.MicropostService
}

func (h *MicropostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.MicropostInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	m, err := h.Posts.Create(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

func (h *MicropostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Posts.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
