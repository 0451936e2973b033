package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
	"github.com/ichinomiya1038/sample-app/internal/api/validate"
	"github.com/ichinomiya1038/sample-app/internal/middleware"
	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

// writeServiceError maps service and repository errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validate.Errs
	switch {
	case errors.As(err, &verrs):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", "validation failed", verrs)
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, repo.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "already exists", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	default:
		rid := middleware.RequestIDFrom(r.Context())
		slog.Error("request failed", "err", err, "request_id", rid, "path", r.URL.Path)
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureException(err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func badRequest(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
}

func pageFrom(r *http.Request, perPage int) models.Page {
	q := r.URL.Query()
	n, _ := strconv.Atoi(q.Get("page"))
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		perPage = v
	}
	return models.NewPage(n, perPage)
}

type listResp[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

func newList[T any](items []T, p models.Page, total int) listResp[T] {
	return listResp[T]{Items: items, Page: p.Number, PerPage: p.PerPage, Total: total}
}

// currentUser is only called behind RequireUser.
func currentUser(r *http.Request) models.User {
	u, _ := middleware.CurrentUser(r.Context())
	return u
}
