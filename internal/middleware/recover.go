package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
)

// Recover turns a panic into a 500 and reports it to Sentry. Without a
// configured DSN the report is dropped by the SDK.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rid := RequestIDFrom(r.Context())
			slog.Error("panic", "err", rec, "request_id", rid, "stack", string(debug.Stack()))

			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
			}
			hub.Scope().SetRequest(r)
			hub.Scope().SetTag("request_id", rid)
			hub.RecoverWithContext(r.Context(), rec)

			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
