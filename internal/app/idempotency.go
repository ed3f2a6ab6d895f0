package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pharmaflow/pharmaflow/internal/platform/httpx"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// HeaderIdempotencyKey lets clients make a POST safe to resend.
const HeaderIdempotencyKey = "Idempotency-Key"

// Idempotent rejects a POST whose Idempotency-Key was already processed by
// module. The key is released again when the request fails or the handler
// panics, so the client can retry it. Requests without the header pass through untouched.
func Idempotent(store *shared.IdempotencyStore, module string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if store == nil || r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 200 {
				httpx.RespondError(w, shared.Validation("idempotency_key", "must be at most 200 characters"))
				return
			}
			if err := store.CheckAndInsert(r.Context(), key, module); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					httpx.RespondError(w, shared.Conflict("this request was already submitted"))
					return
				}
				logger.Warn("idempotency check failed", slog.String("module", module), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			completed := false
			// Runs while a panic unwinds too, before the outer Recoverer.
			defer func() {
				if completed && ww.Status() < http.StatusBadRequest {
					return
				}
				if err := store.Delete(context.WithoutCancel(r.Context()), key, module); err != nil {
					logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", err))
				}
			}()
			next.ServeHTTP(ww, r)
			completed = true
		})
	}
}
