package alerts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaflow/pharmaflow/internal/platform/httpx"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Handler exposes alert endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Post("/{id}/resolve", h.resolve)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	values := r.URL.Query()
	filter := ListFilter{Type: Type(values.Get("type"))}
	if active, _ := strconv.ParseBool(values.Get("active")); active {
		filter.ActiveOnly = true
	}
	if raw := values.Get("facility"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.Validation("facility", "must be a positive integer"))
			return
		}
		filter.HealthFacilityID = id
	}
	list, err := h.service.List(r.Context(), sess, filter)
	if err != nil {
		h.logger.Warn("list alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	counts, err := h.service.Summary(r.Context(), sess)
	if err != nil {
		h.logger.Warn("alert summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	alert, err := h.service.Resolve(r.Context(), sess, id)
	if err != nil {
		h.logger.Warn("resolve alert", slog.Int64("alert_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alert)
}
