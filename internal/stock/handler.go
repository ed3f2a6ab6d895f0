package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaflow/pharmaflow/internal/platform/httpx"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Handler exposes stock entry endpoints.
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

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// MountProjectRoutes registers the read-only project listing.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Get("/", h.projects)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := parseLedgerQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ledger, err := h.service.Ledger(r.Context(), sess, q)
	if err != nil {
		h.fail(w, "load stock ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
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
	entry, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		h.fail(w, "get stock entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), sess, in)
	if err != nil {
		h.fail(w, "create stock entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
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
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Update(r.Context(), sess, id, patch)
	if err != nil {
		h.fail(w, "update stock entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.Delete(r.Context(), sess, id); err != nil {
		h.fail(w, "delete stock entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projects(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	projects, err := h.service.Projects(r.Context(), sess)
	if err != nil {
		h.fail(w, "list projects", err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parseLedgerQuery(r *http.Request) (LedgerQuery, error) {
	values := r.URL.Query()
	q := LedgerQuery{Search: values.Get("search")}
	if raw := values.Get("project"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return LedgerQuery{}, shared.Validation("project", "must be a positive integer")
		}
		q.ProjectID = id
	}
	if raw := values.Get("medication"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return LedgerQuery{}, shared.Validation("medication", "must be a positive integer")
		}
		q.MedicationID = id
	}
	if raw := values.Get("as_of"); raw != "" {
		d, ok := ParseDate(raw)
		if !ok {
			return LedgerQuery{}, shared.Validation("as_of", "must be a date (YYYY-MM-DD)")
		}
		q.AsOf = d.Time
	}
	return q, nil
}

