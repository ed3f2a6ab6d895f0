package assignments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaflow/pharmaflow/internal/platform/httpx"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Handler exposes facility distributor assignment endpoints.
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

// MountFacilityRoutes registers routes under /facilities.
func (h *Handler) MountFacilityRoutes(r chi.Router) {
	r.Get("/{facilityID}/distributors", h.facility)
	r.Post("/{facilityID}/distributors", h.assign)
	r.Get("/{facilityID}/candidates", h.candidates)
}

// MountRoutes registers routes under /assignments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/reactivate", h.reactivate)
	r.Post("/{id}/deactivate", h.deactivate)
}

// MountAdminRoutes registers the permanent delete.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Delete("/assignments/{id}", h.hardDelete)
}

// MountUserRoutes registers routes under /users.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/{userID}/facilities", h.byUser)
}

func (h *Handler) facility(w http.ResponseWriter, r *http.Request) {
	sess, facilityID, ok := h.facilityRequest(w, r)
	if !ok {
		return
	}
	view, err := h.service.Facility(r.Context(), sess, facilityID)
	if err != nil {
		h.fail(w, "list facility assignments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) candidates(w http.ResponseWriter, r *http.Request) {
	sess, facilityID, ok := h.facilityRequest(w, r)
	if !ok {
		return
	}
	users, err := h.service.Candidates(r.Context(), sess, facilityID)
	if err != nil {
		h.fail(w, "list candidate distributors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	sess, facilityID, ok := h.facilityRequest(w, r)
	if !ok {
		return
	}
	var in AssignInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.FacilityID = facilityID
	created, err := h.service.Assign(r.Context(), sess, in)
	if err != nil {
		h.fail(w, "assign distributor", err)
		return
	}
	h.logger.Info("distributor assigned",
		slog.Int64("assignment_id", created.ID),
		slog.Int64("user_id", created.UserID),
		slog.Int64("facility_id", created.HealthFacilityID))
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "reactivate assignment", h.service.Reactivate)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "deactivate assignment", h.service.Deactivate)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, sess *shared.Session, id int64) (Assignment, error)) {
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
	row, err := fn(r.Context(), sess, id)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) hardDelete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.HardDelete(r.Context(), sess, id); err != nil {
		h.fail(w, "delete assignment", err)
		return
	}
	h.logger.Info("assignment deleted", slog.Int64("assignment_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) byUser(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID, err := httpx.IDParam(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListByUser(r.Context(), sess, userID)
	if err != nil {
		h.fail(w, "list user assignments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) facilityRequest(w http.ResponseWriter, r *http.Request) (*shared.Session, int64, bool) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return nil, 0, false
	}
	facilityID, err := httpx.IDParam(r, "facilityID")
	if err != nil {
		httpx.RespondError(w, err)
		return nil, 0, false
	}
	return sess, facilityID, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
