package handler

import (
	"encoding/json"
	"net/http"

	"booze-courier/internal/middleware"
	"booze-courier/internal/model"
	"booze-courier/internal/permission"
	"booze-courier/internal/service"

	"github.com/rs/zerolog"
)

// RatingHandler handles rating-related HTTP requests.
type RatingHandler struct {
	service service.RatingService
	guard   *permission.Guard
	logger  zerolog.Logger
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(service service.RatingService, guard *permission.Guard, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		service: service,
		guard:   guard,
		logger:  logger.With().Str("handler", "rating").Logger(),
	}
}

// Rate handles POST /api/orders/{id}/ratings requests. The acting user is the
// rater; the service rejects anyone but the order's customer.
func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req model.RateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	actor := h.guard.Resolve(r.Context(), ident)
	if actor == nil {
		writeForbidden(w, h.logger)
		return
	}

	rating, err := h.service.RateOrder(r.Context(), orderID, actor.ID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rating)
}

// ByDriver handles GET /api/drivers/{id}/ratings requests.
func (h *RatingHandler) ByDriver(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceCatalog, permission.OpRead, driverID) &&
		!h.guard.IsDriverProfile(r.Context(), ident, driverID) {
		writeForbidden(w, h.logger)
		return
	}

	ratings, err := h.service.ListByTarget(r.Context(), model.RatingTargetDriver, driverID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ratings)
}

// ByMerchant handles GET /api/merchants/{id}/ratings requests.
func (h *RatingHandler) ByMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceCatalog, permission.OpRead, merchantID) {
		writeForbidden(w, h.logger)
		return
	}

	ratings, err := h.service.ListByTarget(r.Context(), model.RatingTargetMerchant, merchantID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ratings)
}
