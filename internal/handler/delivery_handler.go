package handler

import (
	"encoding/json"
	"net/http"

	"booze-courier/internal/middleware"
	"booze-courier/internal/model"
	"booze-courier/internal/permission"
	"booze-courier/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DeliveryHandler handles delivery-related HTTP requests.
type DeliveryHandler struct {
	service service.DeliveryService
	guard   *permission.Guard
	logger  zerolog.Logger
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(service service.DeliveryService, guard *permission.Guard, logger zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		guard:   guard,
		logger:  logger.With().Str("handler", "delivery").Logger(),
	}
}

// assignRequest is the payload for driver assignment.
type assignRequest struct {
	OrderID  uuid.UUID `json:"orderId"`
	DriverID uuid.UUID `json:"driverId"`
}

// Assign handles POST /api/deliveries/assign requests. Drivers claim for
// themselves; admins may assign any driver.
func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.IsDriverProfile(r.Context(), ident, req.DriverID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.AssignDriverToOrder(r.Context(), req.OrderID, req.DriverID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, delivery)
}

// GetByID handles GET /api/deliveries/{id} requests.
func (h *DeliveryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceDelivery, permission.OpRead, deliveryID) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.GetByID(r.Context(), deliveryID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// GetByOrder handles GET /api/orders/{id}/delivery requests.
func (h *DeliveryHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceOrder, permission.OpRead, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.GetByOrderID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// UpdateStatus handles PUT /api/deliveries/{id}/status requests.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceDelivery, permission.OpUpdateStatus, deliveryID) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.UpdateStatus(r.Context(), deliveryID, model.DeliveryStatus(req.Status))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// verifyAgeRequest is the payload for recipient age verification.
type verifyAgeRequest struct {
	Verified bool   `json:"verified"`
	IDType   string `json:"idType"`
	IDNumber string `json:"idNumber"`
}

// VerifyAge handles POST /api/deliveries/{id}/verify-age requests.
func (h *DeliveryHandler) VerifyAge(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req verifyAgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.DriverCanAccessDelivery(r.Context(), ident, deliveryID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.VerifyAge(r.Context(), deliveryID, req.Verified, req.IDType, req.IDNumber)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// locationRequest is the payload for live tracking updates.
type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation handles PUT /api/deliveries/{id}/location requests.
func (h *DeliveryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.DriverCanAccessDelivery(r.Context(), ident, deliveryID) {
		writeForbidden(w, h.logger)
		return
	}

	if err := h.service.UpdateLocation(r.Context(), deliveryID, req.Latitude, req.Longitude); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// cancelRequest is the payload for delivery cancellation.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/deliveries/{id}/cancel requests.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.DriverCanAccessDelivery(r.Context(), ident, deliveryID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	delivery, err := h.service.Cancel(r.Context(), deliveryID, req.Reason)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// GetByDriver handles GET /api/drivers/{id}/deliveries requests.
func (h *DeliveryHandler) GetByDriver(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.IsDriverProfile(r.Context(), ident, driverID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	deliveries, err := h.service.GetByDriver(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}
