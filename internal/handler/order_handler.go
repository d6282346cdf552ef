package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"booze-courier/internal/middleware"
	"booze-courier/internal/model"
	"booze-courier/internal/permission"
	"booze-courier/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	guard   *permission.Guard
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, guard *permission.Guard, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		guard:   guard,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if actor := h.guard.Resolve(r.Context(), ident); actor != nil && actor.HasRole(model.RoleCustomer) {
		// Customers can only order for themselves.
		req.CustomerID = actor.ID
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetByCustomer handles GET /api/customers/{id}/orders requests.
func (h *OrderHandler) GetByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.IsSelf(r.Context(), ident, customerID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	orders, err := h.service.GetByCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByMerchant handles GET /api/merchants/{id}/orders requests.
func (h *OrderHandler) GetByMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.OwnsMerchant(r.Context(), ident, merchantID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	orders, err := h.service.GetByMerchant(r.Context(), merchantID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceOrder, permission.OpCancel, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	order, err := h.service.Cancel(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// statusUpdateRequest is the payload for status transition endpoints.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
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
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceOrder, permission.OpUpdateStatus, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// estimateRequest is the payload for delivery estimates.
type estimateRequest struct {
	EstimatedDeliveryTime time.Time `json:"estimatedDeliveryTime"`
}

// UpdateEstimate handles PUT /api/orders/{id}/estimate requests.
func (h *OrderHandler) UpdateEstimate(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.EstimatedDeliveryTime.IsZero() {
		writeDomainError(w, model.NewValidationError("estimatedDeliveryTime is required"), h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceOrder, permission.OpUpdateStatus, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	if err := h.service.UpdateEstimatedDeliveryTime(r.Context(), orderID, req.EstimatedDeliveryTime); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FindAssignable handles GET /api/orders/assignable requests. Drivers query
// with their current coordinates; radius is optional.
func (h *OrderHandler) FindAssignable(defaultRadiusKm float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFrom(r.Context())
		if !h.guard.HasRole(r.Context(), ident, model.RoleDriver) &&
			!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
			writeForbidden(w, h.logger)
			return
		}

		lat, err := queryFloat(r, "lat")
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		lon, err := queryFloat(r, "lon")
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		radiusKm := defaultRadiusKm
		if r.URL.Query().Has("radiusKm") {
			if radiusKm, err = queryFloat(r, "radiusKm"); err != nil {
				writeDomainError(w, err, h.logger)
				return
			}
		}

		orders, err := h.service.FindAssignableNear(r.Context(), lat, lon, radiusKm)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, model.NewValidationError("query parameter %s is required", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, model.NewValidationError("query parameter %s must be a number", name)
	}
	return value, nil
}
