package handler

import (
	"net/http"
	"time"

	"booze-courier/internal/middleware"
	"booze-courier/internal/model"
	"booze-courier/internal/permission"
	"booze-courier/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles payment-ledger HTTP requests. Writes to the ledger
// happen only through order orchestration; these endpoints are read-only
// plus the admin reporting query.
type PaymentHandler struct {
	service service.PaymentService
	guard   *permission.Guard
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, guard *permission.Guard, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		guard:   guard,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// GetByOrder handles GET /api/orders/{id}/payment requests, returning the
// order's current payment state.
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourcePayment, permission.OpRead, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	payment, err := h.service.GetByOrderID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// Ledger handles GET /api/orders/{id}/payments requests, returning the full
// audit trail for the order, oldest entry first.
func (h *PaymentHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourcePayment, permission.OpRead, orderID) {
		writeForbidden(w, h.logger)
		return
	}

	payments, err := h.service.LedgerByOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

// ByUser handles GET /api/users/{id}/payments requests, returning the user's
// ledger entries across all their orders, newest first.
func (h *PaymentHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.IsSelf(r.Context(), ident, userID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	payments, err := h.service.HistoryByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

// revenueResponse is the admin revenue report payload.
type revenueResponse struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Revenue float64   `json:"revenue"`
}

// Revenue handles GET /api/payments/revenue requests. Admin-only.
func (h *PaymentHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	start, err := queryTime(r, "start")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	revenue, err := h.service.RevenueBetween(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, revenueResponse{Start: start, End: end, Revenue: revenue})
}

// queryTime parses a required RFC 3339 query parameter.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, model.NewValidationError("query parameter %s is required", name)
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError("query parameter %s must be RFC 3339", name)
	}
	return value, nil
}
