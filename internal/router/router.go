package router

import (
	"net/http"

	"booze-courier/internal/config"
	"booze-courier/internal/handler"
	"booze-courier/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	deliveryHandler *handler.DeliveryHandler,
	driverHandler *handler.DriverHandler,
	paymentHandler *handler.PaymentHandler,
	ratingHandler *handler.RatingHandler,
	cfg *config.Config,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Orders. The assignable listing must be registered before the {id}
	// routes so the literal segment wins.
	mux.HandleFunc("GET /api/orders/assignable", orderHandler.FindAssignable(cfg.Dispatch.DefaultOrderRadiusKm))
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/cancel", orderHandler.Cancel)
	mux.HandleFunc("PUT /api/orders/{id}/status", orderHandler.UpdateStatus)
	mux.HandleFunc("PUT /api/orders/{id}/estimate", orderHandler.UpdateEstimate)
	mux.HandleFunc("GET /api/orders/{id}/delivery", deliveryHandler.GetByOrder)
	mux.HandleFunc("GET /api/orders/{id}/payment", paymentHandler.GetByOrder)
	mux.HandleFunc("GET /api/orders/{id}/payments", paymentHandler.Ledger)
	mux.HandleFunc("POST /api/orders/{id}/ratings", ratingHandler.Rate)
	mux.HandleFunc("GET /api/customers/{id}/orders", orderHandler.GetByCustomer)
	mux.HandleFunc("GET /api/merchants/{id}/orders", orderHandler.GetByMerchant)
	mux.HandleFunc("GET /api/merchants/{id}/ratings", ratingHandler.ByMerchant)
	mux.HandleFunc("GET /api/users/{id}/payments", paymentHandler.ByUser)

	// Deliveries.
	mux.HandleFunc("POST /api/deliveries/assign", deliveryHandler.Assign)
	mux.HandleFunc("GET /api/deliveries/{id}", deliveryHandler.GetByID)
	mux.HandleFunc("PUT /api/deliveries/{id}/status", deliveryHandler.UpdateStatus)
	mux.HandleFunc("POST /api/deliveries/{id}/verify-age", deliveryHandler.VerifyAge)
	mux.HandleFunc("PUT /api/deliveries/{id}/location", deliveryHandler.UpdateLocation)
	mux.HandleFunc("POST /api/deliveries/{id}/cancel", deliveryHandler.Cancel)

	// Drivers.
	mux.HandleFunc("GET /api/drivers/nearby", driverHandler.FindNearby(cfg.Dispatch.DefaultDriverRadiusMeters))
	mux.HandleFunc("POST /api/drivers", driverHandler.Register)
	mux.HandleFunc("GET /api/drivers/{id}", driverHandler.GetByID)
	mux.HandleFunc("PUT /api/drivers/{id}/certification", driverHandler.UpdateCertification)
	mux.HandleFunc("PUT /api/drivers/{id}/availability", driverHandler.UpdateAvailability)
	mux.HandleFunc("PUT /api/drivers/{id}/location", driverHandler.UpdateLocation)
	mux.HandleFunc("GET /api/drivers/{id}/deliveries", deliveryHandler.GetByDriver)
	mux.HandleFunc("GET /api/drivers/{id}/ratings", ratingHandler.ByDriver)

	// Payments reporting.
	mux.HandleFunc("GET /api/payments/revenue", paymentHandler.Revenue)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Identity
	var h http.Handler = mux
	h = middleware.Identity(h)
	h = middleware.APIKeyAuth(cfg.Auth.APIKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
