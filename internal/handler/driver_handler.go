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

// DriverHandler handles driver-profile HTTP requests.
type DriverHandler struct {
	service service.DriverService
	guard   *permission.Guard
	logger  zerolog.Logger
}

// NewDriverHandler creates a new driver handler.
func NewDriverHandler(service service.DriverService, guard *permission.Guard, logger zerolog.Logger) *DriverHandler {
	return &DriverHandler{
		service: service,
		guard:   guard,
		logger:  logger.With().Str("handler", "driver").Logger(),
	}
}

// registerRequest is the payload for driver registration.
type registerRequest struct {
	UserID       uuid.UUID `json:"userId"`
	VehicleType  string    `json:"vehicleType"`
	LicensePlate string    `json:"licensePlate"`
}

// Register handles POST /api/drivers requests. Users register themselves;
// admins may register on behalf of a user.
func (h *DriverHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.IsSelf(r.Context(), ident, req.UserID) &&
		!h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	driver, err := h.service.Register(r.Context(), req.UserID, req.VehicleType, req.LicensePlate)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, driver)
}

// GetByID handles GET /api/drivers/{id} requests.
func (h *DriverHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceDriverProfile, permission.OpRead, driverID) {
		writeForbidden(w, h.logger)
		return
	}

	driver, err := h.service.GetByID(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

// certificationRequest is the payload for compliance review outcomes.
type certificationRequest struct {
	Status string `json:"status"`
}

// UpdateCertification handles PUT /api/drivers/{id}/certification requests.
// Compliance review is admin-only.
func (h *DriverHandler) UpdateCertification(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req certificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.HasRole(r.Context(), ident, model.RoleAdmin) {
		writeForbidden(w, h.logger)
		return
	}

	driver, err := h.service.UpdateCertification(r.Context(), driverID, model.CertificationStatus(req.Status))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

// availabilityRequest is the payload for availability toggles.
type availabilityRequest struct {
	Available bool `json:"available"`
}

// UpdateAvailability handles PUT /api/drivers/{id}/availability requests.
func (h *DriverHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	ident := middleware.IdentityFrom(r.Context())
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceDriverProfile, permission.OpWrite, driverID) {
		writeForbidden(w, h.logger)
		return
	}

	driver, err := h.service.UpdateAvailability(r.Context(), driverID, req.Available)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

// UpdateLocation handles PUT /api/drivers/{id}/location requests.
func (h *DriverHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathUUID(r, "id")
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
	if !h.guard.CanAccess(r.Context(), ident, permission.ResourceDriverProfile, permission.OpWrite, driverID) {
		writeForbidden(w, h.logger)
		return
	}

	driver, err := h.service.UpdateLocation(r.Context(), driverID, req.Latitude, req.Longitude)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

// FindNearby handles GET /api/drivers/nearby requests. Radius is optional
// and given in meters.
func (h *DriverHandler) FindNearby(defaultRadiusMeters float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFrom(r.Context())
		if !h.guard.HasRole(r.Context(), ident, model.RoleAdmin) &&
			!h.guard.HasRole(r.Context(), ident, model.RoleMerchantAdmin) {
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
		radiusMeters := defaultRadiusMeters
		if r.URL.Query().Has("radiusMeters") {
			if radiusMeters, err = queryFloat(r, "radiusMeters"); err != nil {
				writeDomainError(w, err, h.logger)
				return
			}
		}

		drivers, err := h.service.FindNearbyAvailable(r.Context(), lat, lon, radiusMeters)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}

		writeJSON(w, http.StatusOK, drivers)
	}
}
