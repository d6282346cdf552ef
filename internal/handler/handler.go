package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON writes a JSON response with the given status code. The header is
// already on the wire if encoding fails, so there is nothing to send back.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a domain error to its HTTP status. Unknown errors
// become an opaque 500 so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case model.KindValidation:
		status = http.StatusBadRequest
	case model.KindNotFound:
		status = http.StatusNotFound
	case model.KindAuthorization:
		status = http.StatusForbidden
	case model.KindCompliance:
		status = http.StatusUnprocessableEntity
	case model.KindStateTransition, model.KindConflict:
		status = http.StatusConflict
	}

	logger.Warn().
		Str("kind", string(domainErr.Kind)).
		Str("error", domainErr.Message).
		Int("status", status).
		Msg("request rejected")
	writeJSON(w, status, ErrorResponse{Error: domainErr.Message, Kind: string(domainErr.Kind)})
}

// writeForbidden rejects the request after a failed capability check.
func writeForbidden(w http.ResponseWriter, logger zerolog.Logger) {
	logger.Warn().Msg("access denied")
	writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "access denied", Kind: string(model.KindAuthorization)})
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	value := r.PathValue(name)
	if value == "" {
		return uuid.Nil, model.NewValidationError("%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid %s format", name)
	}
	return id, nil
}
