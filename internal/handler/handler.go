package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Vishal2827/pern-stack/internal/model"

	"github.com/rs/zerolog"
)

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:     http.StatusBadRequest,
	model.ErrCodeInvalidID:       http.StatusBadRequest,
	model.ErrCodeMissingField:    http.StatusBadRequest,
	model.ErrCodeProductNotFound: http.StatusNotFound,
	model.ErrCodeRouteNotFound:   http.StatusNotFound,
	model.ErrCodeRateLimited:     http.StatusTooManyRequests,
	model.ErrCodeForbidden:       http.StatusForbidden,
}

// writeJSON writes a JSON response with the given status code. The status is
// already sent when encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeSuccess writes a success envelope around data.
func writeSuccess(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	writeJSON(w, status, model.Success(data), logger)
}

// writeError writes a failure envelope with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.Failure(message), logger)
}

// writeFailure translates err into a status code and failure envelope.
// Domain errors keep their message; anything else is logged and reported as a
// generic internal error.
func writeFailure(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			writeError(w, status, de.Message, logger)
			return
		}
	}

	logger.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, model.Failure(model.ErrInternal.Message), logger)
}

// RouteNotFound answers requests no route matched.
func RouteNotFound(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, model.ErrRouteNotFound, logger)
	}
}

// decodeJSON decodes the request body into v. Any syntax or type error is
// reported as model.ErrInvalidJSON.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidJSON
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	return nil
}
