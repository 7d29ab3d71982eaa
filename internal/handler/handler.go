package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"order-composer/internal/middleware"
	"order-composer/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err to a status code and writes the error body. Errors
// that are not domain errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())

	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Str("request_id", requestID).Str("path", r.URL.Path).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:         model.ErrCodeInternalError,
			Kind:          model.KindUnexpected,
			Message:       "An unexpected error occurred",
			CorrelationID: requestID,
		})
		return
	}

	status := statusFor(de.Kind)
	logger.Warn().Str("code", de.Code).Str("request_id", requestID).Int("status", status).Msg(de.Message)
	writeJSON(w, status, model.ErrorResponse{
		Error:         de.Code,
		Kind:          de.Kind,
		Message:       de.Message,
		CorrelationID: requestID,
	})
}

func statusFor(kind model.Kind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindOrderActivated, model.KindNotActivatable, model.KindAlreadyActivated, model.KindSelectionConflict:
		return http.StatusConflict
	case model.KindInvalidQuantity, model.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewDomainError(model.KindInvalidRequest, model.ErrCodeInvalidJSON, "Request body is required")
		}
		return model.ErrInvalidJSON
	}
	return nil
}

// orderIDParam parses the {orderID} URL parameter.
func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.KindInvalidRequest, model.ErrCodeInvalidID, "Invalid order ID format")
	}
	return id, nil
}
