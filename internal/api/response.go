package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeExternalAPIError = "EXTERNAL_API_ERROR"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Details   string       `json:"details,omitempty"`
	RequestID string       `json:"request_id"`
	Timestamp time.Time    `json:"timestamp"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError represents a field-level validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// statusResponse is the acknowledgement returned by write endpoints.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON encodes v before touching the response, so a value that cannot be
// encoded turns into a 500 instead of an empty 200.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		h.logger.Error("encode response",
			zap.String("request_id", reqID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: ErrorDetail{
			Code:      ErrCodeInternalServer,
			Message:   "Failed to encode response",
			RequestID: reqID,
			Timestamp: h.now(),
		}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Debug("write response", zap.Error(err))
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	resp := ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: h.now(),
	}}
	log := h.logger.With(
		zap.String("request_id", resp.Error.RequestID),
		zap.String("error_code", code),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error(message, zap.String("details", details))
	} else {
		log.Warn(message, zap.String("details", details))
	}
	h.writeJSON(w, r, status, resp)
}

func (h *handler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.writeError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, message, "")
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request, message, details string) {
	h.writeError(w, r, http.StatusNotFound, ErrCodeNotFound, message, details)
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, http.StatusInternalServerError, ErrCodeInternalServer, "An unexpected error occurred", err.Error())
}

func (h *handler) databaseError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Database operation failed", err.Error())
}

func (h *handler) externalAPIError(w http.ResponseWriter, r *http.Request, service string, err error) {
	h.writeError(w, r, http.StatusBadGateway, ErrCodeExternalAPIError, service+" service error", err.Error())
}

func (h *handler) validationError(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	resp := ErrorResponse{Error: ErrorDetail{
		Code:      ErrCodeValidation,
		Message:   "Request validation failed",
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: h.now(),
		Fields:    fields,
	}}
	h.logger.Warn("validation error",
		zap.String("request_id", resp.Error.RequestID),
		zap.Int("field_count", len(fields)))
	h.writeJSON(w, r, http.StatusBadRequest, resp)
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.badRequest(w, r, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.badRequest(w, r, err.Error())
			return false
		}
		fields := make([]FieldError, len(verrs))
		for i, fe := range verrs {
			fields[i] = FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
		}
		h.validationError(w, r, fields)
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed on " + fe.Tag()
	}
}
