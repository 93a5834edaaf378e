package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/validator"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message   string            `json:"msg"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// MessageResponse is a body carrying only a human-readable message.
type MessageResponse struct {
	Message string `json:"msg"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto its classified status and user-safe message.
// Unclassified errors become a generic 500 and are logged with the
// request-scoped logger, or fallback when none is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), fallback).ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, appErr.Status, ErrorResponse{
		Message:   appErr.Message,
		Code:      appErr.Code,
		RequestID: requestID,
	})
}

// WriteValidationError writes a 400 for a body that failed decoding or
// struct validation, listing per-field problems when available.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Message:   "invalid request body",
		Code:      apperrors.CodeInvalidInput,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp.Message = valErr.First()
		resp.Fields = valErr.Fields()
	} else if errors.Is(err, validator.ErrEmptyBody) {
		resp.Message = validator.ErrEmptyBody.Error()
	}

	WriteJSON(w, http.StatusBadRequest, resp)
}
