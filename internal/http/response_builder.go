// This file implements the builder for JSON responses and the mapping from
// service errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/log"
	"carteira/internal/services"
)

// errorBody is the payload of every non-2xx response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	data       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a response header.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.data); err != nil {
		log.ForComponent(log.ComponentHTTP).Warn("Failed to encode response", log.FieldError, err)
	}
}

// ErrorResponse creates an error response with the given status and message.
func ErrorResponse(r *http.Request, statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: message, RequestID: requestID(r)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrEmptyCategory,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrInvalidInstallment,
	core.ErrInvalidDueDate,
	core.ErrInvalidMonth,
	core.ErrEmptyName,
	core.ErrTitleTooLong,
	core.ErrMissingID,
}

var notFoundErrors = []error{
	services.ErrTransactionNotFound,
	services.ErrAccountNotFound,
	services.ErrPaymentMethodNotFound,
	docstore.ErrNotFound,
}

// statusFor maps an error to its HTTP status and client-visible message.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, reqErr.Error()
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, err.Error()
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeError answers with the status mapped from err. Server errors are
// logged with the request logger and their detail is not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent())
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, operationFor(r.Method), fields)
	}
	ErrorResponse(r, status, msg).Write(w)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut, http.MethodPatch:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpList
	}
}
