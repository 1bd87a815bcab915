// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses so every handler
// sets status, headers and body the same way.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"costmanager/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
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

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body, err := json.Marshal(b.payload)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// errorBody is the payload of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorJSON creates an error response with the given status and message.
func ErrorJSON(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorJSON(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorJSON(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorJSON(http.StatusInternalServerError, "internal server error")
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorJSON(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

// FromError maps a domain error to a response. Validation failures are 400,
// unknown users 404 and anything else 500 without leaking the cause.
func FromError(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return BadRequestError(verr.Error())
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("user not found")
	default:
		return InternalServerError()
	}
}
