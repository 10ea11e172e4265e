// Package response renders the JSON envelopes shared by every endpoint.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Success is the envelope of every 2xx response.
type Success struct {
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data"`
	Pagination *ports.Pagination `json:"pagination,omitempty"`
}

// Failure is the envelope of every error response. Error carries diagnostics
// and is only populated in development.
type Failure struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, Success{Status: statusSuccess, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusCreated, Success{Status: statusSuccess, Message: message, Data: data})
}

// Paged writes a 200 success envelope with pagination metadata.
func Paged(c echo.Context, message string, data any, p ports.Pagination) error {
	return c.JSON(http.StatusOK, Success{Status: statusSuccess, Message: message, Data: data, Pagination: &p})
}

// Error writes a failure envelope with the given status code.
func Error(c echo.Context, code int, message, diagnostic string) error {
	return c.JSON(code, Failure{Status: statusError, Message: message, Error: diagnostic})
}
