package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/api/response"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// knownErrors maps specific domain errors to fixed client messages. They are
// checked before the error classes below.
var knownErrors = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{domain.ErrAccountDisabled, http.StatusForbidden, "User account is disabled"},
	{domain.ErrUserExists, http.StatusConflict, "User with this email already exists"},
	{domain.ErrRequestInProgress, http.StatusConflict, "A request with this Idempotency-Key is still in progress"},
	{domain.ErrCaseNotFound, http.StatusNotFound, "Case not found"},
	{domain.ErrNoteNotFound, http.StatusNotFound, "Note not found"},
	{domain.ErrDocumentNotFound, http.StatusNotFound, "Document not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the failure envelope {"status":"error","message":...}, adding
//     the underlying error text in development.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)

		diagnostic := ""
		if development {
			diagnostic = err.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = response.Error(c, code, msg, diagnostic)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router) and the ones raised
	// by the auth middleware.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return k.code, k.msg
		}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	}

	// Unexpected error, including an unavailable store: log the real cause,
	// return a generic message.
	logUnhandled(log, c, err)
	return http.StatusInternalServerError, "Internal server error"
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
