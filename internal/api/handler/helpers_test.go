package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

var (
	adminPrincipal   = domain.Principal{UserID: 1, Role: domain.RoleAdmin}
	managerPrincipal = domain.Principal{UserID: 2, Role: domain.RoleCaseManager}
)

// newTestContext builds an echo context for a JSON request. A zero principal
// leaves the request unauthenticated.
func newTestContext(method, target, body string, p domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p.UserID > 0 {
		c.Set("principal", p)
	}
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		TotalItems int64 `json:"totalItems"`
		Page       int   `json:"page"`
		PageSize   int   `json:"pageSize"`
		TotalPages int   `json:"totalPages"`
	} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return env
}
