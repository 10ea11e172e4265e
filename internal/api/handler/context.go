package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/api/middleware"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	maxPageSize      = 100
	defaultCaseSize  = 10
	defaultChildSize = 20

	// maxPage keeps (page-1)*pageSize inside int for any accepted pageSize.
	maxPage = math.MaxInt / maxPageSize
)

// principal extracts the caller injected by the Auth middleware. Its absence
// means the route was mounted without Auth.
func principal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims").
			SetInternal(domain.ErrUnauthenticated)
	}
	return p, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

// pageParams reads page and pageSize. Both must be integers >= 1 when
// present; page is capped at maxPage and pageSize is clamped to maxPageSize.
func pageParams(c echo.Context, defaultSize int) (ports.Page, error) {
	page := ports.Page{Number: 1, Size: defaultSize}

	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, domain.ValidationError("page must be an integer >= 1")
		}
		if n > maxPage {
			return page, domain.ValidationError("page must be at most %d", maxPage)
		}
		page.Number = n
	}
	if raw := strings.TrimSpace(c.QueryParam("pageSize")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, domain.ValidationError("pageSize must be an integer >= 1")
		}
		page.Size = min(n, maxPageSize)
	}
	return page, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	return c.Validate(req)
}
