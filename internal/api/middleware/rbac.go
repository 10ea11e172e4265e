package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// RBAC enforces role-based access control. It must be mounted after Auth;
// a request without a principal is rejected like one with the wrong role.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions").
					SetInternal(fmt.Errorf("%w: no principal", domain.ErrForbidden))
			}
			if _, ok := allowed[p.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions").
					SetInternal(fmt.Errorf("%w: role %q", domain.ErrForbidden, p.Role))
			}
			return next(c)
		}
	}
}
