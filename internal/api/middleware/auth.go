package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/token"
)

const principalKey = "principal"

type principalCtxKey struct{}

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string, kind token.Kind) (*token.Claims, error)
}

// Auth validates the bearer access token and injects the caller's principal
// into the echo context and the request context.
//
// A request without a token is unauthenticated (401); a request presenting a
// token that fails verification is forbidden (403).
func Auth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No authentication token provided").
					SetInternal(domain.ErrUnauthenticated)
			}

			scheme, tok, _ := strings.Cut(authHeader, " ")
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No authentication token provided").
					SetInternal(domain.ErrUnauthenticated)
			}
			if !strings.EqualFold(scheme, "bearer") {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token").
					SetInternal(fmt.Errorf("%w: unsupported authorization scheme %q", domain.ErrForbidden, scheme))
			}

			claims, err := tokens.Verify(tok, token.Access)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token").
					SetInternal(fmt.Errorf("%w: %v", domain.ErrForbidden, err))
			}

			p := domain.Principal{UserID: claims.UserID, Role: claims.Role}
			c.Set(principalKey, p)
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))

			return next(c)
		}
	}
}

// PrincipalFrom returns the principal injected by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.UserID > 0
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(domain.Principal)
	return p, ok && p.UserID > 0
}
