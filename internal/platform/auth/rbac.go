package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that rejects requests whose authenticated
// principal does not hold at least one of the given roles. The admin role
// passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	want := make(map[string]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held := RolesFromContext(c.Request().Context())
			for _, r := range held {
				if r == "admin" || want[r] {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
