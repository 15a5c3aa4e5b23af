package tenant

import (
	"github.com/labstack/echo/v4"
)

const (
	TenantIDHeader  = "X-Tenant-Id"
	SubdomainHeader = "X-Subdomain"
)

// Middleware resolves the tenant for every request and stores the result in
// the request context. Resolution failures never abort the request: the
// downstream handlers see an unscoped context and decide for themselves.
//
// On success the tenant id and subdomain are mirrored into the request
// headers (when not already present) so handlers that read headers directly
// keep working.
func Middleware(resolver *Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			tc := resolver.Resolve(req.Context(), req.Host, req.URL.Path)
			if tc == nil {
				return next(c)
			}

			if req.Header.Get(TenantIDHeader) == "" {
				req.Header.Set(TenantIDHeader, tc.TenantID)
			}
			if req.Header.Get(SubdomainHeader) == "" {
				req.Header.Set(SubdomainHeader, tc.Subdomain)
			}

			c.SetRequest(req.WithContext(WithContext(req.Context(), tc)))
			c.Set("tenant_id", tc.TenantID)

			return next(c)
		}
	}
}
