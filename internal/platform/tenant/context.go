package tenant

import "context"

type contextKey string

const tenantContextKey contextKey = "tenant_context"

// Context identifies the clinic a request is scoped to. It is created once
// per request by the resolver middleware and is read-only afterward. A nil
// Context is legal: anonymous and public routes run unscoped.
type Context struct {
	TenantID  string
	Subdomain string
	ClinicID  string
	Schema    string
}

// WithContext returns a new context carrying the resolved tenant.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

// FromContext retrieves the resolved tenant from the request context.
// Returns nil when the request is unscoped.
func FromContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(tenantContextKey).(*Context)
	return tc
}
