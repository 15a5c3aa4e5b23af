package tenant

import (
	"context"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// Clinic is the directory's view of a tenant. The directory is an external
// collaborator; only the fields the resolver needs are modeled here.
type Clinic struct {
	ID        string
	TenantID  string
	Subdomain string
	Schema    string
}

// Directory looks up clinics by subdomain. Implementations must be safe for
// concurrent use. A miss is reported as (nil, nil), not an error.
type Directory interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*Clinic, error)
}

// reservedPathSegments are top-level route prefixes that can never be a
// tenant identifier when falling back to path-based resolution.
var defaultReservedSegments = map[string]bool{
	"api":         true,
	"swagger":     true,
	"health":      true,
	"assets":      true,
	"static":      true,
	"auth":        true,
	"metrics":     true,
	"favicon.ico": true,
}

// Resolver derives a tenant from the request host (preferred) or the first
// path segment (fallback) and resolves it against the clinic directory.
type Resolver struct {
	directory Directory
	reserved  map[string]bool
	logger    zerolog.Logger
}

func NewResolver(directory Directory, logger zerolog.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		reserved:  defaultReservedSegments,
		logger:    logger,
	}
}

// SubdomainFromHost extracts a candidate subdomain from a host name.
// Returns "" when the host carries no subdomain signal: localhost, loopback
// and private addresses, bare domains, and the www label.
func SubdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "localhost" || strings.HasPrefix(host, "127.") || strings.HasPrefix(host, "192.168.") {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		// subdomain.domain.tld needs at least three labels
		return ""
	}

	sub := parts[0]
	if strings.EqualFold(sub, "www") {
		return ""
	}
	return sub
}

// CandidateFromPath extracts a candidate tenant identifier from the first
// path segment, unless that segment is a reserved route prefix.
func (r *Resolver) CandidateFromPath(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if r.reserved[strings.ToLower(seg)] {
			return ""
		}
		return seg
	}
	return ""
}

// Resolve derives the tenant for a request. Subdomain wins over path; a
// directory miss or lookup error degrades to an unscoped request (nil).
func (r *Resolver) Resolve(ctx context.Context, host, path string) *Context {
	candidate := SubdomainFromHost(host)
	if candidate == "" {
		candidate = r.CandidateFromPath(path)
	}
	if candidate == "" {
		return nil
	}

	clinic, err := r.directory.GetBySubdomain(ctx, candidate)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("subdomain", candidate).
			Msg("clinic directory lookup failed; request proceeds unscoped")
		return nil
	}
	if clinic == nil {
		r.logger.Info().
			Str("subdomain", candidate).
			Msg("no clinic registered for subdomain")
		return nil
	}

	return &Context{
		TenantID:  clinic.TenantID,
		Subdomain: candidate,
		ClinicID:  clinic.ID,
		Schema:    clinic.Schema,
	}
}
