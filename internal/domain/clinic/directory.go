package clinic

import (
	"context"

	"github.com/clinicore/clinicore/internal/platform/tenant"
)

// DirectoryAdapter exposes the clinic registry as the resolver's directory.
type DirectoryAdapter struct {
	svc *Service
}

func NewDirectoryAdapter(svc *Service) *DirectoryAdapter {
	return &DirectoryAdapter{svc: svc}
}

func (a *DirectoryAdapter) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Clinic, error) {
	c, err := a.svc.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return &tenant.Clinic{
		ID:        c.ID.String(),
		TenantID:  c.TenantID,
		Subdomain: c.Subdomain,
		Schema:    c.Schema(),
	}, nil
}
