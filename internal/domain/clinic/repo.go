package clinic

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	// GetBySubdomain returns (nil, nil) when no clinic is registered for
	// the subdomain.
	GetBySubdomain(ctx context.Context, subdomain string) (*Clinic, error)
	GetByTenantID(ctx context.Context, tenantID string) (*Clinic, error)
	List(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
	Create(ctx context.Context, c *Clinic) error
	Update(ctx context.Context, c *Clinic) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
