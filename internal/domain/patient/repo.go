package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	// Anonymize blanks the identifying fields in place and marks the row.
	Anonymize(ctx context.Context, id uuid.UUID) error

	AddConsent(ctx context.Context, e *ConsentEvent) error
	ListConsents(ctx context.Context, patientID uuid.UUID) ([]*ConsentEvent, error)
}
