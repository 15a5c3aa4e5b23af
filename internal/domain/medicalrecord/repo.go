package medicalrecord

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	Create(ctx context.Context, rec *Record) error
	// Update persists clinical content; callers gate on status first.
	Update(ctx context.Context, rec *Record) error
	Close(ctx context.Context, id uuid.UUID, closedBy string) error
	Reopen(ctx context.Context, id uuid.UUID) error
}
