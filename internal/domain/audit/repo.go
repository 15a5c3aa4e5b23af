package audit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	InsertLog(ctx context.Context, e *LogEntry) error
	GetLog(ctx context.Context, id uuid.UUID) (*LogEntry, error)
	SearchLogs(ctx context.Context, f SearchFilter, limit, offset int) ([]*LogEntry, int, error)

	InsertAccess(ctx context.Context, e *AccessLogEntry) error
	ListAccesses(ctx context.Context, recordID string, limit, offset int) ([]*AccessLogEntry, int, error)
}
