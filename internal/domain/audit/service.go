package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	platformaudit "github.com/clinicore/clinicore/internal/platform/audit"
)

// Service persists and queries compliance audit records. It satisfies both
// sink interfaces of the audit pipeline: platformaudit.Sink for the request
// trail and platformaudit.EntityAuditSink for the medical-record access log.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log stores one pipeline record. Called from a background goroutine; the
// context carries only the dispatch deadline.
func (s *Service) Log(ctx context.Context, rec *platformaudit.Record) error {
	return s.repo.InsertLog(ctx, fromRecord(rec))
}

// LogAccess stores one medical-record access event.
func (s *Service) LogAccess(ctx context.Context, entityID, userID, accessType, tenantID, ip, userAgent string) error {
	return s.repo.InsertAccess(ctx, &AccessLogEntry{
		ID:         uuid.New(),
		RecordID:   entityID,
		UserID:     userID,
		AccessType: accessType,
		TenantID:   tenantID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		AccessedAt: time.Now().UTC(),
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LogEntry, error) {
	return s.repo.GetLog(ctx, id)
}

func (s *Service) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*LogEntry, int, error) {
	return s.repo.SearchLogs(ctx, f, limit, offset)
}

func (s *Service) RecordAccesses(ctx context.Context, recordID string, limit, offset int) ([]*AccessLogEntry, int, error) {
	return s.repo.ListAccesses(ctx, recordID, limit, offset)
}

func fromRecord(rec *platformaudit.Record) *LogEntry {
	return &LogEntry{
		ID:            uuid.New(),
		TenantID:      rec.TenantID,
		ActorID:       rec.ActorID,
		ActorName:     rec.ActorName,
		ActorEmail:    rec.ActorEmail,
		Action:        string(rec.Action),
		Description:   rec.Description,
		EntityType:    rec.EntityType,
		EntityID:      rec.EntityID,
		IPAddress:     rec.IPAddress,
		UserAgent:     rec.UserAgent,
		Path:          rec.Path,
		Method:        rec.Method,
		Outcome:       string(rec.Outcome),
		DataCategory:  string(rec.DataCategory),
		LegalPurpose:  string(rec.Purpose),
		Severity:      string(rec.Severity),
		StatusCode:    rec.StatusCode,
		FailureReason: rec.FailureReason,
		NewValues:     rec.NewValues,
		RecordedAt:    rec.RecordedAt,
	}
}
