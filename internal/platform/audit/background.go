package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EntityAuditSink persists per-entity access events. It backs the
// medical-record access log, which is narrower than the main audit trail and
// keyed by entity rather than request.
type EntityAuditSink interface {
	LogAccess(ctx context.Context, entityID, userID, accessType, tenantID, ip, userAgent string) error
}

// MedicalRecordAuditor writes medical-record access events in the
// background. Every call detaches immediately; the caller is never blocked
// and never observes a sink failure.
type MedicalRecordAuditor struct {
	sink    EntityAuditSink
	logger  zerolog.Logger
	timeout time.Duration
}

func NewMedicalRecordAuditor(sink EntityAuditSink, logger zerolog.Logger) *MedicalRecordAuditor {
	return &MedicalRecordAuditor{
		sink:    sink,
		logger:  logger,
		timeout: defaultDispatchTimeout,
	}
}

// Record logs one access event asynchronously. All arguments are plain
// strings; the goroutine holds nothing request-scoped and runs under its own
// deadline.
func (a *MedicalRecordAuditor) Record(entityID, userID, accessType, tenantID, ip, userAgent string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error().
					Interface("panic", r).
					Str("record_id", entityID).
					Msg("medical record audit sink panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.sink.LogAccess(ctx, entityID, userID, accessType, tenantID, ip, userAgent); err != nil {
			a.logger.Error().Err(err).
				Str("record_id", entityID).
				Str("access_type", accessType).
				Msg("medical record access log failed")
		}
	}()
}

// AccessTypeFor maps a medical-record request to its access log type. Path
// suffixes name lifecycle operations and win over the verb; an empty result
// means the operation is not access-logged.
func AccessTypeFor(method, path string) string {
	p := strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(p, "/close"):
		return "close"
	case strings.HasSuffix(p, "/reopen"):
		return "reopen"
	case strings.HasSuffix(p, "/export"):
		return "export"
	}
	switch method {
	case http.MethodGet:
		return "view"
	case http.MethodPut, http.MethodPatch:
		return "edit"
	case http.MethodPost:
		return "create"
	}
	return ""
}
