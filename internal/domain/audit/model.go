package audit

import (
	"time"

	"github.com/google/uuid"
)

// LogEntry is a persisted compliance audit record. Rows are append-only;
// nothing in the platform updates or deletes them.
type LogEntry struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenant_id"`
	ActorID       string    `db:"actor_id" json:"actor_id"`
	ActorName     string    `db:"actor_name" json:"actor_name"`
	ActorEmail    string    `db:"actor_email" json:"actor_email"`
	Action        string    `db:"action" json:"action"`
	Description   string    `db:"description" json:"description"`
	EntityType    string    `db:"entity_type" json:"entity_type"`
	EntityID      string    `db:"entity_id" json:"entity_id"`
	IPAddress     string    `db:"ip_address" json:"ip_address"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	Path          string    `db:"path" json:"path"`
	Method        string    `db:"method" json:"method"`
	Outcome       string    `db:"outcome" json:"outcome"`
	DataCategory  string    `db:"data_category" json:"data_category"`
	LegalPurpose  string    `db:"legal_purpose" json:"legal_purpose"`
	Severity      string    `db:"severity" json:"severity"`
	StatusCode    int       `db:"status_code" json:"status_code"`
	FailureReason string    `db:"failure_reason" json:"failure_reason,omitempty"`
	NewValues     []byte    `db:"new_values" json:"new_values,omitempty"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

// AccessLogEntry is one entry in the medical-record access log, the
// narrower per-entity trail kept alongside the main audit log.
type AccessLogEntry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RecordID   string    `db:"record_id" json:"record_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	AccessType string    `db:"access_type" json:"access_type"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	AccessedAt time.Time `db:"accessed_at" json:"accessed_at"`
}

// SearchFilter narrows audit log queries. Zero values mean "no filter".
type SearchFilter struct {
	TenantID     string
	ActorID      string
	Action       string
	EntityType   string
	Outcome      string
	Severity     string
	DataCategory string
	From         time.Time
	To           time.Time
}
