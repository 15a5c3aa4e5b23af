package audit

import (
	"fmt"
	"time"
)

// Anonymous actor sentinels. Records are never written with empty identity
// fields: an explicit sentinel lets the sink distinguish "known anonymous"
// from a malformed record.
const (
	AnonymousID    = "anonymous"
	AnonymousName  = "Anonymous"
	AnonymousEmail = "unknown@unknown.com"
)

// Identity is the authenticated principal, as far as the request revealed
// one. Empty fields degrade to the anonymous sentinels at build time.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// Record is the immutable audit entry handed to the sink. Ownership
// transfers to the sink on dispatch; the pipeline keeps no reference.
type Record struct {
	ActorID       string
	ActorName     string
	ActorEmail    string
	Action        Action
	Description   string
	EntityType    string
	EntityID      string
	IPAddress     string
	UserAgent     string
	Path          string
	Method        string
	Outcome       Outcome
	DataCategory  DataCategory
	Purpose       LegalPurpose
	Severity      Severity
	TenantID      string
	StatusCode    int
	FailureReason string
	OldValues     []byte
	NewValues     []byte
	ChangedFields []string
	RecordedAt    time.Time
}

// BuildInput carries everything the builder needs; all fields are plain
// data so the record can outlive the request that produced it.
type BuildInput struct {
	Identity      Identity
	Decision      Decision
	Entity        EntityRef
	TenantID      string
	Method        string
	Path          string
	IPAddress     string
	UserAgent     string
	StatusCode    int
	FailureReason string
	NewValues     []byte
}

// Builder assembles audit records. It is stateless and safe for concurrent
// use.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build assembles the record for one audited request. It always produces a
// record — an unauthenticated request against a sensitive path is recorded
// with the anonymous sentinels, never skipped.
func (b *Builder) Build(in BuildInput) *Record {
	outcome := OutcomeFromStatus(in.StatusCode)

	rec := &Record{
		ActorID:       orSentinel(in.Identity.ID, AnonymousID),
		ActorName:     orSentinel(in.Identity.Name, AnonymousName),
		ActorEmail:    orSentinel(in.Identity.Email, AnonymousEmail),
		Action:        in.Decision.Action,
		EntityType:    in.Entity.EntityType,
		EntityID:      in.Entity.EntityID,
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
		Path:          in.Path,
		Method:        in.Method,
		Outcome:       outcome,
		DataCategory:  in.Decision.DataCategory,
		Purpose:       in.Decision.Purpose,
		Severity:      severityFor(in.StatusCode, outcome, in.Decision),
		TenantID:      in.TenantID,
		StatusCode:    in.StatusCode,
		FailureReason: in.FailureReason,
		NewValues:     in.NewValues,
		RecordedAt:    time.Now().UTC(),
	}
	rec.Description = describe(rec)
	return rec
}

// OutcomeFromStatus maps an HTTP status code to the record outcome.
func OutcomeFromStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == 401 || status == 403:
		return OutcomeUnauthorized
	case status >= 300:
		return OutcomeFailed
	default:
		return OutcomeFailed
	}
}

// severityFor grades a record. First match wins, highest precedence first:
// server errors, then failed or unauthorized outcomes, then the action
// itself. A DELETE is at least WARNING even when it succeeds.
func severityFor(status int, outcome Outcome, d Decision) Severity {
	switch {
	case status >= 500:
		return SeverityCritical
	case outcome == OutcomeFailed:
		return SeverityError
	case outcome == OutcomeUnauthorized:
		return SeverityWarning
	case d.Action == ActionDelete || d.Action == ActionDataDeletionRequest:
		return SeverityWarning
	case d.Action == ActionCreate || d.Action == ActionUpdate ||
		d.Action == ActionExport || d.Action == ActionDataPortabilityRequest:
		if d.DataCategory == CategoryHealth {
			return SeverityWarning
		}
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

func describe(r *Record) string {
	target := r.EntityType
	if r.EntityID != "" {
		target = fmt.Sprintf("%s %s", r.EntityType, r.EntityID)
	}
	return fmt.Sprintf("%s performed %s on %s via %s %s (%s)",
		r.ActorName, r.Action, target, r.Method, r.Path, r.Outcome)
}

func orSentinel(v, sentinel string) string {
	if v == "" {
		return sentinel
	}
	return v
}
