package audit

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EntityRef identifies the business entity a request path addresses.
// EntityID is populated only when a path segment parses fully as a GUID or
// a base-10 integer; it is never guessed.
type EntityRef struct {
	EntityType string
	EntityID   string
}

// UnknownEntity is the fallback type label for paths with no known resource
// marker.
const UnknownEntity = "Unknown"

// entityKeyword maps a path marker to an entity type label. Entries are
// evaluated in order; the first hit wins, so the more specific markers come
// first.
type entityKeyword struct {
	Keyword string
	Type    string
}

func defaultEntityKeywords() []entityKeyword {
	return []entityKeyword{
		{"/medical-records", "MedicalRecord"},
		{"/clinical-records", "ClinicalRecord"},
		{"/health-insurance", "HealthInsurance"},
		{"/data-portability", "DataPortabilityRequest"},
		{"/data-deletion", "DataDeletionRequest"},
		{"/prescriptions", "Prescription"},
		{"/appointments", "Appointment"},
		{"/audit-logs", "AuditLog"},
		{"/patients", "Patient"},
		{"/invoices", "Invoice"},
		{"/clinics", "Clinic"},
		{"/consent", "Consent"},
		{"/exams", "Exam"},
		{"/users", "User"},
	}
}

// Extractor parses request paths into entity references.
type Extractor struct {
	keywords []entityKeyword
}

func NewExtractor() *Extractor {
	return &Extractor{keywords: defaultEntityKeywords()}
}

// Extract derives the entity type and, when present, the entity id from a
// request path. The id is the first segment after the api/{resource} prefix
// that parses as a GUID or integer; scanning stops at the first match.
func (e *Extractor) Extract(path string) EntityRef {
	ref := EntityRef{EntityType: UnknownEntity}

	lower := strings.ToLower(path)
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw.Keyword) {
			ref.EntityType = kw.Type
			break
		}
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return ref
	}

	// Skip the leading "api" marker and the resource name that follows it.
	start := 1
	for i, seg := range segments {
		if strings.EqualFold(seg, "api") {
			start = i + 2
			break
		}
	}
	if start > len(segments) {
		return ref
	}

	for _, seg := range segments[start:] {
		if isIdentifier(seg) {
			ref.EntityID = seg
			break
		}
	}

	return ref
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// isIdentifier reports whether a segment parses fully as a GUID or as a
// base-10 integer. Anything looser would misread segments like "v2".
func isIdentifier(seg string) bool {
	if _, err := uuid.Parse(seg); err == nil {
		return true
	}
	if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
		return true
	}
	return false
}
