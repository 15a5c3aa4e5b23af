package audit

import (
	"net/http"
	"strings"
)

// Decision is the classifier's verdict for one request. It is derived purely
// from method and path and is safe to recompute at will.
type Decision struct {
	ShouldAudit  bool
	Action       Action
	DataCategory DataCategory
	Purpose      LegalPurpose
}

// ActionOverride promotes a request to a specific action when the path
// contains the keyword, regardless of the HTTP verb.
type ActionOverride struct {
	Keyword string
	Action  Action
}

// CategoryRule assigns a data category when the path contains any of the
// keywords. Rules are evaluated in slice order; the first hit wins.
type CategoryRule struct {
	Keywords []string
	Category DataCategory
}

// Rules is the immutable rule set a Classifier runs on. Build one with
// DefaultRules and inject it, so tests can substitute fixtures and tenants
// can diverge without touching package state.
type Rules struct {
	// ExcludedPrefixes are never audited regardless of verb. A prefix
	// matches only on a whole path segment, so "/health" covers
	// "/health/db" but not "/health-insurance".
	ExcludedPrefixes []string
	// SensitiveKeywords gate auditing of GET requests: reads are only
	// audited when the path contains one of these resource markers.
	SensitiveKeywords []string
	// ActionOverrides are checked in order before the verb mapping.
	ActionOverrides []ActionOverride
	// CategoryLadder is evaluated top-down; order encodes precedence
	// (HEALTH before PERSONAL before FINANCIAL).
	CategoryLadder []CategoryRule
}

// DefaultRules returns the platform rule set. The category ladder order is
// load-bearing: a path matching both a health and a financial keyword
// classifies as HEALTH.
func DefaultRules() Rules {
	return Rules{
		ExcludedPrefixes: []string{
			"/health",
			"/metrics",
			"/swagger",
			"/docs",
			"/assets",
			"/static",
			"/favicon.ico",
		},
		SensitiveKeywords: []string{
			"/patients",
			"/medical-records",
			"/clinical-records",
			"/prescriptions",
			"/exams",
			"/users",
			"/auth",
			"/audit",
			"/financial",
			"/appointments",
			"/consent",
			"/data-portability",
			"/data-deletion",
			"/health-insurance",
		},
		ActionOverrides: []ActionOverride{
			{Keyword: "/export", Action: ActionExport},
			{Keyword: "/consent", Action: ActionDataAccessRequest},
			{Keyword: "/data-deletion", Action: ActionDataDeletionRequest},
			{Keyword: "/data-portability", Action: ActionDataPortabilityRequest},
		},
		CategoryLadder: []CategoryRule{
			{Keywords: []string{"medical-records", "clinical-records", "prescriptions", "exams", "attendance", "clinical"}, Category: CategoryHealth},
			{Keywords: []string{"patients", "users", "auth"}, Category: CategoryPersonal},
			{Keywords: []string{"financial", "payment", "billing", "invoices", "health-insurance"}, Category: CategoryFinancial},
		},
	}
}

// Classifier decides, per request, whether audit capture is required and
// which taxonomy values apply. It is a pure function of (method, path).
type Classifier struct {
	rules Rules
}

func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify derives the sensitivity decision for a method and path.
func (cl *Classifier) Classify(method, path string) Decision {
	lower := strings.ToLower(path)

	if cl.excluded(lower) {
		return Decision{ShouldAudit: false}
	}

	action := cl.action(method, lower)
	category := cl.category(lower)

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		// Mutations against non-excluded paths are always captured.
		return Decision{ShouldAudit: true, Action: action, DataCategory: category, Purpose: PurposeFor(action)}
	case http.MethodGet:
		if cl.sensitive(lower) {
			return Decision{ShouldAudit: true, Action: action, DataCategory: category, Purpose: PurposeFor(action)}
		}
		return Decision{ShouldAudit: false}
	default:
		return Decision{ShouldAudit: false}
	}
}

func (cl *Classifier) excluded(path string) bool {
	for _, prefix := range cl.rules.ExcludedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (cl *Classifier) sensitive(path string) bool {
	for _, kw := range cl.rules.SensitiveKeywords {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

func (cl *Classifier) action(method, path string) Action {
	for _, ov := range cl.rules.ActionOverrides {
		if strings.Contains(path, ov.Keyword) {
			return ov.Action
		}
	}

	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

func (cl *Classifier) category(path string) DataCategory {
	for _, rule := range cl.rules.CategoryLadder {
		for _, kw := range rule.Keywords {
			if strings.Contains(path, kw) {
				return rule.Category
			}
		}
	}
	return CategorySystem
}
