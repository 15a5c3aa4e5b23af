package audit

// Action classifies what a request does to regulated data.
type Action string

const (
	ActionRead                   Action = "READ"
	ActionCreate                 Action = "CREATE"
	ActionUpdate                 Action = "UPDATE"
	ActionDelete                 Action = "DELETE"
	ActionExport                 Action = "EXPORT"
	ActionDataAccessRequest      Action = "DATA_ACCESS_REQUEST"
	ActionDataDeletionRequest    Action = "DATA_DELETION_REQUEST"
	ActionDataPortabilityRequest Action = "DATA_PORTABILITY_REQUEST"
)

// DataCategory is the coarse LGPD classification of the data a request
// touches. It drives legal handling of the audit record downstream.
type DataCategory string

const (
	CategoryHealth    DataCategory = "HEALTH"
	CategoryPersonal  DataCategory = "PERSONAL"
	CategoryFinancial DataCategory = "FINANCIAL"
	CategorySystem    DataCategory = "SYSTEM"
)

// LegalPurpose is the LGPD processing basis recorded with each audit entry.
type LegalPurpose string

const (
	PurposeConsent            LegalPurpose = "CONSENT"
	PurposeLegalObligation    LegalPurpose = "LEGAL_OBLIGATION"
	PurposeLegitimateInterest LegalPurpose = "LEGITIMATE_INTEREST"
)

// Outcome is the result of the audited request as seen by the client.
type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeFailed       Outcome = "FAILED"
	OutcomeUnauthorized Outcome = "UNAUTHORIZED"
)

// Severity grades audit records for triage and retention policy.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// PurposeFor maps a resolved action to its LGPD processing basis.
func PurposeFor(action Action) LegalPurpose {
	switch action {
	case ActionDataAccessRequest:
		return PurposeConsent
	case ActionExport, ActionDataPortabilityRequest, ActionDataDeletionRequest:
		return PurposeLegalObligation
	default:
		return PurposeLegitimateInterest
	}
}
