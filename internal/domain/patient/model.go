package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a person under care at a clinic. Rows live in the tenant
// schema; the platform never mixes patients across clinics.
type Patient struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	SocialName   string     `db:"social_name" json:"social_name,omitempty"`
	CPF          string     `db:"cpf" json:"cpf,omitempty"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex          string     `db:"sex" json:"sex,omitempty"`
	Email        string     `db:"email" json:"email,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	AddressLine  string     `db:"address_line" json:"address_line,omitempty"`
	City         string     `db:"city" json:"city,omitempty"`
	State        string     `db:"state" json:"state,omitempty"`
	PostalCode   string     `db:"postal_code" json:"postal_code,omitempty"`
	Anonymized   bool       `db:"anonymized" json:"anonymized"`
	AnonymizedAt *time.Time `db:"anonymized_at" json:"anonymized_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ConsentEvent records one change in a patient's LGPD consent state.
// Events are append-only; the current consent is the latest event.
type ConsentEvent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Granted    bool      `db:"granted" json:"granted"`
	Purpose    string    `db:"purpose" json:"purpose"`
	Note       string    `db:"note" json:"note,omitempty"`
	RecordedBy string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreateInput carries the accepted fields for registering a patient.
type CreateInput struct {
	Name        string     `json:"name"`
	SocialName  string     `json:"social_name"`
	CPF         string     `json:"cpf"`
	BirthDate   *time.Time `json:"birth_date"`
	Sex         string     `json:"sex"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	AddressLine string     `json:"address_line"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PostalCode  string     `json:"postal_code"`
}

// UpdateInput carries the mutable patient fields.
type UpdateInput struct {
	Name        string `json:"name"`
	SocialName  string `json:"social_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
}

// ConsentInput records a consent grant or withdrawal.
type ConsentInput struct {
	Granted bool   `json:"granted"`
	Purpose string `json:"purpose"`
	Note    string `json:"note"`
}

// ExportPackage is the LGPD data-portability bundle returned to the data
// subject: everything the clinic holds under the patient's own key.
type ExportPackage struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Patient     *Patient        `json:"patient"`
	Consents    []*ConsentEvent `json:"consents"`
}
