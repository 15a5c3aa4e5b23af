package medicalrecord

import (
	"time"

	"github.com/google/uuid"
)

// A record is editable while open. Closing freezes the clinical content;
// only an administrator can reopen it.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PractitionerID string     `db:"practitioner_id" json:"practitioner_id"`
	Status         string     `db:"status" json:"status"`
	ChiefComplaint string     `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Anamnesis      string     `db:"anamnesis" json:"anamnesis,omitempty"`
	Diagnosis      string     `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription   string     `db:"prescription" json:"prescription,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	ClosedAt       *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy       string     `db:"closed_by" json:"closed_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateInput struct {
	PatientID      uuid.UUID `json:"patient_id"`
	ChiefComplaint string    `json:"chief_complaint"`
	Anamnesis      string    `json:"anamnesis"`
	Diagnosis      string    `json:"diagnosis"`
	Prescription   string    `json:"prescription"`
	Notes          string    `json:"notes"`
}

type UpdateInput struct {
	ChiefComplaint string `json:"chief_complaint"`
	Anamnesis      string `json:"anamnesis"`
	Diagnosis      string `json:"diagnosis"`
	Prescription   string `json:"prescription"`
	Notes          string `json:"notes"`
}

// Export is the portable rendering of one record, produced for data
// portability and legal requests.
type Export struct {
	GeneratedAt time.Time `json:"generated_at"`
	Record      *Record   `json:"record"`
}
