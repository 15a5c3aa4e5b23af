package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses follow the booking lifecycle. Terminal states are
// cancelled and completed.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	PractitionerID string    `db:"practitioner_id" json:"practitioner_id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMin    int       `db:"duration_min" json:"duration_min"`
	Status         string    `db:"status" json:"status"`
	Reason         string    `db:"reason" json:"reason,omitempty"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateInput struct {
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID string    `json:"practitioner_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	DurationMin    int       `json:"duration_min"`
	Reason         string    `json:"reason"`
}

type UpdateInput struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

// ListFilter narrows appointment listings; zero values mean "any".
type ListFilter struct {
	PatientID      uuid.UUID
	PractitionerID string
	Status         string
	From           time.Time
	To             time.Time
}
