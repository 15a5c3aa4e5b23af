package medicalrecord

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientRequired      = errors.New("patient_id is required")
	ErrPractitionerRequired = errors.New("practitioner is required")
	ErrRecordClosed         = errors.New("medical record is closed")
	ErrRecordOpen           = errors.New("medical record is not closed")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Open starts a new record for the patient, attributed to the acting
// practitioner.
func (s *Service) Open(ctx context.Context, in CreateInput, practitionerID string) (*Record, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if practitionerID == "" {
		return nil, ErrPractitionerRequired
	}

	rec := &Record{
		ID:             uuid.New(),
		PatientID:      in.PatientID,
		PractitionerID: practitionerID,
		Status:         StatusOpen,
		ChiefComplaint: in.ChiefComplaint,
		Anamnesis:      in.Anamnesis,
		Diagnosis:      in.Diagnosis,
		Prescription:   in.Prescription,
		Notes:          in.Notes,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Edit replaces the clinical content of an open record. Closed records
// reject edits.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, in UpdateInput) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusClosed {
		return nil, ErrRecordClosed
	}

	rec.ChiefComplaint = in.ChiefComplaint
	rec.Anamnesis = in.Anamnesis
	rec.Diagnosis = in.Diagnosis
	rec.Prescription = in.Prescription
	rec.Notes = in.Notes

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Close(ctx context.Context, id uuid.UUID, closedBy string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == StatusClosed {
		return ErrRecordClosed
	}
	return s.repo.Close(ctx, id, closedBy)
}

func (s *Service) Reopen(ctx context.Context, id uuid.UUID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != StatusClosed {
		return ErrRecordOpen
	}
	return s.repo.Reopen(ctx, id)
}

func (s *Service) Export(ctx context.Context, id uuid.UUID) (*Export, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Export{GeneratedAt: time.Now().UTC(), Record: rec}, nil
}
