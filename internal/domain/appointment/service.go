package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientRequired      = errors.New("patient_id is required")
	ErrPractitionerRequired = errors.New("practitioner_id is required")
	ErrPastSchedule         = errors.New("scheduled_at must be in the future")
	ErrTerminalStatus       = errors.New("appointment is already cancelled or completed")
)

const defaultDurationMin = 30

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Book(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if in.PractitionerID == "" {
		return nil, ErrPractitionerRequired
	}
	if !in.ScheduledAt.After(s.now()) {
		return nil, ErrPastSchedule
	}

	duration := in.DurationMin
	if duration <= 0 {
		duration = defaultDurationMin
	}

	a := &Appointment{
		ID:             uuid.New(),
		PatientID:      in.PatientID,
		PractitionerID: in.PractitionerID,
		ScheduledAt:    in.ScheduledAt.UTC(),
		DurationMin:    duration,
		Status:         StatusScheduled,
		Reason:         in.Reason,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if terminal(a.Status) {
		return nil, ErrTerminalStatus
	}
	if !in.ScheduledAt.IsZero() {
		if !in.ScheduledAt.After(s.now()) {
			return nil, ErrPastSchedule
		}
		a.ScheduledAt = in.ScheduledAt.UTC()
	}
	if in.DurationMin > 0 {
		a.DurationMin = in.DurationMin
	}
	if in.Reason != "" {
		a.Reason = in.Reason
	}
	if in.Notes != "" {
		a.Notes = in.Notes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusConfirmed)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if terminal(a.Status) {
		return ErrTerminalStatus
	}
	return s.repo.SetStatus(ctx, id, status)
}

func terminal(status string) bool {
	return status == StatusCancelled || status == StatusCompleted
}
