package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: map[uuid.UUID]*Appointment{}}
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) Update(ctx context.Context, a *Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	a, ok := m.appointments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func testService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestBook_DefaultsAndValidation(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)
	patientID := uuid.New()
	future := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)

	a, err := svc.Book(context.Background(), CreateInput{
		PatientID:      patientID,
		PractitionerID: "dr-souza",
		ScheduledAt:    future,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("Status = %q", a.Status)
	}
	if a.DurationMin != defaultDurationMin {
		t.Errorf("DurationMin = %d, want %d", a.DurationMin, defaultDurationMin)
	}

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing patient", CreateInput{PractitionerID: "dr-souza", ScheduledAt: future}, ErrPatientRequired},
		{"missing practitioner", CreateInput{PatientID: patientID, ScheduledAt: future}, ErrPractitionerRequired},
		{"past schedule", CreateInput{PatientID: patientID, PractitionerID: "dr-souza",
			ScheduledAt: time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)}, ErrPastSchedule},
	}
	for _, tc := range cases {
		if _, err := svc.Book(context.Background(), tc.in); err != tc.want {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestTransitions_TerminalStatesAreFinal(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)

	a, err := svc.Book(context.Background(), CreateInput{
		PatientID:      uuid.New(),
		PractitionerID: "dr-souza",
		ScheduledAt:    time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := svc.Confirm(context.Background(), a.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := svc.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if err := svc.Complete(context.Background(), a.ID); err != ErrTerminalStatus {
		t.Errorf("Complete after cancel: err = %v, want ErrTerminalStatus", err)
	}
	if _, err := svc.Reschedule(context.Background(), a.ID, UpdateInput{Notes: "x"}); err != ErrTerminalStatus {
		t.Errorf("Reschedule after cancel: err = %v, want ErrTerminalStatus", err)
	}
}
