package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	consents []*ConsentEvent
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: map[uuid.UUID]*Patient{}}
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	var items []*Patient
	for _, p := range m.patients {
		items = append(items, p)
	}
	return items, len(items), nil
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Anonymize(ctx context.Context, id uuid.UUID) error {
	p, ok := m.patients[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Name = "ANONYMIZED"
	p.CPF = ""
	p.Email = ""
	p.Anonymized = true
	return nil
}

func (m *mockRepo) AddConsent(ctx context.Context, e *ConsentEvent) error {
	m.consents = append(m.consents, e)
	return nil
}

func (m *mockRepo) ListConsents(ctx context.Context, patientID uuid.UUID) ([]*ConsentEvent, error) {
	var items []*ConsentEvent
	for _, e := range m.consents {
		if e.PatientID == patientID {
			items = append(items, e)
		}
	}
	return items, nil
}

func TestRegister_NormalizesCPF(t *testing.T) {
	svc := NewService(newMockRepo())

	p, err := svc.Register(context.Background(), CreateInput{
		Name: "  Maria Silva ",
		CPF:  "123.456.789-01",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Name != "Maria Silva" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.CPF != "12345678901" {
		t.Errorf("CPF = %q", p.CPF)
	}
	if p.ID == uuid.Nil {
		t.Error("patient has no id")
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	svc := NewService(newMockRepo())

	if _, err := svc.Register(context.Background(), CreateInput{Name: "  "}); err != ErrNameRequired {
		t.Errorf("empty name: err = %v, want ErrNameRequired", err)
	}
	if _, err := svc.Register(context.Background(), CreateInput{Name: "X", CPF: "123"}); err != ErrInvalidCPF {
		t.Errorf("short cpf: err = %v, want ErrInvalidCPF", err)
	}
}

func TestUpdate_AnonymizedPatientIsImmutable(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p, _ := svc.Register(context.Background(), CreateInput{Name: "Maria Silva"})
	if err := svc.Erase(context.Background(), p.ID, "u-1"); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	if _, err := svc.Update(context.Background(), p.ID, UpdateInput{Name: "New Name"}); err != ErrAnonymized {
		t.Errorf("Update after erase: err = %v, want ErrAnonymized", err)
	}
	if _, err := svc.Export(context.Background(), p.ID); err != ErrAnonymized {
		t.Errorf("Export after erase: err = %v, want ErrAnonymized", err)
	}
}

func TestErase_BlanksIdentityAndLogsWithdrawal(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p, _ := svc.Register(context.Background(), CreateInput{
		Name:  "Maria Silva",
		CPF:   "12345678901",
		Email: "maria@example.com",
	})

	if err := svc.Erase(context.Background(), p.ID, "u-admin"); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	stored := repo.patients[p.ID]
	if !stored.Anonymized || stored.CPF != "" || stored.Email != "" {
		t.Errorf("identity not blanked: %+v", stored)
	}

	if len(repo.consents) != 1 {
		t.Fatalf("consents = %d, want 1", len(repo.consents))
	}
	e := repo.consents[0]
	if e.Granted || e.Purpose != "DATA_DELETION" || e.RecordedBy != "u-admin" {
		t.Errorf("withdrawal event = %+v", e)
	}

	// A second request must not double-erase.
	if err := svc.Erase(context.Background(), p.ID, "u-admin"); err != ErrAnonymized {
		t.Errorf("second erase: err = %v, want ErrAnonymized", err)
	}
}

func TestExport_BundlesPatientAndConsents(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p, _ := svc.Register(context.Background(), CreateInput{Name: "Maria Silva"})
	if _, err := svc.RecordConsent(context.Background(), p.ID, ConsentInput{Granted: true, Purpose: "TREATMENT"}, "u-1"); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}

	pkg, err := svc.Export(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if pkg.Patient.ID != p.ID {
		t.Errorf("Patient.ID = %v, want %v", pkg.Patient.ID, p.ID)
	}
	if len(pkg.Consents) != 1 || pkg.Consents[0].Purpose != "TREATMENT" {
		t.Errorf("Consents = %+v", pkg.Consents)
	}
	if pkg.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}
