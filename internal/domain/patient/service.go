package patient

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNameRequired = errors.New("patient name is required")
	ErrInvalidCPF   = errors.New("cpf must be 11 digits")
	ErrAnonymized   = errors.New("patient record has been anonymized")
)

var cpfPattern = regexp.MustCompile(`^\d{11}$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, name, limit, offset)
}

func (s *Service) Register(ctx context.Context, in CreateInput) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	cpf := digitsOnly(in.CPF)
	if cpf != "" && !cpfPattern.MatchString(cpf) {
		return nil, ErrInvalidCPF
	}

	p := &Patient{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		SocialName:  strings.TrimSpace(in.SocialName),
		CPF:         cpf,
		BirthDate:   in.BirthDate,
		Sex:         in.Sex,
		Email:       strings.TrimSpace(in.Email),
		Phone:       in.Phone,
		AddressLine: in.AddressLine,
		City:        in.City,
		State:       in.State,
		PostalCode:  in.PostalCode,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Anonymized {
		return nil, ErrAnonymized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	p.Name = strings.TrimSpace(in.Name)
	p.SocialName = strings.TrimSpace(in.SocialName)
	p.Email = strings.TrimSpace(in.Email)
	p.Phone = in.Phone
	p.AddressLine = in.AddressLine
	p.City = in.City
	p.State = in.State
	p.PostalCode = in.PostalCode

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordConsent appends a consent event for the patient.
func (s *Service) RecordConsent(ctx context.Context, patientID uuid.UUID, in ConsentInput, recordedBy string) (*ConsentEvent, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	e := &ConsentEvent{
		ID:         uuid.New(),
		PatientID:  patientID,
		Granted:    in.Granted,
		Purpose:    in.Purpose,
		Note:       in.Note,
		RecordedBy: recordedBy,
	}
	if err := s.repo.AddConsent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Consents(ctx context.Context, patientID uuid.UUID) ([]*ConsentEvent, error) {
	return s.repo.ListConsents(ctx, patientID)
}

// Export assembles the data-portability package for the patient.
func (s *Service) Export(ctx context.Context, id uuid.UUID) (*ExportPackage, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Anonymized {
		return nil, ErrAnonymized
	}
	consents, err := s.repo.ListConsents(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExportPackage{
		GeneratedAt: time.Now().UTC(),
		Patient:     p,
		Consents:    consents,
	}, nil
}

// Erase handles a deletion request: identifying data is blanked, the row
// and clinical history stay. A withdrawal consent event is appended so the
// trail shows who triggered the erasure.
func (s *Service) Erase(ctx context.Context, id uuid.UUID, requestedBy string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Anonymized {
		return ErrAnonymized
	}
	if err := s.repo.Anonymize(ctx, id); err != nil {
		return err
	}
	return s.repo.AddConsent(ctx, &ConsentEvent{
		ID:         uuid.New(),
		PatientID:  id,
		Granted:    false,
		Purpose:    "DATA_DELETION",
		Note:       "personal data erased on data subject request",
		RecordedBy: requestedBy,
	})
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
