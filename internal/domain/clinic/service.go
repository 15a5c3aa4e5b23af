package clinic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/db"
)

var (
	ErrInvalidTenantID  = fmt.Errorf("tenant id must contain only letters, digits and underscores")
	ErrInvalidSubdomain = fmt.Errorf("subdomain must be lowercase letters, digits and hyphens")
	ErrSubdomainTaken   = fmt.Errorf("subdomain already registered")
)

var (
	tenantIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// Service manages the clinic registry and tenant provisioning.
type Service struct {
	repo          Repository
	pool          *pgxpool.Pool
	migrationsDir string
	logger        zerolog.Logger
}

func NewService(repo Repository, pool *pgxpool.Pool, migrationsDir string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pool: pool, migrationsDir: migrationsDir, logger: logger}
}

// Provision registers a clinic and creates its tenant schema. The schema is
// created after the registry row so a provisioning failure leaves no
// orphaned schema.
func (s *Service) Provision(ctx context.Context, in CreateInput) (*Clinic, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	subdomain := strings.ToLower(strings.TrimSpace(in.Subdomain))
	if subdomain == "" {
		subdomain = tenantID
	}

	if !tenantIDPattern.MatchString(tenantID) {
		return nil, ErrInvalidTenantID
	}
	if !subdomainPattern.MatchString(subdomain) {
		return nil, ErrInvalidSubdomain
	}

	existing, err := s.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}
	if existing != nil {
		return nil, ErrSubdomainTaken
	}

	c := &Clinic{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(in.Name),
		LegalName: strings.TrimSpace(in.LegalName),
		CNPJ:      strings.TrimSpace(in.CNPJ),
		Subdomain: subdomain,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
	}
	if c.Name == "" {
		return nil, fmt.Errorf("clinic name is required")
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("register clinic: %w", err)
	}

	if err := db.CreateTenantSchema(ctx, s.pool, tenantID, s.migrationsDir); err != nil {
		return nil, fmt.Errorf("provision schema for %s: %w", tenantID, err)
	}

	s.logger.Info().
		Str("clinic_id", c.ID.String()).
		Str("tenant_id", tenantID).
		Str("subdomain", subdomain).
		Msg("clinic provisioned")

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySubdomain(ctx context.Context, subdomain string) (*Clinic, error) {
	return s.repo.GetBySubdomain(ctx, subdomain)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Clinic, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.Name); v != "" {
		c.Name = v
	}
	if v := strings.TrimSpace(in.LegalName); v != "" {
		c.LegalName = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		c.Email = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		c.Phone = v
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Deactivate takes a clinic out of routing. Its schema and data are kept;
// legal retention of health records outlives the commercial relationship.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}
