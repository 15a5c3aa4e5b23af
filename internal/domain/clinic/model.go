package clinic

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/db"
)

// Clinic is a registered tenant of the platform. Every clinic owns a
// dedicated database schema; TenantID is the schema-safe identifier and
// Subdomain the public routing handle.
type Clinic struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	LegalName string    `db:"legal_name" json:"legal_name"`
	CNPJ      string    `db:"cnpj" json:"cnpj"`
	Subdomain string    `db:"subdomain" json:"subdomain"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Schema returns the database schema this clinic's data lives in.
func (c *Clinic) Schema() string {
	return db.SchemaFor(c.TenantID)
}

// CreateInput carries the fields accepted when registering a clinic.
type CreateInput struct {
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	LegalName string `json:"legal_name"`
	CNPJ      string `json:"cnpj"`
	Subdomain string `json:"subdomain"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// UpdateInput carries the mutable clinic fields.
type UpdateInput struct {
	Name      string `json:"name"`
	LegalName string `json:"legal_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
