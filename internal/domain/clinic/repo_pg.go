package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// RepoPG stores clinics in the shared schema. The table is addressed with
// its schema-qualified name so lookups work regardless of which tenant
// search_path the connection carries.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const clinicCols = `id, tenant_id, name, legal_name, cnpj, subdomain, email, phone, active, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.LegalName, &c.CNPJ, &c.Subdomain,
		&c.Email, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	return &c, err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	q := "SELECT " + clinicCols + " FROM shared.clinics WHERE id = $1"
	return scanClinic(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *RepoPG) GetBySubdomain(ctx context.Context, subdomain string) (*Clinic, error) {
	q := "SELECT " + clinicCols + " FROM shared.clinics WHERE subdomain = $1 AND active"
	c, err := scanClinic(r.conn(ctx).QueryRow(ctx, q, subdomain))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *RepoPG) GetByTenantID(ctx context.Context, tenantID string) (*Clinic, error) {
	q := "SELECT " + clinicCols + " FROM shared.clinics WHERE tenant_id = $1"
	return scanClinic(r.conn(ctx).QueryRow(ctx, q, tenantID))
}

func (r *RepoPG) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM shared.clinics").Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + clinicCols + " FROM shared.clinics ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	rows, err := r.conn(ctx).Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) Create(ctx context.Context, c *Clinic) error {
	q := `INSERT INTO shared.clinics (id, tenant_id, name, legal_name, cnpj, subdomain, email, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, q,
		c.ID, c.TenantID, c.Name, c.LegalName, c.CNPJ, c.Subdomain,
		c.Email, c.Phone, c.Active,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *RepoPG) Update(ctx context.Context, c *Clinic) error {
	q := `UPDATE shared.clinics
		SET name = $2, legal_name = $3, email = $4, phone = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, q, c.ID, c.Name, c.LegalName, c.Email, c.Phone).Scan(&c.UpdatedAt)
}

func (r *RepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		"UPDATE shared.clinics SET active = $2, updated_at = NOW() WHERE id = $1", id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
