package patient

import (
	"context"
	"fmt"

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

// RepoPG stores patients in the tenant schema. Table names are left
// unqualified; the connection's search_path selects the clinic.
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

const patientCols = `id, name, social_name, cpf, birth_date, sex, email, phone,
	address_line, city, state, postal_code, anonymized, anonymized_at, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Name, &p.SocialName, &p.CPF, &p.BirthDate, &p.Sex, &p.Email, &p.Phone,
		&p.AddressLine, &p.City, &p.State, &p.PostalCode,
		&p.Anonymized, &p.AnonymizedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return &p, err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	q := "SELECT " + patientCols + " FROM patients WHERE id = $1"
	return scanPatient(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *RepoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	if name != "" {
		where = " WHERE name ILIKE $1 OR social_name ILIKE $1"
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM patients"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM patients%s ORDER BY name LIMIT $%d OFFSET $%d",
		patientCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) Create(ctx context.Context, p *Patient) error {
	q := `INSERT INTO patients (id, name, social_name, cpf, birth_date, sex, email, phone,
			address_line, city, state, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, q,
		p.ID, p.Name, p.SocialName, p.CPF, p.BirthDate, p.Sex, p.Email, p.Phone,
		p.AddressLine, p.City, p.State, p.PostalCode,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *RepoPG) Update(ctx context.Context, p *Patient) error {
	q := `UPDATE patients
		SET name = $2, social_name = $3, email = $4, phone = $5,
			address_line = $6, city = $7, state = $8, postal_code = $9, updated_at = NOW()
		WHERE id = $1 AND NOT anonymized
		RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, q,
		p.ID, p.Name, p.SocialName, p.Email, p.Phone,
		p.AddressLine, p.City, p.State, p.PostalCode,
	).Scan(&p.UpdatedAt)
}

// Anonymize replaces identifying columns with fixed placeholders. The row
// itself stays, so clinical history keeps a stable patient key.
func (r *RepoPG) Anonymize(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE patients
		SET name = 'ANONYMIZED', social_name = '', cpf = '', birth_date = NULL, sex = '',
			email = '', phone = '', address_line = '', city = '', state = '', postal_code = '',
			anonymized = TRUE, anonymized_at = NOW(), updated_at = NOW()
		WHERE id = $1`
	tag, err := r.conn(ctx).Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *RepoPG) AddConsent(ctx context.Context, e *ConsentEvent) error {
	q := `INSERT INTO patient_consents (id, patient_id, granted, purpose, note, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.conn(ctx).QueryRow(ctx, q,
		e.ID, e.PatientID, e.Granted, e.Purpose, e.Note, e.RecordedBy,
	).Scan(&e.CreatedAt)
}

func (r *RepoPG) ListConsents(ctx context.Context, patientID uuid.UUID) ([]*ConsentEvent, error) {
	q := `SELECT id, patient_id, granted, purpose, note, recorded_by, created_at
		FROM patient_consents WHERE patient_id = $1 ORDER BY created_at DESC`
	rows, err := r.conn(ctx).Query(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ConsentEvent
	for rows.Next() {
		var e ConsentEvent
		if err := rows.Scan(&e.ID, &e.PatientID, &e.Granted, &e.Purpose, &e.Note, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
