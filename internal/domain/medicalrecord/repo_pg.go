package medicalrecord

import (
	"context"

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

// RepoPG stores medical records in the tenant schema.
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

const recordCols = `id, patient_id, practitioner_id, status, chief_complaint, anamnesis,
	diagnosis, prescription, notes, closed_at, closed_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.PractitionerID, &rec.Status,
		&rec.ChiefComplaint, &rec.Anamnesis, &rec.Diagnosis, &rec.Prescription, &rec.Notes,
		&rec.ClosedAt, &rec.ClosedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return &rec, err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	q := "SELECT " + recordCols + " FROM medical_records WHERE id = $1"
	return scanRecord(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM medical_records WHERE patient_id = $1", patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + recordCols + ` FROM medical_records
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.conn(ctx).Query(ctx, q, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) Create(ctx context.Context, rec *Record) error {
	q := `INSERT INTO medical_records (id, patient_id, practitioner_id, status,
			chief_complaint, anamnesis, diagnosis, prescription, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, q,
		rec.ID, rec.PatientID, rec.PractitionerID, rec.Status,
		rec.ChiefComplaint, rec.Anamnesis, rec.Diagnosis, rec.Prescription, rec.Notes,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *RepoPG) Update(ctx context.Context, rec *Record) error {
	// Status gating lives in the service; the WHERE clause is a backstop so
	// concurrent closes cannot slip an edit into a closed record.
	q := `UPDATE medical_records
		SET chief_complaint = $2, anamnesis = $3, diagnosis = $4, prescription = $5, notes = $6,
			updated_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, q,
		rec.ID, rec.ChiefComplaint, rec.Anamnesis, rec.Diagnosis, rec.Prescription, rec.Notes,
	).Scan(&rec.UpdatedAt)
}

func (r *RepoPG) Close(ctx context.Context, id uuid.UUID, closedBy string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_records
			SET status = 'closed', closed_at = NOW(), closed_by = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'open'`, id, closedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *RepoPG) Reopen(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_records
			SET status = 'open', closed_at = NULL, closed_by = '', updated_at = NOW()
			WHERE id = $1 AND status = 'closed'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
