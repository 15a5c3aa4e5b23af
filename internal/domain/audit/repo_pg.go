package audit

import (
	"context"
	"fmt"
	"strings"

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

// RepoPG persists audit records in the shared schema. Audit writes arrive
// on background goroutines that carry no tenant-scoped connection, so the
// tables are schema-qualified and the tenant is a column, not a search_path.
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

const logCols = `id, tenant_id, actor_id, actor_name, actor_email, action, description,
	entity_type, entity_id, ip_address, user_agent, path, method,
	outcome, data_category, legal_purpose, severity, status_code, failure_reason,
	new_values, recorded_at`

func scanLog(row pgx.Row) (*LogEntry, error) {
	var e LogEntry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ActorID, &e.ActorName, &e.ActorEmail, &e.Action, &e.Description,
		&e.EntityType, &e.EntityID, &e.IPAddress, &e.UserAgent, &e.Path, &e.Method,
		&e.Outcome, &e.DataCategory, &e.LegalPurpose, &e.Severity, &e.StatusCode, &e.FailureReason,
		&e.NewValues, &e.RecordedAt,
	)
	return &e, err
}

func (r *RepoPG) InsertLog(ctx context.Context, e *LogEntry) error {
	q := `INSERT INTO shared.audit_log (` + logCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.conn(ctx).Exec(ctx, q,
		e.ID, e.TenantID, e.ActorID, e.ActorName, e.ActorEmail, e.Action, e.Description,
		e.EntityType, e.EntityID, e.IPAddress, e.UserAgent, e.Path, e.Method,
		e.Outcome, e.DataCategory, e.LegalPurpose, e.Severity, e.StatusCode, e.FailureReason,
		e.NewValues, e.RecordedAt,
	)
	return err
}

func (r *RepoPG) GetLog(ctx context.Context, id uuid.UUID) (*LogEntry, error) {
	q := "SELECT " + logCols + " FROM shared.audit_log WHERE id = $1"
	return scanLog(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *RepoPG) SearchLogs(ctx context.Context, f SearchFilter, limit, offset int) ([]*LogEntry, int, error) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	add := func(clause, value string) {
		if value == "" {
			return
		}
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, value)
		idx++
	}
	add("tenant_id = $%d", f.TenantID)
	add("actor_id = $%d", f.ActorID)
	add("action = $%d", f.Action)
	add("entity_type = $%d", f.EntityType)
	add("outcome = $%d", f.Outcome)
	add("severity = $%d", f.Severity)
	add("data_category = $%d", f.DataCategory)

	if !f.From.IsZero() {
		where = append(where, fmt.Sprintf("recorded_at >= $%d", idx))
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		where = append(where, fmt.Sprintf("recorded_at < $%d", idx))
		args = append(args, f.To)
		idx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQ := "SELECT COUNT(*) FROM shared.audit_log " + whereClause
	if err := r.conn(ctx).QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM shared.audit_log %s ORDER BY recorded_at DESC LIMIT $%d OFFSET $%d",
		logCols, whereClause, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

const accessCols = `id, record_id, user_id, access_type, tenant_id, ip_address, user_agent, accessed_at`

func (r *RepoPG) InsertAccess(ctx context.Context, e *AccessLogEntry) error {
	q := `INSERT INTO shared.medical_record_access_log (` + accessCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.conn(ctx).Exec(ctx, q,
		e.ID, e.RecordID, e.UserID, e.AccessType, e.TenantID, e.IPAddress, e.UserAgent, e.AccessedAt,
	)
	return err
}

func (r *RepoPG) ListAccesses(ctx context.Context, recordID string, limit, offset int) ([]*AccessLogEntry, int, error) {
	var total int
	countQ := "SELECT COUNT(*) FROM shared.medical_record_access_log WHERE record_id = $1"
	if err := r.conn(ctx).QueryRow(ctx, countQ, recordID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + accessCols + ` FROM shared.medical_record_access_log
		WHERE record_id = $1 ORDER BY accessed_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.conn(ctx).Query(ctx, q, recordID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*AccessLogEntry
	for rows.Next() {
		var e AccessLogEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.UserID, &e.AccessType, &e.TenantID,
			&e.IPAddress, &e.UserAgent, &e.AccessedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, rows.Err()
}
