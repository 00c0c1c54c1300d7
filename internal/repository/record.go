package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkova/healthtrack/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// recordColumns is the column list shared by every record query.
const recordColumns = "id, owner_id, kind, date, type, status, description, fields, created_at"

// PostgresRecordRepository implements health-record persistence against a
// PostgreSQL database. Every read and mutation is conjoined with the owner
// ID in SQL, so a record belonging to another owner is indistinguishable
// from a record that does not exist.
type PostgresRecordRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresRecordRepository creates a new PostgresRecordRepository using
// the provided *sql.DB. db must be a valid connection to a PostgreSQL instance.
func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{DB: db}
}

// Create inserts a new record, assigning its ID and creation timestamp.
// Returns models.ErrConflict when the (owner, kind, date, type, created_at)
// uniqueness constraint is violated.
func (r *PostgresRecordRepository) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return models.Record{}, fmt.Errorf("marshal fields: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO records (id, owner_id, kind, date, type, status, description, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.OwnerID, rec.Kind, rec.Date, rec.Type, rec.Status, rec.Description, fields, rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Record{}, models.ErrConflict
		}
		return models.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// List fetches all records of the given kind for the owner, narrowed by
// the exact-match filter and sorted by the given ordering terms.
//
//	ctx:      context for cancellation and deadlines
//	ownerID:  identifier of the owning user
//	kind:     resource kind ("workout", "meal", "steps")
//	filter:   exact-match filters; zero values are skipped
//	ordering: ordering terms; field names must come from the schema whitelist
func (r *PostgresRecordRepository) List(ctx context.Context, ownerID, kind string, filter models.ListFilter, ordering []models.OrderBy) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE owner_id = $1 AND kind = $2`
	args := []any{ownerID, kind}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND date = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY " + orderClause(ordering)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Get fetches a single record by ID for the given owner.
// Returns models.ErrNotFound when the record is absent or owned by
// a different user.
func (r *PostgresRecordRepository) Get(ctx context.Context, ownerID, kind, id string) (models.Record, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE owner_id = $1 AND kind = $2 AND id = $3
	`, ownerID, kind, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, models.ErrNotFound
	}
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// Update persists the mutable fields of rec, scoped by owner, kind, and ID.
// Owner and creation timestamp are never written. Returns models.ErrNotFound
// when no row matches.
func (r *PostgresRecordRepository) Update(ctx context.Context, rec models.Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE records SET date = $1, type = $2, status = $3, description = $4, fields = $5
		WHERE owner_id = $6 AND kind = $7 AND id = $8
	`, rec.Date, rec.Type, rec.Status, rec.Description, fields, rec.OwnerID, rec.Kind, rec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("update record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete permanently removes the record with the given ID for the owner.
// Returns models.ErrNotFound when no row matches.
func (r *PostgresRecordRepository) Delete(ctx context.Context, ownerID, kind, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM records WHERE owner_id = $1 AND kind = $2 AND id = $3
	`, ownerID, kind, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var rec models.Record
	var fields []byte
	err := s.Scan(&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Date, &rec.Type, &rec.Status, &rec.Description, &fields, &rec.CreatedAt)
	if err != nil {
		return models.Record{}, err
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return models.Record{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return rec, nil
}

// orderClause renders ordering terms as SQL. Field names reach this point
// only through the schema's orderable whitelist; kind-specific fields are
// sorted through their jsonb value cast to a number.
func orderClause(ordering []models.OrderBy) string {
	if len(ordering) == 0 {
		return "date DESC, created_at DESC"
	}
	terms := make([]string, 0, len(ordering))
	for _, o := range ordering {
		expr := orderExpr(o.Field)
		if o.Desc {
			expr += " DESC"
		}
		terms = append(terms, expr)
	}
	return strings.Join(terms, ", ")
}

func orderExpr(field string) string {
	switch field {
	case "date", "created_at", "status", "type":
		return field
	default:
		return fmt.Sprintf("(fields->>'%s')::numeric", field)
	}
}
