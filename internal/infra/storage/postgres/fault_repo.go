package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/triage/internal/core/domain"
)

// FaultRepo implements storage.FaultRepository using PostgreSQL. It is the
// durable persistence sink; attempts are stored as a JSONB column since they
// are only ever read back whole.
type FaultRepo struct {
	db *DB
}

// NewFaultRepo creates a new PostgreSQL fault repository.
func NewFaultRepo(db *DB) *FaultRepo {
	return &FaultRepo{db: db}
}

type faultRow struct {
	ID          string         `db:"id"`
	CreatedAt   time.Time      `db:"created_at"`
	Kind        string         `db:"kind"`
	Message     string         `db:"message"`
	Code        sql.NullString `db:"code"`
	Stack       sql.NullString `db:"stack"`
	Attempts    []byte         `db:"attempts"`
	Resolved    bool           `db:"resolved"`
	Escalated   bool           `db:"escalated"`
	EscalatedAt sql.NullTime   `db:"escalated_at"`
}

// Save inserts or replaces a fault record by ID.
func (r *FaultRepo) Save(ctx context.Context, rec *domain.FaultRecord) error {
	attempts, err := json.Marshal(rec.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}

	query := `
		INSERT INTO fault_records (id, created_at, kind, message, code, stack, attempts, resolved, escalated, escalated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			resolved = EXCLUDED.resolved,
			escalated = EXCLUDED.escalated,
			escalated_at = EXCLUDED.escalated_at
	`

	var escalatedAt any
	if rec.EscalatedAt != nil {
		escalatedAt = *rec.EscalatedAt
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Timestamp,
		rec.Kind.String(),
		rec.Fault.Message,
		rec.Fault.Code,
		rec.Fault.Stack,
		attempts,
		rec.Resolved,
		rec.Escalated,
		escalatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save fault record: %w", err)
	}
	return nil
}

// Get returns a fault record by ID, nil when absent.
func (r *FaultRepo) Get(ctx context.Context, id string) (*domain.FaultRecord, error) {
	query := `
		SELECT id, created_at, kind, message, code, stack, attempts, resolved, escalated, escalated_at
		FROM fault_records
		WHERE id = $1
	`

	var row faultRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fault record: %w", err)
	}

	return row.toDomain()
}

// Recent returns up to limit records, newest first.
func (r *FaultRepo) Recent(ctx context.Context, limit int) ([]*domain.FaultRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, created_at, kind, message, code, stack, attempts, resolved, escalated, escalated_at
		FROM fault_records
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []faultRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list fault records: %w", err)
	}

	records := make([]*domain.FaultRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of stored fault records.
func (r *FaultRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM fault_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to count fault records: %w", err)
	}
	return count, nil
}

func (row faultRow) toDomain() (*domain.FaultRecord, error) {
	var attempts []domain.RecoveryAttempt
	if len(row.Attempts) > 0 {
		if err := json.Unmarshal(row.Attempts, &attempts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
		}
	}

	rec := &domain.FaultRecord{
		ID:        row.ID,
		Timestamp: row.CreatedAt,
		Kind:      kindFromString(row.Kind),
		Fault: domain.Fault{
			Message: row.Message,
			Code:    row.Code.String,
			Stack:   row.Stack.String,
		},
		Attempts:  attempts,
		Resolved:  row.Resolved,
		Escalated: row.Escalated,
	}
	if row.EscalatedAt.Valid {
		t := row.EscalatedAt.Time
		rec.EscalatedAt = &t
	}
	return rec, nil
}

func kindFromString(s string) domain.FaultKind {
	for k := domain.FaultKind(0); k < domain.KindCount; k++ {
		if k.String() == s {
			return k
		}
	}
	return domain.GenericError
}
