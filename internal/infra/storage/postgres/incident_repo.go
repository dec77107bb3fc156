package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/vietddude/triage/internal/core/domain"
)

// IncidentRepo implements storage.IncidentRepository using PostgreSQL.
type IncidentRepo struct {
	db *DB
}

// NewIncidentRepo creates a new PostgreSQL incident repository.
func NewIncidentRepo(db *DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

// Create stores a new incident.
func (r *IncidentRepo) Create(ctx context.Context, inc *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, error_id, title, description, severity, status, created_at, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		inc.ID,
		inc.ErrorID,
		inc.Title,
		inc.Description,
		string(inc.Severity),
		string(inc.Status),
		inc.CreatedAt,
		pq.Array(inc.Tags),
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// Open returns open incidents, newest first.
func (r *IncidentRepo) Open(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, error_id, title, description, severity, status, created_at, tags
		FROM incidents
		WHERE status = 'OPEN'
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*domain.Incident
	for rows.Next() {
		var inc domain.Incident
		var severity, status string
		var tags pq.StringArray
		if err := rows.Scan(
			&inc.ID,
			&inc.ErrorID,
			&inc.Title,
			&inc.Description,
			&severity,
			&status,
			&inc.CreatedAt,
			&tags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		inc.Severity = domain.Severity(severity)
		inc.Status = domain.IncidentStatus(status)
		inc.Tags = tags
		incidents = append(incidents, &inc)
	}
	return incidents, rows.Err()
}
