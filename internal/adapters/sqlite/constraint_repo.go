package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// ConstraintRepository implements secondary.ConstraintRepository with SQLite.
// The constraint_versions table is append-only; versions are assigned by the
// database and never reused or rewritten.
type ConstraintRepository struct {
	db *sql.DB
}

// NewConstraintRepository creates a new SQLite constraint repository.
func NewConstraintRepository(db *sql.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// Append adds a new constraint version and returns the assigned version number.
func (r *ConstraintRepository) Append(ctx context.Context, entry *secondary.ConstraintRecord) (int, error) {
	var source sql.NullString
	if entry.SourceDiscoveryID != "" {
		source = sql.NullString{String: entry.SourceDiscoveryID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO constraint_versions (text, source_discovery_id) VALUES (?, ?)",
		entry.Text, source,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append constraint: %w", err)
	}

	version, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read constraint version: %w", err)
	}
	return int(version), nil
}

// Head returns the current (highest) constraint version, 0 when empty.
func (r *ConstraintRepository) Head(ctx context.Context) (int, error) {
	var head sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM constraint_versions").Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("failed to get constraint head: %w", err)
	}
	return int(head.Int64), nil
}

// List retrieves all constraint entries in version order.
func (r *ConstraintRepository) List(ctx context.Context) ([]*secondary.ConstraintRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT version, text, source_discovery_id, created_at FROM constraint_versions ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to list constraints: %w", err)
	}
	defer rows.Close()

	var constraints []*secondary.ConstraintRecord
	for rows.Next() {
		var (
			source    sql.NullString
			createdAt time.Time
		)
		record := &secondary.ConstraintRecord{}
		if err := rows.Scan(&record.Version, &record.Text, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		record.SourceDiscoveryID = source.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		constraints = append(constraints, record)
	}
	return constraints, rows.Err()
}
