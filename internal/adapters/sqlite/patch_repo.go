package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// PatchRepository implements secondary.PatchRepository with SQLite.
type PatchRepository struct {
	db *sql.DB
}

// NewPatchRepository creates a new SQLite patch repository.
func NewPatchRepository(db *sql.DB) *PatchRepository {
	return &PatchRepository{db: db}
}

const patchSelectCols = "id, track_id, constraint_version, blocks_wave, depends_on, description, status, created_at, completed_at"

func scanPatch(scanner interface {
	Scan(dest ...any) error
}) (*secondary.PatchRecord, error) {
	var (
		dependsOn   sql.NullString
		desc        sql.NullString
		createdAt   time.Time
		completedAt sql.NullTime
	)

	record := &secondary.PatchRecord{}
	err := scanner.Scan(
		&record.ID, &record.TrackID, &record.ConstraintVersion, &record.BlocksWave,
		&dependsOn, &desc, &record.Status, &createdAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.DependsOn = unmarshalList(dependsOn)
	record.Description = desc.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Create persists a new patch attached to a track.
func (r *PatchRepository) Create(ctx context.Context, patch *secondary.PatchRecord) error {
	var desc sql.NullString
	if patch.Description != "" {
		desc = sql.NullString{String: patch.Description, Valid: true}
	}
	status := patch.Status
	if status == "" {
		status = "open"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO patches (id, track_id, constraint_version, blocks_wave, depends_on, description, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
		patch.ID, patch.TrackID, patch.ConstraintVersion, patch.BlocksWave,
		marshalList(patch.DependsOn), desc, status,
	)
	if err != nil {
		return fmt.Errorf("failed to create patch: %w", err)
	}
	return nil
}

// GetByID retrieves a patch by its ID.
func (r *PatchRepository) GetByID(ctx context.Context, id string) (*secondary.PatchRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+patchSelectCols+" FROM patches WHERE id = ?", id)

	record, err := scanPatch(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("patch %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patch: %w", err)
	}
	return record, nil
}

// ListByTrack retrieves all patches on a track in creation order.
func (r *PatchRepository) ListByTrack(ctx context.Context, trackID string) ([]*secondary.PatchRecord, error) {
	return r.queryPatches(ctx,
		"SELECT "+patchSelectCols+" FROM patches WHERE track_id = ? ORDER BY created_at, id", trackID)
}

// ListOpenByTrack retrieves patches on a track that are not yet completed.
func (r *PatchRepository) ListOpenByTrack(ctx context.Context, trackID string) ([]*secondary.PatchRecord, error) {
	return r.queryPatches(ctx,
		"SELECT "+patchSelectCols+" FROM patches WHERE track_id = ? AND status != 'completed' ORDER BY created_at, id", trackID)
}

func (r *PatchRepository) queryPatches(ctx context.Context, query string, args ...any) ([]*secondary.PatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}
	defer rows.Close()

	var patches []*secondary.PatchRecord
	for rows.Next() {
		record, err := scanPatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patch: %w", err)
		}
		patches = append(patches, record)
	}
	return patches, rows.Err()
}

// Complete marks a patch completed.
func (r *PatchRepository) Complete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE patches SET status = 'completed', completed_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to complete patch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("patch %s not found", id)
	}
	return nil
}

// GetNextID returns the next available patch ID.
func (r *PatchRepository) GetNextID(ctx context.Context) (string, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patches").Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to generate patch ID: %w", err)
	}
	return fmt.Sprintf("PATCH-%03d", count+1), nil
}
