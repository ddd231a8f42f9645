package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// DiscoveryRepository implements secondary.DiscoveryRepository with SQLite.
// Discovery rows are written once by independent creators and only ever
// updated by the synchronizer's pending -> processed flip.
type DiscoveryRepository struct {
	db *sql.DB
}

// NewDiscoveryRepository creates a new SQLite discovery repository.
func NewDiscoveryRepository(db *sql.DB) *DiscoveryRepository {
	return &DiscoveryRepository{db: db}
}

const discoverySelectCols = "id, source_track_id, description, classification, suggested_scope, affected_tracks, urgency, status, action, duplicate_of, created_at, processed_at"

func scanDiscovery(scanner interface {
	Scan(dest ...any) error
}) (*secondary.DiscoveryRecord, error) {
	var (
		scope       sql.NullString
		affected    sql.NullString
		action      sql.NullString
		duplicateOf sql.NullString
		createdAt   time.Time
		processedAt sql.NullTime
	)

	record := &secondary.DiscoveryRecord{}
	err := scanner.Scan(
		&record.ID, &record.SourceTrackID, &record.Description, &record.Classification,
		&scope, &affected, &record.Urgency, &record.Status, &action, &duplicateOf,
		&createdAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	record.SuggestedScope = scope.String
	record.AffectedTracks = unmarshalList(affected)
	record.Action = action.String
	record.DuplicateOf = duplicateOf.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	if processedAt.Valid {
		record.ProcessedAt = processedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Create persists a new pending discovery.
func (r *DiscoveryRepository) Create(ctx context.Context, discovery *secondary.DiscoveryRecord) error {
	var scope sql.NullString
	if discovery.SuggestedScope != "" {
		scope = sql.NullString{String: discovery.SuggestedScope, Valid: true}
	}
	createdAt := discovery.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO discoveries (id, source_track_id, description, classification, suggested_scope, affected_tracks, urgency, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?)",
		discovery.ID, discovery.SourceTrackID, discovery.Description, discovery.Classification,
		scope, marshalList(discovery.AffectedTracks), discovery.Urgency, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create discovery: %w", err)
	}
	return nil
}

// GetByID retrieves a discovery by its ID.
func (r *DiscoveryRepository) GetByID(ctx context.Context, id string) (*secondary.DiscoveryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+discoverySelectCols+" FROM discoveries WHERE id = ?", id)

	record, err := scanDiscovery(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("discovery %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery: %w", err)
	}
	return record, nil
}

// ListPending retrieves pending discoveries in chronological order.
// Order is the synchronizer's processing order and is never rearranged.
func (r *DiscoveryRepository) ListPending(ctx context.Context) ([]*secondary.DiscoveryRecord, error) {
	return r.queryDiscoveries(ctx,
		"SELECT "+discoverySelectCols+" FROM discoveries WHERE status = 'pending' ORDER BY created_at, id")
}

// List retrieves discoveries matching the given filters.
func (r *DiscoveryRepository) List(ctx context.Context, filters secondary.DiscoveryFilters) ([]*secondary.DiscoveryRecord, error) {
	query := "SELECT " + discoverySelectCols + " FROM discoveries"
	args := []any{}
	where := ""

	addClause := func(clause string, value string) {
		if value == "" {
			return
		}
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}

	addClause("status = ?", filters.Status)
	addClause("source_track_id = ?", filters.SourceTrackID)
	addClause("urgency = ?", filters.Urgency)

	query += where + " ORDER BY created_at, id"

	return r.queryDiscoveries(ctx, query, args...)
}

// ListPendingBlocking retrieves pending blocking discoveries attributed to a track.
func (r *DiscoveryRepository) ListPendingBlocking(ctx context.Context, trackID string) ([]*secondary.DiscoveryRecord, error) {
	return r.queryDiscoveries(ctx,
		"SELECT "+discoverySelectCols+" FROM discoveries WHERE status = 'pending' AND urgency = 'blocking' AND source_track_id = ? ORDER BY created_at, id",
		trackID)
}

func (r *DiscoveryRepository) queryDiscoveries(ctx context.Context, query string, args ...any) ([]*secondary.DiscoveryRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discoveries: %w", err)
	}
	defer rows.Close()

	var discoveries []*secondary.DiscoveryRecord
	for rows.Next() {
		record, err := scanDiscovery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}
		discoveries = append(discoveries, record)
	}
	return discoveries, rows.Err()
}

// MarkProcessed flips a discovery from pending to processed and records its
// resolution. This is the commit point: a discovery that fails before this
// call stays pending and is retried on the next run.
func (r *DiscoveryRepository) MarkProcessed(ctx context.Context, id string, resolution *secondary.DiscoveryResolution) error {
	var duplicateOf sql.NullString
	if resolution.DuplicateOf != "" {
		duplicateOf = sql.NullString{String: resolution.DuplicateOf, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE discoveries SET status = 'processed', classification = ?, urgency = ?, action = ?, duplicate_of = ?, processed_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'pending'",
		resolution.Classification, resolution.Urgency, resolution.Action, duplicateOf, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark discovery processed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("discovery %s not pending", id)
	}
	return nil
}
