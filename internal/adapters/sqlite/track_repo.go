// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// TrackRepository implements secondary.TrackRepository with SQLite.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new SQLite track repository.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// marshalList serializes a string slice for a TEXT column; empty slices
// store as NULL.
func marshalList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	data, _ := json.Marshal(items)
	return sql.NullString{String: string(data), Valid: true}
}

// unmarshalList deserializes a TEXT column back to a string slice.
func unmarshalList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil
	}
	return items
}

const trackSelectCols = "id, title, description, status, wave, complexity, interfaces_owned, interfaces_consumed, constraint_created, constraint_current, phases_complete, test_command, test_timeout_seconds, quality_pass_rate, created_at, updated_at, completed_at"

// scanTrack scans a track row into a TrackRecord.
func scanTrack(scanner interface {
	Scan(dest ...any) error
}) (*secondary.TrackRecord, error) {
	var (
		desc        sql.NullString
		owned       sql.NullString
		consumed    sql.NullString
		phases      int
		testCommand sql.NullString
		testTimeout sql.NullInt64
		qualityRate sql.NullFloat64
		createdAt   time.Time
		updatedAt   time.Time
		completedAt sql.NullTime
	)

	record := &secondary.TrackRecord{}
	err := scanner.Scan(
		&record.ID, &record.Title, &desc, &record.Status, &record.Wave, &record.Complexity,
		&owned, &consumed, &record.ConstraintCreated, &record.ConstraintCurrent,
		&phases, &testCommand, &testTimeout, &qualityRate,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Description = desc.String
	record.InterfacesOwned = unmarshalList(owned)
	record.InterfacesConsumed = unmarshalList(consumed)
	record.PhasesComplete = phases != 0
	record.TestCommand = testCommand.String
	record.TestTimeoutSec = int(testTimeout.Int64)
	record.QualityPassRate = qualityRate.Float64
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Create persists a new track and its declared dependencies.
func (r *TrackRepository) Create(ctx context.Context, track *secondary.TrackRecord) error {
	var desc sql.NullString
	if track.Description != "" {
		desc = sql.NullString{String: track.Description, Valid: true}
	}
	var testCommand sql.NullString
	if track.TestCommand != "" {
		testCommand = sql.NullString{String: track.TestCommand, Valid: true}
	}
	timeout := track.TestTimeoutSec
	if timeout == 0 {
		timeout = 300
	}
	complexity := track.Complexity
	if complexity == "" {
		complexity = "M"
	}
	status := track.Status
	if status == "" {
		status = "new"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO tracks (id, title, description, status, wave, complexity, interfaces_owned, interfaces_consumed, constraint_created, constraint_current, test_command, test_timeout_seconds, quality_pass_rate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		track.ID, track.Title, desc, status, track.Wave, complexity,
		marshalList(track.InterfacesOwned), marshalList(track.InterfacesConsumed),
		track.ConstraintCreated, track.ConstraintCurrent,
		testCommand, timeout, track.QualityPassRate,
	)
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	for _, dep := range track.Dependencies {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO track_dependencies (track_id, depends_on_id) VALUES (?, ?)",
			track.ID, dep,
		)
		if err != nil {
			return fmt.Errorf("failed to add dependency %s -> %s: %w", track.ID, dep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track: %w", err)
	}

	return nil
}

// GetByID retrieves a track by its ID, including its dependency list.
func (r *TrackRepository) GetByID(ctx context.Context, id string) (*secondary.TrackRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+trackSelectCols+" FROM tracks WHERE id = ?",
		id,
	)

	record, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	deps, err := r.listDependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	record.Dependencies = deps

	return record, nil
}

// Exists reports whether a track exists.
func (r *TrackRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check track existence: %w", err)
	}
	return count > 0, nil
}

// Update updates a track's mutable fields.
func (r *TrackRepository) Update(ctx context.Context, track *secondary.TrackRecord) error {
	var desc, testCommand sql.NullString
	if track.Description != "" {
		desc = sql.NullString{String: track.Description, Valid: true}
	}
	if track.TestCommand != "" {
		testCommand = sql.NullString{String: track.TestCommand, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE tracks SET title = ?, description = ?, complexity = ?, interfaces_owned = ?, interfaces_consumed = ?, test_command = ?, test_timeout_seconds = ?, quality_pass_rate = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		track.Title, desc, track.Complexity,
		marshalList(track.InterfacesOwned), marshalList(track.InterfacesConsumed),
		testCommand, track.TestTimeoutSec, track.QualityPassRate, track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return nil
}

// UpdateStatus updates a track's status, stamping completed_at when it
// reaches completed.
func (r *TrackRepository) UpdateStatus(ctx context.Context, id, status string) error {
	var completedAt sql.NullTime
	if status == "completed" {
		completedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE tracks SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update track status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("track %s not found", id)
	}
	return nil
}

// SetWave assigns a wave number to a track.
func (r *TrackRepository) SetWave(ctx context.Context, id string, wave int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tracks SET wave = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		wave, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set wave: %w", err)
	}
	return nil
}

// SetPhasesComplete records the externally-reported phase completion flag.
func (r *TrackRepository) SetPhasesComplete(ctx context.Context, id string, complete bool) error {
	val := 0
	if complete {
		val = 1
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE tracks SET phases_complete = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		val, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set phases complete: %w", err)
	}
	return nil
}

// SetConstraintVersion updates a track's current constraint watermark.
func (r *TrackRepository) SetConstraintVersion(ctx context.Context, id string, version int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tracks SET constraint_current = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		version, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set constraint version: %w", err)
	}
	return nil
}

// List retrieves tracks matching the given filters, ordered by ID.
func (r *TrackRepository) List(ctx context.Context, filters secondary.TrackFilters) ([]*secondary.TrackRecord, error) {
	query := "SELECT " + trackSelectCols + " FROM tracks"
	args := []any{}
	where := ""

	if filters.Status != "" {
		where = " WHERE status = ?"
		args = append(args, filters.Status)
	}
	if filters.Wave != 0 {
		if where == "" {
			where = " WHERE wave = ?"
		} else {
			where += " AND wave = ?"
		}
		args = append(args, filters.Wave)
	}

	query += where + " ORDER BY id"

	return r.queryTracks(ctx, query, args...)
}

// ListByWave retrieves all tracks assigned to a wave, ordered by ID.
func (r *TrackRepository) ListByWave(ctx context.Context, wave int) ([]*secondary.TrackRecord, error) {
	return r.queryTracks(ctx,
		"SELECT "+trackSelectCols+" FROM tracks WHERE wave = ? ORDER BY id", wave)
}

func (r *TrackRepository) queryTracks(ctx context.Context, query string, args ...any) ([]*secondary.TrackRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*secondary.TrackRecord
	for rows.Next() {
		record, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}

	edges, err := r.ListAllDependencies(ctx)
	if err != nil {
		return nil, err
	}
	byTrack := make(map[string][]string)
	for _, e := range edges {
		byTrack[e.TrackID] = append(byTrack[e.TrackID], e.DependsOnID)
	}
	for _, t := range tracks {
		t.Dependencies = byTrack[t.ID]
	}

	return tracks, nil
}

func (r *TrackRepository) listDependencies(ctx context.Context, trackID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT depends_on_id FROM track_dependencies WHERE track_id = ? ORDER BY depends_on_id",
		trackID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// AddDependency adds a dependency edge (trackID depends on dependsOnID).
func (r *TrackRepository) AddDependency(ctx context.Context, trackID, dependsOnID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO track_dependencies (track_id, depends_on_id) VALUES (?, ?)",
		trackID, dependsOnID,
	)
	if err != nil {
		return fmt.Errorf("failed to add dependency %s -> %s: %w", trackID, dependsOnID, err)
	}
	return nil
}

// ListAllDependencies retrieves every dependency edge in the store.
func (r *TrackRepository) ListAllDependencies(ctx context.Context) ([]secondary.DependencyEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT track_id, depends_on_id FROM track_dependencies ORDER BY track_id, depends_on_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list dependency edges: %w", err)
	}
	defer rows.Close()

	var edges []secondary.DependencyEdge
	for rows.Next() {
		var e secondary.DependencyEdge
		if err := rows.Scan(&e.TrackID, &e.DependsOnID); err != nil {
			return nil, fmt.Errorf("failed to scan dependency edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AppendOverride appends an entry to a track's override log.
func (r *TrackRepository) AppendOverride(ctx context.Context, override *secondary.OverrideRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO override_log (track_id, check_name, reason, actor) VALUES (?, ?, ?, ?)",
		override.TrackID, override.Check, override.Reason, override.Actor,
	)
	if err != nil {
		return fmt.Errorf("failed to append override: %w", err)
	}
	return nil
}

// ListOverrides retrieves a track's override log in append order.
func (r *TrackRepository) ListOverrides(ctx context.Context, trackID string) ([]*secondary.OverrideRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT track_id, check_name, reason, actor, created_at FROM override_log WHERE track_id = ? ORDER BY id",
		trackID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*secondary.OverrideRecord
	for rows.Next() {
		var createdAt time.Time
		o := &secondary.OverrideRecord{}
		if err := rows.Scan(&o.TrackID, &o.Check, &o.Reason, &o.Actor, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.CreatedAt = createdAt.Format(time.RFC3339)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// GetNextID returns the next available track ID.
func (r *TrackRepository) GetNextID(ctx context.Context) (string, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to generate track ID: %w", err)
	}
	return fmt.Sprintf("TRACK-%03d", count+1), nil
}
