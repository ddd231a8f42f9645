package sqlite_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/example/conductor/internal/adapters/sqlite"
	"github.com/example/conductor/internal/ports/secondary"
)

func TestTrackRepositoryCreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "completed")

	record := &secondary.TrackRecord{
		ID:                 "TRACK-002",
		Title:              "API core",
		Description:        "Core resource endpoints",
		Complexity:         "L",
		Dependencies:       []string{"TRACK-001"},
		InterfacesOwned:    []string{"/v1/resources"},
		InterfacesConsumed: []string{"/v1/auth"},
		ConstraintCreated:  3,
		ConstraintCurrent:  3,
		TestCommand:        "go test ./...",
		TestTimeoutSec:     120,
		QualityPassRate:    95,
	}

	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "TRACK-002")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Title != "API core" || got.Status != "new" || got.Complexity != "L" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !reflect.DeepEqual(got.Dependencies, []string{"TRACK-001"}) {
		t.Errorf("Dependencies = %v, want [TRACK-001]", got.Dependencies)
	}
	if !reflect.DeepEqual(got.InterfacesOwned, []string{"/v1/resources"}) {
		t.Errorf("InterfacesOwned = %v", got.InterfacesOwned)
	}
	if got.TestCommand != "go test ./..." || got.TestTimeoutSec != 120 {
		t.Errorf("test config = %q/%d", got.TestCommand, got.TestTimeoutSec)
	}
	if got.ConstraintCreated != 3 || got.ConstraintCurrent != 3 {
		t.Errorf("constraint watermarks = %d/%d, want 3/3", got.ConstraintCreated, got.ConstraintCurrent)
	}
}

func TestTrackRepositoryGetMissing(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)

	_, err := repo.GetByID(context.Background(), "TRACK-999")
	if err == nil {
		t.Fatal("GetByID on missing track returned nil error")
	}
}

func TestTrackRepositoryUpdateStatus(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "in_progress")

	if err := repo.UpdateStatus(ctx, "TRACK-001", "completed"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "TRACK-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != "completed" {
		t.Errorf("Status = %s, want completed", got.Status)
	}
	if got.CompletedAt == "" {
		t.Error("CompletedAt not stamped on completion")
	}

	if err := repo.UpdateStatus(ctx, "TRACK-404", "paused"); err == nil {
		t.Error("UpdateStatus on missing track returned nil error")
	}
}

func TestTrackRepositorySetWaveAndListByWave(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "")
	seedTrack(t, database, "TRACK-002", "")
	seedTrack(t, database, "TRACK-003", "")

	for id, wave := range map[string]int{"TRACK-001": 1, "TRACK-002": 2, "TRACK-003": 2} {
		if err := repo.SetWave(ctx, id, wave); err != nil {
			t.Fatalf("SetWave(%s) failed: %v", id, err)
		}
	}

	wave2, err := repo.ListByWave(ctx, 2)
	if err != nil {
		t.Fatalf("ListByWave failed: %v", err)
	}
	if len(wave2) != 2 || wave2[0].ID != "TRACK-002" || wave2[1].ID != "TRACK-003" {
		t.Errorf("ListByWave(2) = %v", trackIDs(wave2))
	}
}

func TestTrackRepositoryListFilters(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "completed")
	seedTrack(t, database, "TRACK-002", "in_progress")
	seedTrack(t, database, "TRACK-003", "completed")

	completed, err := repo.List(ctx, secondary.TrackFilters{Status: "completed"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := trackIDs(completed); !reflect.DeepEqual(got, []string{"TRACK-001", "TRACK-003"}) {
		t.Errorf("List(completed) = %v", got)
	}

	all, err := repo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d tracks, want 3", len(all))
	}
}

func TestTrackRepositoryDependencyEdges(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "")
	seedTrack(t, database, "TRACK-002", "")
	seedTrack(t, database, "TRACK-003", "")

	if err := repo.AddDependency(ctx, "TRACK-003", "TRACK-001"); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	if err := repo.AddDependency(ctx, "TRACK-003", "TRACK-002"); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}

	edges, err := repo.ListAllDependencies(ctx)
	if err != nil {
		t.Fatalf("ListAllDependencies failed: %v", err)
	}
	want := []secondary.DependencyEdge{
		{TrackID: "TRACK-003", DependsOnID: "TRACK-001"},
		{TrackID: "TRACK-003", DependsOnID: "TRACK-002"},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}

	// Duplicate edge rejected by the primary key.
	if err := repo.AddDependency(ctx, "TRACK-003", "TRACK-001"); err == nil {
		t.Error("duplicate AddDependency returned nil error")
	}
}

func TestTrackRepositoryOverrideLog(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "")

	first := &secondary.OverrideRecord{
		TrackID: "TRACK-001",
		Check:   "tests",
		Reason:  "flaky test, verified manually",
		Actor:   "dev@example.com",
	}
	second := &secondary.OverrideRecord{
		TrackID: "TRACK-001",
		Check:   "phases",
		Reason:  "docs phase deferred to wave 4",
		Actor:   "dev@example.com",
	}

	if err := repo.AppendOverride(ctx, first); err != nil {
		t.Fatalf("AppendOverride failed: %v", err)
	}
	if err := repo.AppendOverride(ctx, second); err != nil {
		t.Fatalf("AppendOverride failed: %v", err)
	}

	overrides, err := repo.ListOverrides(ctx, "TRACK-001")
	if err != nil {
		t.Fatalf("ListOverrides failed: %v", err)
	}
	if len(overrides) != 2 {
		t.Fatalf("got %d overrides, want 2", len(overrides))
	}
	if overrides[0].Check != "tests" || overrides[1].Check != "phases" {
		t.Errorf("override order wrong: %s, %s", overrides[0].Check, overrides[1].Check)
	}
	if overrides[0].Reason != "flaky test, verified manually" {
		t.Errorf("Reason = %q", overrides[0].Reason)
	}
	if overrides[0].CreatedAt == "" {
		t.Error("override CreatedAt not stamped")
	}
}

func TestTrackRepositoryGetNextID(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID failed: %v", err)
	}
	if id != "TRACK-001" {
		t.Errorf("GetNextID = %s, want TRACK-001", id)
	}

	seedTrack(t, database, "TRACK-001", "")
	id, err = repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID failed: %v", err)
	}
	if id != "TRACK-002" {
		t.Errorf("GetNextID = %s, want TRACK-002", id)
	}
}

func TestTrackRepositoryPhasesAndConstraint(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTrackRepository(database)
	ctx := context.Background()

	seedTrack(t, database, "TRACK-001", "")

	if err := repo.SetPhasesComplete(ctx, "TRACK-001", true); err != nil {
		t.Fatalf("SetPhasesComplete failed: %v", err)
	}
	if err := repo.SetConstraintVersion(ctx, "TRACK-001", 7); err != nil {
		t.Fatalf("SetConstraintVersion failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "TRACK-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.PhasesComplete {
		t.Error("PhasesComplete = false, want true")
	}
	if got.ConstraintCurrent != 7 {
		t.Errorf("ConstraintCurrent = %d, want 7", got.ConstraintCurrent)
	}
}

func trackIDs(tracks []*secondary.TrackRecord) []string {
	ids := make([]string, len(tracks))
	for i, tr := range tracks {
		ids[i] = tr.ID
	}
	return ids
}
