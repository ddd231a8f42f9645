package app

import (
	"context"
	"strings"
	"testing"

	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

type syncFixture struct {
	trackRepo      *mockTrackRepository
	patchRepo      *mockPatchRepository
	discoveryRepo  *mockDiscoveryRepository
	constraintRepo *mockConstraintRepository
	svc            *SyncServiceImpl
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		trackRepo:      newMockTrackRepository(),
		patchRepo:      newMockPatchRepository(),
		discoveryRepo:  newMockDiscoveryRepository(),
		constraintRepo: newMockConstraintRepository(),
	}
	f.svc = NewSyncService(f.discoveryRepo, f.trackRepo, f.patchRepo, f.constraintRepo, NewGraphService(f.trackRepo))
	return f
}

func (f *syncFixture) seedDiscovery(d *secondary.DiscoveryRecord) {
	if d.Status == "" {
		d.Status = "pending"
	}
	f.discoveryRepo.discoveries[d.ID] = d
}

func TestCreateDiscovery(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "in_progress"})
	ctx := context.Background()

	resp, err := f.svc.CreateDiscovery(ctx, primary.CreateDiscoveryRequest{
		SourceTrackID:  "TRACK-001",
		Description:    "auth middleware needs a shared session store",
		Classification: "new_dependency",
		AffectedTracks: []string{"TRACK-002"},
	})
	if err != nil {
		t.Fatalf("CreateDiscovery failed: %v", err)
	}
	if !strings.HasPrefix(resp.DiscoveryID, "TRACK-001-") {
		t.Errorf("DiscoveryID = %s, want source-track prefix", resp.DiscoveryID)
	}

	record, err := f.discoveryRepo.GetByID(ctx, resp.DiscoveryID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != "pending" {
		t.Errorf("Status = %s, want pending", record.Status)
	}
	if record.Urgency != "backlog" {
		t.Errorf("Urgency = %s, want backlog default", record.Urgency)
	}
}

func TestCreateDiscoveryValidation(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "in_progress"})
	ctx := context.Background()

	tests := []struct {
		name    string
		req     primary.CreateDiscoveryRequest
		wantErr string
	}{
		{
			name:    "missing source",
			req:     primary.CreateDiscoveryRequest{Description: "x", Classification: "new_track"},
			wantErr: "source track is required",
		},
		{
			name:    "unknown source track",
			req:     primary.CreateDiscoveryRequest{SourceTrackID: "TRACK-099", Description: "x", Classification: "new_track"},
			wantErr: "not found",
		},
		{
			name:    "missing description",
			req:     primary.CreateDiscoveryRequest{SourceTrackID: "TRACK-001", Classification: "new_track"},
			wantErr: "description is required",
		},
		{
			name:    "invalid classification",
			req:     primary.CreateDiscoveryRequest{SourceTrackID: "TRACK-001", Description: "x", Classification: "surprise"},
			wantErr: "invalid classification",
		},
		{
			name:    "invalid urgency",
			req:     primary.CreateDiscoveryRequest{SourceTrackID: "TRACK-001", Description: "x", Classification: "new_track", Urgency: "panic"},
			wantErr: "invalid urgency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDiscovery(ctx, tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSynchronizeCreatesNewTrack(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "completed", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "Rate limiter needed for the public API",
		Classification: "new_track",
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Processed != 1 || report.Applied != 1 {
		t.Errorf("report = %+v, want 1 processed, 1 applied", report)
	}

	created, err := f.trackRepo.GetByID(ctx, "TRACK-002")
	if err != nil {
		t.Fatalf("created track not found: %v", err)
	}
	if len(created.Dependencies) != 1 || created.Dependencies[0] != "TRACK-001" {
		t.Errorf("Dependencies = %v", created.Dependencies)
	}
	if created.Wave != 2 {
		t.Errorf("Wave = %d, want 2 after reschedule", created.Wave)
	}

	processed, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if processed.Status != "processed" {
		t.Errorf("discovery status = %s, want processed", processed.Status)
	}
}

func TestSynchronizeDeduplicates(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "new", Wave: 1})
	scope := "extend TRACK-001 with retry handling for the payment client"
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "payment client needs retries",
		Classification: "track_extension",
		SuggestedScope: scope,
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d2",
		SourceTrackID:  "TRACK-001",
		Description:    "retries missing in payment client",
		Classification: "track_extension",
		SuggestedScope: scope,
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:05:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Deduped != 1 || report.Applied != 1 {
		t.Errorf("report = %+v, want 1 applied, 1 deduped", report)
	}

	dup, _ := f.discoveryRepo.GetByID(ctx, "d2")
	if dup.Status != "processed" {
		t.Errorf("duplicate status = %s, want processed", dup.Status)
	}
	if dup.DuplicateOf != "d1" {
		t.Errorf("DuplicateOf = %q, want d1", dup.DuplicateOf)
	}
}

func TestSynchronizeDetectsConstraintConflict(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "new", Wave: 1})
	f.constraintRepo.entries = append(f.constraintRepo.entries, &secondary.ConstraintRecord{
		Version: 1,
		Text:    "retries must not exceed three attempts",
	})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "retries must exceed three attempts",
		Classification: "constraint_change",
		Urgency:        "backlog",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Conflicts != 1 || report.Flagged != 1 || report.Applied != 0 {
		t.Errorf("report = %+v, want 1 conflict flagged, 0 applied", report)
	}

	// No new constraint version was appended.
	head, _ := f.constraintRepo.Head(ctx)
	if head != 1 {
		t.Errorf("constraint head = %d, want 1", head)
	}

	processed, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if processed.Classification != "structural_change" {
		t.Errorf("Classification = %s, want structural_change", processed.Classification)
	}
	if processed.Urgency != "blocking" {
		t.Errorf("Urgency = %s, want blocking", processed.Urgency)
	}
}

func TestSynchronizeEscalatesUrgency(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "in_progress", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "scope grows to cover webhook retries",
		Classification: "track_extension",
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "backlog",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Escalated != 1 {
		t.Errorf("Escalated = %d, want 1", report.Escalated)
	}

	processed, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if processed.Urgency != "blocking" {
		t.Errorf("Urgency = %s, want blocking", processed.Urgency)
	}
	if !strings.Contains(processed.Action, "live") {
		t.Errorf("Action = %q, want live pickup noted", processed.Action)
	}
}

func TestSynchronizeRejectsCyclicDependency(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "new", Wave: 1})
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-002", Status: "new", Wave: 2, Dependencies: []string{"TRACK-001"}})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "TRACK-001 needs output of TRACK-002",
		Classification: "new_dependency",
		AffectedTracks: []string{"TRACK-002"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Flagged != 1 || report.Applied != 0 {
		t.Errorf("report = %+v, want 1 flagged, 0 applied", report)
	}

	// The edge was not written.
	edges, _ := f.trackRepo.ListAllDependencies(ctx)
	if len(edges) != 1 {
		t.Errorf("got %d edges, want the original 1", len(edges))
	}

	processed, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if processed.Classification != "structural_change" {
		t.Errorf("Classification = %s, want structural_change", processed.Classification)
	}
	if !strings.Contains(processed.Action, "cycle") {
		t.Errorf("Action = %q, want cycle named", processed.Action)
	}
}

func TestSynchronizeAddsDependency(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "new", Wave: 1})
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-002", Status: "new", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-002",
		Description:    "TRACK-002 consumes the schema owned by TRACK-001",
		Classification: "new_dependency",
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Applied != 1 {
		t.Errorf("Applied = %d, want 1", report.Applied)
	}

	record, _ := f.trackRepo.GetByID(ctx, "TRACK-002")
	if len(record.Dependencies) != 1 || record.Dependencies[0] != "TRACK-001" {
		t.Errorf("Dependencies = %v", record.Dependencies)
	}
	if record.Wave != 2 {
		t.Errorf("Wave = %d, want 2 after reschedule", record.Wave)
	}
}

func TestSynchronizeExtensionPatchesNeedsPatchTrack(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "needs_patch", Wave: 1})
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-002", Status: "paused", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "migration script missed tenant tables",
		Classification: "track_extension",
		SuggestedScope: "extend migration to tenant tables",
		AffectedTracks: []string{"TRACK-001", "TRACK-002"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Applied != 1 {
		t.Errorf("Applied = %d, want 1", report.Applied)
	}

	// A track already under patch gets another patch appended, not the
	// before-start routing.
	open, _ := f.patchRepo.ListOpenByTrack(ctx, "TRACK-001")
	if len(open) != 1 {
		t.Fatalf("got %d open patches on TRACK-001, want 1", len(open))
	}
	if open[0].BlocksWave != 2 {
		t.Errorf("BlocksWave = %d, want 2", open[0].BlocksWave)
	}
	record, _ := f.trackRepo.GetByID(ctx, "TRACK-001")
	if record.Status != "needs_patch" {
		t.Errorf("status = %s, want needs_patch", record.Status)
	}

	action := report.Details[0].Action
	if !strings.Contains(action, "needs_patch track TRACK-001") {
		t.Errorf("action = %q, want needs_patch patch routing", action)
	}
	if !strings.Contains(action, "TRACK-002 picks up scope change on resume") {
		t.Errorf("action = %q, want paused resume routing", action)
	}
}

func TestSynchronizeAppliesConstraintChange(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "completed", Wave: 1})
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-002", Status: "new", Wave: 2})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-002",
		Description:    "all responses must include a request id",
		Classification: "constraint_change",
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Applied != 1 {
		t.Errorf("Applied = %d, want 1", report.Applied)
	}

	head, _ := f.constraintRepo.Head(ctx)
	if head != 1 {
		t.Errorf("constraint head = %d, want 1", head)
	}

	// The completed track got a patch and flipped to needs_patch.
	patched, _ := f.trackRepo.GetByID(ctx, "TRACK-001")
	if patched.Status != "needs_patch" {
		t.Errorf("TRACK-001 status = %s, want needs_patch", patched.Status)
	}
	open, _ := f.patchRepo.ListOpenByTrack(ctx, "TRACK-001")
	if len(open) != 1 {
		t.Fatalf("got %d open patches, want 1", len(open))
	}
	if open[0].BlocksWave != 2 {
		t.Errorf("BlocksWave = %d, want 2", open[0].BlocksWave)
	}

	// The unstarted track's watermark advanced instead.
	unstarted, _ := f.trackRepo.GetByID(ctx, "TRACK-002")
	if unstarted.ConstraintCurrent != 1 {
		t.Errorf("TRACK-002 watermark = %d, want 1", unstarted.ConstraintCurrent)
	}
}

func TestSynchronizeContinuesAfterItemError(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "new", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "extend the missing track",
		Classification: "track_extension",
		AffectedTracks: []string{"TRACK-099"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d2",
		SourceTrackID:  "TRACK-001",
		Description:    "tighten input validation on the import endpoint",
		Classification: "track_extension",
		AffectedTracks: []string{"TRACK-001"},
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:05:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Errors != 1 || report.Applied != 1 {
		t.Errorf("report = %+v, want 1 error, 1 applied", report)
	}

	// The failing record stays pending for the next run.
	failed, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if failed.Status != "pending" {
		t.Errorf("d1 status = %s, want pending", failed.Status)
	}
	ok, _ := f.discoveryRepo.GetByID(ctx, "d2")
	if ok.Status != "processed" {
		t.Errorf("d2 status = %s, want processed", ok.Status)
	}
}

func TestSynchronizeDryRun(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{ID: "TRACK-001", Status: "completed", Wave: 1})
	f.seedDiscovery(&secondary.DiscoveryRecord{
		ID:             "d1",
		SourceTrackID:  "TRACK-001",
		Description:    "Rate limiter needed for the public API",
		Classification: "new_track",
		Urgency:        "next_wave",
		CreatedAt:      "2026-08-30T10:00:00Z",
	})
	ctx := context.Background()

	report, err := f.svc.Synchronize(ctx, primary.SynchronizeRequest{DryRun: true})
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if report.Processed != 1 {
		t.Errorf("Processed = %d, want 1", report.Processed)
	}
	if len(report.Details) != 1 || !strings.Contains(report.Details[0].Action, "would create track") {
		t.Errorf("Details = %+v, want dry-run action", report.Details)
	}

	// Nothing was written.
	if len(f.trackRepo.tracks) != 1 {
		t.Errorf("got %d tracks, want 1", len(f.trackRepo.tracks))
	}
	pending, _ := f.discoveryRepo.GetByID(ctx, "d1")
	if pending.Status != "pending" {
		t.Errorf("d1 status = %s, want pending", pending.Status)
	}
}

func TestCheckDrift(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{
		ID: "TRACK-001", Status: "completed", Wave: 1,
		InterfacesOwned:   []string{"SchemaV1"},
		ConstraintCurrent: 1,
	})
	f.trackRepo.seed(&secondary.TrackRecord{
		ID: "TRACK-002", Status: "in_progress", Wave: 2,
		InterfacesConsumed: []string{"SchemaV1", "EventsV2"},
		ConstraintCurrent:  2,
	})
	f.constraintRepo.entries = append(f.constraintRepo.entries,
		&secondary.ConstraintRecord{Version: 1, Text: "a"},
		&secondary.ConstraintRecord{Version: 2, Text: "b"},
	)

	report, err := f.svc.CheckDrift(context.Background())
	if err != nil {
		t.Fatalf("CheckDrift failed: %v", err)
	}
	if report.InSync {
		t.Error("InSync = true with mismatch and stale track present")
	}
	if len(report.InterfaceMismatches) != 1 || report.InterfaceMismatches[0].Interface != "EventsV2" {
		t.Errorf("InterfaceMismatches = %+v", report.InterfaceMismatches)
	}
	if len(report.StaleTracks) != 1 || report.StaleTracks[0].TrackID != "TRACK-001" {
		t.Errorf("StaleTracks = %+v", report.StaleTracks)
	}
}

func TestCheckDriftClean(t *testing.T) {
	f := newSyncFixture()
	f.trackRepo.seed(&secondary.TrackRecord{
		ID: "TRACK-001", Status: "completed", Wave: 1,
		InterfacesOwned: []string{"SchemaV1"},
	})
	f.trackRepo.seed(&secondary.TrackRecord{
		ID: "TRACK-002", Status: "new", Wave: 2,
		InterfacesConsumed: []string{"SchemaV1"},
	})

	report, err := f.svc.CheckDrift(context.Background())
	if err != nil {
		t.Fatalf("CheckDrift failed: %v", err)
	}
	if !report.InSync {
		t.Errorf("InSync = false for clean state: %+v", report)
	}
}
