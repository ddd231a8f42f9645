package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/conductor/internal/core/discovery"
	"github.com/example/conductor/internal/core/graph"
	"github.com/example/conductor/internal/core/track"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// SyncServiceImpl implements the SyncService interface. Synchronize is the
// single mutator of shared state: discoveries accumulate concurrently as
// independent rows and are folded into the track set here, one batch at a
// time, in chronological order.
type SyncServiceImpl struct {
	discoveryRepo  secondary.DiscoveryRepository
	trackRepo      secondary.TrackRepository
	patchRepo      secondary.PatchRepository
	constraintRepo secondary.ConstraintRepository
	graphSvc       primary.GraphService
}

// NewSyncService creates a new SyncService with injected dependencies.
func NewSyncService(
	discoveryRepo secondary.DiscoveryRepository,
	trackRepo secondary.TrackRepository,
	patchRepo secondary.PatchRepository,
	constraintRepo secondary.ConstraintRepository,
	graphSvc primary.GraphService,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		discoveryRepo:  discoveryRepo,
		trackRepo:      trackRepo,
		patchRepo:      patchRepo,
		constraintRepo: constraintRepo,
		graphSvc:       graphSvc,
	}
}

// CreateDiscovery records a new pending discovery. The ID embeds the source
// track, a timestamp, and a random suffix, so concurrent creators never
// contend on a shared counter.
func (s *SyncServiceImpl) CreateDiscovery(ctx context.Context, req primary.CreateDiscoveryRequest) (*primary.CreateDiscoveryResponse, error) {
	if req.SourceTrackID == "" {
		return nil, fmt.Errorf("source track is required")
	}
	if req.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if !discovery.ValidClassification(discovery.Classification(req.Classification)) {
		return nil, fmt.Errorf("invalid classification %q", req.Classification)
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = string(discovery.UrgencyBacklog)
	}
	if !discovery.ValidUrgency(discovery.Urgency(urgency)) {
		return nil, fmt.Errorf("invalid urgency %q", req.Urgency)
	}

	exists, err := s.trackRepo.Exists(ctx, req.SourceTrackID)
	if err != nil {
		return nil, fmt.Errorf("failed to check source track: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("track %s not found", req.SourceTrackID)
	}

	now := time.Now().UTC()
	id := fmt.Sprintf("%s-%s-%s", req.SourceTrackID, now.Format("20060102T150405Z"), uuid.NewString()[:8])

	record := &secondary.DiscoveryRecord{
		ID:             id,
		SourceTrackID:  req.SourceTrackID,
		Description:    req.Description,
		Classification: req.Classification,
		SuggestedScope: req.SuggestedScope,
		AffectedTracks: req.AffectedTracks,
		Urgency:        urgency,
		CreatedAt:      now.Format(time.RFC3339),
	}
	if err := s.discoveryRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &primary.CreateDiscoveryResponse{DiscoveryID: id}, nil
}

// ListDiscoveries lists discoveries with optional filters.
func (s *SyncServiceImpl) ListDiscoveries(ctx context.Context, filters primary.DiscoveryFilters) ([]*primary.Discovery, error) {
	records, err := s.discoveryRepo.List(ctx, secondary.DiscoveryFilters{
		Status:        filters.Status,
		SourceTrackID: filters.SourceTrackID,
		Urgency:       filters.Urgency,
	})
	if err != nil {
		return nil, err
	}

	result := make([]*primary.Discovery, len(records))
	for i, r := range records {
		result[i] = recordToDiscovery(r)
	}
	return result, nil
}

// Synchronize processes all pending discoveries in chronological order.
func (s *SyncServiceImpl) Synchronize(ctx context.Context, req primary.SynchronizeRequest) (*primary.SyncReport, error) {
	pending, err := s.discoveryRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	states, err := s.loadTrackStates(ctx)
	if err != nil {
		return nil, err
	}
	constraints, err := s.loadConstraintEntries(ctx)
	if err != nil {
		return nil, err
	}

	report := &primary.SyncReport{}
	var accepted []discovery.Record

	for _, raw := range pending {
		report.Processed++
		rec := toCoreRecord(raw)
		detail := primary.SyncDetail{
			DiscoveryID:    rec.ID,
			Classification: string(rec.Classification),
			Urgency:        string(rec.Urgency),
		}

		// Dedup against records already accepted this run.
		if dup := discovery.FindDuplicate(rec, accepted); dup != nil {
			detail.Duplicate = true
			detail.Action = fmt.Sprintf("duplicate of %s", dup.ID)
			report.Deduped++
			if err := s.settle(ctx, req.DryRun, rec.ID, &detail, dup.ID); err != nil {
				s.recordError(report, &detail, err)
			}
			report.Details = append(report.Details, detail)
			continue
		}

		// A constraint change that contradicts an existing constraint is
		// never auto-applied.
		if conflict := discovery.CheckConflict(rec, constraints); conflict != nil {
			detail.Classification = string(discovery.ClassStructuralChange)
			detail.Urgency = string(discovery.UrgencyBlocking)
			detail.Action = fmt.Sprintf("contradicts constraint v%s (%.0f%% subject overlap), routed to manual review",
				conflict.ExistingID, conflict.Overlap*100)
			report.Conflicts++
			report.Flagged++
			if err := s.settle(ctx, req.DryRun, rec.ID, &detail, ""); err != nil {
				s.recordError(report, &detail, err)
			}
			report.Details = append(report.Details, detail)
			continue
		}

		if esc := discovery.ValidateUrgency(rec, states); esc != nil {
			rec.Urgency = esc.To
			detail.Urgency = string(esc.To)
			detail.Action = fmt.Sprintf("urgency escalated %s -> %s (%s); ", esc.From, esc.To, esc.Reason)
			report.Escalated++
		}

		action, flagged, err := s.applyEffect(ctx, req.DryRun, rec, states, &detail)
		if err != nil {
			s.recordError(report, &detail, err)
			report.Details = append(report.Details, detail)
			continue
		}
		detail.Action += action
		if flagged {
			report.Flagged++
		} else {
			report.Applied++
		}

		if err := s.settle(ctx, req.DryRun, rec.ID, &detail, ""); err != nil {
			s.recordError(report, &detail, err)
			report.Details = append(report.Details, detail)
			continue
		}

		accepted = append(accepted, rec)
		report.Details = append(report.Details, detail)
	}

	return report, nil
}

// applyEffect dispatches on classification and applies the discovery's
// effect. It reports whether the record was flagged for manual review
// instead of applied.
func (s *SyncServiceImpl) applyEffect(ctx context.Context, dryRun bool, rec discovery.Record, states map[string]discovery.TrackState, detail *primary.SyncDetail) (string, bool, error) {
	switch rec.Classification {
	case discovery.ClassNewTrack:
		return s.effectNewTrack(ctx, dryRun, rec, states)

	case discovery.ClassTrackExtension:
		return s.effectTrackExtension(ctx, dryRun, rec, states)

	case discovery.ClassNewDependency:
		return s.effectNewDependency(ctx, dryRun, rec, detail)

	case discovery.ClassConstraintChange:
		return s.effectConstraintChange(ctx, dryRun, rec, states)

	case discovery.ClassStructuralChange, discovery.ClassInterfaceMismatch:
		// Never auto-applied.
		return "routed to manual review", true, nil
	}
	return "", false, fmt.Errorf("unknown classification %q", rec.Classification)
}

func (s *SyncServiceImpl) effectNewTrack(ctx context.Context, dryRun bool, rec discovery.Record, states map[string]discovery.TrackState) (string, bool, error) {
	for _, dep := range rec.AffectedTracks {
		exists, err := s.trackRepo.Exists(ctx, dep)
		if err != nil {
			return "", false, fmt.Errorf("failed to check dependency: %w", err)
		}
		if !exists {
			return "", false, fmt.Errorf("dependency %s not found", dep)
		}
	}

	if dryRun {
		return fmt.Sprintf("would create track (depends on %s)", joinOrNone(rec.AffectedTracks)), false, nil
	}

	nextID, err := s.trackRepo.GetNextID(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate track ID: %w", err)
	}

	head, err := s.constraintRepo.Head(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to read constraint head: %w", err)
	}

	record := &secondary.TrackRecord{
		ID:                nextID,
		Title:             titleFromDescription(rec.Description),
		Description:       rec.ScopeText(),
		Status:            string(track.InitialStatus()),
		Complexity:        string(track.ComplexityM),
		Dependencies:      rec.AffectedTracks,
		ConstraintCreated: head,
		ConstraintCurrent: head,
	}
	if err := s.trackRepo.Create(ctx, record); err != nil {
		return "", false, fmt.Errorf("failed to create track: %w", err)
	}

	// The new track changes the schedule; recompute wave assignments.
	if _, err := s.graphSvc.ScheduleWaves(ctx); err != nil {
		return "", false, fmt.Errorf("failed to reschedule waves: %w", err)
	}

	created, err := s.trackRepo.GetByID(ctx, nextID)
	if err == nil {
		states[nextID] = discovery.TrackState{Status: track.StatusNew, Wave: created.Wave}
	}

	return fmt.Sprintf("created track %s (depends on %s)", nextID, joinOrNone(rec.AffectedTracks)), false, nil
}

// effectTrackExtension routes a scope extension by the affected track's
// status: completed and needs_patch tracks get a patch, in_progress tracks
// pick the change up live, not-yet-started tracks absorb it before they start.
func (s *SyncServiceImpl) effectTrackExtension(ctx context.Context, dryRun bool, rec discovery.Record, states map[string]discovery.TrackState) (string, bool, error) {
	if len(rec.AffectedTracks) == 0 {
		return "", false, fmt.Errorf("track_extension discovery names no affected tracks")
	}

	var actions []string
	for _, tid := range rec.AffectedTracks {
		record, err := s.trackRepo.GetByID(ctx, tid)
		if err != nil {
			return "", false, err
		}

		switch track.Status(record.Status) {
		case track.StatusCompleted, track.StatusNeedsPatch:
			head, err := s.constraintRepo.Head(ctx)
			if err != nil {
				return "", false, fmt.Errorf("failed to read constraint head: %w", err)
			}
			if dryRun {
				actions = append(actions, fmt.Sprintf("would patch %s track %s", record.Status, tid))
				continue
			}
			patchID, err := s.createPatch(ctx, record, head, rec.ScopeText(), nil)
			if err != nil {
				return "", false, err
			}
			states[tid] = discovery.TrackState{Status: track.StatusNeedsPatch, Wave: record.Wave}
			actions = append(actions, fmt.Sprintf("created %s on %s track %s", patchID, record.Status, tid))

		case track.StatusInProgress:
			actions = append(actions, fmt.Sprintf("track %s picks up scope change live", tid))

		case track.StatusPaused:
			actions = append(actions, fmt.Sprintf("track %s picks up scope change on resume", tid))

		default:
			actions = append(actions, fmt.Sprintf("track %s absorbs scope change before start", tid))
		}
	}
	return strings.Join(actions, "; "), false, nil
}

func (s *SyncServiceImpl) effectNewDependency(ctx context.Context, dryRun bool, rec discovery.Record, detail *primary.SyncDetail) (string, bool, error) {
	if len(rec.AffectedTracks) == 0 {
		return "", false, fmt.Errorf("new_dependency discovery names no affected tracks")
	}

	nodes, edges, err := s.graphInputs(ctx)
	if err != nil {
		return "", false, err
	}

	// Pre-check every edge before writing any: a dependency set that closes
	// a cycle is a structural problem, not a graph mutation.
	for _, dep := range rec.AffectedTracks {
		exists, err := s.trackRepo.Exists(ctx, dep)
		if err != nil {
			return "", false, fmt.Errorf("failed to check dependency: %w", err)
		}
		if !exists {
			return "", false, fmt.Errorf("dependency %s not found", dep)
		}
		if graph.WouldCycle(nodes, edges, rec.SourceTrackID, dep) {
			detail.Classification = string(discovery.ClassStructuralChange)
			return fmt.Sprintf("edge %s -> %s would create a cycle, routed to manual review", rec.SourceTrackID, dep), true, nil
		}
		edges = append(edges, graph.Edge{From: rec.SourceTrackID, To: dep})
	}

	if dryRun {
		return fmt.Sprintf("would add dependency %s -> %s", rec.SourceTrackID, joinOrNone(rec.AffectedTracks)), false, nil
	}

	for _, dep := range rec.AffectedTracks {
		if err := s.trackRepo.AddDependency(ctx, rec.SourceTrackID, dep); err != nil {
			return "", false, fmt.Errorf("failed to add dependency: %w", err)
		}
	}
	if _, err := s.graphSvc.ScheduleWaves(ctx); err != nil {
		return "", false, fmt.Errorf("failed to reschedule waves: %w", err)
	}

	return fmt.Sprintf("added dependency %s -> %s", rec.SourceTrackID, joinOrNone(rec.AffectedTracks)), false, nil
}

func (s *SyncServiceImpl) effectConstraintChange(ctx context.Context, dryRun bool, rec discovery.Record, states map[string]discovery.TrackState) (string, bool, error) {
	if dryRun {
		return "would append constraint version", false, nil
	}

	outcome, err := applyConstraintVersion(ctx, s.constraintRepo, s.trackRepo, s.patchRepo, rec.ScopeText(), rec.ID)
	if err != nil {
		return "", false, err
	}

	for _, tid := range outcome.Patched {
		if st, ok := states[tid]; ok {
			st.Status = track.StatusNeedsPatch
			states[tid] = st
		}
	}

	action := fmt.Sprintf("appended constraint v%d", outcome.Version)
	if len(outcome.Patched) > 0 {
		action += fmt.Sprintf("; patched completed tracks %s", strings.Join(outcome.Patched, ", "))
	}
	return action, false, nil
}

// CheckDrift reports interface mismatches across tracks and tracks whose
// constraint watermark trails the head constraint version.
func (s *SyncServiceImpl) CheckDrift(ctx context.Context) (*primary.DriftReport, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, err
	}
	head, err := s.constraintRepo.Head(ctx)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool)
	consumers := make(map[string][]string)
	for _, r := range records {
		for _, iface := range r.InterfacesOwned {
			owned[iface] = true
		}
		for _, iface := range r.InterfacesConsumed {
			consumers[iface] = append(consumers[iface], r.ID)
		}
	}

	report := &primary.DriftReport{InSync: true}
	for iface, tracks := range consumers {
		if !owned[iface] {
			report.InterfaceMismatches = append(report.InterfaceMismatches, primary.InterfaceMismatch{
				Interface: iface,
				Consumers: tracks,
			})
			report.InSync = false
		}
	}

	for _, r := range records {
		if r.ConstraintCurrent < head {
			report.StaleTracks = append(report.StaleTracks, primary.StaleTrack{
				TrackID: r.ID,
				Current: r.ConstraintCurrent,
				Head:    head,
			})
			report.InSync = false
		}
	}

	return report, nil
}

// settle flips a discovery to processed with its final resolution. This is
// the commit point: until it succeeds the record stays pending and will be
// retried on the next run.
func (s *SyncServiceImpl) settle(ctx context.Context, dryRun bool, id string, detail *primary.SyncDetail, duplicateOf string) error {
	if dryRun {
		return nil
	}
	return s.discoveryRepo.MarkProcessed(ctx, id, &secondary.DiscoveryResolution{
		Classification: detail.Classification,
		Urgency:        detail.Urgency,
		Action:         detail.Action,
		DuplicateOf:    duplicateOf,
	})
}

func (s *SyncServiceImpl) recordError(report *primary.SyncReport, detail *primary.SyncDetail, err error) {
	detail.Error = err.Error()
	report.Errors++
}

func (s *SyncServiceImpl) loadTrackStates(ctx context.Context) (map[string]discovery.TrackState, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, err
	}
	states := make(map[string]discovery.TrackState, len(records))
	for _, r := range records {
		states[r.ID] = discovery.TrackState{Status: track.Status(r.Status), Wave: r.Wave}
	}
	return states, nil
}

func (s *SyncServiceImpl) loadConstraintEntries(ctx context.Context) ([]discovery.ConstraintEntry, error) {
	records, err := s.constraintRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]discovery.ConstraintEntry, len(records))
	for i, r := range records {
		entries[i] = discovery.ConstraintEntry{ID: strconv.Itoa(r.Version), Text: r.Text}
	}
	return entries, nil
}

func (s *SyncServiceImpl) graphInputs(ctx context.Context) ([]string, []graph.Edge, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, nil, err
	}
	deps, err := s.trackRepo.ListAllDependencies(ctx)
	if err != nil {
		return nil, nil, err
	}
	nodes := make([]string, len(records))
	for i, r := range records {
		nodes[i] = r.ID
	}
	edges := make([]graph.Edge, len(deps))
	for i, d := range deps {
		edges[i] = graph.Edge{From: d.TrackID, To: d.DependsOnID}
	}
	return nodes, edges, nil
}

// createPatch attaches one patch to a completed track and flips it to
// needs_patch.
func (s *SyncServiceImpl) createPatch(ctx context.Context, record *secondary.TrackRecord, constraintVersion int, description string, dependsOn []string) (string, error) {
	patchID, err := s.patchRepo.GetNextID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate patch ID: %w", err)
	}
	patch := &secondary.PatchRecord{
		ID:                patchID,
		TrackID:           record.ID,
		ConstraintVersion: constraintVersion,
		BlocksWave:        record.Wave + 1,
		DependsOn:         dependsOn,
		Description:       description,
		Status:            "open",
	}
	if err := s.patchRepo.Create(ctx, patch); err != nil {
		return "", fmt.Errorf("failed to create patch: %w", err)
	}
	if err := s.trackRepo.UpdateStatus(ctx, record.ID, string(track.StatusNeedsPatch)); err != nil {
		return "", fmt.Errorf("failed to flip track to needs_patch: %w", err)
	}
	return patchID, nil
}

func toCoreRecord(r *secondary.DiscoveryRecord) discovery.Record {
	return discovery.Record{
		ID:             r.ID,
		SourceTrackID:  r.SourceTrackID,
		CreatedAt:      r.CreatedAt,
		Description:    r.Description,
		Classification: discovery.Classification(r.Classification),
		SuggestedScope: r.SuggestedScope,
		AffectedTracks: r.AffectedTracks,
		Urgency:        discovery.Urgency(r.Urgency),
	}
}

func recordToDiscovery(r *secondary.DiscoveryRecord) *primary.Discovery {
	return &primary.Discovery{
		ID:             r.ID,
		SourceTrackID:  r.SourceTrackID,
		Description:    r.Description,
		Classification: r.Classification,
		SuggestedScope: r.SuggestedScope,
		AffectedTracks: r.AffectedTracks,
		Urgency:        r.Urgency,
		Status:         r.Status,
		Action:         r.Action,
		DuplicateOf:    r.DuplicateOf,
		CreatedAt:      r.CreatedAt,
		ProcessedAt:    r.ProcessedAt,
	}
}

// titleFromDescription derives a short track title from free-form discovery
// text.
func titleFromDescription(description string) string {
	const maxTitle = 72
	title := strings.TrimSpace(description)
	if idx := strings.IndexAny(title, ".\n"); idx > 0 {
		title = title[:idx]
	}
	if len(title) > maxTitle {
		title = title[:maxTitle]
	}
	return title
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "nothing"
	}
	return strings.Join(ids, ", ")
}
