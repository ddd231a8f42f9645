// Package app contains the application services (Imperative Shell).
// Services orchestrate I/O through the secondary ports and delegate all
// business decisions to the Functional Core packages.
package app

import (
	"context"
	"fmt"

	"github.com/example/conductor/internal/core/track"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// TrackServiceImpl implements the TrackService interface.
type TrackServiceImpl struct {
	trackRepo      secondary.TrackRepository
	patchRepo      secondary.PatchRepository
	constraintRepo secondary.ConstraintRepository
}

// NewTrackService creates a new TrackService with injected dependencies.
func NewTrackService(trackRepo secondary.TrackRepository, patchRepo secondary.PatchRepository, constraintRepo secondary.ConstraintRepository) *TrackServiceImpl {
	return &TrackServiceImpl{
		trackRepo:      trackRepo,
		patchRepo:      patchRepo,
		constraintRepo: constraintRepo,
	}
}

// CreateTrack creates a new track.
func (s *TrackServiceImpl) CreateTrack(ctx context.Context, req primary.CreateTrackRequest) (*primary.CreateTrackResponse, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("track title is required")
	}

	complexity := req.Complexity
	if complexity == "" {
		complexity = string(track.ComplexityM)
	}
	switch track.Complexity(complexity) {
	case track.ComplexityS, track.ComplexityM, track.ComplexityL, track.ComplexityXL:
	default:
		return nil, fmt.Errorf("invalid complexity %q (expected S, M, L, or XL)", req.Complexity)
	}

	// Validate dependencies exist
	for _, dep := range req.Dependencies {
		exists, err := s.trackRepo.Exists(ctx, dep)
		if err != nil {
			return nil, fmt.Errorf("failed to validate dependency: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("dependency %s not found", dep)
		}
	}

	nextID, err := s.trackRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate track ID: %w", err)
	}

	// A track's constraint watermark starts at the head version in force at
	// creation time.
	head, err := s.constraintRepo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraint head: %w", err)
	}

	record := &secondary.TrackRecord{
		ID:                 nextID,
		Title:              req.Title,
		Description:        req.Description,
		Status:             string(track.InitialStatus()),
		Complexity:         complexity,
		Dependencies:       req.Dependencies,
		InterfacesOwned:    req.InterfacesOwned,
		InterfacesConsumed: req.InterfacesConsumed,
		ConstraintCreated:  head,
		ConstraintCurrent:  head,
		TestCommand:        req.TestCommand,
		TestTimeoutSec:     req.TestTimeoutSec,
		QualityPassRate:    req.QualityPassRate,
	}

	if err := s.trackRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}

	created, err := s.trackRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created track: %w", err)
	}

	return &primary.CreateTrackResponse{
		TrackID: created.ID,
		Track:   recordToTrack(created),
	}, nil
}

// GetTrack retrieves a track by ID, with its patches and override log.
func (s *TrackServiceImpl) GetTrack(ctx context.Context, trackID string) (*primary.Track, error) {
	record, err := s.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return nil, err
	}

	result := recordToTrack(record)

	patches, err := s.patchRepo.ListByTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}
	for _, p := range patches {
		result.Patches = append(result.Patches, recordToPatch(p))
	}

	overrides, err := s.trackRepo.ListOverrides(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	for _, o := range overrides {
		result.Overrides = append(result.Overrides, &primary.Override{
			TrackID:   o.TrackID,
			Check:     o.Check,
			Reason:    o.Reason,
			Actor:     o.Actor,
			CreatedAt: o.CreatedAt,
		})
	}

	return result, nil
}

// ListTracks lists tracks with optional filters.
func (s *TrackServiceImpl) ListTracks(ctx context.Context, filters primary.TrackFilters) ([]*primary.Track, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{
		Status: filters.Status,
		Wave:   filters.Wave,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	tracks := make([]*primary.Track, len(records))
	for i, r := range records {
		tracks[i] = recordToTrack(r)
	}
	return tracks, nil
}

// StartTrack moves a track to in_progress.
func (s *TrackServiceImpl) StartTrack(ctx context.Context, trackID string) error {
	record, err := s.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	depStatuses := make(map[string]track.Status, len(record.Dependencies))
	for _, dep := range record.Dependencies {
		depRecord, err := s.trackRepo.GetByID(ctx, dep)
		if err != nil {
			return fmt.Errorf("failed to check dependency %s: %w", dep, err)
		}
		depStatuses[dep] = track.Status(depRecord.Status)
	}

	guard := track.CanStartTrack(track.StartTrackContext{
		TrackID:            trackID,
		Status:             track.Status(record.Status),
		DependencyStatuses: depStatuses,
	})
	if err := guard.Error(); err != nil {
		return err
	}

	return s.trackRepo.UpdateStatus(ctx, trackID, string(track.StatusInProgress))
}

// CompleteTrack moves a track to completed.
func (s *TrackServiceImpl) CompleteTrack(ctx context.Context, trackID string) error {
	record, err := s.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	open, err := s.patchRepo.ListOpenByTrack(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to list open patches: %w", err)
	}
	openIDs := make([]string, len(open))
	for i, p := range open {
		openIDs[i] = p.ID
	}

	guard := track.CanCompleteTrack(track.CompleteTrackContext{
		TrackID:           trackID,
		Status:            track.Status(record.Status),
		IncompletePatches: openIDs,
	})
	if err := guard.Error(); err != nil {
		return err
	}

	return s.trackRepo.UpdateStatus(ctx, trackID, string(track.StatusCompleted))
}

// PauseTrack pauses an in_progress track.
func (s *TrackServiceImpl) PauseTrack(ctx context.Context, trackID string) error {
	record, err := s.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	guard := track.CanPauseTrack(trackID, track.Status(record.Status))
	if err := guard.Error(); err != nil {
		return err
	}

	return s.trackRepo.UpdateStatus(ctx, trackID, string(track.StatusPaused))
}

// ResumeTrack resumes a paused track.
func (s *TrackServiceImpl) ResumeTrack(ctx context.Context, trackID string) error {
	record, err := s.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	if err := track.Transition(trackID, track.Status(record.Status), track.StatusInProgress); err != nil {
		return err
	}

	return s.trackRepo.UpdateStatus(ctx, trackID, string(track.StatusInProgress))
}

// SetPhasesComplete records the plan tracker's phase-completion report.
func (s *TrackServiceImpl) SetPhasesComplete(ctx context.Context, trackID string, complete bool) error {
	exists, err := s.trackRepo.Exists(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to check track: %w", err)
	}
	if !exists {
		return fmt.Errorf("track %s not found", trackID)
	}
	return s.trackRepo.SetPhasesComplete(ctx, trackID, complete)
}

// CompletePatch marks a patch completed. Completing the last open patch on a
// needs_patch track is the sanctioned way back to completed.
func (s *TrackServiceImpl) CompletePatch(ctx context.Context, patchID string) error {
	patch, err := s.patchRepo.GetByID(ctx, patchID)
	if err != nil {
		return err
	}
	if patch.Status == "completed" {
		return fmt.Errorf("patch %s is already completed", patchID)
	}

	// Sibling patches from the same constraint version apply in declaration
	// order.
	for _, sibling := range patch.DependsOn {
		dep, err := s.patchRepo.GetByID(ctx, sibling)
		if err != nil {
			return fmt.Errorf("failed to check patch dependency %s: %w", sibling, err)
		}
		if dep.Status != "completed" {
			return fmt.Errorf("patch %s depends on %s, which is still open", patchID, sibling)
		}
	}

	if err := s.patchRepo.Complete(ctx, patchID); err != nil {
		return err
	}

	trackRecord, err := s.trackRepo.GetByID(ctx, patch.TrackID)
	if err != nil {
		return err
	}

	// The patch brings the track up to the constraint version it was cut
	// from.
	if patch.ConstraintVersion > trackRecord.ConstraintCurrent {
		if err := s.trackRepo.SetConstraintVersion(ctx, patch.TrackID, patch.ConstraintVersion); err != nil {
			return fmt.Errorf("failed to advance constraint watermark: %w", err)
		}
	}

	open, err := s.patchRepo.ListOpenByTrack(ctx, patch.TrackID)
	if err != nil {
		return fmt.Errorf("failed to list open patches: %w", err)
	}
	if len(open) == 0 && trackRecord.Status == string(track.StatusNeedsPatch) {
		if err := s.trackRepo.UpdateStatus(ctx, patch.TrackID, string(track.StatusCompleted)); err != nil {
			return fmt.Errorf("failed to restore track status: %w", err)
		}
	}

	return nil
}

func recordToTrack(r *secondary.TrackRecord) *primary.Track {
	return &primary.Track{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		Status:             r.Status,
		Wave:               r.Wave,
		Complexity:         r.Complexity,
		Dependencies:       r.Dependencies,
		InterfacesOwned:    r.InterfacesOwned,
		InterfacesConsumed: r.InterfacesConsumed,
		ConstraintCreated:  r.ConstraintCreated,
		ConstraintCurrent:  r.ConstraintCurrent,
		PhasesComplete:     r.PhasesComplete,
		TestCommand:        r.TestCommand,
		TestTimeoutSec:     r.TestTimeoutSec,
		QualityPassRate:    r.QualityPassRate,
		CreatedAt:          r.CreatedAt,
		CompletedAt:        r.CompletedAt,
	}
}

func recordToPatch(r *secondary.PatchRecord) *primary.Patch {
	return &primary.Patch{
		ID:                r.ID,
		TrackID:           r.TrackID,
		ConstraintVersion: r.ConstraintVersion,
		BlocksWave:        r.BlocksWave,
		DependsOn:         r.DependsOn,
		Description:       r.Description,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
		CompletedAt:       r.CompletedAt,
	}
}
