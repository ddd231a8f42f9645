package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/conductor/internal/core/gate"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// GateServiceImpl implements the GateService interface. The gate reports and
// logs; it never blocks a transition on its own.
type GateServiceImpl struct {
	trackRepo     secondary.TrackRepository
	patchRepo     secondary.PatchRepository
	discoveryRepo secondary.DiscoveryRepository
	runner        secondary.TestRunner
}

// NewGateService creates a new GateService with injected dependencies.
func NewGateService(
	trackRepo secondary.TrackRepository,
	patchRepo secondary.PatchRepository,
	discoveryRepo secondary.DiscoveryRepository,
	runner secondary.TestRunner,
) *GateServiceImpl {
	return &GateServiceImpl{
		trackRepo:     trackRepo,
		patchRepo:     patchRepo,
		discoveryRepo: discoveryRepo,
		runner:        runner,
	}
}

// EvaluateWave runs the completion checklist for every track in a wave.
func (s *GateServiceImpl) EvaluateWave(ctx context.Context, req primary.EvaluateWaveRequest) (*primary.WaveReport, error) {
	if req.Wave < 1 {
		return nil, fmt.Errorf("wave number must be positive")
	}

	tracks, err := s.trackRepo.ListByWave(ctx, req.Wave)
	if err != nil {
		return nil, fmt.Errorf("failed to list wave tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks in wave %d", req.Wave)
	}

	var reports []gate.TrackReport
	for _, record := range tracks {
		trackCtx, err := s.buildContext(ctx, record, req.SkipTests)
		if err != nil {
			return nil, err
		}
		reports = append(reports, gate.EvaluateTrack(req.Wave, trackCtx))
	}

	result := &primary.WaveReport{
		Wave:    req.Wave,
		Overall: string(gate.Overall(reports)),
	}
	for _, r := range reports {
		trackReport := primary.TrackGateReport{
			TrackID: r.TrackID,
			Verdict: string(r.Verdict),
		}
		for _, c := range r.Checks {
			trackReport.Checks = append(trackReport.Checks, primary.GateCheck{
				Check:   c.Check,
				Verdict: string(c.Verdict),
				Reason:  c.Reason,
			})
		}
		result.Tracks = append(result.Tracks, trackReport)
	}
	return result, nil
}

// buildContext assembles the per-track data the checklist evaluates: phase
// state, a test run, pending blocking discoveries, and patch state (this
// track's own patches plus any patch blocking the next wave).
func (s *GateServiceImpl) buildContext(ctx context.Context, record *secondary.TrackRecord, skipTests bool) (gate.TrackContext, error) {
	trackCtx := gate.TrackContext{
		TrackID:        record.ID,
		PhasesComplete: record.PhasesComplete,
	}

	trackCtx.Test = s.runTests(ctx, record, skipTests)

	blocking, err := s.discoveryRepo.ListPendingBlocking(ctx, record.ID)
	if err != nil {
		return gate.TrackContext{}, fmt.Errorf("failed to list blocking discoveries: %w", err)
	}
	for _, d := range blocking {
		trackCtx.PendingBlocking = append(trackCtx.PendingBlocking, d.ID)
	}

	patches, err := s.patchRepo.ListByTrack(ctx, record.ID)
	if err != nil {
		return gate.TrackContext{}, fmt.Errorf("failed to list patches: %w", err)
	}
	for _, p := range patches {
		trackCtx.Patches = append(trackCtx.Patches, gate.PatchState{
			ID:         p.ID,
			BlocksWave: p.BlocksWave,
			DependsOn:  p.DependsOn,
			Completed:  p.Status == "completed",
		})
	}

	return trackCtx, nil
}

func (s *GateServiceImpl) runTests(ctx context.Context, record *secondary.TrackRecord, skip bool) gate.TestResult {
	if record.TestCommand == "" {
		return gate.TestResult{Configured: false}
	}
	if skip {
		return gate.TestResult{Configured: true, Skipped: true}
	}

	run, err := s.runner.Run(ctx, record.TestCommand, record.TestTimeoutSec)
	if err != nil {
		return gate.TestResult{Configured: true, StartErr: err.Error()}
	}
	return gate.TestResult{
		Configured: true,
		StartErr:   run.StartErr,
		ExitCode:   run.ExitCode,
		TimedOut:   run.TimedOut,
		ElapsedSec: run.ElapsedSec,
		OutputTail: run.OutputTail,
	}
}

// OverrideCheck records a developer override for a failed check.
func (s *GateServiceImpl) OverrideCheck(ctx context.Context, req primary.OverrideCheckRequest) error {
	switch req.Check {
	case gate.CheckPhases, gate.CheckTests, gate.CheckDiscoveries, gate.CheckPatches:
	default:
		return fmt.Errorf("unknown check %q", req.Check)
	}
	if req.Reason == "" {
		return fmt.Errorf("override reason is required")
	}
	if req.Actor == "" {
		return fmt.Errorf("override actor is required")
	}

	exists, err := s.trackRepo.Exists(ctx, req.TrackID)
	if err != nil {
		return fmt.Errorf("failed to check track: %w", err)
	}
	if !exists {
		return fmt.Errorf("track %s not found", req.TrackID)
	}

	return s.trackRepo.AppendOverride(ctx, &secondary.OverrideRecord{
		TrackID:   req.TrackID,
		Check:     req.Check,
		Reason:    req.Reason,
		Actor:     req.Actor,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
