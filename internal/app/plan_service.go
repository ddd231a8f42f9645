package app

import (
	"context"
	"fmt"

	"github.com/example/conductor/internal/core/graph"
	"github.com/example/conductor/internal/core/track"
	"github.com/example/conductor/internal/core/wave"
	"github.com/example/conductor/internal/plan"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// PlanServiceImpl implements the PlanService interface.
type PlanServiceImpl struct {
	trackRepo      secondary.TrackRepository
	constraintRepo secondary.ConstraintRepository
}

// NewPlanService creates a new PlanService with injected dependencies.
func NewPlanService(trackRepo secondary.TrackRepository, constraintRepo secondary.ConstraintRepository) *PlanServiceImpl {
	return &PlanServiceImpl{trackRepo: trackRepo, constraintRepo: constraintRepo}
}

// ImportPlan loads tracks and dependencies from a plan file, validates the
// combined graph, and schedules waves. The plan is rejected before anything
// is written when the combined graph would be cyclic or a declared track
// already exists.
func (s *PlanServiceImpl) ImportPlan(ctx context.Context, path string) (*primary.ImportReport, error) {
	p, err := plan.Load(path)
	if err != nil {
		return nil, err
	}

	for _, entry := range p.Tracks {
		exists, err := s.trackRepo.Exists(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check track: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("track %s already exists", entry.ID)
		}
	}

	// Validate the combined graph: existing tracks and edges plus the plan's.
	existing, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	existingEdges, err := s.trackRepo.ListAllDependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}

	var nodes []string
	for _, r := range existing {
		nodes = append(nodes, r.ID)
	}
	var edges []graph.Edge
	for _, e := range existingEdges {
		edges = append(edges, graph.Edge{From: e.TrackID, To: e.DependsOnID})
	}
	for _, entry := range p.Tracks {
		nodes = append(nodes, entry.ID)
		for _, dep := range entry.Dependencies {
			edges = append(edges, graph.Edge{From: entry.ID, To: dep})
		}
	}

	result := graph.Validate(nodes, edges)
	if !result.Acyclic {
		return nil, fmt.Errorf("plan would create a cyclic graph: %v", result.CyclePath)
	}

	// Imported tracks start at the constraint head in force at import time.
	head, err := s.constraintRepo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraint head: %w", err)
	}

	report := &primary.ImportReport{}
	for _, entry := range p.Tracks {
		complexity := entry.Complexity
		if complexity == "" {
			complexity = string(track.ComplexityM)
		}
		record := &secondary.TrackRecord{
			ID:                 entry.ID,
			Title:              entry.Title,
			Description:        entry.Description,
			Status:             string(track.InitialStatus()),
			Complexity:         complexity,
			Dependencies:       entry.Dependencies,
			InterfacesOwned:    entry.InterfacesOwned,
			InterfacesConsumed: entry.InterfacesConsumed,
			ConstraintCreated:  head,
			ConstraintCurrent:  head,
			TestCommand:        entry.TestCommand,
			TestTimeoutSec:     entry.TestTimeoutSec,
			QualityPassRate:    entry.QualityPassRate,
		}
		if err := s.trackRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create track %s: %w", entry.ID, err)
		}
		report.TracksCreated = append(report.TracksCreated, entry.ID)
		report.EdgesCreated += len(entry.Dependencies)
	}

	waves := wave.Schedule(nodes, edges)
	for i, w := range waves {
		for _, trackID := range w {
			if err := s.trackRepo.SetWave(ctx, trackID, i+1); err != nil {
				return nil, fmt.Errorf("failed to assign wave to %s: %w", trackID, err)
			}
		}
	}
	report.Waves = waves

	return report, nil
}
