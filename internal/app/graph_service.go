package app

import (
	"context"
	"fmt"

	"github.com/example/conductor/internal/core/graph"
	"github.com/example/conductor/internal/core/wave"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// GraphServiceImpl implements the GraphService interface.
type GraphServiceImpl struct {
	trackRepo secondary.TrackRepository
}

// NewGraphService creates a new GraphService with injected dependencies.
func NewGraphService(trackRepo secondary.TrackRepository) *GraphServiceImpl {
	return &GraphServiceImpl{trackRepo: trackRepo}
}

// ValidateGraph checks the stored dependency graph for cycles.
func (s *GraphServiceImpl) ValidateGraph(ctx context.Context) (*primary.ValidationReport, error) {
	nodes, edges, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := graph.Validate(nodes, edges)
	return &primary.ValidationReport{
		Acyclic:   result.Acyclic,
		CyclePath: result.CyclePath,
		NodeCount: result.NodeCount,
		EdgeCount: result.EdgeCount,
	}, nil
}

// CheckEdge reports whether adding an edge (from depends on to) would
// introduce a cycle. Nothing is mutated.
func (s *GraphServiceImpl) CheckEdge(ctx context.Context, from, to string) (*primary.EdgeCheckReport, error) {
	for _, id := range []string{from, to} {
		exists, err := s.trackRepo.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check track: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("track %s not found", id)
		}
	}

	nodes, edges, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &primary.EdgeCheckReport{
		From:  from,
		To:    to,
		Cycle: graph.WouldCycle(nodes, edges, from, to),
	}, nil
}

// ScheduleWaves validates the graph, computes the wave schedule, and writes
// wave numbers back onto the tracks. The write only happens after the whole
// graph validates acyclic.
func (s *GraphServiceImpl) ScheduleWaves(ctx context.Context) (*primary.ScheduleReport, error) {
	nodes, edges, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := graph.Validate(nodes, edges)
	if !result.Acyclic {
		return nil, fmt.Errorf("dependency graph is cyclic: %v", result.CyclePath)
	}

	waves := wave.Schedule(nodes, edges)
	for i, w := range waves {
		for _, trackID := range w {
			if err := s.trackRepo.SetWave(ctx, trackID, i+1); err != nil {
				return nil, fmt.Errorf("failed to assign wave to %s: %w", trackID, err)
			}
		}
	}

	return &primary.ScheduleReport{Waves: waves, TotalTracks: len(nodes)}, nil
}

func (s *GraphServiceImpl) snapshot(ctx context.Context) ([]string, []graph.Edge, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	deps, err := s.trackRepo.ListAllDependencies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list dependencies: %w", err)
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
