package primary

import "context"

// GraphService defines the primary port for dependency-graph operations.
type GraphService interface {
	// ValidateGraph checks the stored dependency graph for cycles.
	ValidateGraph(ctx context.Context) (*ValidationReport, error)

	// CheckEdge reports whether adding an edge (from depends on to) would
	// introduce a cycle. Nothing is mutated.
	CheckEdge(ctx context.Context, from, to string) (*EdgeCheckReport, error)

	// ScheduleWaves validates the graph, computes the wave schedule, and
	// writes wave numbers back onto the tracks. Fails without mutating
	// anything when the graph is cyclic.
	ScheduleWaves(ctx context.Context) (*ScheduleReport, error)
}

// ValidationReport is the outcome of a whole-graph validation.
type ValidationReport struct {
	Acyclic   bool
	CyclePath []string
	NodeCount int
	EdgeCount int
}

// EdgeCheckReport is the outcome of an incremental edge check.
type EdgeCheckReport struct {
	From  string
	To    string
	Cycle bool
}

// ScheduleReport is the computed wave schedule.
type ScheduleReport struct {
	Waves       [][]string
	TotalTracks int
}
