package primary

import "context"

// PlanService defines the primary port for importing a planning-phase output
// file (YAML track set) into the store.
type PlanService interface {
	// ImportPlan loads tracks and dependencies from a plan file, validates the
	// combined graph, and schedules waves. Nothing is written when the plan
	// would produce a cyclic graph.
	ImportPlan(ctx context.Context, path string) (*ImportReport, error)
}

// ImportReport is the outcome of a plan import.
type ImportReport struct {
	TracksCreated []string
	EdgesCreated  int
	Waves         [][]string
}

// StatusService defines the primary port for the progress report.
type StatusService interface {
	// Progress summarizes tracks per wave with complexity-weighted completion.
	Progress(ctx context.Context) (*ProgressReport, error)
}

// ProgressReport is the engine-wide progress summary.
type ProgressReport struct {
	TotalTracks     int
	WeightedPercent float64 // complexity-weighted completion
	Waves           []WaveProgress
}

// WaveProgress summarizes one wave.
type WaveProgress struct {
	Wave     int
	Tracks   []TrackProgress
	ByStatus map[string]int
}

// TrackProgress is one track's progress line.
type TrackProgress struct {
	TrackID    string
	Title      string
	Status     string
	Complexity string
}
