// Package primary defines the primary ports (driving adapters) for the application.
// These are the service interfaces the CLI invokes.
package primary

import "context"

// TrackService defines the primary port for track operations.
type TrackService interface {
	// CreateTrack creates a new track, validating that its dependencies exist
	// and do not introduce a cycle.
	CreateTrack(ctx context.Context, req CreateTrackRequest) (*CreateTrackResponse, error)

	// GetTrack retrieves a track by ID, with its patches and override log.
	GetTrack(ctx context.Context, trackID string) (*Track, error)

	// ListTracks lists tracks with optional filters.
	ListTracks(ctx context.Context, filters TrackFilters) ([]*Track, error)

	// StartTrack moves a track to in_progress (external track-start signal).
	StartTrack(ctx context.Context, trackID string) error

	// CompleteTrack moves a track to completed (external track-complete signal).
	CompleteTrack(ctx context.Context, trackID string) error

	// PauseTrack pauses an in_progress track.
	PauseTrack(ctx context.Context, trackID string) error

	// ResumeTrack resumes a paused track.
	ResumeTrack(ctx context.Context, trackID string) error

	// SetPhasesComplete records the plan tracker's phase-completion report.
	SetPhasesComplete(ctx context.Context, trackID string, complete bool) error

	// CompletePatch marks a patch completed; completing the last open patch
	// returns a needs_patch track to completed.
	CompletePatch(ctx context.Context, patchID string) error
}

// CreateTrackRequest contains parameters for creating a track.
type CreateTrackRequest struct {
	Title              string
	Description        string
	Complexity         string // S, M, L, XL; defaults to M
	Dependencies       []string
	InterfacesOwned    []string
	InterfacesConsumed []string
	TestCommand        string
	TestTimeoutSec     int
	QualityPassRate    float64
}

// CreateTrackResponse contains the result of creating a track.
type CreateTrackResponse struct {
	TrackID string
	Track   *Track
}

// Track is a track as presented to callers.
type Track struct {
	ID                 string
	Title              string
	Description        string
	Status             string
	Wave               int
	Complexity         string
	Dependencies       []string
	InterfacesOwned    []string
	InterfacesConsumed []string
	ConstraintCreated  int
	ConstraintCurrent  int
	PhasesComplete     bool
	TestCommand        string
	TestTimeoutSec     int
	QualityPassRate    float64
	Patches            []*Patch
	Overrides          []*Override
	CreatedAt          string
	CompletedAt        string
}

// Patch is a retroactive compliance unit attached to a track.
type Patch struct {
	ID                string
	TrackID           string
	ConstraintVersion int
	BlocksWave        int
	DependsOn         []string
	Description       string
	Status            string
	CreatedAt         string
	CompletedAt       string
}

// Override is one audited gate override entry.
type Override struct {
	TrackID   string
	Check     string
	Reason    string
	Actor     string
	CreatedAt string
}

// TrackFilters contains filter options for listing tracks.
type TrackFilters struct {
	Status string
	Wave   int
}
