package primary

import "context"

// SyncService defines the primary port for discovery synchronization.
type SyncService interface {
	// CreateDiscovery records a new pending discovery. Concurrent creators
	// never contend: each discovery is an independently keyed immutable row.
	CreateDiscovery(ctx context.Context, req CreateDiscoveryRequest) (*CreateDiscoveryResponse, error)

	// ListDiscoveries lists discoveries with optional filters.
	ListDiscoveries(ctx context.Context, filters DiscoveryFilters) ([]*Discovery, error)

	// Synchronize processes all pending discoveries in chronological order:
	// dedup, conflict detection, cycle pre-check, urgency escalation, effect
	// application. A failing record is left pending and never blocks the batch.
	Synchronize(ctx context.Context, req SynchronizeRequest) (*SyncReport, error)

	// CheckDrift reports interface mismatches across tracks and tracks whose
	// constraint watermark trails the head constraint version.
	CheckDrift(ctx context.Context) (*DriftReport, error)
}

// CreateDiscoveryRequest contains parameters for recording a discovery.
type CreateDiscoveryRequest struct {
	SourceTrackID  string
	Description    string
	Classification string
	SuggestedScope string
	AffectedTracks []string
	Urgency        string
}

// CreateDiscoveryResponse contains the result of recording a discovery.
type CreateDiscoveryResponse struct {
	DiscoveryID string
}

// Discovery is a discovery record as presented to callers.
type Discovery struct {
	ID             string
	SourceTrackID  string
	Description    string
	Classification string
	SuggestedScope string
	AffectedTracks []string
	Urgency        string
	Status         string
	Action         string
	DuplicateOf    string
	CreatedAt      string
	ProcessedAt    string
}

// DiscoveryFilters contains filter options for listing discoveries.
type DiscoveryFilters struct {
	Status        string
	SourceTrackID string
	Urgency       string
}

// SynchronizeRequest contains parameters for a synchronizer run.
type SynchronizeRequest struct {
	DryRun bool // report actions without mutating the store
}

// SyncReport is the structured outcome of a synchronizer run.
type SyncReport struct {
	Processed int
	Applied   int
	Deduped   int
	Conflicts int
	Escalated int
	Flagged   int // routed to manual review
	Errors    int
	Details   []SyncDetail
}

// SyncDetail describes how one discovery was handled.
type SyncDetail struct {
	DiscoveryID    string
	Classification string // final classification
	Urgency        string // final urgency
	Action         string // human-readable resolution
	Duplicate      bool
	Error          string // non-empty when the record was left pending
}

// DriftReport is the outcome of a drift check.
type DriftReport struct {
	InSync              bool
	InterfaceMismatches []InterfaceMismatch
	StaleTracks         []StaleTrack
}

// InterfaceMismatch is an interface consumed by some track that no track owns.
type InterfaceMismatch struct {
	Interface string
	Consumers []string
}

// StaleTrack is a track whose current constraint watermark trails head.
type StaleTrack struct {
	TrackID string
	Current int
	Head    int
}
