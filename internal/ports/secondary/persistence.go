// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// TrackRepository defines the secondary port for track persistence.
type TrackRepository interface {
	// Create persists a new track and its declared dependencies.
	Create(ctx context.Context, track *TrackRecord) error

	// GetByID retrieves a track by its ID.
	GetByID(ctx context.Context, id string) (*TrackRecord, error)

	// Exists reports whether a track exists.
	Exists(ctx context.Context, id string) (bool, error)

	// Update updates a track's mutable fields (title, description, complexity,
	// interfaces, test configuration).
	Update(ctx context.Context, track *TrackRecord) error

	// UpdateStatus updates a track's status.
	UpdateStatus(ctx context.Context, id, status string) error

	// SetWave assigns a wave number to a track.
	SetWave(ctx context.Context, id string, wave int) error

	// SetPhasesComplete records the externally-reported phase completion flag.
	SetPhasesComplete(ctx context.Context, id string, complete bool) error

	// SetConstraintVersion updates a track's current constraint watermark.
	SetConstraintVersion(ctx context.Context, id string, version int) error

	// List retrieves tracks matching the given filters, ordered by ID.
	List(ctx context.Context, filters TrackFilters) ([]*TrackRecord, error)

	// ListByWave retrieves all tracks assigned to a wave, ordered by ID.
	ListByWave(ctx context.Context, wave int) ([]*TrackRecord, error)

	// AddDependency adds a dependency edge (trackID depends on dependsOnID).
	AddDependency(ctx context.Context, trackID, dependsOnID string) error

	// ListAllDependencies retrieves every dependency edge in the store.
	ListAllDependencies(ctx context.Context) ([]DependencyEdge, error)

	// AppendOverride appends an entry to a track's override log.
	AppendOverride(ctx context.Context, override *OverrideRecord) error

	// ListOverrides retrieves a track's override log in append order.
	ListOverrides(ctx context.Context, trackID string) ([]*OverrideRecord, error)

	// GetNextID returns the next available track ID.
	GetNextID(ctx context.Context) (string, error)
}

// TrackRecord represents a track as stored in persistence.
type TrackRecord struct {
	ID                 string
	Title              string
	Description        string
	Status             string
	Wave               int
	Complexity         string
	Dependencies       []string
	InterfacesOwned    []string
	InterfacesConsumed []string
	ConstraintCreated  int // constraint version watermark at creation
	ConstraintCurrent  int // constraint version watermark now
	PhasesComplete     bool
	TestCommand        string
	TestTimeoutSec     int
	QualityPassRate    float64 // minimum pass rate percent, 0 when unset
	CreatedAt          string
	UpdatedAt          string
	CompletedAt        string
}

// DependencyEdge is a persisted dependency relation: TrackID depends on DependsOnID.
type DependencyEdge struct {
	TrackID     string
	DependsOnID string
}

// TrackFilters contains filter options for querying tracks.
type TrackFilters struct {
	Status string
	Wave   int // 0 means all waves
}

// OverrideRecord represents one audited gate override.
type OverrideRecord struct {
	TrackID   string
	Check     string
	Reason    string
	Actor     string
	CreatedAt string
}

// PatchRepository defines the secondary port for patch persistence.
type PatchRepository interface {
	// Create persists a new patch attached to a track.
	Create(ctx context.Context, patch *PatchRecord) error

	// GetByID retrieves a patch by its ID.
	GetByID(ctx context.Context, id string) (*PatchRecord, error)

	// ListByTrack retrieves all patches on a track in creation order.
	ListByTrack(ctx context.Context, trackID string) ([]*PatchRecord, error)

	// ListOpenByTrack retrieves patches on a track that are not yet completed.
	ListOpenByTrack(ctx context.Context, trackID string) ([]*PatchRecord, error)

	// Complete marks a patch completed.
	Complete(ctx context.Context, id string) error

	// GetNextID returns the next available patch ID.
	GetNextID(ctx context.Context) (string, error)
}

// PatchRecord represents a patch as stored in persistence.
type PatchRecord struct {
	ID                string
	TrackID           string
	ConstraintVersion int
	BlocksWave        int
	DependsOn         []string // sibling patch IDs from the same constraint version
	Description       string
	Status            string // "open" or "completed"
	CreatedAt         string
	CompletedAt       string
}

// DiscoveryRepository defines the secondary port for discovery persistence.
// Discovery rows are immutable facts; processing only flips their status from
// pending to processed and annotates the resolution.
type DiscoveryRepository interface {
	// Create persists a new pending discovery.
	Create(ctx context.Context, discovery *DiscoveryRecord) error

	// GetByID retrieves a discovery by its ID.
	GetByID(ctx context.Context, id string) (*DiscoveryRecord, error)

	// ListPending retrieves pending discoveries in chronological order.
	ListPending(ctx context.Context) ([]*DiscoveryRecord, error)

	// List retrieves discoveries matching the given filters.
	List(ctx context.Context, filters DiscoveryFilters) ([]*DiscoveryRecord, error)

	// ListPendingBlocking retrieves pending blocking discoveries attributed
	// to a track.
	ListPendingBlocking(ctx context.Context, trackID string) ([]*DiscoveryRecord, error)

	// MarkProcessed flips a discovery from pending to processed and records
	// its resolution. This is the commit point of synchronization.
	MarkProcessed(ctx context.Context, id string, resolution *DiscoveryResolution) error
}

// DiscoveryRecord represents a discovery as stored in persistence.
type DiscoveryRecord struct {
	ID             string
	SourceTrackID  string
	Description    string
	Classification string
	SuggestedScope string
	AffectedTracks []string
	Urgency        string
	Status         string // "pending" or "processed"
	Action         string // resolution summary once processed
	DuplicateOf    string // back-reference when deduplicated
	CreatedAt      string
	ProcessedAt    string
}

// DiscoveryResolution captures how a discovery was settled.
type DiscoveryResolution struct {
	Classification string // final classification (may differ after rerouting)
	Urgency        string // final urgency (may differ after escalation)
	Action         string
	DuplicateOf    string
}

// DiscoveryFilters contains filter options for querying discoveries.
type DiscoveryFilters struct {
	Status        string
	SourceTrackID string
	Urgency       string
}

// ConstraintRepository defines the secondary port for the append-only,
// versioned constraint set. Entries are never rewritten.
type ConstraintRepository interface {
	// Append adds a new constraint version on top of all prior versions and
	// returns the assigned version number.
	Append(ctx context.Context, entry *ConstraintRecord) (int, error)

	// Head returns the current (highest) constraint version, 0 when empty.
	Head(ctx context.Context) (int, error)

	// List retrieves all constraint entries in version order.
	List(ctx context.Context) ([]*ConstraintRecord, error)
}

// ConstraintRecord represents one constraint version entry.
type ConstraintRecord struct {
	Version           int
	Text              string
	SourceDiscoveryID string
	CreatedAt         string
}
