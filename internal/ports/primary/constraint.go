package primary

import "context"

// ConstraintService defines the primary port for the versioned constraint set.
type ConstraintService interface {
	// AppendConstraint appends a new constraint version and marks every
	// completed track with an older watermark as stale (patch candidates).
	AppendConstraint(ctx context.Context, req AppendConstraintRequest) (*AppendConstraintResponse, error)

	// ListConstraints retrieves the full constraint history in version order.
	ListConstraints(ctx context.Context) ([]*Constraint, error)
}

// AppendConstraintRequest contains parameters for appending a constraint.
type AppendConstraintRequest struct {
	Text              string
	SourceDiscoveryID string
}

// AppendConstraintResponse contains the result of the append.
type AppendConstraintResponse struct {
	Version int
}

// Constraint is one constraint version entry as presented to callers.
type Constraint struct {
	Version           int
	Text              string
	SourceDiscoveryID string
	CreatedAt         string
}
