package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/conductor/internal/core/track"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// ConstraintServiceImpl implements the ConstraintService interface.
type ConstraintServiceImpl struct {
	constraintRepo secondary.ConstraintRepository
	trackRepo      secondary.TrackRepository
	patchRepo      secondary.PatchRepository
}

// NewConstraintService creates a new ConstraintService with injected dependencies.
func NewConstraintService(
	constraintRepo secondary.ConstraintRepository,
	trackRepo secondary.TrackRepository,
	patchRepo secondary.PatchRepository,
) *ConstraintServiceImpl {
	return &ConstraintServiceImpl{
		constraintRepo: constraintRepo,
		trackRepo:      trackRepo,
		patchRepo:      patchRepo,
	}
}

// AppendConstraint appends a new constraint version and patches every
// completed track whose watermark now trails head.
func (s *ConstraintServiceImpl) AppendConstraint(ctx context.Context, req primary.AppendConstraintRequest) (*primary.AppendConstraintResponse, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("constraint text is required")
	}

	outcome, err := applyConstraintVersion(ctx, s.constraintRepo, s.trackRepo, s.patchRepo, req.Text, req.SourceDiscoveryID)
	if err != nil {
		return nil, err
	}

	return &primary.AppendConstraintResponse{Version: outcome.Version}, nil
}

// ListConstraints retrieves the full constraint history in version order.
func (s *ConstraintServiceImpl) ListConstraints(ctx context.Context) ([]*primary.Constraint, error) {
	records, err := s.constraintRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	constraints := make([]*primary.Constraint, len(records))
	for i, r := range records {
		constraints[i] = &primary.Constraint{
			Version:           r.Version,
			Text:              r.Text,
			SourceDiscoveryID: r.SourceDiscoveryID,
			CreatedAt:         r.CreatedAt,
		}
	}
	return constraints, nil
}

// constraintOutcome is the result of appending one constraint version.
type constraintOutcome struct {
	Version int
	Patched []string // completed tracks flipped to needs_patch
}

// applyConstraintVersion appends a constraint version and propagates it:
// completed tracks get an open patch (ordered after patches on their
// dependencies from the same version) and flip to needs_patch; every other
// track's watermark advances so it picks the constraint up before or during
// its run.
func applyConstraintVersion(
	ctx context.Context,
	constraintRepo secondary.ConstraintRepository,
	trackRepo secondary.TrackRepository,
	patchRepo secondary.PatchRepository,
	text, sourceDiscoveryID string,
) (*constraintOutcome, error) {
	version, err := constraintRepo.Append(ctx, &secondary.ConstraintRecord{
		Text:              text,
		SourceDiscoveryID: sourceDiscoveryID,
	})
	if err != nil {
		return nil, err
	}

	records, err := trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	var stale []*secondary.TrackRecord
	for _, r := range records {
		if track.Status(r.Status) == track.StatusCompleted {
			stale = append(stale, r)
		}
	}
	// Dependencies sit in earlier waves, so wave order guarantees a patch is
	// created after the patches it will depend on.
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].Wave != stale[j].Wave {
			return stale[i].Wave < stale[j].Wave
		}
		return stale[i].ID < stale[j].ID
	})

	outcome := &constraintOutcome{Version: version}
	patchByTrack := make(map[string]string, len(stale))

	for _, r := range stale {
		patchID, err := patchRepo.GetNextID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate patch ID: %w", err)
		}

		var dependsOn []string
		for _, dep := range r.Dependencies {
			if siblingID, ok := patchByTrack[dep]; ok {
				dependsOn = append(dependsOn, siblingID)
			}
		}

		patch := &secondary.PatchRecord{
			ID:                patchID,
			TrackID:           r.ID,
			ConstraintVersion: version,
			BlocksWave:        r.Wave + 1,
			DependsOn:         dependsOn,
			Description:       fmt.Sprintf("apply constraint v%d: %s", version, text),
			Status:            "open",
		}
		if err := patchRepo.Create(ctx, patch); err != nil {
			return nil, fmt.Errorf("failed to create patch: %w", err)
		}
		if err := trackRepo.UpdateStatus(ctx, r.ID, string(track.StatusNeedsPatch)); err != nil {
			return nil, fmt.Errorf("failed to flip track to needs_patch: %w", err)
		}
		patchByTrack[r.ID] = patchID
		outcome.Patched = append(outcome.Patched, r.ID)
	}

	// Unstarted and running tracks absorb the change directly, so their
	// watermark advances now. Patched tracks stay stale until their patch
	// completes (CompletePatch advances them).
	for _, r := range records {
		if track.Status(r.Status) == track.StatusCompleted {
			continue
		}
		if err := trackRepo.SetConstraintVersion(ctx, r.ID, version); err != nil {
			return nil, fmt.Errorf("failed to advance constraint watermark: %w", err)
		}
	}

	return outcome, nil
}
