package track

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// StartTrackContext provides context for track-start guards.
type StartTrackContext struct {
	TrackID            string
	Status             Status
	DependencyStatuses map[string]Status // dependency track ID -> status
}

// CompleteTrackContext provides context for track-complete guards.
type CompleteTrackContext struct {
	TrackID           string
	Status            Status
	IncompletePatches []string // patch IDs still open on this track
}

// ApplyPatchContext provides context for patch-application guards.
type ApplyPatchContext struct {
	TrackID string
	Status  Status
}

// CanStartTrack evaluates whether a track can move to in_progress.
// Rules:
// - Status must be new, paused, or needs_patch
// - Every dependency must be completed
func CanStartTrack(ctx StartTrackContext) GuardResult {
	if ctx.Status != StatusNew && ctx.Status != StatusPaused && ctx.Status != StatusNeedsPatch {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("track %s cannot start from status %s", ctx.TrackID, ctx.Status),
		}
	}

	for depID, depStatus := range ctx.DependencyStatuses {
		if depStatus != StatusCompleted {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("track %s blocked: dependency %s is %s, must be completed", ctx.TrackID, depID, depStatus),
			}
		}
	}

	return GuardResult{Allowed: true}
}

// CanCompleteTrack evaluates whether a track can move to completed.
// Rules:
// - Status must be in_progress
// - No patch on the track may still be open
func CanCompleteTrack(ctx CompleteTrackContext) GuardResult {
	if ctx.Status != StatusInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only complete in_progress tracks (track %s is %s)", ctx.TrackID, ctx.Status),
		}
	}

	if len(ctx.IncompletePatches) > 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("track %s has %d open patches: %v", ctx.TrackID, len(ctx.IncompletePatches), ctx.IncompletePatches),
		}
	}

	return GuardResult{Allowed: true}
}

// CanPauseTrack evaluates whether a track can be paused.
func CanPauseTrack(trackID string, status Status) GuardResult {
	if status != StatusInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only pause in_progress tracks (track %s is %s)", trackID, status),
		}
	}
	return GuardResult{Allowed: true}
}

// CanApplyPatch evaluates whether a patch phase can be appended to a track.
// Patches only attach to completed or already-patched tracks; for in_progress
// or new tracks the synchronizer routes the change differently (live pickup /
// context refresh).
func CanApplyPatch(ctx ApplyPatchContext) GuardResult {
	if ctx.Status != StatusCompleted && ctx.Status != StatusNeedsPatch {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("track %s is %s; patches only attach to completed or already-patched tracks", ctx.TrackID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}
