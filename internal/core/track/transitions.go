// Package track contains the pure business logic for track operations.
// This is part of the Functional Core - no I/O, only pure functions.
package track

import "fmt"

// Status represents the possible states of a track.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPaused     Status = "paused"
	StatusNeedsPatch Status = "needs_patch"
)

// Complexity is the ordinal size class of a track.
type Complexity string

const (
	ComplexityS  Complexity = "S"
	ComplexityM  Complexity = "M"
	ComplexityL  Complexity = "L"
	ComplexityXL Complexity = "XL"
)

// Weight returns the numeric weight for a complexity class. Unknown classes
// weigh as M.
func (c Complexity) Weight() int {
	switch c {
	case ComplexityS:
		return 1
	case ComplexityM:
		return 2
	case ComplexityL:
		return 3
	case ComplexityXL:
		return 4
	}
	return 2
}

// ValidStatus reports whether s is a known track status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusPaused, StatusNeedsPatch:
		return true
	}
	return false
}

// transitions is the track state machine. A completed track is immutable
// except through a patch (completed -> needs_patch).
var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusPaused},
	StatusPaused:     {StatusInProgress},
	StatusCompleted:  {StatusNeedsPatch},
	StatusNeedsPatch: {StatusInProgress},
}

// CanTransition reports whether a status transition is allowed by the
// state machine.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates a status transition and returns an actionable error
// when it is not allowed.
func Transition(trackID string, from, to Status) error {
	if !ValidStatus(to) {
		return fmt.Errorf("unknown status %q for track %s", to, trackID)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("track %s cannot transition %s -> %s (allowed: %v)", trackID, from, to, transitions[from])
	}
	return nil
}

// InitialStatus returns the status for a newly created track.
func InitialStatus() Status {
	return StatusNew
}
