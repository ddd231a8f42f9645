// Package discovery contains the pure logic of the discovery synchronizer:
// deduplication, conflict detection, and urgency escalation.
// This is part of the Functional Core - no I/O, only pure functions.
package discovery

// Classification is the closed set of discovery kinds. The synchronizer's
// effect dispatch is exhaustive over these.
type Classification string

const (
	ClassNewTrack          Classification = "new_track"
	ClassTrackExtension    Classification = "track_extension"
	ClassNewDependency     Classification = "new_dependency"
	ClassConstraintChange  Classification = "constraint_change"
	ClassStructuralChange  Classification = "structural_change"
	ClassInterfaceMismatch Classification = "interface_mismatch"
)

// ValidClassification reports whether c is a known classification.
func ValidClassification(c Classification) bool {
	switch c {
	case ClassNewTrack, ClassTrackExtension, ClassNewDependency,
		ClassConstraintChange, ClassStructuralChange, ClassInterfaceMismatch:
		return true
	}
	return false
}

// Urgency is the closed set of discovery urgency levels.
type Urgency string

const (
	UrgencyBlocking Urgency = "blocking"
	UrgencyNextWave Urgency = "next_wave"
	UrgencyBacklog  Urgency = "backlog"
)

// ValidUrgency reports whether u is a known urgency.
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyBlocking, UrgencyNextWave, UrgencyBacklog:
		return true
	}
	return false
}

// Record is an immutable discovery as the synchronizer sees it. Records are
// created independently by concurrent writers and consumed exactly once.
type Record struct {
	ID             string
	SourceTrackID  string
	CreatedAt      string // RFC3339; records are processed in this order
	Description    string
	Classification Classification
	SuggestedScope string   // similarity comparison text
	AffectedTracks []string // tracks this discovery touches or depends on
	Urgency        Urgency
}

// ScopeText returns the text used for similarity comparison: the suggested
// scope when present, otherwise the description.
func (r Record) ScopeText() string {
	if r.SuggestedScope != "" {
		return r.SuggestedScope
	}
	return r.Description
}
