package discovery

import (
	"regexp"
	"strings"
)

// ConflictOverlapThreshold is the subject word-overlap above which two
// contradictory constraint texts are treated as the same concern.
// Heuristic, tune against real batches.
const ConflictOverlapThreshold = 0.5

var mustPattern = regexp.MustCompile(`must\s+(?:not\s+)?\w+`)

// Conflict describes a direct contradiction between a proposed constraint
// change and an existing constraint entry.
type Conflict struct {
	ExistingID   string
	Overlap      float64
	ProposedText string
	ExistingText string
}

// ConstraintEntry is an existing constraint as seen by conflict detection.
type ConstraintEntry struct {
	ID   string
	Text string
}

// CheckConflict scans existing constraint entries for a direct contradiction
// with a constraint_change discovery: one side says "must X", the other
// "must not X" about the same subject. Returns nil when the record is not a
// constraint change or no contradiction is found.
//
// A detected conflict is never auto-resolved; the caller reclassifies the
// discovery as structural_change and routes it to manual review.
func CheckConflict(record Record, existing []ConstraintEntry) *Conflict {
	if record.Classification != ClassConstraintChange {
		return nil
	}

	text := strings.ToLower(record.Description)
	if !mustPattern.MatchString(text) {
		return nil
	}
	hasMustNot := strings.Contains(text, "must not")

	for _, entry := range existing {
		entryText := strings.ToLower(entry.Text)
		if !mustPattern.MatchString(entryText) {
			continue
		}
		entryHasMustNot := strings.Contains(entryText, "must not")

		// Contradiction requires opposite polarity on an overlapping subject.
		if hasMustNot == entryHasMustNot {
			continue
		}
		overlap := Overlap(text, entryText)
		if overlap > ConflictOverlapThreshold {
			return &Conflict{
				ExistingID:   entry.ID,
				Overlap:      overlap,
				ProposedText: record.Description,
				ExistingText: entry.Text,
			}
		}
	}

	return nil
}
