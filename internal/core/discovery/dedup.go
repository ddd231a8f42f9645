package discovery

import (
	"regexp"
	"strings"
)

// DedupThreshold is the Jaccard word-overlap similarity above which two
// discoveries count as duplicates. Heuristic, tune against real batches.
const DedupThreshold = 0.7

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// wordSet extracts the lowercased alphanumeric word set from text.
func wordSet(text string) map[string]bool {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Overlap computes the Jaccard word overlap between two strings: the size of
// the word-set intersection over the size of the union. Empty inputs score 0.
func Overlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

// FindDuplicate compares a record's scope text against already-accepted
// records and returns the first one whose overlap meets DedupThreshold, or
// nil if the record is novel. Accepted records are scanned in order, so a
// duplicate always back-references the earliest match.
func FindDuplicate(record Record, accepted []Record) *Record {
	scope := record.ScopeText()
	for i := range accepted {
		if Overlap(scope, accepted[i].ScopeText()) >= DedupThreshold {
			return &accepted[i]
		}
	}
	return nil
}
