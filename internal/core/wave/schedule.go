// Package wave contains the pure wave-scheduling logic.
// This is part of the Functional Core - no I/O, only pure functions.
package wave

import (
	"sort"

	"github.com/example/conductor/internal/core/graph"
)

// Schedule partitions tracks into ordered waves by repeated topological
// peeling: every track whose remaining dependencies are exhausted joins the
// current wave, so tracks that tie land in the same wave and can run in
// parallel. Within a wave, tracks are sorted by ID for deterministic output.
//
// Precondition: the graph must already be validated acyclic (graph.Validate).
// Schedule does not re-check and will drop nodes stuck in a cycle.
func Schedule(nodes []string, edges []graph.Edge) [][]string {
	remaining := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))

	for _, n := range nodes {
		remaining[n] = 0
	}
	for _, e := range edges {
		if _, ok := remaining[e.From]; !ok {
			remaining[e.From] = 0
		}
		if _, ok := remaining[e.To]; !ok {
			remaining[e.To] = 0
		}
		remaining[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}

	var waves [][]string
	for len(remaining) > 0 {
		wave := make([]string, 0)
		for n, deg := range remaining {
			if deg == 0 {
				wave = append(wave, n)
			}
		}
		if len(wave) == 0 {
			// Cycle among the remainder; precondition violated, stop peeling.
			break
		}
		sort.Strings(wave)
		waves = append(waves, wave)

		for _, n := range wave {
			delete(remaining, n)
			for _, dep := range dependents[n] {
				if _, ok := remaining[dep]; ok {
					remaining[dep]--
				}
			}
		}
	}

	return waves
}

// Assignments flattens a wave schedule into a track -> wave number map.
// Waves are numbered from 1.
func Assignments(waves [][]string) map[string]int {
	assigned := make(map[string]int)
	for i, wave := range waves {
		for _, id := range wave {
			assigned[id] = i + 1
		}
	}
	return assigned
}
