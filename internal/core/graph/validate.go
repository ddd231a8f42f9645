// Package graph contains the pure dependency-graph validation logic.
// This is part of the Functional Core - no I/O, only pure functions.
package graph

import "sort"

// Edge is a directed dependency relation: From depends on To.
type Edge struct {
	From string
	To   string
}

// Result contains the outcome of a graph validation.
type Result struct {
	Acyclic   bool
	CyclePath []string // nil when acyclic; otherwise a closed walk through the cycle
	NodeCount int
	EdgeCount int
}

// Validate checks a dependency graph for cycles using Kahn's algorithm.
// Nodes is the full set of track IDs; edges declare From depends on To.
// Every node referenced by an edge must appear in nodes - callers load the
// complete track set before validating.
func Validate(nodes []string, edges []Edge) Result {
	inDegree := make(map[string]int, len(nodes))
	// dependents[X] = nodes that depend on X
	dependents := make(map[string][]string, len(nodes))

	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, e := range edges {
		if _, ok := inDegree[e.From]; !ok {
			inDegree[e.From] = 0
		}
		if _, ok := inDegree[e.To]; !ok {
			inDegree[e.To] = 0
		}
		inDegree[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}

	queue := make([]string, 0, len(inDegree))
	for n, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, n)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[n] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	result := Result{
		NodeCount: len(inDegree),
		EdgeCount: len(edges),
	}

	if visited == len(inDegree) {
		result.Acyclic = true
		return result
	}

	// Nodes with remaining in-degree are part of (or downstream of) a cycle.
	remaining := make(map[string]bool)
	for n, deg := range inDegree {
		if deg > 0 {
			remaining[n] = true
		}
	}

	result.CyclePath = tracePath(remaining, edges)
	return result
}

// WouldCycle reports whether adding the edge from -> to (from depends on to)
// would introduce a cycle. It clones the edge set and revalidates; graphs are
// small (tens of tracks), so correctness wins over performance here.
func WouldCycle(nodes []string, edges []Edge, from, to string) bool {
	candidate := make([]Edge, 0, len(edges)+1)
	candidate = append(candidate, edges...)
	candidate = append(candidate, Edge{From: from, To: to})

	augmented := nodes
	if !contains(nodes, from) {
		augmented = append(append([]string{}, augmented...), from)
	}
	if !contains(augmented, to) {
		augmented = append(append([]string{}, augmented...), to)
	}

	return !Validate(augmented, candidate).Acyclic
}

// tracePath walks dependency edges within the cyclic remainder until a node
// repeats, then returns the closed portion of the walk.
func tracePath(remaining map[string]bool, edges []Edge) []string {
	// Adjacency restricted to cyclic nodes, with sorted successors so the
	// reported path is deterministic.
	next := make(map[string][]string)
	for _, e := range edges {
		if remaining[e.From] && remaining[e.To] {
			next[e.From] = append(next[e.From], e.To)
		}
	}
	for n := range next {
		sort.Strings(next[n])
	}

	start := ""
	starts := make([]string, 0, len(remaining))
	for n := range remaining {
		starts = append(starts, n)
	}
	sort.Strings(starts)
	for _, n := range starts {
		if len(next[n]) > 0 {
			start = n
			break
		}
	}
	if start == "" {
		return starts
	}

	seen := make(map[string]int)
	path := []string{}
	current := start
	for {
		if idx, ok := seen[current]; ok {
			cycle := append([]string{}, path[idx:]...)
			return append(cycle, current)
		}
		seen[current] = len(path)
		path = append(path, current)
		successors := next[current]
		if len(successors) == 0 {
			// Dead end inside the remainder; should not happen for true
			// cycle members, fall back to the remainder set.
			return starts
		}
		current = successors[0]
	}
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
