// Package gate contains the pure wave-completion checklist logic.
// This is part of the Functional Core - no I/O, only pure functions.
// Test commands run in the shell (adapters/exec); their results arrive
// here as plain data.
package gate

import (
	"fmt"
	"strings"
)

// Verdict is a per-track or overall gate outcome.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictWarn Verdict = "warn"
	VerdictFail Verdict = "fail"
)

// Check names, used in reports and override log entries.
const (
	CheckPhases      = "phases"
	CheckTests       = "tests"
	CheckDiscoveries = "discoveries"
	CheckPatches     = "patches"
)

// TestResult is the outcome of an external test-command run, as data.
type TestResult struct {
	Configured bool // a test command exists for the track
	Skipped    bool // caller asked to skip test execution
	StartErr   string
	ExitCode   int
	TimedOut   bool
	ElapsedSec float64
	OutputTail string // last lines of combined output, for failure context
}

// PatchState is the slice of patch state the gate needs.
type PatchState struct {
	ID         string
	BlocksWave int
	DependsOn  []string // sibling patch IDs from the same constraint version
	Completed  bool
}

// TrackContext carries everything the gate evaluates for one track.
type TrackContext struct {
	TrackID         string
	PhasesComplete  bool
	PhasesDetail    string // e.g. "3/7 phases unchecked"
	Test            TestResult
	PendingBlocking []string // pending blocking discovery IDs attributed to the track
	Patches         []PatchState
}

// CheckResult is the outcome of one checklist item.
type CheckResult struct {
	Check   string
	Verdict Verdict
	Reason  string
}

// TrackReport is the full per-track gate outcome.
type TrackReport struct {
	TrackID string
	Verdict Verdict
	Checks  []CheckResult
}

// EvaluateTrack runs the fixed checklist for one track in wave waveNumber.
// Hard failures dominate; a missing test command alone downgrades to warn.
func EvaluateTrack(waveNumber int, ctx TrackContext) TrackReport {
	checks := []CheckResult{
		checkPhases(ctx),
		checkTests(ctx),
		checkDiscoveries(ctx),
		checkPatches(waveNumber, ctx),
	}

	verdict := VerdictPass
	for _, c := range checks {
		switch c.Verdict {
		case VerdictFail:
			verdict = VerdictFail
		case VerdictWarn:
			if verdict == VerdictPass {
				verdict = VerdictWarn
			}
		}
	}

	return TrackReport{TrackID: ctx.TrackID, Verdict: verdict, Checks: checks}
}

// Overall folds track reports into the wave-level verdict: fail if any track
// fails, warn if any track warns, else pass.
func Overall(reports []TrackReport) Verdict {
	overall := VerdictPass
	for _, r := range reports {
		switch r.Verdict {
		case VerdictFail:
			return VerdictFail
		case VerdictWarn:
			overall = VerdictWarn
		}
	}
	return overall
}

func checkPhases(ctx TrackContext) CheckResult {
	if ctx.PhasesComplete {
		return CheckResult{Check: CheckPhases, Verdict: VerdictPass, Reason: "all phases complete"}
	}
	reason := "incomplete phases"
	if ctx.PhasesDetail != "" {
		reason = ctx.PhasesDetail
	}
	return CheckResult{Check: CheckPhases, Verdict: VerdictFail, Reason: reason}
}

func checkTests(ctx TrackContext) CheckResult {
	t := ctx.Test
	if !t.Configured {
		return CheckResult{Check: CheckTests, Verdict: VerdictWarn, Reason: "no test command configured"}
	}
	if t.Skipped {
		return CheckResult{Check: CheckTests, Verdict: VerdictWarn, Reason: "tests skipped by caller"}
	}
	if t.StartErr != "" {
		return CheckResult{Check: CheckTests, Verdict: VerdictFail, Reason: fmt.Sprintf("failed to run tests: %s", t.StartErr)}
	}
	if t.TimedOut {
		return CheckResult{Check: CheckTests, Verdict: VerdictFail, Reason: fmt.Sprintf("tests timed out after %.0fs", t.ElapsedSec)}
	}
	if t.ExitCode != 0 {
		reason := fmt.Sprintf("tests failing (exit %d)", t.ExitCode)
		if t.OutputTail != "" {
			reason += ": " + t.OutputTail
		}
		return CheckResult{Check: CheckTests, Verdict: VerdictFail, Reason: reason}
	}
	return CheckResult{Check: CheckTests, Verdict: VerdictPass, Reason: "tests passing"}
}

func checkDiscoveries(ctx TrackContext) CheckResult {
	if len(ctx.PendingBlocking) == 0 {
		return CheckResult{Check: CheckDiscoveries, Verdict: VerdictPass, Reason: "no blocking discoveries"}
	}
	return CheckResult{
		Check:   CheckDiscoveries,
		Verdict: VerdictFail,
		Reason:  fmt.Sprintf("%d blocking discoveries pending: %s", len(ctx.PendingBlocking), strings.Join(ctx.PendingBlocking, ", ")),
	}
}

func checkPatches(waveNumber int, ctx TrackContext) CheckResult {
	nextWave := waveNumber + 1
	done := make(map[string]bool, len(ctx.Patches))
	for _, p := range ctx.Patches {
		done[p.ID] = p.Completed
	}

	var open []string
	for _, p := range ctx.Patches {
		if p.BlocksWave != nextWave {
			continue
		}
		if !p.Completed {
			open = append(open, p.ID)
			continue
		}
		// A patch counts as complete only once its prerequisite patches are too.
		for _, dep := range p.DependsOn {
			if !done[dep] {
				open = append(open, p.ID)
				break
			}
		}
	}

	if len(open) > 0 {
		return CheckResult{
			Check:   CheckPatches,
			Verdict: VerdictFail,
			Reason:  fmt.Sprintf("%d patches blocking wave %d: %s", len(open), nextWave, strings.Join(open, ", ")),
		}
	}
	return CheckResult{Check: CheckPatches, Verdict: VerdictPass, Reason: "all patches complete"}
}
