package gate

import (
	"strings"
	"testing"
)

func passingContext(trackID string) TrackContext {
	return TrackContext{
		TrackID:        trackID,
		PhasesComplete: true,
		Test:           TestResult{Configured: true, ExitCode: 0},
	}
}

func findCheck(t *testing.T, report TrackReport, name string) CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Check == name {
			return c
		}
	}
	t.Fatalf("check %s missing from report", name)
	return CheckResult{}
}

func TestEvaluateTrackAllPassing(t *testing.T) {
	report := EvaluateTrack(2, passingContext("TRACK-001"))
	if report.Verdict != VerdictPass {
		t.Errorf("Verdict = %s, want pass (checks: %+v)", report.Verdict, report.Checks)
	}
	if len(report.Checks) != 4 {
		t.Errorf("got %d checks, want 4", len(report.Checks))
	}
}

func TestEvaluateTrackFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*TrackContext)
		failCheck string
		reason    string // substring the reason must carry
	}{
		{
			name:      "incomplete phases",
			mutate:    func(ctx *TrackContext) { ctx.PhasesComplete = false; ctx.PhasesDetail = "3/7 phases unchecked" },
			failCheck: CheckPhases,
			reason:    "3/7 phases unchecked",
		},
		{
			name:      "failing tests",
			mutate:    func(ctx *TrackContext) { ctx.Test.ExitCode = 1; ctx.Test.OutputTail = "FAIL: TestLogin" },
			failCheck: CheckTests,
			reason:    "exit 1",
		},
		{
			name:      "timed out tests",
			mutate:    func(ctx *TrackContext) { ctx.Test.TimedOut = true; ctx.Test.ElapsedSec = 300 },
			failCheck: CheckTests,
			reason:    "timed out after 300s",
		},
		{
			name:      "test command failed to start",
			mutate:    func(ctx *TrackContext) { ctx.Test.StartErr = "executable not found" },
			failCheck: CheckTests,
			reason:    "executable not found",
		},
		{
			name:      "pending blocking discovery",
			mutate:    func(ctx *TrackContext) { ctx.PendingBlocking = []string{"TRACK-001-20260830-a1b2"} },
			failCheck: CheckDiscoveries,
			reason:    "1 blocking discoveries pending",
		},
		{
			name: "open patch blocking next wave",
			mutate: func(ctx *TrackContext) {
				ctx.Patches = []PatchState{{ID: "PATCH-001", BlocksWave: 3, Completed: false}}
			},
			failCheck: CheckPatches,
			reason:    "PATCH-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := passingContext("TRACK-001")
			tt.mutate(&ctx)

			report := EvaluateTrack(2, ctx)
			if report.Verdict != VerdictFail {
				t.Errorf("Verdict = %s, want fail", report.Verdict)
			}
			check := findCheck(t, report, tt.failCheck)
			if check.Verdict != VerdictFail {
				t.Errorf("check %s verdict = %s, want fail", tt.failCheck, check.Verdict)
			}
			if !strings.Contains(check.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", check.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluateTrackMissingTestCommandWarns(t *testing.T) {
	ctx := passingContext("TRACK-001")
	ctx.Test = TestResult{Configured: false}

	report := EvaluateTrack(2, ctx)
	if report.Verdict != VerdictWarn {
		t.Errorf("Verdict = %s, want warn", report.Verdict)
	}
	check := findCheck(t, report, CheckTests)
	if check.Verdict != VerdictWarn {
		t.Errorf("tests verdict = %s, want warn", check.Verdict)
	}
}

func TestEvaluateTrackFailDominatesWarn(t *testing.T) {
	ctx := passingContext("TRACK-001")
	ctx.Test = TestResult{Configured: false}
	ctx.PhasesComplete = false

	report := EvaluateTrack(2, ctx)
	if report.Verdict != VerdictFail {
		t.Errorf("Verdict = %s, want fail", report.Verdict)
	}
}

func TestPatchCheckOnlyCountsNextWave(t *testing.T) {
	ctx := passingContext("TRACK-001")
	ctx.Patches = []PatchState{
		{ID: "PATCH-001", BlocksWave: 5, Completed: false}, // later wave, irrelevant now
		{ID: "PATCH-002", BlocksWave: 3, Completed: true},
	}

	report := EvaluateTrack(2, ctx)
	if report.Verdict != VerdictPass {
		t.Errorf("Verdict = %s, want pass", report.Verdict)
	}
}

func TestPatchCheckHonorsPatchDependencies(t *testing.T) {
	ctx := passingContext("TRACK-001")
	ctx.Patches = []PatchState{
		{ID: "PATCH-001", BlocksWave: 3, Completed: false},
		{ID: "PATCH-002", BlocksWave: 3, Completed: true, DependsOn: []string{"PATCH-001"}},
	}

	report := EvaluateTrack(2, ctx)
	check := findCheck(t, report, CheckPatches)
	if check.Verdict != VerdictFail {
		t.Fatalf("patches verdict = %s, want fail", check.Verdict)
	}
	if !strings.Contains(check.Reason, "PATCH-001") || !strings.Contains(check.Reason, "PATCH-002") {
		t.Errorf("reason %q should name both open patches", check.Reason)
	}
}

// TestGateMonotonicOnBlockingDiscoveries pins the advisory-gate property:
// adding a pending blocking discovery flips a passing track to fail, and
// removing it flips it back.
func TestGateMonotonicOnBlockingDiscoveries(t *testing.T) {
	ctx := passingContext("TRACK-001")
	if report := EvaluateTrack(2, ctx); report.Verdict != VerdictPass {
		t.Fatalf("baseline verdict = %s, want pass", report.Verdict)
	}

	ctx.PendingBlocking = []string{"TRACK-001-20260830-x9"}
	if report := EvaluateTrack(2, ctx); report.Verdict != VerdictFail {
		t.Errorf("after adding blocking discovery: verdict = %s, want fail", report.Verdict)
	}

	ctx.PendingBlocking = nil
	if report := EvaluateTrack(2, ctx); report.Verdict != VerdictPass {
		t.Errorf("after removing blocking discovery: verdict = %s, want pass", report.Verdict)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []Verdict
		want     Verdict
	}{
		{name: "all pass", verdicts: []Verdict{VerdictPass, VerdictPass}, want: VerdictPass},
		{name: "one fail", verdicts: []Verdict{VerdictPass, VerdictFail, VerdictWarn}, want: VerdictFail},
		{name: "warn without fail", verdicts: []Verdict{VerdictPass, VerdictWarn}, want: VerdictWarn},
		{name: "empty wave", verdicts: nil, want: VerdictPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := make([]TrackReport, len(tt.verdicts))
			for i, v := range tt.verdicts {
				reports[i] = TrackReport{Verdict: v}
			}
			if got := Overall(reports); got != tt.want {
				t.Errorf("Overall = %s, want %s", got, tt.want)
			}
		})
	}
}
