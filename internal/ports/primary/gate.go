package primary

import "context"

// GateService defines the primary port for wave-completion gating.
// The gate is advisory: it reports and logs, it does not enforce.
type GateService interface {
	// EvaluateWave runs the completion checklist for every track in a wave.
	EvaluateWave(ctx context.Context, req EvaluateWaveRequest) (*WaveReport, error)

	// OverrideCheck records a developer override for a failed check. The
	// override is appended to the track's override log; nothing is bypassed
	// silently.
	OverrideCheck(ctx context.Context, req OverrideCheckRequest) error
}

// EvaluateWaveRequest contains parameters for a gate run.
type EvaluateWaveRequest struct {
	Wave      int
	SkipTests bool // skip test-command execution; tests report warn
}

// WaveReport is the structured outcome of a gate run.
type WaveReport struct {
	Wave    int
	Overall string // pass, warn, fail
	Tracks  []TrackGateReport
}

// TrackGateReport is one track's gate outcome.
type TrackGateReport struct {
	TrackID string
	Verdict string
	Checks  []GateCheck
}

// GateCheck is one checklist item's outcome.
type GateCheck struct {
	Check   string
	Verdict string
	Reason  string
}

// OverrideCheckRequest contains parameters for recording an override.
type OverrideCheckRequest struct {
	TrackID string
	Check   string
	Reason  string
	Actor   string
}
