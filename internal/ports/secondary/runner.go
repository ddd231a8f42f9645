package secondary

import "context"

// TestRunner defines the secondary port for executing a track's test command.
// The only contract with the external process is its exit code and elapsed
// time; a timed-out run is reported, not treated as a runner failure.
type TestRunner interface {
	// Run executes a shell command with a timeout in seconds.
	Run(ctx context.Context, command string, timeoutSec int) (*TestRunResult, error)
}

// TestRunResult is the raw outcome of one test-command run.
type TestRunResult struct {
	ExitCode   int
	TimedOut   bool
	ElapsedSec float64
	OutputTail string // last lines of combined stdout/stderr
	StartErr   string // non-empty when the command could not start
}
