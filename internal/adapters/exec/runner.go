// Package exec provides the shell test runner adapter.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// outputTailBytes bounds how much combined output is kept in the run result.
const outputTailBytes = 4096

// ShellRunner implements secondary.TestRunner by invoking the track's test
// command through the shell. A timeout or non-zero exit is reported in the
// result, not as an error: the gate decides what those mean.
type ShellRunner struct {
	// Dir is the working directory for test commands. Empty means the
	// current directory.
	Dir string
}

// NewShellRunner creates a shell test runner.
func NewShellRunner(dir string) *ShellRunner {
	return &ShellRunner{Dir: dir}
}

// Run executes the command with the given timeout in seconds.
func (r *ShellRunner) Run(ctx context.Context, command string, timeoutSec int) (*secondary.TestRunResult, error) {
	if timeoutSec <= 0 {
		timeoutSec = 300
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = r.Dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Seconds()

	result := &secondary.TestRunResult{
		ElapsedSec: elapsed,
		OutputTail: tail(output.Bytes()),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		// The command never ran (shell missing, bad working directory).
		result.StartErr = err.Error()
	}

	return result, nil
}

func tail(output []byte) string {
	if len(output) <= outputTailBytes {
		return string(output)
	}
	return string(output[len(output)-outputTailBytes:])
}
