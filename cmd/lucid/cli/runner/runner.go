// Package runner is the test-execution collaborator: given a working
// directory and a command it reports pass/fail plus totals, duration and
// captured output. Spawning and sandboxing of the actual test processes is
// owned by the job-execution subsystem; this package only defines the
// boundary and a plain local implementation.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Request describes one test execution.
type Request struct {
	// Dir is the project working directory.
	Dir string

	// Command is the test invocation, e.g. ["npm", "test"]. Empty uses the
	// runner's default.
	Command []string
}

// Result is the outcome of a test execution.
type Result struct {
	Passed     bool
	Summary    string
	Details    string
	Total      int
	PassCount  int
	FailCount  int
	SkipCount  int
	DurationMs int64
	LogLines   []string
	Err        string
}

// Runner executes a project's test command.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// DefaultCommand is used when a project configures no test command.
var DefaultCommand = []string{"npm", "test"}

// CommandRunner runs the test command as a local subprocess.
type CommandRunner struct{}

// NewCommandRunner returns a Runner that shells out to the test command.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run executes the command and derives a result from its exit status. The
// subprocess failing is a test failure, not a runner error; Run only returns
// an error when the command cannot be started at all.
func (r *CommandRunner) Run(ctx context.Context, req Request) (Result, error) {
	command := req.Command
	if len(command) == 0 {
		command = DefaultCommand
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, command[0], command[1:]...) //nolint:gosec // command comes from project settings
	cmd.Dir = req.Dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	lines := splitLogLines(output.String())
	result := Result{
		Passed:     err == nil,
		Details:    output.String(),
		DurationMs: duration,
		LogLines:   lines,
	}

	if err == nil {
		result.Summary = fmt.Sprintf("%s passed", strings.Join(command, " "))
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Summary = fmt.Sprintf("%s failed (exit %d)", strings.Join(command, " "), exitErr.ExitCode())
		result.Err = result.Summary
		return result, nil
	}

	// The command never ran; surface that to the caller.
	return Result{}, fmt.Errorf("starting test command: %w", err)
}

func splitLogLines(s string) []string {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
