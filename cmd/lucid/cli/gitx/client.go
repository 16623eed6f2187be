// Package gitx wraps git subprocess invocations for the branch engine.
//
// The engine treats git as a best-effort mirror: most calls are advisory and
// their failures are logged and discarded. The few load-bearing calls (the
// merge step itself, required diff reads) go through Output and escalate
// errors to the caller.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs git commands in a project working directory.
type Client interface {
	// Output runs git with the given arguments and returns trimmed stdout.
	// The returned error carries stderr output for diagnostics.
	Output(ctx context.Context, dir string, args ...string) (string, error)
}

// ShellClient invokes the system git binary.
type ShellClient struct{}

// NewShellClient returns a Client backed by the git binary on PATH.
func NewShellClient() *ShellClient {
	return &ShellClient{}
}

// Output runs git with the given arguments in dir.
func (c *ShellClient) Output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail == "" {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), detail, err)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
