package gitx

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
)

// Advisory is the outcome of a best-effort git call. Failures are recorded
// here instead of propagating: the caller inspects or ignores them, but they
// can never fail the surrounding operation.
type Advisory struct {
	Output string
	Err    error
}

// Failed reports whether the advisory call returned an error.
func (a Advisory) Failed() bool {
	return a.Err != nil
}

// Advise runs a git command best-effort, logging any failure and returning
// the outcome. Use this for mirror operations whose failure must not roll
// back engine state.
func Advise(ctx context.Context, c Client, dir string, args ...string) Advisory {
	out, err := c.Output(ctx, dir, args...)
	if err != nil {
		logging.Warn(ctx, "advisory git call failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("error", err.Error()),
		)
	}
	return Advisory{Output: out, Err: err}
}

// AdviseQuiet runs a git command best-effort without logging. Used where a
// specific failure (such as deleting an already-deleted branch) is expected
// and the caller decides what, if anything, to log.
func AdviseQuiet(ctx context.Context, c Client, dir string, args ...string) Advisory {
	out, err := c.Output(ctx, dir, args...)
	return Advisory{Output: out, Err: err}
}
