package engine

import (
	"context"
	"log/slog"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/goals"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"
)

// MergeResult reports a completed merge.
type MergeResult struct {
	Branch       string `json:"branch"`
	MergedInto   string `json:"mergedInto"`
	PushedRemote bool   `json:"pushedRemote"`
}

// MergeBranch merges a working branch into main. The gate requires the
// latest test run to have passed, or a freshly recomputed style-only check
// to hold. The git merge step itself is the one fatal git call on this path.
func (e *Engine) MergeBranch(ctx context.Context, projectID, branchName string) (*MergeResult, error) {
	if branchName == MainBranchName {
		return nil, NewValidationError("Cannot merge the main branch")
	}
	ctx = logging.WithProject(ctx, projectID)
	ctx = logging.WithBranch(ctx, branchName)

	branch, err := e.store.GetBranch(ctx, projectID, branchName)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, NewNotFoundError(branchNotFoundMessage(branchName))
	}

	if !e.mergeGateOpen(ctx, projectID, branch) {
		return nil, NewValidationError("Latest test run must pass before merging")
	}

	gitSettings := e.settings.Resolve(projectID)
	pctx := e.projects.Context(ctx, projectID)

	// Residual staged work is autosaved best-effort so the merge does not
	// silently drop it.
	if len(branch.StagedFiles) > 0 && pctx.GitReady {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "add", "-A")
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "commit", "-m", "chore("+branch.Name+"): autosave before merge")
	}

	if pctx.GitReady {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", gitSettings.DefaultBranch)
		if _, err := e.git.Output(ctx, pctx.ProjectPath, "merge", branchName); err != nil {
			return nil, NewInternalError("Git merge failed: " + err.Error())
		}
	}

	// Terminal state "merged" is the row's deletion.
	if err := e.store.DeleteBranch(ctx, projectID, branchName); err != nil {
		return nil, err
	}
	if _, err := e.ensureMainBranch(ctx, projectID); err != nil {
		return nil, err
	}
	if err := e.setCurrent(ctx, projectID, MainBranchName); err != nil {
		return nil, err
	}

	e.advanceLinkedGoals(ctx, projectID, branchName)

	pushed := false
	if gitSettings.Workflow == "cloud" && gitSettings.RemoteURL != "" && pctx.GitReady {
		adv := gitx.Advise(ctx, e.git, pctx.ProjectPath, "push", "origin", gitSettings.DefaultBranch)
		pushed = !adv.Failed()
	}

	logging.Info(ctx, "branch merged",
		slog.String("into", gitSettings.DefaultBranch),
		slog.Bool("pushed", pushed),
	)
	return &MergeResult{
		Branch:       branchName,
		MergedInto:   gitSettings.DefaultBranch,
		PushedRemote: pushed,
	}, nil
}

// mergeGateOpen checks the merge precondition: a passed latest run, or a
// style-only diff recomputed now, independent of any staging-time check.
func (e *Engine) mergeGateOpen(ctx context.Context, projectID string, branch *store.Branch) bool {
	if branch.LastTestRunID != "" {
		run, err := e.store.GetTestRun(ctx, branch.LastTestRunID)
		if err == nil && run != nil && run.Status == store.TestRunPassed {
			return true
		}
	}

	styleOnly, err := e.isStyleOnlyDiff(ctx, projectID, branch)
	if err != nil {
		logging.Warn(ctx, "style-only recheck failed at merge time",
			slog.String("error", err.Error()),
		)
		return false
	}
	return styleOnly
}

// advanceLinkedGoals moves any agent goal referencing the merged branch to
// its merged/ready state. Failures are logged only; the merge is already
// done.
func (e *Engine) advanceLinkedGoals(ctx context.Context, projectID, branchName string) {
	if e.goals == nil {
		return
	}
	linked, err := e.goals.FindByBranch(ctx, projectID, branchName)
	if err != nil {
		logging.Warn(ctx, "goal lookup failed after merge", slog.String("error", err.Error()))
		return
	}
	for _, goal := range linked {
		if err := e.goals.Advance(ctx, goal.ID, goals.LifecycleMerged, goals.StatusReady); err != nil {
			logging.Warn(ctx, "goal advance failed after merge",
				slog.String("goal_id", goal.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
