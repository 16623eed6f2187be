package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/project"
)

// CreateWorkingBranch creates a named working branch, checking it out in git
// best-effort off the resolved default branch.
func (e *Engine) CreateWorkingBranch(ctx context.Context, projectID, name, description string) (*BranchSnapshot, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name is required")
	}
	ctx = logging.WithProject(ctx, projectID)

	existing, err := e.store.GetBranch(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError(fmt.Sprintf("Branch %q already exists", name))
	}

	branch, err := e.createBranchRow(ctx, projectID, name, "feature", true)
	if err != nil {
		return nil, err
	}

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		base := e.settings.Resolve(projectID).DefaultBranch
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", "-b", name, base)
	}

	logging.Info(ctx, "working branch created",
		slog.String("branch", name),
		slog.String("description", description),
	)
	return e.snapshot(ctx, branch), nil
}

// DeleteBranchByName removes a branch row and cleans up its git branch and
// stash entries best-effort. Deleting the current branch makes main current.
func (e *Engine) DeleteBranchByName(ctx context.Context, projectID, name string) error {
	if name == MainBranchName {
		return NewValidationError("Cannot delete the main branch")
	}
	ctx = logging.WithProject(ctx, projectID)
	ctx = logging.WithBranch(ctx, name)

	branch, err := e.store.GetBranch(ctx, projectID, name)
	if err != nil {
		return err
	}
	if branch == nil {
		return NewNotFoundError(branchNotFoundMessage(name))
	}

	wasCurrent := branch.IsCurrent
	if err := e.store.DeleteBranch(ctx, projectID, name); err != nil {
		return err
	}

	if wasCurrent {
		if _, err := e.ensureMainBranch(ctx, projectID); err != nil {
			return err
		}
		if err := e.setCurrent(ctx, projectID, MainBranchName); err != nil {
			return err
		}
	}

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		e.cleanupGitBranch(ctx, pctx, projectID, name)
	}

	logging.Info(ctx, "branch deleted")
	return nil
}

// cleanupGitBranch deletes the git branch and any stash entry created for
// it. A branch git never knew about is already-satisfied, not a failure.
func (e *Engine) cleanupGitBranch(ctx context.Context, pctx project.Context, projectID, name string) {
	base := e.settings.Resolve(projectID).DefaultBranch
	gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", base)

	adv := gitx.AdviseQuiet(ctx, e.git, pctx.ProjectPath, "branch", "-D", name)
	if adv.Failed() && !strings.Contains(adv.Err.Error(), "not found") {
		logging.Warn(ctx, "git branch cleanup failed", slog.String("error", adv.Err.Error()))
	}

	if index, ok := e.findStash(ctx, pctx, name); ok {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "stash", "drop", "stash@{"+strconv.Itoa(index)+"}")
	}
}

// CheckoutBranch makes the named branch current, stashing dirty work around
// the git checkout and popping the branch's own stash afterwards.
func (e *Engine) CheckoutBranch(ctx context.Context, projectID, name string) (*BranchSnapshot, error) {
	ctx = logging.WithProject(ctx, projectID)
	ctx = logging.WithBranch(ctx, name)

	if _, err := e.ensureMainBranch(ctx, projectID); err != nil {
		return nil, err
	}
	branch, err := e.store.GetBranch(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, NewNotFoundError(branchNotFoundMessage(name))
	}

	if err := e.setCurrent(ctx, projectID, name); err != nil {
		return nil, err
	}
	branch.IsCurrent = true

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		// The current-branch lookup may fail; the checkout and the stash pop
		// for the target are attempted regardless.
		previous, err := e.git.Output(ctx, pctx.ProjectPath, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			logging.Warn(ctx, "could not determine current git branch", slog.String("error", err.Error()))
		}
		previous = strings.TrimSpace(previous)

		if previous != "" {
			status := gitx.AdviseQuiet(ctx, e.git, pctx.ProjectPath, "status", "--porcelain")
			if !status.Failed() && strings.TrimSpace(status.Output) != "" {
				gitx.Advise(ctx, e.git, pctx.ProjectPath, "stash", "push", "-m", stashLabel(previous))
			}
		}

		gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", name)

		if index, ok := e.findStash(ctx, pctx, name); ok {
			gitx.Advise(ctx, e.git, pctx.ProjectPath, "stash", "pop", "stash@{"+strconv.Itoa(index)+"}")
		}
	}

	return e.snapshot(ctx, branch), nil
}

// stashLabel is the marker used to match a stash entry back to its branch.
func stashLabel(branch string) string {
	return "lucid:" + branch
}

// findStash locates the stash entry labeled for the given branch.
func (e *Engine) findStash(ctx context.Context, pctx project.Context, branch string) (int, bool) {
	adv := gitx.AdviseQuiet(ctx, e.git, pctx.ProjectPath, "stash", "list")
	if adv.Failed() {
		return 0, false
	}
	label := stashLabel(branch)
	for i, line := range strings.Split(adv.Output, "\n") {
		if strings.Contains(line, label) {
			return i, true
		}
	}
	return 0, false
}
