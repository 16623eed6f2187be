// Package engine implements the working-branch state machine: staging,
// debounced auto-test scheduling, the merge gate, and the read-only commit
// context and history views. Git is a best-effort mirror everywhere except
// the merge step and the git-first-class read paths.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/goals"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/project"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/runner"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/settings"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/lucsky/cuid"
)

// MainBranchName is the integration branch. It can never be deleted,
// rolled back, or committed to directly.
const MainBranchName = "main"

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Config wires an Engine's collaborators. Store, Projects, Git and Runner
// are required; the rest default to working implementations.
type Config struct {
	Store    store.Store
	Projects *project.Resolver
	Git      gitx.Client
	Runner   runner.Runner
	Settings *settings.Resolver
	Goals    goals.Store
	Clock    Clock
}

// Engine owns branch state for all projects under one managed root.
type Engine struct {
	store    store.Store
	projects *project.Resolver
	git      gitx.Client
	runner   runner.Runner
	settings *settings.Resolver
	goals    goals.Store
	clock    Clock
	sched    *Scheduler
}

// New creates an engine from the given configuration.
func New(cfg Config) *Engine {
	e := &Engine{
		store:    cfg.Store,
		projects: cfg.Projects,
		git:      cfg.Git,
		runner:   cfg.Runner,
		settings: cfg.Settings,
		goals:    cfg.Goals,
		clock:    cfg.Clock,
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.settings == nil {
		e.settings = settings.NewResolver(cfg.Projects.Root())
	}
	e.sched = NewScheduler(e.autoRunFire)
	return e
}

// Scheduler exposes the auto-test scheduler, primarily so callers can flush
// pending timers at shutdown.
func (e *Engine) Scheduler() *Scheduler {
	return e.sched
}

// BranchSnapshot is the serializable view of a branch handed across the
// engine boundary. LastTestStatus is derived from the referenced test run.
type BranchSnapshot struct {
	store.Branch
	LastTestStatus *store.TestRunStatus `json:"lastTestStatus"`
}

// snapshot builds a BranchSnapshot, resolving the last test run status.
func (e *Engine) snapshot(ctx context.Context, branch *store.Branch) *BranchSnapshot {
	snap := &BranchSnapshot{Branch: *branch.Clone()}
	if branch.LastTestRunID != "" {
		if run, err := e.store.GetTestRun(ctx, branch.LastTestRunID); err == nil && run != nil {
			status := run.Status
			snap.LastTestStatus = &status
		}
	}
	return snap
}

// ListBranches returns snapshots of every branch row for a project, ensuring
// the main branch row exists first.
func (e *Engine) ListBranches(ctx context.Context, projectID string) ([]*BranchSnapshot, error) {
	if _, err := e.ensureMainBranch(ctx, projectID); err != nil {
		return nil, err
	}
	branches, err := e.store.ListBranches(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*BranchSnapshot, 0, len(branches))
	for _, b := range branches {
		out = append(out, e.snapshot(ctx, b))
	}
	return out, nil
}

// GetBranch returns a snapshot of one branch, or a 404 error.
func (e *Engine) GetBranch(ctx context.Context, projectID, name string) (*BranchSnapshot, error) {
	branch, err := e.store.GetBranch(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, NewNotFoundError(branchNotFoundMessage(name))
	}
	return e.snapshot(ctx, branch), nil
}

// ensureMainBranch returns the main branch row, creating it if missing.
// The created row is current when no other branch claims the flag.
func (e *Engine) ensureMainBranch(ctx context.Context, projectID string) (*store.Branch, error) {
	main, err := e.store.GetBranch(ctx, projectID, MainBranchName)
	if err != nil {
		return nil, err
	}
	if main != nil {
		return main, nil
	}

	branches, err := e.store.ListBranches(ctx, projectID)
	if err != nil {
		return nil, err
	}
	hasCurrent := false
	for _, b := range branches {
		if b.IsCurrent {
			hasCurrent = true
			break
		}
	}

	now := e.clock.Now()
	main = &store.Branch{
		ID:          cuid.New(),
		ProjectID:   projectID,
		Name:        MainBranchName,
		Type:        "main",
		Status:      store.BranchStatusActive,
		IsCurrent:   !hasCurrent,
		StagedFiles: []store.StagedFileEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.SaveBranch(ctx, main); err != nil {
		return nil, err
	}
	return main, nil
}

// currentBranch returns the branch with IsCurrent set, falling back to main.
func (e *Engine) currentBranch(ctx context.Context, projectID string) (*store.Branch, error) {
	branches, err := e.store.ListBranches(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		if b.IsCurrent {
			return b, nil
		}
	}
	return e.ensureMainBranch(ctx, projectID)
}

// setCurrent flips IsCurrent to the named branch, clearing it everywhere else.
func (e *Engine) setCurrent(ctx context.Context, projectID, name string) error {
	branches, err := e.store.ListBranches(ctx, projectID)
	if err != nil {
		return err
	}
	for _, b := range branches {
		want := b.Name == name
		if b.IsCurrent != want {
			b.IsCurrent = want
			b.UpdatedAt = e.clock.Now()
			if err := e.store.SaveBranch(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func branchNotFoundMessage(name string) string {
	return fmt.Sprintf("Branch %q not found", name)
}
