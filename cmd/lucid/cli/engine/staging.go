package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/project"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/cespare/xxhash/v2"
	"github.com/lucsky/cuid"
	"github.com/samber/lo"
)

// StageOptions configures a StageWorkspaceChange call.
type StageOptions struct {
	FilePath       string
	BranchName     string
	Source         store.StagedSource
	AutoRun        bool
	AutoRunDelayMs int
}

// StageResult is the refreshed branch and staged-file list after staging.
type StageResult struct {
	Branch      *BranchSnapshot         `json:"branch"`
	StagedFiles []store.StagedFileEntry `json:"stagedFiles"`
}

// ClearOptions configures a ClearStagedChanges call. An empty FilePath
// clears every entry on the branch.
type ClearOptions struct {
	BranchName string
	FilePath   string
}

// RollbackOptions configures a RollbackBranchChanges call.
type RollbackOptions struct {
	Status store.BranchStatus
}

// StageWorkspaceChange records an in-progress edit against a working branch,
// auto-creating a feature branch when the project has none, and mirrors the
// change into git best-effort.
func (e *Engine) StageWorkspaceChange(ctx context.Context, projectID string, opts StageOptions) (*StageResult, error) {
	if strings.TrimSpace(opts.FilePath) == "" {
		return nil, NewValidationError("filePath is required")
	}
	ctx = logging.WithProject(ctx, projectID)

	branch, err := e.resolveStagingTarget(ctx, projectID, opts.BranchName)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithBranch(ctx, branch.Name)

	source := opts.Source
	if source == "" {
		source = store.SourceEditor
	}
	now := e.clock.Now()
	entry := store.StagedFileEntry{
		Path:      opts.FilePath,
		Source:    source,
		Timestamp: &now,
	}

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		// Mirror into the index; a git failure never rolls the staging back.
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "add", "--", opts.FilePath)
		entry.GitToken = e.stagedToken(ctx, pctx, opts.FilePath)
	}

	upsertStagedEntry(branch, entry)

	// A passing result must never outlive the diff it validated.
	if branch.LastTestRunID != "" {
		run, err := e.store.GetTestRun(ctx, branch.LastTestRunID)
		if err == nil && run != nil && run.Status == store.TestRunPassed {
			branch.LastTestRunID = ""
		}
	}

	branch.UpdatedAt = now
	if err := e.store.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}

	if opts.AutoRun {
		e.sched.Schedule(projectID, branch.Name, time.Duration(opts.AutoRunDelayMs)*time.Millisecond)
	}

	logging.Debug(ctx, "staged workspace change",
		slog.String("path", opts.FilePath),
		slog.String("source", string(source)),
		slog.Int("staged_count", len(branch.StagedFiles)),
	)

	return &StageResult{
		Branch:      e.snapshot(ctx, branch),
		StagedFiles: branch.Clone().StagedFiles,
	}, nil
}

// resolveStagingTarget picks the branch a staged change lands on: the
// explicit name if given (created on first use), else the current branch,
// auto-creating a feature branch when only main exists.
func (e *Engine) resolveStagingTarget(ctx context.Context, projectID, branchName string) (*store.Branch, error) {
	if branchName != "" {
		branch, err := e.store.GetBranch(ctx, projectID, branchName)
		if err != nil {
			return nil, err
		}
		if branch != nil {
			return branch, nil
		}
		return e.createBranchRow(ctx, projectID, branchName, "feature", true)
	}

	current, err := e.currentBranch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current.Name != MainBranchName {
		return current, nil
	}

	name, err := e.generateBranchName(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.createBranchRow(ctx, projectID, name, "feature", true)
}

// generateBranchName produces a collision-resistant feature branch name.
func (e *Engine) generateBranchName(ctx context.Context, projectID string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		name := "feature/" + cuid.Slug()
		existing, err := e.store.GetBranch(ctx, projectID, name)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return name, nil
		}
	}
	return "", errors.New("could not generate a unique branch name")
}

// createBranchRow persists a new branch row, optionally making it current.
func (e *Engine) createBranchRow(ctx context.Context, projectID, name, branchType string, makeCurrent bool) (*store.Branch, error) {
	if _, err := e.ensureMainBranch(ctx, projectID); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	branch := &store.Branch{
		ID:          cuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Type:        branchType,
		Status:      store.BranchStatusActive,
		StagedFiles: []store.StagedFileEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}
	if makeCurrent {
		if err := e.setCurrent(ctx, projectID, name); err != nil {
			return nil, err
		}
		branch.IsCurrent = true
	}
	return branch, nil
}

// upsertStagedEntry replaces an entry with the same path in place, keeping
// the original order, or appends a new one.
func upsertStagedEntry(branch *store.Branch, entry store.StagedFileEntry) {
	for i := range branch.StagedFiles {
		if branch.StagedFiles[i].Path == entry.Path {
			branch.StagedFiles[i] = entry
			return
		}
	}
	branch.StagedFiles = append(branch.StagedFiles, entry)
}

// stagedToken fingerprints the staged blob for a path from git's index.
// An empty token means the index gave us nothing usable.
func (e *Engine) stagedToken(ctx context.Context, pctx project.Context, path string) string {
	out, err := e.git.Output(ctx, pctx.ProjectPath, "ls-files", "--stage", "--", path)
	if err != nil || strings.TrimSpace(out) == "" {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64String(out))
}

// ClearStagedChanges removes one staged entry or all of them, discarding the
// mirrored working-tree changes best-effort when git is available.
func (e *Engine) ClearStagedChanges(ctx context.Context, projectID string, opts ClearOptions) (*BranchSnapshot, error) {
	ctx = logging.WithProject(ctx, projectID)

	branch, err := e.resolveExistingBranch(ctx, projectID, opts.BranchName)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithBranch(ctx, branch.Name)

	if opts.FilePath != "" {
		branch.StagedFiles = lo.Filter(branch.StagedFiles, func(entry store.StagedFileEntry, _ int) bool {
			return entry.Path != opts.FilePath
		})
	} else {
		branch.StagedFiles = []store.StagedFileEntry{}
	}

	// Recompute ahead: no staged work means no drift, and the counter can
	// never go negative even if the stored value was corrupted.
	if len(branch.StagedFiles) == 0 {
		branch.AheadCommits = 0
	} else if branch.AheadCommits < 0 {
		branch.AheadCommits = 0
	}

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "reset")
		if opts.FilePath != "" {
			gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", "--", opts.FilePath)
		} else {
			gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", "--", ".")
		}
		e.resyncStagedTokens(ctx, pctx, branch)
	}

	branch.UpdatedAt = e.clock.Now()
	if err := e.store.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}
	return e.snapshot(ctx, branch), nil
}

// resyncStagedTokens refreshes each entry's gitToken from the index. Any git
// failure here is swallowed: the tokens are opportunistic, never authoritative.
func (e *Engine) resyncStagedTokens(ctx context.Context, pctx project.Context, branch *store.Branch) {
	cached := gitx.AdviseQuiet(ctx, e.git, pctx.ProjectPath, "diff", "--cached", "--name-status")
	if cached.Failed() {
		return
	}
	staged := map[string]bool{}
	for _, line := range strings.Split(cached.Output, "\n") {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) == 2 {
			staged[parts[1]] = true
		}
	}

	for i := range branch.StagedFiles {
		entry := &branch.StagedFiles[i]
		if !staged[entry.Path] {
			entry.GitToken = ""
			continue
		}
		entry.GitToken = e.stagedToken(ctx, pctx, entry.Path)
	}
}

// RollbackBranchChanges discards a branch's staged files and optionally
// updates its status, mirroring the checkout best-effort.
func (e *Engine) RollbackBranchChanges(ctx context.Context, projectID, branchName string, opts RollbackOptions) (*BranchSnapshot, error) {
	if strings.TrimSpace(branchName) == "" {
		return nil, NewValidationError("branchName is required")
	}
	if branchName == MainBranchName {
		return nil, NewValidationError("Cannot roll back the main branch")
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

	branch.StagedFiles = []store.StagedFileEntry{}
	branch.AheadCommits = 0
	if opts.Status != "" {
		branch.Status = opts.Status
	}

	pctx := e.projects.Context(ctx, projectID)
	if pctx.GitReady {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "checkout", branchName)
	}

	branch.UpdatedAt = e.clock.Now()
	if err := e.store.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}

	logging.Info(ctx, "branch rolled back", slog.String("status", string(branch.Status)))
	return e.snapshot(ctx, branch), nil
}

// resolveExistingBranch returns the named branch or, with no name, the
// current one. Unknown names are 404s.
func (e *Engine) resolveExistingBranch(ctx context.Context, projectID, branchName string) (*store.Branch, error) {
	if branchName != "" {
		branch, err := e.store.GetBranch(ctx, projectID, branchName)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, NewNotFoundError(branchNotFoundMessage(branchName))
		}
		return branch, nil
	}
	return e.currentBranch(ctx, projectID)
}
