package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRequiresFilePath(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.StageWorkspaceChange(context.Background(), testProjectID, StageOptions{})
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	assert.Contains(t, err.Error(), "filePath is required")
}

func TestStageOnFreshProjectCreatesFeatureBranch(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	res, err := env.engine.StageWorkspaceChange(ctx, testProjectID, StageOptions{
		FilePath: "src/app.go",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^feature/`, res.Branch.Name)
	assert.True(t, res.Branch.IsCurrent)
	require.Len(t, res.StagedFiles, 1)
	assert.Equal(t, "src/app.go", res.StagedFiles[0].Path)
	assert.Equal(t, store.SourceEditor, res.StagedFiles[0].Source)
	require.NotNil(t, res.StagedFiles[0].Timestamp)

	// Main still exists, no longer current; exactly one branch is current.
	branches, err := env.engine.ListBranches(ctx, testProjectID)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	current := 0
	for _, b := range branches {
		if b.IsCurrent {
			current++
			assert.Equal(t, res.Branch.Name, b.Name)
		}
	}
	assert.Equal(t, 1, current)
}

func TestStageOntoCurrentWorkingBranch(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedBranch(t, "feature-x", nil)

	res, err := env.engine.StageWorkspaceChange(context.Background(), testProjectID, StageOptions{
		FilePath: "src/app.go",
		Source:   store.SourceAI,
	})
	require.NoError(t, err)
	assert.Equal(t, "feature-x", res.Branch.Name)
	assert.Equal(t, store.SourceAI, res.StagedFiles[0].Source)
}

func TestStageExplicitUnknownBranchCreatesIt(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	res, err := env.engine.StageWorkspaceChange(ctx, testProjectID, StageOptions{
		FilePath:   "src/app.go",
		BranchName: "feature-new",
	})
	require.NoError(t, err)
	assert.Equal(t, "feature-new", res.Branch.Name)
	assert.True(t, res.Branch.IsCurrent)

	row, err := env.store.GetBranch(ctx, testProjectID, "feature-new")
	require.NoError(t, err)
	require.NotNil(t, row)
}

func TestStageSamePathReplacesEntryInPlace(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.seedBranch(t, "feature-x", nil)

	stage := func(path string, source store.StagedSource) *StageResult {
		res, err := env.engine.StageWorkspaceChange(ctx, testProjectID, StageOptions{
			FilePath: path,
			Source:   source,
		})
		require.NoError(t, err)
		return res
	}

	stage("a.go", store.SourceEditor)
	stage("b.go", store.SourceEditor)
	env.clock.Advance(time.Minute)
	res := stage("a.go", store.SourceAI)

	require.Len(t, res.StagedFiles, 2)
	assert.Equal(t, "a.go", res.StagedFiles[0].Path, "replacement keeps the original position")
	assert.Equal(t, store.SourceAI, res.StagedFiles[0].Source)
	assert.Equal(t, env.clock.Now(), res.StagedFiles[0].Timestamp.UTC())
	assert.Equal(t, "b.go", res.StagedFiles[1].Path)
}

func TestStageInvalidatesPassingRun(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunPassed)

	res, err := env.engine.StageWorkspaceChange(ctx, testProjectID, StageOptions{FilePath: "a.go"})
	require.NoError(t, err)
	assert.Empty(t, res.Branch.LastTestRunID, "a passing run must not outlive the diff it validated")
}

func TestStageKeepsFailedRunReference(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	branch := env.seedBranch(t, "feature-x", nil)
	run := env.seedRun(t, branch, store.TestRunFailed)

	res, err := env.engine.StageWorkspaceChange(ctx, testProjectID, StageOptions{FilePath: "a.go"})
	require.NoError(t, err)
	assert.Equal(t, run.ID, res.Branch.LastTestRunID)
}

func TestStageMirrorsIntoGitBestEffort(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", nil)

	env.git.Fail(errors.New("index locked"), "add", "--", "a.go")

	res, err := env.engine.StageWorkspaceChange(context.Background(), testProjectID, StageOptions{FilePath: "a.go"})
	require.NoError(t, err, "a git mirror failure never rolls staging back")
	require.Len(t, res.StagedFiles, 1)
	assert.True(t, env.git.CalledWith("add -- a.go"))
}

func TestStageRecordsGitToken(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", nil)

	env.git.Respond("100644 8baef1b4abc478178b004d62031cf7fe6db6f903 0\ta.go", "ls-files", "--stage", "--", "a.go")

	res, err := env.engine.StageWorkspaceChange(context.Background(), testProjectID, StageOptions{FilePath: "a.go"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.StagedFiles[0].GitToken)
}

func TestClearAllStagedChanges(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.AheadCommits = 3
		b.StagedFiles = []store.StagedFileEntry{
			staged("a.go", store.SourceEditor, env.clock.Now()),
			staged("b.go", store.SourceAI, env.clock.Now()),
		}
	})

	snap, err := env.engine.ClearStagedChanges(ctx, testProjectID, ClearOptions{BranchName: "feature-x"})
	require.NoError(t, err)
	assert.Empty(t, snap.StagedFiles)
	assert.Equal(t, 0, snap.AheadCommits, "no staged work means no drift")
}

func TestClearSingleFileKeepsAheadCount(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.AheadCommits = 2
		b.StagedFiles = []store.StagedFileEntry{
			staged("a.go", store.SourceEditor, env.clock.Now()),
			staged("b.go", store.SourceAI, env.clock.Now()),
		}
	})

	snap, err := env.engine.ClearStagedChanges(ctx, testProjectID, ClearOptions{
		BranchName: "feature-x",
		FilePath:   "a.go",
	})
	require.NoError(t, err)
	require.Len(t, snap.StagedFiles, 1)
	assert.Equal(t, "b.go", snap.StagedFiles[0].Path)
	assert.Equal(t, 2, snap.AheadCommits)
}

func TestClearClampsNegativeAheadCount(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.AheadCommits = -4
		b.StagedFiles = []store.StagedFileEntry{
			staged("a.go", store.SourceEditor, env.clock.Now()),
			staged("b.go", store.SourceAI, env.clock.Now()),
		}
	})

	snap, err := env.engine.ClearStagedChanges(ctx, testProjectID, ClearOptions{
		BranchName: "feature-x",
		FilePath:   "a.go",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.AheadCommits)
}

func TestClearUnknownBranchIs404(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.ClearStagedChanges(context.Background(), testProjectID, ClearOptions{BranchName: "nope"})
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
}

func TestRollbackMainIsRejected(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.RollbackBranchChanges(context.Background(), testProjectID, MainBranchName, RollbackOptions{})
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	assert.Regexp(t, `(?i)cannot roll back the main branch`, err.Error())
}

func TestRollbackRequiresBranchName(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.RollbackBranchChanges(context.Background(), testProjectID, "", RollbackOptions{})
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	assert.Contains(t, err.Error(), "branchName is required")
}

func TestRollbackClearsStateAndSetsStatus(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.AheadCommits = 5
		b.Status = store.BranchStatusNeedsFix
		b.StagedFiles = []store.StagedFileEntry{staged("a.go", store.SourceEditor, env.clock.Now())}
	})

	snap, err := env.engine.RollbackBranchChanges(ctx, testProjectID, "feature-x", RollbackOptions{
		Status: store.BranchStatusActive,
	})
	require.NoError(t, err)
	assert.Empty(t, snap.StagedFiles)
	assert.Equal(t, 0, snap.AheadCommits)
	assert.Equal(t, store.BranchStatusActive, snap.Status)
}

func TestRollbackUnknownBranchIs404(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.RollbackBranchChanges(context.Background(), testProjectID, "nope", RollbackOptions{})
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
}
