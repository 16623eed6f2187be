package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/goals"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMainIsRejected(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, MainBranchName)
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	assert.Contains(t, err.Error(), "Cannot merge the main branch")
}

func TestMergeUnknownBranchIs404(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "nope")
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
}

func TestMergeGateBlocksFailedRun(t *testing.T) {
	env := newTestEnv(t, false)
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunFailed)

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	assert.Regexp(t, `(?i)latest test run must pass`, err.Error())
}

func TestMergeGateBlocksWithoutAnyRun(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("app/server.go", store.SourceEditor, env.clock.Now())}
	})

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
}

func TestMergeWithPassedRun(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunPassed)

	res, err := env.engine.MergeBranch(ctx, testProjectID, "feature-x")
	require.NoError(t, err)
	assert.Equal(t, "feature-x", res.Branch)
	assert.Equal(t, MainBranchName, res.MergedInto)

	// The merged row is gone; main exists and is current again.
	row, err := env.store.GetBranch(ctx, testProjectID, "feature-x")
	require.NoError(t, err)
	assert.Nil(t, row)

	main, err := env.engine.GetBranch(ctx, testProjectID, MainBranchName)
	require.NoError(t, err)
	assert.True(t, main.IsCurrent)
}

func TestMergeStyleOnlyWithoutRun(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("ui/theme.css", store.SourceEditor, env.clock.Now())}
	})

	// No test run exists; the style-only recompute opens the gate on its own.
	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
}

func TestMergeGateIgnoresStaleSkippedRunAfterSourceEdit(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	branch := env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("ui/theme.css", store.SourceEditor, env.clock.Now())}
	})
	env.seedRun(t, branch, store.TestRunSkipped)

	// A source file lands after the skipped run; the recompute must reject.
	branch.StagedFiles = append(branch.StagedFiles, staged("app/server.go", store.SourceEditor, env.clock.Now()))
	require.NoError(t, env.store.SaveBranch(ctx, branch))

	_, err := env.engine.MergeBranch(ctx, testProjectID, "feature-x")
	require.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
}

func TestMergeGitFailureIsFatal(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunPassed)

	env.git.Fail(errors.New("CONFLICT (content): app/server.go"), "merge", "feature-x")

	_, err := env.engine.MergeBranch(ctx, testProjectID, "feature-x")
	require.Error(t, err)
	assert.Equal(t, 500, StatusOf(err))
	assert.Contains(t, err.Error(), "Git merge failed:")
	assert.Contains(t, err.Error(), "CONFLICT")

	// The branch row survives a failed merge.
	row, err := env.store.GetBranch(ctx, testProjectID, "feature-x")
	require.NoError(t, err)
	require.NotNil(t, row)
}

func TestMergeAutosavesResidualStagedWork(t *testing.T) {
	env := newTestEnv(t, true)
	branch := env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("app/server.go", store.SourceEditor, env.clock.Now())}
	})
	env.seedRun(t, branch, store.TestRunPassed)

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	assert.True(t, env.git.CalledWith("add -A"))
	assert.True(t, env.git.CalledWith("commit -m chore(feature-x): autosave before merge"))
	assert.True(t, env.git.CalledWith("merge feature-x"))
}

func TestMergeAdvancesLinkedGoals(t *testing.T) {
	env := newTestEnv(t, false)
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunPassed)
	env.goals.Put(&goals.Goal{
		ID:         "goal-1",
		ProjectID:  testProjectID,
		BranchName: "feature-x",
		Lifecycle:  "in-progress",
		Status:     "working",
	})

	_, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)

	goal := env.goals.Get("goal-1")
	require.NotNil(t, goal)
	assert.Equal(t, goals.LifecycleMerged, goal.Lifecycle)
	assert.Equal(t, goals.StatusReady, goal.Status)
}

func TestMergeDoesNotPushLocalWorkflow(t *testing.T) {
	env := newTestEnv(t, true)
	branch := env.seedBranch(t, "feature-x", nil)
	env.seedRun(t, branch, store.TestRunPassed)

	res, err := env.engine.MergeBranch(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	assert.False(t, res.PushedRemote)
	assert.False(t, env.git.CalledWith("push"))
}
