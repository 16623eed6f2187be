package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitContextUnknownBranchIs404(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "nope")
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
}

func TestCommitContextWithoutGit(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("app/server.go", store.SourceEditor, env.clock.Now())}
	})

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	require.Len(t, cc.Files, 1)
	assert.Equal(t, "app/server.go", cc.Files[0].Path)
	assert.Nil(t, cc.Files[0].Additions)
	assert.Nil(t, cc.Files[0].Deletions)
	assert.Empty(t, cc.Files[0].Diff)
	assert.Equal(t, "1. app/server.go (+0 / -0)", cc.SummaryText)
}

func TestCommitContextFileDiffAndStats(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("app/server.go", store.SourceAI, env.clock.Now())}
	})

	env.git.Respond("4\t1\tapp/server.go\n", "diff", "--numstat", "--", "app/server.go")
	env.git.Respond("@@ -1,3 +1,6 @@\n+listen()\n", "diff", "--unified=5", "--", "app/server.go")

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	require.Len(t, cc.Files, 1)

	file := cc.Files[0]
	assert.Equal(t, store.SourceAI, file.Source)
	require.NotNil(t, file.Additions)
	require.NotNil(t, file.Deletions)
	assert.Equal(t, 4, *file.Additions)
	assert.Equal(t, 1, *file.Deletions)
	assert.False(t, file.Truncated)
	assert.Contains(t, cc.AggregateDiff, "+listen()")
	assert.Equal(t, "1. app/server.go (+4 / -1)", cc.SummaryText)
}

func TestCommitContextMalformedNumstatYieldsNilCounts(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("assets/logo.png", store.SourceEditor, env.clock.Now())}
	})

	// Binary files report "-" counts.
	env.git.Respond("-\t-\tassets/logo.png\n", "diff", "--numstat", "--", "assets/logo.png")

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	assert.Nil(t, cc.Files[0].Additions)
	assert.Nil(t, cc.Files[0].Deletions)
	assert.Equal(t, "1. assets/logo.png (+0 / -0)", cc.SummaryText)
}

func TestCommitContextPerFileTruncation(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{staged("big.go", store.SourceEditor, env.clock.Now())}
	})

	env.git.Respond(strings.Repeat("x", 2600), "diff", "--unified=5", "--", "big.go")

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)

	file := cc.Files[0]
	assert.True(t, file.Truncated)
	assert.Equal(t, maxFileDiffChars+len(diffTruncationMarker), len(file.Diff))
	assert.True(t, strings.HasSuffix(file.Diff, diffTruncationMarker))
	assert.Equal(t, strings.Repeat("x", maxFileDiffChars), strings.TrimSuffix(file.Diff, diffTruncationMarker),
		"the prefix before the marker is preserved verbatim")
}

func TestCommitContextAggregateTruncation(t *testing.T) {
	env := newTestEnv(t, true)
	paths := []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go", "g.go"}
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		for _, p := range paths {
			b.StagedFiles = append(b.StagedFiles, staged(p, store.SourceEditor, env.clock.Now()))
		}
	})
	for _, p := range paths {
		// Each file stays under the per-file cap; the sum exceeds the aggregate cap.
		env.git.Respond(strings.Repeat("y", 1900), "diff", "--unified=5", "--", p)
	}

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	assert.True(t, cc.Truncated)
	assert.Equal(t, maxAggregateDiffChars+len(diffTruncationMarker), len(cc.AggregateDiff))
	for _, file := range cc.Files {
		assert.False(t, file.Truncated)
	}
}

func TestCommitContextOneFailingFileNullsOnlyItsOwnStats(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedBranch(t, "feature-x", func(b *store.Branch) {
		b.StagedFiles = []store.StagedFileEntry{
			staged("good.go", store.SourceEditor, env.clock.Now()),
			staged("bad.go", store.SourceEditor, env.clock.Now()),
		}
	})

	env.git.Respond("2\t0\tgood.go\n", "diff", "--numstat", "--", "good.go")
	env.git.Respond("+ok\n", "diff", "--unified=5", "--", "good.go")
	env.git.Fail(assert.AnError, "diff", "--numstat", "--", "bad.go")
	env.git.Fail(assert.AnError, "diff", "--unified=5", "--", "bad.go")

	cc, err := env.engine.GetBranchCommitContext(context.Background(), testProjectID, "feature-x")
	require.NoError(t, err)
	require.Len(t, cc.Files, 2)
	require.NotNil(t, cc.Files[0].Additions)
	assert.Equal(t, 2, *cc.Files[0].Additions)
	assert.Nil(t, cc.Files[1].Additions)
	assert.Empty(t, cc.Files[1].Diff)
}

func TestSummaryText(t *testing.T) {
	assert.Empty(t, summaryText(nil))

	three, one := 3, 1
	files := []FileDiff{
		{Path: "a.go", Additions: &three, Deletions: &one},
		{Path: ""},
		{Path: "c.go"},
	}
	assert.Equal(t, "1. a.go (+3 / -1)\n2. <unknown file>\n3. c.go (+0 / -0)", summaryText(files))
}
