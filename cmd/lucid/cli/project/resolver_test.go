package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextInitializesRepository(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "proj-1"), 0o750))

	r := NewResolver(root, false)
	pctx := r.Context(context.Background(), "proj-1")

	assert.Equal(t, filepath.Join(root, "proj-1"), pctx.ProjectPath)
	assert.True(t, pctx.GitReady)

	// Repository was created on disk.
	_, err := os.Stat(filepath.Join(root, "proj-1", ".git"))
	assert.NoError(t, err)

	// Second resolution uses the cached readiness.
	again := r.Context(context.Background(), "proj-1")
	assert.True(t, again.GitReady)
}

func TestContextOfflineForcesNotReady(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "proj-1"), 0o750))

	r := NewResolver(root, true)
	pctx := r.Context(context.Background(), "proj-1")

	assert.False(t, pctx.GitReady)
	assert.Equal(t, filepath.Join(root, "proj-1"), pctx.ProjectPath)
}

func TestContextMissingProjectDegrades(t *testing.T) {
	r := NewResolver(t.TempDir(), false)
	pctx := r.Context(context.Background(), "nope")
	assert.False(t, pctx.GitReady)
}

func TestContextRejectsEscapingPath(t *testing.T) {
	r := NewResolver(t.TempDir(), false)
	pctx := r.Context(context.Background(), "../outside")
	assert.False(t, pctx.GitReady)
}
