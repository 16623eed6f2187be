package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, SettingsFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestResolveDefaults(t *testing.T) {
	r := NewResolver(t.TempDir())
	s := r.Resolve("proj-1")

	assert.Equal(t, "local", s.Workflow)
	assert.Equal(t, "main", s.DefaultBranch)
	assert.False(t, s.UseCommitTemplate)
	assert.Nil(t, s.Telemetry)
}

func TestResolveProjectOverridesGlobal(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{"workflow":"cloud","remoteUrl":"git@example.com:a/b.git","defaultBranch":"trunk"}`)

	projectDir := filepath.Join(root, "proj-1")
	require.NoError(t, os.MkdirAll(projectDir, 0o750))
	writeSettings(t, projectDir, `{"defaultBranch":"develop","useCommitTemplate":true,"commitTemplate":"feat({branch}): {summary}"}`)

	s := NewResolver(root).Resolve("proj-1")

	assert.Equal(t, "cloud", s.Workflow)
	assert.Equal(t, "git@example.com:a/b.git", s.RemoteURL)
	assert.Equal(t, "develop", s.DefaultBranch)
	assert.True(t, s.UseCommitTemplate)
	assert.Equal(t, "feat({branch}): {summary}", s.CommitTemplate)
}

func TestResolveMalformedFileIgnored(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{"workflow": "cloud"`)

	s := NewResolver(root).Resolve("proj-1")
	assert.Equal(t, "local", s.Workflow)
}

func TestResolveTestCommandAndTelemetry(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{"testCommand":["pytest","-q"],"telemetry":true}`)

	s := NewResolver(root).Resolve("proj-1")
	assert.Equal(t, []string{"pytest", "-q"}, s.TestCommand)
	require.NotNil(t, s.Telemetry)
	assert.True(t, *s.Telemetry)
}
