// Package settings resolves git workflow settings for a project, preferring
// project-scoped configuration and falling back to the managed-root global
// file on absence or lookup failure.
package settings

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

const (
	// SettingsFileName is the settings file, relative to either the managed
	// root (global) or a project directory (project-scoped override).
	SettingsFileName = ".lucid/settings.json"

	// DefaultBranchName is used when no default branch is configured.
	DefaultBranchName = "main"
)

// GitSettings is the resolved git workflow configuration for a project.
type GitSettings struct {
	// Workflow is "local" or "cloud". Cloud workflows push to the remote
	// after a merge.
	Workflow string `json:"workflow"`

	// Provider names the hosting provider for cloud workflows.
	Provider string `json:"provider,omitempty"`

	// RemoteURL is the push target for cloud workflows.
	RemoteURL string `json:"remoteUrl,omitempty"`

	// DefaultBranch is the integration branch, "main" unless overridden.
	DefaultBranch string `json:"defaultBranch"`

	// UseCommitTemplate enables CommitTemplate for commit messages.
	UseCommitTemplate bool `json:"useCommitTemplate,omitempty"`

	// CommitTemplate renders commit messages with {summary}, {branch},
	// {branchName} and {fileCount} tokens.
	CommitTemplate string `json:"commitTemplate,omitempty"`

	// TestCommand is the test invocation for the project, e.g.
	// ["npm", "test"]. Empty means the runner's default.
	TestCommand []string `json:"testCommand,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not configured (disabled), true = opted in, false = opted out.
	Telemetry *bool `json:"telemetry,omitempty"`
}

// Resolver loads git settings from disk.
type Resolver struct {
	root string
}

// NewResolver creates a resolver over the managed projects root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Resolve returns the effective settings for a project: defaults, overlaid
// with the global file, overlaid with the project-scoped file. Unreadable or
// malformed files are skipped; Resolve never fails.
func (r *Resolver) Resolve(projectID string) GitSettings {
	s := GitSettings{
		Workflow:      "local",
		DefaultBranch: DefaultBranchName,
	}

	applyFile(&s, filepath.Join(r.root, SettingsFileName))
	applyFile(&s, filepath.Join(r.root, projectID, SettingsFileName))

	if s.DefaultBranch == "" {
		s.DefaultBranch = DefaultBranchName
	}
	return s
}

// applyFile overlays fields present in the given settings file. Fields absent
// from the file keep their current values; a file that does not parse is
// ignored entirely.
func applyFile(s *GitSettings, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // path is root-relative
	if err != nil {
		return
	}
	if !gjson.ValidBytes(data) {
		return
	}

	if v := gjson.GetBytes(data, "workflow"); v.Exists() && v.String() != "" {
		s.Workflow = v.String()
	}
	if v := gjson.GetBytes(data, "provider"); v.Exists() {
		s.Provider = v.String()
	}
	if v := gjson.GetBytes(data, "remoteUrl"); v.Exists() {
		s.RemoteURL = v.String()
	}
	if v := gjson.GetBytes(data, "defaultBranch"); v.Exists() && v.String() != "" {
		s.DefaultBranch = v.String()
	}
	if v := gjson.GetBytes(data, "useCommitTemplate"); v.Exists() {
		s.UseCommitTemplate = v.Bool()
	}
	if v := gjson.GetBytes(data, "commitTemplate"); v.Exists() {
		s.CommitTemplate = v.String()
	}
	if v := gjson.GetBytes(data, "testCommand"); v.IsArray() {
		var cmd []string
		v.ForEach(func(_, value gjson.Result) bool {
			cmd = append(cmd, value.String())
			return true
		})
		s.TestCommand = cmd
	}
	if v := gjson.GetBytes(data, "telemetry"); v.Exists() {
		enabled := v.Bool()
		s.Telemetry = &enabled
	}
}
