// Package project resolves project working directories under the managed
// root and lazily initializes their git repositories.
package project

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"

	git "github.com/go-git/go-git/v5"
)

// Context describes a project's working directory and whether its git
// repository is usable.
type Context struct {
	ProjectPath string
	GitReady    bool
}

// Resolver maps project IDs to directories under a managed root.
type Resolver struct {
	root string

	// offline forces GitReady=false regardless of filesystem state.
	// Used for deterministic test runs.
	offline bool

	mu          sync.Mutex
	initialized map[string]bool
}

// NewResolver creates a resolver rooted at the managed projects directory.
// When offline is true every project reports GitReady=false.
func NewResolver(root string, offline bool) *Resolver {
	return &Resolver{
		root:        root,
		offline:     offline,
		initialized: make(map[string]bool),
	}
}

// Root returns the managed projects root.
func (r *Resolver) Root() string {
	return r.root
}

// Context resolves the project path and reports git readiness. Initialization
// failures degrade silently to GitReady=false; they never propagate.
func (r *Resolver) Context(ctx context.Context, projectID string) Context {
	path := filepath.Join(r.root, filepath.Clean(projectID))

	// Refuse paths that escape the managed root.
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		logging.Warn(ctx, "project path escapes managed root", slog.String("project_id", projectID))
		return Context{ProjectPath: path, GitReady: false}
	}

	if r.offline {
		return Context{ProjectPath: path, GitReady: false}
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Context{ProjectPath: path, GitReady: false}
	}

	return Context{ProjectPath: path, GitReady: r.ensureRepository(ctx, projectID, path)}
}

// ensureRepository opens the project repository, initializing it on first use.
func (r *Resolver) ensureRepository(ctx context.Context, projectID, path string) bool {
	r.mu.Lock()
	if r.initialized[projectID] {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	_, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		_, err = git.PlainInit(path, false)
	}
	if err != nil {
		logging.Warn(ctx, "git repository initialization failed",
			slog.String("project_id", projectID),
			slog.String("error", err.Error()),
		)
		return false
	}

	r.mu.Lock()
	r.initialized[projectID] = true
	r.mu.Unlock()
	return true
}
