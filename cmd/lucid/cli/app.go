package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/engine"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/goals"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/project"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/runner"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/settings"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/spf13/cobra"
)

// App is one command invocation's wired engine plus its addressing context.
type App struct {
	Engine    *engine.Engine
	ProjectID string
	Root      string
}

// newApp wires the engine from the persistent flags. With no flags set, the
// working directory is treated as the project: its parent is the managed
// root and its name the project ID.
func newApp(cmd *cobra.Command) (*App, error) {
	root, _ := cmd.Flags().GetString("root")
	projectID, _ := cmd.Flags().GetString("project")

	if root == "" || projectID == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root == "" {
			root = resolveRoot("")
		}
		if projectID == "" {
			projectID = filepath.Base(wd)
		}
	}
	if projectID == "" || projectID == string(filepath.Separator) {
		return nil, errors.New("could not determine a project; pass --project")
	}

	// Logging setup is best-effort; a read-only root still gets stderr logs.
	_ = logging.Init(root)

	eng := engine.New(engine.Config{
		Store:    store.NewFileStore(filepath.Join(root, ".lucid")),
		Projects: project.NewResolver(root, false),
		Git:      gitx.NewShellClient(),
		Runner:   runner.NewCommandRunner(),
		Settings: settings.NewResolver(root),
		Goals:    goals.NewMemoryStore(),
	})

	return &App{Engine: eng, ProjectID: projectID, Root: root}, nil
}

// Close drains any pending auto-test timers before the process exits.
func (a *App) Close() {
	a.Engine.Scheduler().Flush()
}

// resolveRoot applies the flag > environment > working-directory-parent
// precedence for the managed root.
func resolveRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("LUCID_ROOT"); env != "" {
		return env
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Dir(wd)
}
