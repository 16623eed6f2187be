// Package cli implements the lucid command line interface over the branch
// engine.
package cli

import (
	"fmt"
	"runtime"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/settings"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/telemetry"

	"github.com/spf13/cobra"
)

const gettingStarted = `

Getting Started:
  Run 'lucid status' inside a managed project to see the current working
  branch and its staged changes. 'lucid stage', 'lucid test' and
  'lucid merge' drive the edit/verify/integrate loop.

`

const accessibilityHelp = `
Environment Variables:
  ACCESSIBLE    Set to any value (e.g., ACCESSIBLE=1) to enable accessibility
                mode. This uses simpler text prompts instead of interactive
                TUI elements, which works better with screen readers.
`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lucid",
		Short: "Lucid working-branch CLI",
		Long:  "A command-line interface for Lucid working branches" + gettingStarted + accessibilityHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			// Load telemetry preference from settings (nil defaults to disabled)
			root, _ := cmd.Flags().GetString("root")
			resolved := settings.NewResolver(resolveRoot(root)).Resolve("")

			telemetryClient := telemetry.NewClient(Version, resolved.Telemetry)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd, resolved.Workflow, "ok")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("root", "", "Managed projects root (defaults to the parent of the working directory)")
	cmd.PersistentFlags().String("project", "", "Project ID (defaults to the working directory name)")

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStageCmd())
	cmd.AddCommand(newUnstageCmd())
	cmd.AddCommand(newBranchCmd())
	cmd.AddCommand(newCommitCmd())
	cmd.AddCommand(newTestCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Lucid CLI %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
