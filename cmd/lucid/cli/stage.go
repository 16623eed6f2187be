package cli

import (
	"fmt"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/engine"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	var branchFlag string
	var sourceFlag string
	var autoRunFlag bool
	var delayFlag int

	cmd := &cobra.Command{
		Use:   "stage <file>...",
		Short: "Record in-progress edits against the working branch",
		Long: `Stage records one or more edited files against the working branch.

With no working branch, a feature branch is created automatically and made
current. Staging the same file again replaces its earlier entry.

With --auto-run, a debounced test run is scheduled: rapid consecutive stage
calls collapse into a single run once the edits settle.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			branchName := branchFlag
			for _, path := range args {
				res, err := app.Engine.StageWorkspaceChange(cmd.Context(), app.ProjectID, engine.StageOptions{
					FilePath:       path,
					BranchName:     branchName,
					Source:         store.StagedSource(sourceFlag),
					AutoRun:        autoRunFlag,
					AutoRunDelayMs: delayFlag,
				})
				if err != nil {
					return err
				}
				// Later files land on the branch the first stage resolved.
				branchName = res.Branch.Name
				fmt.Fprintf(cmd.OutOrStdout(), "Staged %s on %s (%d staged)\n",
					path, color.InCyan(res.Branch.Name), len(res.StagedFiles))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&branchFlag, "branch", "b", "", "Target branch (defaults to the current working branch)")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Change source: editor, ai or git")
	cmd.Flags().BoolVar(&autoRunFlag, "auto-run", false, "Schedule a debounced test run after staging")
	cmd.Flags().IntVar(&delayFlag, "delay-ms", 0, "Auto-run debounce delay in milliseconds")

	return cmd
}

func newUnstageCmd() *cobra.Command {
	var branchFlag string

	cmd := &cobra.Command{
		Use:   "unstage [file]",
		Short: "Clear staged changes from the working branch",
		Long: `Unstage removes one staged file, or every staged file when no argument
is given, discarding the mirrored working-tree changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			filePath := ""
			if len(args) == 1 {
				filePath = args[0]
			}

			snap, err := app.Engine.ClearStagedChanges(cmd.Context(), app.ProjectID, engine.ClearOptions{
				BranchName: branchFlag,
				FilePath:   filePath,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d staged file(s) remaining\n", snap.Name, len(snap.StagedFiles))
			return nil
		},
	}

	cmd.Flags().StringVarP(&branchFlag, "branch", "b", "", "Target branch (defaults to the current working branch)")

	return cmd
}
