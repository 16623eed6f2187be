package cli

import (
	"fmt"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a working branch into the integration branch",
		Long: `Merge integrates a working branch into the default branch and removes it.

The latest test run must have passed, or the branch's entire diff must be
style-only. A branch failing both checks cannot be merged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if !forceFlag {
				ok, err := confirm(fmt.Sprintf("Merge %s?", args[0]),
					"The branch is removed after a successful merge.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			res, err := app.Engine.MergeBranch(cmd.Context(), app.ProjectID, args[0])
			if err != nil {
				return err
			}

			pushed := ""
			if res.PushedRemote {
				pushed = ", pushed to origin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s%s\n",
				color.InCyan(res.Branch), color.InCyan(res.MergedInto), pushed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
