package cli

import (
	"fmt"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var branchFlag string
	var fullFlag bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the working branch's staged diff",
		Long: `Diff builds the commit context for the branch's staged files: per-file
line counts plus a capped unified diff. Use --full to print the aggregate
diff text as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			cc, err := app.Engine.GetBranchCommitContext(cmd.Context(), app.ProjectID, branchFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Branch %s\n", color.InCyan(cc.Branch))
			if cc.SummaryText == "" {
				fmt.Fprintln(out, "No staged changes")
				return nil
			}
			fmt.Fprintln(out, cc.SummaryText)

			if fullFlag && cc.AggregateDiff != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, cc.AggregateDiff)
				if cc.Truncated {
					fmt.Fprintln(out, color.InYellow("(aggregate diff truncated)"))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&branchFlag, "branch", "b", "", "Branch to diff (defaults to the current working branch)")
	cmd.Flags().BoolVar(&fullFlag, "full", false, "Print the aggregate diff text")

	return cmd
}
