package cli

import (
	"fmt"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/engine"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var branchFlag string
	var messageFlag string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the working branch's staged changes",
		Long: `Commit turns the branch's staged files into a git commit and clears the
staged set. Without --message the configured commit template is used, else
a generated summary message.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			branchName := branchFlag
			if branchName == "" {
				current, err := app.Engine.ListBranches(cmd.Context(), app.ProjectID)
				if err != nil {
					return err
				}
				for _, b := range current {
					if b.IsCurrent {
						branchName = b.Name
						break
					}
				}
			}

			res, err := app.Engine.CommitBranchChanges(cmd.Context(), app.ProjectID, branchName, engine.CommitOptions{
				Message: messageFlag,
			})
			if err != nil {
				return err
			}

			sha := ""
			if res.ShortSHA != nil {
				sha = " " + color.InYellow(*res.ShortSHA)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %d file(s) on %s%s\n  %s\n",
				res.FileCount, color.InCyan(res.Branch.Name), sha, res.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branchFlag, "branch", "b", "", "Branch to commit (defaults to the current working branch)")
	cmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Commit message (overrides the template)")

	return cmd
}
