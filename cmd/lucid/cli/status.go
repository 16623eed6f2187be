package cli

import (
	"fmt"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working branches for the current project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			branches, err := app.Engine.ListBranches(cmd.Context(), app.ProjectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %s\n\n", color.InBold(app.ProjectID))
			for _, b := range branches {
				printBranchLine(out, &branchView{
					Name:         b.Name,
					Status:       b.Status,
					IsCurrent:    b.IsCurrent,
					AheadCommits: b.AheadCommits,
					StagedFiles:  b.StagedFiles,
					LastRun:      b.LastTestStatus,
				})
				if b.IsCurrent {
					for _, f := range b.StagedFiles {
						fmt.Fprintf(out, "    %s (%s)\n", f.Path, f.Source)
					}
				}
			}
			return nil
		},
	}
}
