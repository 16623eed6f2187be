package cli

import (
	"fmt"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/engine"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the project's commit history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			commits, err := app.Engine.GetCommitHistory(cmd.Context(), app.ProjectID, engine.HistoryOptions{
				Limit: limitFlag,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range commits {
				sha := c.SHA
				if len(sha) > 7 {
					sha = sha[:7]
				}
				fmt.Fprintf(out, "%s %s %s (%s)\n",
					color.InYellow(sha), c.Subject, color.InCyan(c.AuthorName), c.Date)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of commits to show")

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sha> [file]",
		Short: "Show one commit, or one file's content change within it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				content, err := app.Engine.GetCommitFileDiffContent(cmd.Context(), app.ProjectID, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s -> %s (+%d / -%d)\n",
					content.Path, content.OriginalLabel, content.ModifiedLabel,
					content.Additions, content.Deletions)
				fmt.Fprintln(out)
				fmt.Fprint(out, content.Modified)
				return nil
			}

			commit, err := app.Engine.GetCommitDetails(cmd.Context(), app.ProjectID, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "commit %s\n", color.InYellow(commit.SHA))
			fmt.Fprintf(out, "Author: %s <%s>\n", commit.AuthorName, commit.AuthorEmail)
			fmt.Fprintf(out, "Date:   %s\n\n", commit.Date)
			fmt.Fprintf(out, "    %s\n", commit.Subject)
			if commit.Body != "" {
				fmt.Fprintf(out, "\n    %s\n", commit.Body)
			}
			if commit.IsInitialCommit {
				fmt.Fprintln(out, "\n(initial commit)")
			}
			if len(commit.Files) > 0 {
				fmt.Fprintln(out)
				for _, f := range commit.Files {
					fmt.Fprintf(out, "  %s\t%s\n", f.Status, f.Path)
				}
			}
			return nil
		},
	}
}
