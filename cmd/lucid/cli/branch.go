package cli

import (
	"fmt"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/engine"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/TwiN/go-color"
	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage working branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newBranchListCmd())
	cmd.AddCommand(newBranchCreateCmd())
	cmd.AddCommand(newBranchDeleteCmd())
	cmd.AddCommand(newBranchCheckoutCmd())
	cmd.AddCommand(newBranchRollbackCmd())

	return cmd
}

func newBranchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List working branches",
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
			for _, b := range branches {
				printBranchLine(cmd.OutOrStdout(), &branchView{
					Name:         b.Name,
					Status:       b.Status,
					IsCurrent:    b.IsCurrent,
					AheadCommits: b.AheadCommits,
					StagedFiles:  b.StagedFiles,
					LastRun:      b.LastTestStatus,
				})
			}
			return nil
		},
	}
}

func newBranchCreateCmd() *cobra.Command {
	var descriptionFlag string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a working branch and make it current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.Engine.CreateWorkingBranch(cmd.Context(), app.ProjectID, args[0], descriptionFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", color.InCyan(snap.Name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&descriptionFlag, "description", "d", "", "What this branch is for")

	return cmd
}

func newBranchDeleteCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a working branch and its staged state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if !forceFlag {
				ok, err := confirm(fmt.Sprintf("Delete branch %s?", args[0]),
					"Staged changes on this branch are discarded.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := app.Engine.DeleteBranchByName(cmd.Context(), app.ProjectID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func newBranchCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <name>",
		Short: "Make a branch the current working branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.Engine.CheckoutBranch(cmd.Context(), app.ProjectID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now on %s\n", color.InCyan(snap.Name))
			return nil
		},
	}
}

func newBranchRollbackCmd() *cobra.Command {
	var forceFlag bool
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "rollback <name>",
		Short: "Discard a branch's staged changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if !forceFlag {
				ok, err := confirm(fmt.Sprintf("Roll back %s?", args[0]),
					"All staged changes on this branch are discarded.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			snap, err := app.Engine.RollbackBranchChanges(cmd.Context(), app.ProjectID, args[0], engine.RollbackOptions{
				Status: store.BranchStatus(statusFlag),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s (status %s)\n", snap.Name, snap.Status)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Skip confirmation prompt")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Status to leave the branch in (active, ready-for-merge, needs-fix)")

	return cmd
}
