package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a workout",
		Long: `Delete a workout by its full ID.

CAUTION:

  This permanently deletes the workout. There is no undo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.repo.Delete(cmd.Context(), a.user, args[0])
			if err != nil {
				return fmt.Errorf("failed to delete workout: %w", err)
			}
			if !deleted {
				return fmt.Errorf("workout %s not found", args[0])
			}
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Deleted %s\n", args[0])
			return nil
		},
	}
}
