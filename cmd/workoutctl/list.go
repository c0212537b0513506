package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List workouts, most recently modified first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workouts, err := a.repo.List(cmd.Context(), a.user)
			if err != nil {
				return fmt.Errorf("failed to list workouts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(workouts) == 0 {
				fmt.Fprintln(out, "No workouts found.")
				return nil
			}

			faint := color.New(color.Faint)
			for _, w := range workouts {
				fmt.Fprintf(out, "%s  %s  %s  %s  %d blocks\n",
					w.ID,
					faint.Sprint(w.SortTime().Local().Format("2006-01-02 15:04")),
					padRight(w.Status.String(), 9),
					truncate(w.Name, 40),
					len(w.Blocks))
			}
			return nil
		},
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
