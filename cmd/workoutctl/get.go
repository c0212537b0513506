package main

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/repository"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one workout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.repo.Get(cmd.Context(), a.user, args[0])
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("workout %s not found", args[0])
			} else if err != nil {
				return fmt.Errorf("failed to get workout: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
}

func printJSON(out io.Writer, w *domain.Workout) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}
