package main

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/repository"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// readDraft decodes a workout from path, "-" meaning stdin.
func readDraft(cmd *cobra.Command, path string) (*domain.Workout, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var w domain.Workout
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("invalid workout JSON in %s: %w", path, err)
	}
	return &w, nil
}

func newCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create -f <file.json>",
		Short: "Create a workout from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(cmd, file)
			if err != nil {
				return err
			}
			w, err := a.repo.Create(cmd.Context(), a.user, draft)
			if err != nil {
				return fmt.Errorf("failed to create workout: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Created %s\n", w.ID)
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "workout JSON file, - for stdin")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id> -f <file.json>",
		Short: "Replace a workout with the contents of a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(cmd, file)
			if err != nil {
				return err
			}
			w, err := a.repo.Update(cmd.Context(), a.user, args[0], draft)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("workout %s not found", args[0])
			} else if err != nil {
				return fmt.Errorf("failed to update workout: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Updated %s\n", w.ID)
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "workout JSON file, - for stdin")
	return cmd
}
