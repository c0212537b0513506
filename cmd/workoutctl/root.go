package main

import (
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/remote"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// app carries the flags and the client shared by every subcommand.
type app struct {
	server  string
	user    string
	timeout time.Duration
	repo    repository.WorkoutRepository
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "workoutctl",
		Short: "Manage workout cards on a workout server",
		Long: `workoutctl talks to a workout server over HTTP.

EXAMPLES:

  workoutctl --user alice list
  workoutctl --user alice get 3f0c...
  workoutctl --user alice create -f legday.json
  workoutctl --user alice update 3f0c... -f legday.json
  workoutctl --user alice delete 3f0c...

The server and user default to $WORKOUTS_SERVER and $WORKOUTS_USER.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if strings.TrimSpace(a.user) == "" {
				return errors.New("a user is required (--user or WORKOUTS_USER)")
			}
			client, err := remote.New(remote.Config{BaseURL: a.server, Timeout: a.timeout}, nil)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			a.repo = client
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.server, "server", "s", envOr("WORKOUTS_SERVER", "http://localhost:8080"), "workout server base URL")
	root.PersistentFlags().StringVarP(&a.user, "user", "u", os.Getenv("WORKOUTS_USER"), "user whose workouts to manage")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return root
}
