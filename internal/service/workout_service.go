package service

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrValidationFailed = errors.New("workout validation failed")
)

// --- Service Interface ---
type WorkoutService interface {
	ListWorkouts(ctx context.Context, username string) ([]domain.Workout, error)
	GetWorkout(ctx context.Context, username, workoutID string) (*domain.Workout, error)
	CreateWorkout(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error)
	UpdateWorkout(ctx context.Context, username, workoutID string, draft *domain.Workout) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, username, workoutID string) error
}

// --- Service Implementation ---

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
	log         *logger.Logger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, log *logger.Logger) WorkoutService {
	if log == nil {
		log = logger.NewNop()
	}
	return &workoutService{
		workoutRepo: workoutRepo,
		log:         log,
	}
}

// validationError wraps ErrValidationFailed with a message the caller can show.
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, msg)
}

func checkUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return validationError("username is required")
	}
	if repository.ValidateKey(username) != nil {
		return validationError("username contains invalid characters")
	}
	return nil
}

func checkIdentifiers(username, workoutID string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(workoutID) == "" {
		return validationError("username and workout ID are required")
	}
	if repository.ValidateKeys(username, workoutID) != nil {
		return validationError("username or workout ID contains invalid characters")
	}
	return nil
}

// translate maps repository outcomes onto service errors and logs the
// unexpected ones.
func (s *workoutService) translate(err error, op, username, workoutID string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrWorkoutNotFound
	case errors.Is(err, repository.ErrInvalidKey):
		return validationError(err.Error())
	default:
		s.log.Error("workout storage operation failed",
			"op", op, "username", username, "workout_id", workoutID, "error", err)
		return err
	}
}

// ListWorkouts returns the user's workouts, newest first.
func (s *workoutService) ListWorkouts(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.List(ctx, username)
	if err != nil {
		return nil, s.translate(err, "list", username, "")
	}
	if workouts == nil { // Always encode as [] rather than null
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

// GetWorkout retrieves a single workout.
func (s *workoutService) GetWorkout(ctx context.Context, username, workoutID string) (*domain.Workout, error) {
	if err := checkIdentifiers(username, workoutID); err != nil {
		return nil, err
	}
	workout, err := s.workoutRepo.Get(ctx, username, workoutID)
	if err != nil {
		return nil, s.translate(err, "get", username, workoutID)
	}
	return workout, nil
}

// CreateWorkout stores a new workout for the user.
func (s *workoutService) CreateWorkout(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, validationError("workout data is required")
	}
	if err := checkDraft(draft); err != nil {
		return nil, err
	}

	// Repository assigns id and timestamps; anything on the draft is ignored
	workout, err := s.workoutRepo.Create(ctx, username, draft)
	if err != nil {
		return nil, s.translate(err, "create", username, "")
	}
	s.log.Info("workout created", "username", username, "workout_id", workout.ID)
	return workout, nil
}

// UpdateWorkout replaces an existing workout, keeping its id and creation date.
func (s *workoutService) UpdateWorkout(ctx context.Context, username, workoutID string, draft *domain.Workout) (*domain.Workout, error) {
	if err := checkIdentifiers(username, workoutID); err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, validationError("workout data is required")
	}
	if err := checkDraft(draft); err != nil {
		return nil, err
	}

	// Missing record surfaces as ErrNotFound from the repo
	workout, err := s.workoutRepo.Update(ctx, username, workoutID, draft)
	if err != nil {
		return nil, s.translate(err, "update", username, workoutID)
	}
	return workout, nil
}

// DeleteWorkout removes a workout. ErrWorkoutNotFound if it did not exist.
func (s *workoutService) DeleteWorkout(ctx context.Context, username, workoutID string) error {
	if err := checkIdentifiers(username, workoutID); err != nil {
		return err
	}
	deleted, err := s.workoutRepo.Delete(ctx, username, workoutID)
	if err != nil {
		return s.translate(err, "delete", username, workoutID)
	}
	if !deleted {
		// Not an error for the repo, but the caller asked for a specific record
		return ErrWorkoutNotFound
	}
	s.log.Info("workout deleted", "username", username, "workout_id", workoutID)
	return nil
}

// checkDraft repeats the request binding rules on the draft itself, so that
// callers other than the HTTP layer get the same guarantees.
func checkDraft(w *domain.Workout) error {
	if strings.TrimSpace(w.Name) == "" {
		return validationError("workout name is required")
	}
	if len([]rune(w.Name)) > domain.MaxNameLength {
		return validationError("workout name cannot exceed 100 characters")
	}
	if !w.Status.IsValid() {
		return validationError("unknown workout status")
	}
	if w.EstimatedDurationMinutes != nil && *w.EstimatedDurationMinutes < 0 {
		return validationError("estimated duration must be non-negative")
	}
	for _, b := range w.Blocks {
		if strings.TrimSpace(b.Name) == "" || len([]rune(b.Name)) > domain.MaxNameLength {
			return validationError("block name is required and cannot exceed 100 characters")
		}
		if b.RestTimeSeconds < 0 {
			return validationError("rest time must be non-negative")
		}
		for _, e := range b.Exercises {
			if strings.TrimSpace(e.Name) == "" || len([]rune(e.Name)) > domain.MaxNameLength {
				return validationError("exercise name is required and cannot exceed 100 characters")
			}
			if !e.Type.IsValid() {
				return validationError("unknown exercise type")
			}
			for _, set := range e.Sets {
				if set.Reps < 0 || set.Weight < 0 || set.DurationSeconds < 0 || set.Distance < 0 {
					return validationError("set values must be non-negative")
				}
			}
		}
	}
	return nil
}
