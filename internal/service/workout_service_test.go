package service

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/memory"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failingRepo fails every call with err.
type failingRepo struct{ err error }

func (f failingRepo) List(context.Context, string) ([]domain.Workout, error) { return nil, f.err }
func (f failingRepo) Get(context.Context, string, string) (*domain.Workout, error) {
	return nil, f.err
}
func (f failingRepo) Create(context.Context, string, *domain.Workout) (*domain.Workout, error) {
	return nil, f.err
}
func (f failingRepo) Update(context.Context, string, string, *domain.Workout) (*domain.Workout, error) {
	return nil, f.err
}
func (f failingRepo) Delete(context.Context, string, string) (bool, error) { return false, f.err }

func TestWorkoutLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewWorkoutService(memory.New(), logger.NewNop())

	created, err := svc.CreateWorkout(ctx, "alice", &domain.Workout{Name: "Leg Day"})
	require.NoError(t, err)

	got, err := svc.GetWorkout(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", got.Name)

	updated, err := svc.UpdateWorkout(ctx, "alice", created.ID, &domain.Workout{Name: "Leg Day v2"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	list, err := svc.ListWorkouts(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteWorkout(ctx, "alice", created.ID))
	assert.ErrorIs(t, svc.DeleteWorkout(ctx, "alice", created.ID), ErrWorkoutNotFound)

	_, err = svc.GetWorkout(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	_, err = svc.UpdateWorkout(ctx, "alice", created.ID, &domain.Workout{Name: "gone"})
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewWorkoutService(memory.New(), logger.Wrap(zap.New(core)))

	_, err := svc.ListWorkouts(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.GetWorkout(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateWorkout(ctx, "alice", nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateWorkout(ctx, "alice", &domain.Workout{Name: ""})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateWorkout(ctx, "alice", &domain.Workout{Name: strings.Repeat("x", 101)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateWorkout(ctx, "../alice", &domain.Workout{Name: "x"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	bad := &domain.Workout{Name: "x", Blocks: []domain.Block{{Name: "b", RestTimeSeconds: -1}}}
	_, err = svc.CreateWorkout(ctx, "alice", bad)
	assert.ErrorIs(t, err, ErrValidationFailed)

	bad = &domain.Workout{Name: "x", Blocks: []domain.Block{{Name: "b", Exercises: []domain.Exercise{{Name: "e", Sets: []domain.Set{{Weight: -5}}}}}}}
	_, err = svc.CreateWorkout(ctx, "alice", bad)
	assert.ErrorIs(t, err, ErrValidationFailed)

	bad = &domain.Workout{Name: "x", Status: domain.WorkoutStatus(42)}
	_, err = svc.UpdateWorkout(ctx, "alice", "w1", bad)
	assert.ErrorIs(t, err, ErrValidationFailed)

	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len(), "validation failures are not backend errors")
}

func TestBackendFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewWorkoutService(failingRepo{err: boom}, logger.Wrap(zap.New(core)))

	_, err := svc.ListWorkouts(ctx, "alice")
	assert.ErrorIs(t, err, boom)
	_, err = svc.CreateWorkout(ctx, "alice", &domain.Workout{Name: "x"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.DeleteWorkout(ctx, "alice", "w1"), boom)

	assert.Equal(t, 3, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	svc = NewWorkoutService(failingRepo{err: repository.ErrNotFound}, nil)
	_, err = svc.GetWorkout(ctx, "alice", "w1")
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}
