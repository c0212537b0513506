// Package repositorytest holds the behavioural suite every
// repository.WorkoutRepository implementation must pass.
package repositorytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clock_testing "k8s.io/utils/clock/testing"

	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/repository"
)

// Factory returns an empty repository whose timestamps come from clk.
type Factory func(t *testing.T, clk clock.Clock) repository.WorkoutRepository

func RunWorkoutRepositoryTest(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo repository.WorkoutRepository, clk *clock_testing.FakeClock)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"CreateIgnoresCallerIdentity", testCreateIgnoresCallerIdentity},
		{"GetMissing", testGetMissing},
		{"ListEmpty", testListEmpty},
		{"ListOrder", testListOrder},
		{"Update", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"NamespaceIsolation", testNamespaceIsolation},
		{"PreservesNestedOrder", testPreservesNestedOrder},
		{"ReturnedValuesAreCopies", testReturnedValuesAreCopies},
		{"ConcurrentCreates", testConcurrentCreates},
		{"RejectsInvalidKeys", testRejectsInvalidKeys},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock_testing.NewFakeClock(time.Date(2024, time.April, 19, 8, 0, 0, 0, time.UTC))
			tc.fn(t, factory(t, clk), clk)
		})
	}
}

// SampleWorkout returns a fully populated draft.
func SampleWorkout(name string) *domain.Workout {
	desc := "lower body focus"
	notes := "keep the back straight"
	muscle := "quads"
	minutes := 45
	return &domain.Workout{
		Name:                     name,
		Description:              &desc,
		Status:                   domain.StatusActive,
		EstimatedDurationMinutes: &minutes,
		Tags:                     []string{"legs", "strength", "legs"},
		Blocks: []domain.Block{
			{
				ID:              "b1",
				Name:            "Warmup",
				Order:           0,
				RestTimeSeconds: 30,
				Exercises: []domain.Exercise{
					{ID: "e1", Name: "Bike", Type: domain.ExerciseCardio, Sets: []domain.Set{{ID: "s1", DurationSeconds: 300, Distance: 2.5}}},
				},
			},
			{
				ID:              "b2",
				Name:            "Main",
				Order:           1,
				RestTimeSeconds: 120,
				Notes:           &notes,
				Exercises: []domain.Exercise{
					{
						ID:                "e2",
						Name:              "Squat",
						Type:              domain.ExerciseStrength,
						TargetMuscleGroup: &muscle,
						Sets: []domain.Set{
							{ID: "s2", Reps: 5, Weight: 100},
							{ID: "s3", Reps: 5, Weight: 102.5, Completed: true},
						},
					},
				},
			},
		},
	}
}

// RequireSameContent compares two workouts ignoring the backend assigned
// fields (id, username, createdDate, lastModifiedDate).
func RequireSameContent(t *testing.T, want, got *domain.Workout) {
	t.Helper()
	require.NotNil(t, got)
	w, g := want.Clone(), got.Clone()
	for _, x := range []*domain.Workout{w, g} {
		x.ID = ""
		x.Username = ""
		x.CreatedDate = time.Time{}
		x.LastModifiedDate = nil
		x.Normalize()
	}
	require.Equal(t, w, g)
}

func testCreateAndGet(t *testing.T, repo repository.WorkoutRepository, clk *clock_testing.FakeClock) {
	ctx := context.Background()
	draft := &domain.Workout{Name: "Leg Day", Blocks: []domain.Block{}}

	created, err := repo.Create(ctx, "alice", draft)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.True(t, created.CreatedDate.Equal(clk.Now()))
	require.NotNil(t, created.LastModifiedDate)
	assert.False(t, created.LastModifiedDate.Before(created.CreatedDate))

	got, err := repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.CreatedDate.Equal(created.CreatedDate))
	RequireSameContent(t, draft, got)

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	full := SampleWorkout("Full")
	created, err = repo.Create(ctx, "alice", full)
	require.NoError(t, err)
	got, err = repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	RequireSameContent(t, full, got)
}

func testCreateIgnoresCallerIdentity(t *testing.T, repo repository.WorkoutRepository, clk *clock_testing.FakeClock) {
	ctx := context.Background()
	past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	draft := &domain.Workout{ID: "chosen-by-caller", Username: "bob", Name: "Push", CreatedDate: past, LastModifiedDate: &past}

	created, err := repo.Create(ctx, "alice", draft)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-caller", created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.True(t, created.CreatedDate.Equal(clk.Now()))

	_, err = repo.Get(ctx, "alice", "chosen-by-caller")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testGetMissing(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "alice", "does-not-exist")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Create(ctx, "alice", &domain.Workout{Name: "x"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, "alice", "does-not-exist")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRejectsInvalidKeys(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", &domain.Workout{Name: "x"})
	require.NoError(t, err)

	for _, key := range []string{"", "  ", ".", "..", "a/b", `a\b`, "tab\there"} {
		_, err := repo.List(ctx, key)
		assert.ErrorIs(t, err, repository.ErrInvalidKey, "List %q", key)

		_, err = repo.Create(ctx, key, &domain.Workout{Name: "x"})
		assert.ErrorIs(t, err, repository.ErrInvalidKey, "Create %q", key)

		_, err = repo.Get(ctx, "alice", key)
		assert.ErrorIs(t, err, repository.ErrInvalidKey, "Get %q", key)

		_, err = repo.Update(ctx, key, created.ID, &domain.Workout{Name: "y"})
		assert.ErrorIs(t, err, repository.ErrInvalidKey, "Update %q", key)

		deleted, err := repo.Delete(ctx, "alice", key)
		assert.ErrorIs(t, err, repository.ErrInvalidKey, "Delete %q", key)
		assert.False(t, deleted)
	}

	// Nothing was written or removed.
	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{created.ID}, ids(list))
}

func testListEmpty(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	list, err := repo.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func testListOrder(t *testing.T, repo repository.WorkoutRepository, clk *clock_testing.FakeClock) {
	ctx := context.Background()

	first, err := repo.Create(ctx, "alice", &domain.Workout{Name: "first"})
	require.NoError(t, err)
	clk.Step(time.Minute)
	second, err := repo.Create(ctx, "alice", &domain.Workout{Name: "second"})
	require.NoError(t, err)
	clk.Step(time.Minute)
	third, err := repo.Create(ctx, "alice", &domain.Workout{Name: "third"})
	require.NoError(t, err)

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, ids(list))

	// Touching the oldest moves it to the front.
	clk.Step(time.Minute)
	_, err = repo.Update(ctx, "alice", first.ID, &domain.Workout{Name: "first v2"})
	require.NoError(t, err)

	list, err = repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, third.ID, second.ID}, ids(list))
}

func testUpdate(t *testing.T, repo repository.WorkoutRepository, clk *clock_testing.FakeClock) {
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", &domain.Workout{Name: "Leg Day"})
	require.NoError(t, err)

	clk.Step(time.Hour)
	draft := SampleWorkout("Leg Day v2")
	draft.ID = "something-else"
	draft.CreatedDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	updated, err := repo.Update(ctx, "alice", created.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Leg Day v2", updated.Name)
	assert.True(t, updated.CreatedDate.Equal(created.CreatedDate))
	require.NotNil(t, updated.LastModifiedDate)
	assert.True(t, updated.LastModifiedDate.After(*created.LastModifiedDate))

	got, err := repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedDate.Equal(created.CreatedDate))
	assert.True(t, got.LastModifiedDate.Equal(*updated.LastModifiedDate))
	RequireSameContent(t, draft, got)

	_, err = repo.Get(ctx, "alice", "something-else")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testUpdateMissing(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()

	_, err := repo.Update(ctx, "alice", "does-not-exist", &domain.Workout{Name: "x"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list, "a failed update must not create a record")
}

func testDelete(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", &domain.Workout{Name: "Leg Day"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, "alice", created.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err = repo.Delete(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, "nobody", "never-existed")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Update(ctx, "alice", created.ID, &domain.Workout{Name: "again"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testNamespaceIsolation(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()

	a, err := repo.Create(ctx, "alice", &domain.Workout{Name: "alice's"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, "bob", &domain.Workout{Name: "bob's"})
	require.NoError(t, err)

	list, err := repo.List(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(list))

	_, err = repo.Get(ctx, "bob", a.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Update(ctx, "bob", a.ID, &domain.Workout{Name: "hijack"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err := repo.Delete(ctx, "bob", a.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := repo.Get(ctx, "alice", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's", got.Name)
}

func testPreservesNestedOrder(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()
	draft := &domain.Workout{Name: "ordered"}
	for _, name := range []string{"z", "a", "m"} {
		b := domain.Block{Name: name}
		for _, reps := range []int{9, 1, 5} {
			b.Exercises = append(b.Exercises, domain.Exercise{Name: name + "-ex", Sets: []domain.Set{{Reps: reps}, {Reps: reps + 1}}})
		}
		draft.Blocks = append(draft.Blocks, b)
	}

	created, err := repo.Create(ctx, "alice", draft)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	RequireSameContent(t, draft, got)
	assert.Equal(t, "z", got.Blocks[0].Name)
	assert.Equal(t, "m", got.Blocks[2].Name)
	assert.Equal(t, 9, got.Blocks[1].Exercises[0].Sets[0].Reps)
	assert.Equal(t, 6, got.Blocks[1].Exercises[2].Sets[1].Reps)
}

func testReturnedValuesAreCopies(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()
	draft := SampleWorkout("original")

	created, err := repo.Create(ctx, "alice", draft)
	require.NoError(t, err)

	draft.Name = "mutated draft"
	created.Name = "mutated result"
	created.Blocks[0].Name = "mutated block"

	got, err := repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Name)
	assert.Equal(t, "Warmup", got.Blocks[0].Name)

	got.Tags[0] = "mutated tag"
	again, err := repo.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "legs", again.Tags[0])
}

func testConcurrentCreates(t *testing.T, repo repository.WorkoutRepository, _ *clock_testing.FakeClock) {
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := repo.Create(ctx, "alice", &domain.Workout{Name: "concurrent"})
			errs[i] = err
			if err == nil {
				results[i] = w.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		seen[results[i]] = true
	}
	assert.Len(t, seen, n)

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, n)
	for _, w := range list {
		assert.True(t, seen[w.ID])
	}
}

func ids(ws []domain.Workout) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}
