package api

import (
	"alcyxob/workout-cards/internal/domain"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedBodyIsStoredAsSent(t *testing.T) {
	r := newTestRouter(t)

	body := `{
		"id": "ignored",
		"username": "mallory",
		"name": "Full Body",
		"description": "mixed",
		"status": "Active",
		"estimatedDurationMinutes": 50,
		"tags": ["gym"],
		"blocks": [{
			"id": 7,
			"name": "Warm up",
			"order": 2,
			"restTimeSeconds": 30,
			"exercises": [{
				"id": "ex-1",
				"name": "Row",
				"type": 1,
				"targetMuscleGroup": "back",
				"sets": [{"id": 1, "reps": 10, "weight": 40.5, "completed": true}]
			}]
		}]
	}`
	rec := do(t, r, http.MethodPost, "/workouts/alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Workout](t, rec)

	assert.NotEqual(t, "ignored", created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, domain.StatusActive, created.Status)
	require.NotNil(t, created.EstimatedDurationMinutes)
	assert.Equal(t, 50, *created.EstimatedDurationMinutes)
	assert.Equal(t, []string{"gym"}, created.Tags)

	require.Len(t, created.Blocks, 1)
	block := created.Blocks[0]
	assert.Equal(t, domain.FlexID("7"), block.ID)
	assert.Equal(t, 2, block.Order)
	assert.Equal(t, 30, block.RestTimeSeconds)

	require.Len(t, block.Exercises, 1)
	ex := block.Exercises[0]
	assert.Equal(t, domain.FlexID("ex-1"), ex.ID)
	require.NotNil(t, ex.TargetMuscleGroup)
	assert.Equal(t, "back", *ex.TargetMuscleGroup)

	require.Len(t, ex.Sets, 1)
	assert.Equal(t, domain.Set{ID: "1", Reps: 10, Weight: 40.5, Completed: true}, ex.Sets[0])
}

func TestRequestToDomainFillsEmptyCollections(t *testing.T) {
	req := WorkoutRequest{
		Name:   "x",
		Blocks: []BlockRequest{{Name: "b", Exercises: []ExerciseRequest{{Name: "e"}}}},
	}
	w := req.toDomain()
	assert.NotNil(t, w.Tags)
	assert.NotNil(t, w.Blocks[0].Exercises[0].Sets)
}

func TestStoredModelHasNoBindingRules(t *testing.T) {
	for _, v := range []any{domain.Workout{}, domain.Block{}, domain.Exercise{}, domain.Set{}} {
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			assert.Empty(t, f.Tag.Get("binding"), "%s.%s", typ.Name(), f.Name)
		}
	}
}
