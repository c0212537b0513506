package api

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository/memory"
	"alcyxob/workout-cards/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc := service.NewWorkoutService(memory.New(), logger.NewNop())
	return NewRouter(logger.NewNop(), []string{"http://localhost:5173"}, svc)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestWorkoutScenario(t *testing.T) {
	r := newTestRouter(t)

	// 1. create
	rec := do(t, r, http.MethodPost, "/workouts/alice", map[string]any{"name": "Leg Day", "blocks": []any{}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Workout](t, rec)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedDate.IsZero())
	assert.Equal(t, "/workouts/alice/"+created.ID, rec.Header().Get("Location"))

	rec = do(t, r, http.MethodGet, "/workouts/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Workout](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// 2. missing id
	rec = do(t, r, http.MethodGet, "/workouts/alice/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 3. update
	rec = do(t, r, http.MethodPut, "/workouts/alice/"+created.ID, map[string]any{
		"name": "Leg Day v2",
		"blocks": []any{map[string]any{
			"name":            "Main",
			"restTimeSeconds": 90,
			"exercises":       []any{map[string]any{"name": "Squat", "type": 0, "sets": []any{map[string]any{"reps": 5, "weight": 100}}}},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Workout](t, rec)
	assert.Equal(t, "Leg Day v2", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.CreatedDate.Equal(created.CreatedDate))
	require.NotNil(t, updated.LastModifiedDate)
	assert.False(t, updated.LastModifiedDate.Before(*created.LastModifiedDate))

	// 4. delete twice
	rec = do(t, r, http.MethodDelete, "/workouts/alice/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	rec = do(t, r, http.MethodGet, "/workouts/alice/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, r, http.MethodDelete, "/workouts/alice/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIPrefixAndLocation(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/workouts/bob", map[string]any{"name": "Push"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Workout](t, rec)
	assert.Equal(t, "/api/workouts/bob/"+created.ID, rec.Header().Get("Location"))

	rec = do(t, r, http.MethodGet, rec.Header().Get("Location"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/workouts/bob/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "both prefixes share one store")
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"blank username list", http.MethodGet, "/workouts/%20", nil},
		{"blank id get", http.MethodGet, "/workouts/alice/%20", nil},
		{"blank username create", http.MethodPost, "/workouts/%20", map[string]any{"name": "x"}},
		{"missing body", http.MethodPost, "/workouts/alice", nil},
		{"malformed body", http.MethodPost, "/workouts/alice", "{not json"},
		{"missing name", http.MethodPost, "/workouts/alice", map[string]any{"description": "no name"}},
		{"name too long", http.MethodPost, "/workouts/alice", map[string]any{"name": string(bytes.Repeat([]byte("x"), 101))}},
		{"negative rest", http.MethodPost, "/workouts/alice", map[string]any{"name": "x", "blocks": []any{map[string]any{"name": "b", "restTimeSeconds": -1}}}},
		{"negative reps", http.MethodPost, "/workouts/alice", map[string]any{"name": "x", "blocks": []any{map[string]any{"name": "b", "exercises": []any{map[string]any{"name": "e", "sets": []any{map[string]any{"reps": -1}}}}}}}},
		{"unknown status", http.MethodPost, "/workouts/alice", map[string]any{"name": "x", "status": "Paused"}},
		{"encoded slash", http.MethodGet, "/workouts/al%2Fice", nil},
		{"blank id put", http.MethodPut, "/workouts/alice/%20", map[string]any{"name": "x"}},
		{"invalid put body", http.MethodPut, "/workouts/alice/w1", "[]"},
		{"blank id delete", http.MethodDelete, "/workouts/alice/%20", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPut, "/workouts/alice/nope", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenService struct{ service.WorkoutService }

func (brokenService) CreateWorkout(context.Context, string, *domain.Workout) (*domain.Workout, error) {
	return nil, errors.New("open /var/data/alice/x.json: permission denied")
}

func TestBackendFailureIsOpaque500(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil, brokenService{})

	rec := do(t, r, http.MethodPost, "/workouts/alice", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/var/data")
	assert.Equal(t, "Internal server error", decode[map[string]string](t, rec)["error"])
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/workouts/alice", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPing(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}
