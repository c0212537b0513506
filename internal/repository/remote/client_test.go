package remote_test

import (
	"alcyxob/workout-cards/internal/api"
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/memory"
	"alcyxob/workout-cards/internal/repository/remote"
	"alcyxob/workout-cards/internal/repository/repositorytest"
	"alcyxob/workout-cards/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
)

func TestRemoteStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repositorytest.RunWorkoutRepositoryTest(t, func(t *testing.T, clk clock.Clock) repository.WorkoutRepository {
		svc := service.NewWorkoutService(memory.New(memory.WithClock(clk)), nil)
		srv := httptest.NewServer(api.NewRouter(logger.NewNop(), nil, svc))
		t.Cleanup(srv.Close)

		c, err := remote.New(remote.Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, nil)
		require.NoError(t, err)
		return c
	})
}

func TestPathsAreEscaped(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := remote.New(remote.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "jane doe", "a?b#c")
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, "/workouts/jane%20doe/a%3Fb%23c", gotPath)
}

func TestUnexpectedResponses(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"Internal server error"}`, "Internal server error"},
		{"bad request", http.StatusBadRequest, `{"error":"username is required"}`, "username is required"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := remote.New(remote.Config{BaseURL: srv.URL}, nil)
			require.NoError(t, err)

			_, err = c.Get(ctx, "alice", "w1")
			var se *remote.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.status, se.StatusCode)
			assert.Equal(t, tc.message, se.Message)
			assert.NotErrorIs(t, err, repository.ErrNotFound)

			_, err = c.Delete(ctx, "alice", "w1")
			require.ErrorAs(t, err, &se)

			_, err = c.List(ctx, "alice")
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestListNotFoundIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, err := remote.New(remote.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.List(context.Background(), "alice")
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestDecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"name": 12`},
		{"null", `null`},
		{"empty object", `{}`},
		{"other workout", `{"id":"w2","name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := remote.New(remote.Config{BaseURL: srv.URL}, nil)
			require.NoError(t, err)
			ctx := context.Background()

			got, err := c.Get(ctx, "alice", "w1")
			require.Error(t, err)
			assert.Nil(t, got)
			assert.NotErrorIs(t, err, repository.ErrNotFound)

			got, err = c.Update(ctx, "alice", "w1", &domain.Workout{Name: "x"})
			require.Error(t, err)
			assert.Nil(t, got)
			assert.NotErrorIs(t, err, repository.ErrNotFound)

			if tt.name == "other workout" {
				// Create has no id to compare against.
				return
			}
			got, err = c.Create(ctx, "alice", &domain.Workout{Name: "x"})
			require.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := remote.New(remote.Config{BaseURL: url, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "alice", "w1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	deleted, err := c.Delete(context.Background(), "alice", "w1")
	require.Error(t, err)
	assert.False(t, deleted)
}

func TestNewRejectsMissingBaseURL(t *testing.T) {
	_, err := remote.New(remote.Config{}, nil)
	require.Error(t, err)
}
