package redis

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/repositorytest"
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"k8s.io/utils/clock"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	redisInstance, err := rediscontainer.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, redisInstance)
	require.NoError(t, err)

	host, err := redisInstance.Host(ctx)
	require.NoError(t, err)

	port, err := redisInstance.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	repositorytest.RunWorkoutRepositoryTest(t, func(t *testing.T, clk clock.Clock) repository.WorkoutRepository {
		// Clean the database before each test
		require.NoError(t, client.FlushDB(ctx).Err())
		return New(client, WithClock(clk))
	})

	t.Run("ListSkipsUndecodableEntries", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())
		store := New(client)

		good, err := store.Create(ctx, "alice", &domain.Workout{Name: "good"})
		require.NoError(t, err)
		require.NoError(t, client.HSet(ctx, "workouts:alice", "bad", "{not json").Err())

		list, err := store.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, good.ID, list[0].ID)

		_, err = store.Get(ctx, "alice", "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ConcurrentUpdatesAllLand", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())
		store := New(client)

		created, err := store.Create(ctx, "alice", &domain.Workout{Name: "v0"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Update(ctx, "alice", created.ID, &domain.Workout{Name: "concurrent"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "alice", created.ID)
		require.NoError(t, err)
		assert.Equal(t, "concurrent", got.Name)
		assert.True(t, got.CreatedDate.Equal(created.CreatedDate))
	})
}
