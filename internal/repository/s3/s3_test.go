package s3

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/repositorytest"
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"k8s.io/utils/clock"
)

const testBucket = "workouts"

func newTestClient(t *testing.T) *s3.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := minio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	addr, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		Endpoint:        "http://" + addr,
		Region:          "us-east-1",
		AccessKeyID:     ctr.Username,
		SecretAccessKey: ctr.Password,
	})
	require.NoError(t, err)
	require.NoError(t, EnsureBucket(ctx, client, testBucket))
	// Second call finds the bucket and does nothing.
	require.NoError(t, EnsureBucket(ctx, client, testBucket))
	return client
}

func uniquePrefix() string {
	return "test-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func TestS3Store(t *testing.T) {
	client := newTestClient(t)

	repositorytest.RunWorkoutRepositoryTest(t, func(t *testing.T, clk clock.Clock) repository.WorkoutRepository {
		store, err := New(client, testBucket, uniquePrefix(), WithClock(clk))
		require.NoError(t, err)
		return store
	})

	t.Run("ObjectLayout", func(t *testing.T) {
		ctx := context.Background()
		prefix := uniquePrefix()
		store, err := New(client, testBucket, prefix)
		require.NoError(t, err)

		w, err := store.Create(ctx, "alice", &domain.Workout{Name: "Leg Day"})
		require.NoError(t, err)

		_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(testBucket),
			Key:    aws.String(prefix + "/alice/" + w.ID + ".json"),
		})
		require.NoError(t, err)
	})

	t.Run("ListSkipsUnreadableObjects", func(t *testing.T) {
		ctx := context.Background()
		prefix := uniquePrefix()
		core, logs := observer.New(zapcore.WarnLevel)
		store, err := New(client, testBucket, prefix, WithLogger(logger.Wrap(zap.New(core))))
		require.NoError(t, err)

		good, err := store.Create(ctx, "alice", &domain.Workout{Name: "good"})
		require.NoError(t, err)

		for key, body := range map[string]string{
			prefix + "/alice/broken.json":      "{not json",
			prefix + "/alice/notes.txt":        "ignored",
			prefix + "/alice/nested/deep.json": "{}",
		} {
			_, err := client.PutObject(ctx, &s3.PutObjectInput{
				Bucket: aws.String(testBucket),
				Key:    aws.String(key),
				Body:   strings.NewReader(body),
			})
			require.NoError(t, err)
		}

		list, err := store.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, good.ID, list[0].ID)
		assert.Equal(t, 1, logs.FilterMessage("skipping unreadable workout object").Len())

		_, err = store.Get(ctx, "alice", "broken")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("RejectsUnsafeKeys", func(t *testing.T) {
		store, err := New(client, testBucket, uniquePrefix())
		require.NoError(t, err)

		_, err = store.List(context.Background(), "../alice")
		assert.ErrorIs(t, err, repository.ErrInvalidKey)
		_, err = store.Get(context.Background(), "alice", "a/b")
		assert.ErrorIs(t, err, repository.ErrInvalidKey)
	})
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(nil, "", "")
	require.Error(t, err)
}
