// Package backend opens the workout repository selected in configuration.
package backend

import (
	"alcyxob/workout-cards/internal/config"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"alcyxob/workout-cards/internal/repository/badger"
	"alcyxob/workout-cards/internal/repository/disk"
	"alcyxob/workout-cards/internal/repository/memory"
	"alcyxob/workout-cards/internal/repository/mongo"
	"alcyxob/workout-cards/internal/repository/redis"
	"alcyxob/workout-cards/internal/repository/remote"
	"alcyxob/workout-cards/internal/repository/s3"
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

func noop() error { return nil }

// Open returns the configured repository and a function releasing whatever
// it holds (connections, file locks). The closer is never nil.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (repository.WorkoutRepository, func() error, error) {
	if log == nil {
		log = logger.NewNop()
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage; workouts are lost on restart")
		return memory.New(), noop, nil

	case config.BackendDisk:
		store, err := disk.New(cfg.Storage.Disk.BaseDir, disk.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		log.Info("using disk storage", "base_dir", cfg.Storage.Disk.BaseDir)
		return store, noop, nil

	case config.BackendRemote:
		client, err := remote.New(remote.Config{BaseURL: cfg.Remote.BaseURL, Timeout: cfg.Remote.Timeout}, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using remote storage", "base_url", cfg.Remote.BaseURL)
		return client, noop, nil

	case config.BackendMongo:
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.Database.Name)
		if err := mongo.EnsureWorkoutIndexes(ctx, db); err != nil {
			// Listing still works without the index, only slower.
			log.Warn("could not ensure workout indexes", "error", err)
		}
		log.Info("using mongo storage", "database", cfg.Database.Name)
		return mongo.NewMongoWorkoutRepository(db, mongo.WithLogger(log)), func() error { return mongo.DisconnectDB(client) }, nil

	case config.BackendS3:
		client, err := s3.NewClient(ctx, s3.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.S3.CreateBucket {
			if err := s3.EnsureBucket(ctx, client, cfg.S3.BucketName); err != nil {
				return nil, nil, err
			}
		}
		store, err := s3.New(client, cfg.S3.BucketName, cfg.S3.Prefix, s3.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		log.Info("using s3 storage", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.BucketName)
		return store, noop, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("using redis storage", "addr", cfg.Redis.Addr)
		return redis.New(client, redis.WithLogger(log)), client.Close, nil

	case config.BackendBadger:
		store, err := badger.Open(cfg.Badger.Dir, badger.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		log.Info("using badger storage", "dir", cfg.Badger.Dir)
		return store, store.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
