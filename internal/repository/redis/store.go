// Package redis keeps each user's workouts in one hash, workouts:<username>,
// mapping workout id to its JSON document.
package redis

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"
)

const (
	hashKeyPrefix = "workouts:"
	// Optimistic update retries before giving up under contention.
	maxTxRetries = 10
)

type Option func(s *Store)

func WithClock(clock clock.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

var _ repository.WorkoutRepository = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	clock  clock.Clock
	log    *logger.Logger
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		clock:  clock.RealClock{},
		log:    logger.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("backend", "redis")
	return s
}

func hashKey(username string) string {
	return hashKeyPrefix + username
}

func decode(data, username, id string) (*domain.Workout, error) {
	var w domain.Workout
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("decode workout %s: %w", id, err)
	}
	w.ID = id
	w.Username = username
	w.Normalize()
	return &w, nil
}

func (s *Store) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}

	entries, err := s.client.HGetAll(ctx, hashKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("list workouts of %s: %w", username, err)
	}

	workouts := make([]domain.Workout, 0, len(entries))
	for id, data := range entries {
		w, err := decode(data, username, id)
		if err != nil {
			s.log.Warn("skipping undecodable workout entry", "username", username, "id", id, "error", err)
			continue
		}
		workouts = append(workouts, *w)
	}
	repository.SortByRecency(workouts)
	return workouts, nil
}

func (s *Store) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	data, err := s.client.HGet(ctx, hashKey(username), id).Result()
	if err == redis.Nil {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	return decode(data, username, id)
}

// Create uses HSETNX so two creates can never claim the same id.
func (s *Store) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	w := repository.StampCreated(draft, username, s.clock.Now())

	for {
		data, err := json.Marshal(w)
		if err != nil {
			return nil, fmt.Errorf("encode workout: %w", err)
		}
		ok, err := s.client.HSetNX(ctx, hashKey(username), w.ID, data).Result()
		if err != nil {
			return nil, fmt.Errorf("create workout: %w", err)
		}
		if ok {
			return w, nil
		}
		w.ID = repository.NewID()
	}
}

// Update reads and rewrites the entry inside WATCH/MULTI, retrying when a
// concurrent writer touched the hash in between.
func (s *Store) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	key := hashKey(username)
	var updated *domain.Workout
	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, id).Result()
		if err == redis.Nil {
			return repository.ErrNotFound
		} else if err != nil {
			return err
		}
		existing, err := decode(data, username, id)
		if err != nil {
			return err
		}

		w := repository.StampUpdated(draft, existing, username, id, s.clock.Now())
		encoded, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encode workout %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, encoded)
			return nil
		})
		if err == nil {
			updated = w
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update workout %s: %w", id, err)
	}
	return nil, fmt.Errorf("update workout %s: too much contention", id)
}

func (s *Store) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}

	n, err := s.client.HDel(ctx, hashKey(username), id).Result()
	if err != nil {
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	return n > 0, nil
}
