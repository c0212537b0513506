// Package badger is an embedded key-value backend. Keys are
// workouts/<username>/<id> and values the workout JSON.
package badger

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"k8s.io/utils/clock"
)

const (
	keyPrefix          = "workouts/"
	maxConflictRetries = 10
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
	db    *badger.DB
	clock clock.Clock
	log   *logger.Logger
}

// Open opens (or creates) a database in dir. An empty dir opens an in-memory
// database that is lost on Close.
func Open(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return New(db, opts...), nil
}

func New(db *badger.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		clock: clock.RealClock{},
		log:   logger.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("backend", "badger")
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

func userPrefix(username string) []byte {
	return []byte(keyPrefix + username + "/")
}

func recordKey(username, id string) []byte {
	return []byte(keyPrefix + username + "/" + id)
}

func decode(val []byte, username, id string) (*domain.Workout, error) {
	var w domain.Workout
	if err := json.Unmarshal(val, &w); err != nil {
		return nil, fmt.Errorf("decode workout %s: %w", id, err)
	}
	w.ID = id
	w.Username = username
	w.Normalize()
	return &w, nil
}

// get reads one record inside txn.
func get(txn *badger.Txn, username, id string) (*domain.Workout, error) {
	item, err := txn.Get(recordKey(username, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	var w *domain.Workout
	err = item.Value(func(val []byte) error {
		w, err = decode(val, username, id)
		return err
	})
	return w, err
}

func put(txn *badger.Txn, w *domain.Workout) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode workout %s: %w", w.ID, err)
	}
	return txn.Set(recordKey(w.Username, w.ID), data)
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent transactions.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}

	prefix := userPrefix(username)
	workouts := []domain.Workout{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				w, err := decode(val, username, id)
				if err != nil {
					s.log.Warn("skipping undecodable workout entry", "username", username, "id", id, "error", err)
					return nil
				}
				workouts = append(workouts, *w)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts of %s: %w", username, err)
	}
	repository.SortByRecency(workouts)
	return workouts, nil
}

func (s *Store) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	var w *domain.Workout
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		w, err = get(txn, username, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	w := repository.StampCreated(draft, username, s.clock.Now())

	err := s.update(func(txn *badger.Txn) error {
		for {
			_, err := txn.Get(recordKey(username, w.ID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return put(txn, w)
			} else if err != nil {
				return err
			}
			w.ID = repository.NewID()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	return w, nil
}

func (s *Store) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	var updated *domain.Workout
	err := s.update(func(txn *badger.Txn) error {
		existing, err := get(txn, username, id)
		if err != nil {
			return err
		}
		w := repository.StampUpdated(draft, existing, username, id, s.clock.Now())
		if err := put(txn, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("update workout %s: %w", id, err)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}

	var deleted bool
	err := s.update(func(txn *badger.Txn) error {
		key := recordKey(username, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			deleted = false
			return nil
		} else if err != nil {
			return err
		}
		deleted = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	return deleted, nil
}
