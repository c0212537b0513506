// Package memory is the process-lifetime reference implementation of
// repository.WorkoutRepository.
package memory

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"sync"

	"k8s.io/utils/clock"
)

type options struct {
	clock clock.Clock
}

type Option func(o *options)

// WithClock overrides the real clock used to stamp records.
func WithClock(clock clock.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

var _ repository.WorkoutRepository = (*Store)(nil)

// Store keeps one namespace per username. Namespaces are created on first
// write and live as long as the Store.
type Store struct {
	clock      clock.Clock
	namespaces sync.Map // username -> *namespace
}

type namespace struct {
	mu       sync.RWMutex
	workouts map[string]*domain.Workout
}

// New returns an empty Store. Construct one per process and hand it to
// whatever needs it.
func New(opts ...Option) *Store {
	opt := options{
		clock: clock.RealClock{},
	}
	for _, o := range opts {
		o(&opt)
	}
	return &Store{clock: opt.clock}
}

func (s *Store) lookup(username string) (*namespace, bool) {
	v, ok := s.namespaces.Load(username)
	if !ok {
		return nil, false
	}
	return v.(*namespace), true
}

func (s *Store) namespace(username string) *namespace {
	if ns, ok := s.lookup(username); ok {
		return ns
	}
	v, _ := s.namespaces.LoadOrStore(username, &namespace{workouts: make(map[string]*domain.Workout)})
	return v.(*namespace)
}

func (s *Store) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	ns, ok := s.lookup(username)
	if !ok {
		return []domain.Workout{}, nil
	}

	ns.mu.RLock()
	out := make([]domain.Workout, 0, len(ns.workouts))
	for _, w := range ns.workouts {
		out = append(out, *w.Clone())
	}
	ns.mu.RUnlock()

	repository.SortByRecency(out)
	return out, nil
}

func (s *Store) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	ns, ok := s.lookup(username)
	if !ok {
		return nil, repository.ErrNotFound
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	w, ok := ns.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return w.Clone(), nil
}

func (s *Store) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	w := repository.StampCreated(draft, username, s.clock.Now())

	ns := s.namespace(username)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	for {
		if _, taken := ns.workouts[w.ID]; !taken {
			break
		}
		w.ID = repository.NewID()
	}
	ns.workouts[w.ID] = w
	return w.Clone(), nil
}

func (s *Store) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	ns, ok := s.lookup(username)
	if !ok {
		return nil, repository.ErrNotFound
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	existing, ok := ns.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w := repository.StampUpdated(draft, existing, username, id, s.clock.Now())
	ns.workouts[id] = w
	return w.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}
	ns, ok := s.lookup(username)
	if !ok {
		return false, nil
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.workouts[id]; !ok {
		return false, nil
	}
	delete(ns.workouts, id)
	return true, nil
}
