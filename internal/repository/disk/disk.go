// Package disk stores each workout as one indented JSON file at
// <base>/<username>/<id>.json. The directory and file name are the record's
// key; there is no separate index.
package disk

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

const (
	fileExt                = ".json"
	tempExt                = ".tmp"
	defaultReadConcurrency = 8

	// Temp files older than this were left by a writer that never got to
	// the rename.
	staleTempAge = time.Minute
)

type options struct {
	clock           clock.Clock
	log             *logger.Logger
	fs              afero.Fs
	readConcurrency int
}

type Option func(o *options)

func WithClock(clock clock.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithFs replaces the OS filesystem rooted at the base directory. Paths
// handed to fs are relative to the base.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithReadConcurrency bounds how many files List reads at once.
func WithReadConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readConcurrency = n
		}
	}
}

var _ repository.WorkoutRepository = (*Store)(nil)

type Store struct {
	fs              afero.Fs
	clock           clock.Clock
	log             *logger.Logger
	readConcurrency int

	// Writers to the same file are serialized; readers rely on rename
	// being atomic and never see a half written file.
	locks repository.KeyedMutex
}

// New returns a Store rooted at baseDir, creating the directory if needed.
func New(baseDir string, opts ...Option) (*Store, error) {
	opt := options{
		clock:           clock.RealClock{},
		log:             logger.NewNop(),
		readConcurrency: defaultReadConcurrency,
	}
	for _, o := range opts {
		o(&opt)
	}

	if opt.fs == nil {
		if baseDir == "" {
			return nil, errors.New("disk store requires a base directory")
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
		}
		opt.fs = afero.NewBasePathFs(afero.NewOsFs(), baseDir)
	}

	return &Store{
		fs:              opt.fs,
		clock:           opt.clock,
		log:             opt.log.With("backend", "disk"),
		readConcurrency: opt.readConcurrency,
	}, nil
}

func recordPath(username, id string) string {
	return filepath.Join(username, id+fileExt)
}

func (s *Store) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, username)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Workout{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("list workouts of %s: %w", username, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if isTempFile(name) {
			if s.clock.Since(e.ModTime()) > staleTempAge {
				s.removeStaleTemp(username, name)
			}
			continue
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}

	loaded := make([]*domain.Workout, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := s.read(username, id)
			if err != nil {
				// One bad file must not hide the rest of the user's history.
				s.log.Warn("skipping unreadable workout file",
					"username", username, "file", recordPath(username, id), "error", err)
				return nil
			}
			loaded[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Workout, 0, len(loaded))
	for _, w := range loaded {
		if w != nil {
			out = append(out, *w)
		}
	}
	repository.SortByRecency(out)
	return out, nil
}

func (s *Store) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	return s.read(username, id)
}

func (s *Store) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	w := repository.StampCreated(draft, username, s.clock.Now())

	for {
		unlock := s.locks.Lock(recordPath(username, w.ID))
		exists, err := afero.Exists(s.fs, recordPath(username, w.ID))
		if err != nil {
			unlock()
			return nil, fmt.Errorf("create workout: %w", err)
		}
		if exists {
			unlock()
			w.ID = repository.NewID()
			continue
		}
		err = s.write(w)
		unlock()
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func (s *Store) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(recordPath(username, id))
	defer unlock()

	existing, err := s.read(username, id)
	if err != nil {
		return nil, err
	}

	w := repository.StampUpdated(draft, existing, username, id, s.clock.Now())
	if err := s.write(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}

	path := recordPath(username, id)
	unlock := s.locks.Lock(path)
	defer unlock()

	err := s.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		s.log.Error("failed to delete workout file", "file", path, "error", err)
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	return true, nil
}

// read loads one record. A missing file is ErrNotFound; anything else is a
// failure the caller has to see.
func (s *Store) read(username, id string) (*domain.Workout, error) {
	data, err := afero.ReadFile(s.fs, recordPath(username, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("read workout %s: %w", id, err)
	}

	var w domain.Workout
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode workout %s: %w", id, err)
	}
	w.ID = id
	w.Username = username
	w.Normalize()
	return &w, nil
}

func tempPattern(id string) string {
	return "." + id + ".*" + tempExt
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempExt)
}

func (s *Store) removeStaleTemp(username, name string) {
	path := filepath.Join(username, name)
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("could not remove stale temp file", "file", path, "error", err)
		return
	}
	s.log.Info("removed stale temp file", "file", path)
}

// write replaces the record file atomically: the bytes go to a temp file in
// the same directory, are synced, and the temp file is renamed over the
// target.
func (s *Store) write(w *domain.Workout) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workout %s: %w", w.ID, err)
	}

	dir := w.Username
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create user directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, tempPattern(w.ID))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write workout %s: %w", w.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("sync workout %s: %w", w.ID, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("close workout %s: %w", w.ID, err)
	}
	if err := s.fs.Rename(tmpName, recordPath(w.Username, w.ID)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("replace workout %s: %w", w.ID, err)
	}
	return nil
}
