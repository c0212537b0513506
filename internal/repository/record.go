package repository

import (
	"alcyxob/workout-cards/internal/domain"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// NewID returns a fresh, globally unique workout id.
func NewID() string {
	return uuid.NewString()
}

// StampCreated builds the record to persist for a create: caller-supplied id
// and timestamps are discarded.
func StampCreated(draft *domain.Workout, username string, now time.Time) *domain.Workout {
	w := draft.Clone()
	if w == nil {
		w = &domain.Workout{}
	}
	now = Timestamp(now)
	w.ID = NewID()
	w.Username = username
	w.CreatedDate = now
	w.LastModifiedDate = &now
	w.Normalize()
	return w
}

// StampUpdated builds the record to persist for an update of existing. The id
// is forced to the addressed one and createdDate is carried over, whatever
// the draft says.
func StampUpdated(draft, existing *domain.Workout, username, id string, now time.Time) *domain.Workout {
	w := draft.Clone()
	if w == nil {
		w = &domain.Workout{}
	}
	now = Timestamp(now)
	if now.Before(existing.CreatedDate) {
		now = existing.CreatedDate
	}
	w.ID = id
	w.Username = username
	w.CreatedDate = existing.CreatedDate
	w.LastModifiedDate = &now
	w.Normalize()
	return w
}

// Timestamp normalizes a clock reading to the precision every backend can
// round trip (BSON dates hold milliseconds).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// SortByRecency orders workouts newest first by lastModifiedDate, falling
// back to createdDate. Equal timestamps are ordered by id so a listing never
// reshuffles equal keys.
func SortByRecency(workouts []domain.Workout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		ti, tj := workouts[i].SortTime(), workouts[j].SortTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return workouts[i].ID < workouts[j].ID
	})
}

// ValidateKey checks that a username or workout id is usable as a namespace or
// record key on every backend, including as a single path segment.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || key == "." || key == ".." {
		return ErrInvalidKey
	}
	for _, r := range key {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return ErrInvalidKey
		}
	}
	return nil
}

// ValidateKeys runs ValidateKey over each key.
func ValidateKeys(keys ...string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	return nil
}
