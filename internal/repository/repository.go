package repository

import (
	"alcyxob/workout-cards/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound   = RepositoryError("not found")
	ErrInvalidKey = RepositoryError("invalid username or workout id")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutRepository is the storage contract every backend implements.
//
// Records are partitioned by username; nothing is visible across namespaces.
// Expected outcomes are values, not errors: an empty namespace lists as an
// empty slice and deleting a missing record returns false. Get and Update
// report a missing record with ErrNotFound. Any other error is an operation
// failure and must never be confused with ErrNotFound.
type WorkoutRepository interface {
	// List returns every workout of the user, most recently modified first.
	List(ctx context.Context, username string) ([]domain.Workout, error)

	// Get returns a single workout or ErrNotFound.
	Get(ctx context.Context, username, id string) (*domain.Workout, error)

	// Create ignores any id or timestamps on draft, assigns a fresh id,
	// stamps createdDate and lastModifiedDate, and persists the record.
	Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error)

	// Update replaces every field of an existing record except its id and
	// createdDate, and refreshes lastModifiedDate. ErrNotFound if absent.
	Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error)

	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, username, id string) (bool, error)
}
