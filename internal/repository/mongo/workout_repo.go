// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"k8s.io/utils/clock"
)

const workoutCollectionName = "workouts"

// maxCreateAttempts bounds id re-rolls on a duplicate key.
const maxCreateAttempts = 5

type Option func(r *mongoWorkoutRepository)

func WithClock(clock clock.Clock) Option {
	return func(r *mongoWorkoutRepository) { r.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(r *mongoWorkoutRepository) { r.log = log }
}

// mongoWorkoutRepository implements repository.WorkoutRepository. Each
// workout is one document keyed by its id, with the owning username stored
// alongside it.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	clock      clock.Clock
	log        *logger.Logger
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database, opts ...Option) repository.WorkoutRepository {
	r := &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
		clock:      clock.RealClock{},
		log:        logger.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("backend", "mongo")
	return r
}

func byOwner(username, id string) bson.M {
	return bson.M{"_id": id, "username": username}
}

// List returns the user's workouts, newest first. Documents that no longer
// decode are skipped.
func (r *mongoWorkoutRepository) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "lastModifiedDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"username": username}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list workouts of %s: %w", username, err)
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	for cursor.Next(ctx) {
		var w domain.Workout
		if err := cursor.Decode(&w); err != nil {
			r.log.Warn("skipping undecodable workout document",
				"username", username, "id", cursor.Current.Lookup("_id").String(), "error", err)
			continue
		}
		w.Normalize()
		workouts = append(workouts, w)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list workouts of %s: %w", username, err)
	}

	// Documents without lastModifiedDate sort by createdDate, which the
	// server side sort cannot express.
	repository.SortByRecency(workouts)
	return workouts, nil
}

// Get retrieves a single workout owned by username.
func (r *mongoWorkoutRepository) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	var workout domain.Workout
	err := r.collection.FindOne(ctx, byOwner(username, id)).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	workout.Normalize()
	return &workout, nil
}

// Create inserts a new workout. A duplicate id is re-rolled.
func (r *mongoWorkoutRepository) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	workout := repository.StampCreated(draft, username, r.clock.Now())

	for attempt := 1; ; attempt++ {
		_, err := r.collection.InsertOne(ctx, workout)
		if err == nil {
			return workout, nil
		}
		if !mongo.IsDuplicateKeyError(err) || attempt == maxCreateAttempts {
			return nil, fmt.Errorf("insert workout: %w", err)
		}
		workout.ID = repository.NewID()
	}
}

// Update replaces every mutable field in one FindOneAndUpdate. _id and
// createdDate are never part of the update document.
func (r *mongoWorkoutRepository) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	existing, err := r.Get(ctx, username, id)
	if err != nil {
		return nil, err
	}
	workout := repository.StampUpdated(draft, existing, username, id, r.clock.Now())

	set := bson.M{
		"username":         workout.Username,
		"name":             workout.Name,
		"status":           workout.Status,
		"tags":             workout.Tags,
		"blocks":           workout.Blocks,
		"lastModifiedDate": workout.LastModifiedDate,
	}
	unset := bson.M{}
	setOrUnset(set, unset, "description", workout.Description)
	setOrUnset(set, unset, "notes", workout.Notes)
	if workout.EstimatedDurationMinutes != nil {
		set["estimatedDurationMinutes"] = *workout.EstimatedDurationMinutes
	} else {
		unset["estimatedDurationMinutes"] = ""
	}

	updateDoc := bson.M{"$set": set}
	if len(unset) > 0 {
		updateDoc["$unset"] = unset
	}

	var stored domain.Workout
	err = r.collection.FindOneAndUpdate(ctx, byOwner(username, id), updateDoc,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Deleted between the read and the update.
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update workout %s: %w", id, err)
	}
	stored.Normalize()
	return &stored, nil
}

func setOrUnset(set, unset bson.M, field string, v *string) {
	if v != nil {
		set[field] = *v
		return
	}
	unset[field] = ""
}

// Delete removes the workout if it belongs to username.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}
	result, err := r.collection.DeleteOne(ctx, byOwner(username, id))
	if err != nil {
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	return result.DeletedCount > 0, nil
}

// EnsureWorkoutIndexes creates the listing index. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			// Listing a user's workouts, most recently modified first
			Keys:    bson.D{{Key: "username", Value: 1}, {Key: "lastModifiedDate", Value: -1}},
			Options: options.Index().SetName("username_lastModified"),
		},
	}
	if _, err := db.Collection(workoutCollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create workout indexes: %w", err)
	}
	return nil
}
