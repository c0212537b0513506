// internal/domain/workout.go
package domain

import (
	"time"
)

// MaxNameLength bounds Workout, Block and Exercise names.
const MaxNameLength = 100

// Workout is the unit of storage, identity and atomicity. Blocks, exercises and
// sets have no lifecycle of their own; they are written and read as part of
// their owning workout.
type Workout struct {
	ID                       string        `bson:"_id" json:"id"`
	Username                 string        `bson:"username" json:"username"`
	Name                     string        `bson:"name" json:"name"`
	Description              *string       `bson:"description,omitempty" json:"description,omitempty"`
	CreatedDate              time.Time     `bson:"createdDate" json:"createdDate"`
	LastModifiedDate         *time.Time    `bson:"lastModifiedDate,omitempty" json:"lastModifiedDate,omitempty"`
	Status                   WorkoutStatus `bson:"status" json:"status"`
	EstimatedDurationMinutes *int          `bson:"estimatedDurationMinutes,omitempty" json:"estimatedDurationMinutes,omitempty"`
	Notes                    *string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Tags                     []string      `bson:"tags" json:"tags"`
	Blocks                   []Block       `bson:"blocks" json:"blocks"` // Order is the workout sequence
}

// Block groups exercises. Order is an explicit position kept separately from
// the slice index so clients can reorder without renumbering.
type Block struct {
	ID              FlexID     `bson:"id" json:"id"`
	Name            string     `bson:"name" json:"name"`
	Description     *string    `bson:"description,omitempty" json:"description,omitempty"`
	Order           int        `bson:"order" json:"order"`
	RestTimeSeconds int        `bson:"restTimeSeconds" json:"restTimeSeconds"`
	Notes           *string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises       []Exercise `bson:"exercises" json:"exercises"`
}

type Exercise struct {
	ID                FlexID       `bson:"id" json:"id"`
	Name              string       `bson:"name" json:"name"`
	Description       *string      `bson:"description,omitempty" json:"description,omitempty"`
	Type              ExerciseType `bson:"type" json:"type"`
	TargetMuscleGroup *string      `bson:"targetMuscleGroup,omitempty" json:"targetMuscleGroup,omitempty"`
	Notes             *string      `bson:"notes,omitempty" json:"notes,omitempty"`
	Sets              []Set        `bson:"sets" json:"sets"`
}

type Set struct {
	ID              FlexID  `bson:"id" json:"id"`
	Reps            int     `bson:"reps" json:"reps"`
	Weight          float64 `bson:"weight" json:"weight"`
	DurationSeconds int     `bson:"durationSeconds" json:"durationSeconds"`
	Distance        float64 `bson:"distance" json:"distance"`
	Notes           *string `bson:"notes,omitempty" json:"notes,omitempty"`
	Completed       bool    `bson:"completed" json:"completed"`
}

// SortTime is the timestamp listings are ordered by.
func (w *Workout) SortTime() time.Time {
	if w.LastModifiedDate != nil {
		return *w.LastModifiedDate
	}
	return w.CreatedDate
}

// Normalize replaces nil collections with empty ones so that every encoding
// carries arrays rather than nulls.
func (w *Workout) Normalize() {
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.Blocks == nil {
		w.Blocks = []Block{}
	}
	for i := range w.Blocks {
		b := &w.Blocks[i]
		if b.Exercises == nil {
			b.Exercises = []Exercise{}
		}
		for j := range b.Exercises {
			if b.Exercises[j].Sets == nil {
				b.Exercises[j].Sets = []Set{}
			}
		}
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate a stored record in place.
func (w *Workout) Clone() *Workout {
	if w == nil {
		return nil
	}
	out := *w
	out.Description = cloneString(w.Description)
	out.Notes = cloneString(w.Notes)
	if w.LastModifiedDate != nil {
		t := *w.LastModifiedDate
		out.LastModifiedDate = &t
	}
	if w.EstimatedDurationMinutes != nil {
		n := *w.EstimatedDurationMinutes
		out.EstimatedDurationMinutes = &n
	}
	if w.Tags != nil {
		out.Tags = append([]string{}, w.Tags...)
	}
	if w.Blocks != nil {
		out.Blocks = make([]Block, len(w.Blocks))
		for i, b := range w.Blocks {
			out.Blocks[i] = b.clone()
		}
	}
	return &out
}

func (b Block) clone() Block {
	out := b
	out.Description = cloneString(b.Description)
	out.Notes = cloneString(b.Notes)
	if b.Exercises != nil {
		out.Exercises = make([]Exercise, len(b.Exercises))
		for i, e := range b.Exercises {
			out.Exercises[i] = e.clone()
		}
	}
	return out
}

func (e Exercise) clone() Exercise {
	out := e
	out.Description = cloneString(e.Description)
	out.TargetMuscleGroup = cloneString(e.TargetMuscleGroup)
	out.Notes = cloneString(e.Notes)
	if e.Sets != nil {
		out.Sets = make([]Set, len(e.Sets))
		for i, s := range e.Sets {
			s.Notes = cloneString(s.Notes)
			out.Sets[i] = s
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
