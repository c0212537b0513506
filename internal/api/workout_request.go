package api

import "alcyxob/workout-cards/internal/domain"

// --- Request DTOs ---
// Binding rules live here, not on the stored model. Ids, owner and
// timestamps in a body are accepted but ignored; the repository assigns them.

type WorkoutRequest struct {
	Name                     string               `json:"name" binding:"required,max=100"`
	Description              *string              `json:"description"`
	Status                   domain.WorkoutStatus `json:"status"` // Int or name, e.g. 1 or "Active"
	EstimatedDurationMinutes *int                 `json:"estimatedDurationMinutes" binding:"omitempty,min=0"`
	Notes                    *string              `json:"notes"`
	Tags                     []string             `json:"tags"`
	Blocks                   []BlockRequest       `json:"blocks" binding:"dive"` // Order is kept as sent
}

type BlockRequest struct {
	ID              domain.FlexID     `json:"id"` // Client chosen, may be a legacy integer
	Name            string            `json:"name" binding:"required,max=100"`
	Description     *string           `json:"description"`
	Order           int               `json:"order"`
	RestTimeSeconds int               `json:"restTimeSeconds" binding:"min=0"`
	Notes           *string           `json:"notes"`
	Exercises       []ExerciseRequest `json:"exercises" binding:"dive"`
}

type ExerciseRequest struct {
	ID                domain.FlexID       `json:"id"`
	Name              string              `json:"name" binding:"required,max=100"`
	Description       *string             `json:"description"`
	Type              domain.ExerciseType `json:"type"`
	TargetMuscleGroup *string             `json:"targetMuscleGroup"`
	Notes             *string             `json:"notes"`
	Sets              []SetRequest        `json:"sets" binding:"dive"`
}

type SetRequest struct {
	ID              domain.FlexID `json:"id"`
	Reps            int           `json:"reps" binding:"min=0"`
	Weight          float64       `json:"weight" binding:"min=0"`
	DurationSeconds int           `json:"durationSeconds" binding:"min=0"`
	Distance        float64       `json:"distance" binding:"min=0"`
	Notes           *string       `json:"notes"`
	Completed       bool          `json:"completed"`
}

// toDomain maps the request onto a draft for the service.
func (r *WorkoutRequest) toDomain() *domain.Workout {
	w := &domain.Workout{
		Name:                     r.Name,
		Description:              r.Description,
		Status:                   r.Status,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		Notes:                    r.Notes,
		Tags:                     r.Tags,
		Blocks:                   make([]domain.Block, 0, len(r.Blocks)),
	}
	for _, b := range r.Blocks {
		block := domain.Block{
			ID:              b.ID,
			Name:            b.Name,
			Description:     b.Description,
			Order:           b.Order,
			RestTimeSeconds: b.RestTimeSeconds,
			Notes:           b.Notes,
			Exercises:       make([]domain.Exercise, 0, len(b.Exercises)),
		}
		for _, e := range b.Exercises {
			exercise := domain.Exercise{
				ID:                e.ID,
				Name:              e.Name,
				Description:       e.Description,
				Type:              e.Type,
				TargetMuscleGroup: e.TargetMuscleGroup,
				Notes:             e.Notes,
				Sets:              make([]domain.Set, 0, len(e.Sets)),
			}
			for _, s := range e.Sets {
				exercise.Sets = append(exercise.Sets, domain.Set(s))
			}
			block.Exercises = append(block.Exercises, exercise)
		}
		w.Blocks = append(w.Blocks, block)
	}
	w.Normalize()
	return w
}
