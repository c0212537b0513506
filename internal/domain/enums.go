package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WorkoutStatus tracks where a workout is in its life. Values are persisted as
// integers so existing data files stay readable.
type WorkoutStatus int

const (
	StatusDraft WorkoutStatus = iota
	StatusActive
	StatusCompleted
	StatusArchived
)

var workoutStatusNames = []string{"Draft", "Active", "Completed", "Archived"}

func (s WorkoutStatus) String() string {
	if s < 0 || int(s) >= len(workoutStatusNames) {
		return fmt.Sprintf("WorkoutStatus(%d)", int(s))
	}
	return workoutStatusNames[s]
}

// IsValid reports whether s is one of the declared statuses.
func (s WorkoutStatus) IsValid() bool {
	return s >= StatusDraft && s <= StatusArchived
}

func (s *WorkoutStatus) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, workoutStatusNames)
	if err != nil {
		return fmt.Errorf("workout status: %w", err)
	}
	*s = WorkoutStatus(n)
	return nil
}

// ExerciseType classifies an exercise.
type ExerciseType int

const (
	ExerciseStrength ExerciseType = iota
	ExerciseCardio
	ExerciseFlexibility
	ExerciseBalance
	ExerciseOther
)

var exerciseTypeNames = []string{"Strength", "Cardio", "Flexibility", "Balance", "Other"}

func (t ExerciseType) String() string {
	if t < 0 || int(t) >= len(exerciseTypeNames) {
		return fmt.Sprintf("ExerciseType(%d)", int(t))
	}
	return exerciseTypeNames[t]
}

func (t ExerciseType) IsValid() bool {
	return t >= ExerciseStrength && t <= ExerciseOther
}

func (t *ExerciseType) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, exerciseTypeNames)
	if err != nil {
		return fmt.Errorf("exercise type: %w", err)
	}
	*t = ExerciseType(n)
	return nil
}

// decodeEnum accepts either the integer form or a case-insensitive name.
func decodeEnum(data []byte, names []string) (int, error) {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("value %d out of range", n)
		}
		return n, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("expected number or string, got %s", string(data))
	}
	for i, name := range names {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", s)
}
