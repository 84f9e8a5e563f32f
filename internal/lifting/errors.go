package lifting

import "errors"

var (
	ErrMuscleNotFound   = errors.New("muscle not found")
	ErrGymNotFound      = errors.New("gym not found")
	ErrGymAlreadyExists = errors.New("gym with that name already exists")
	ErrTargetNotFound   = errors.New("target not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrSlotNotFound     = errors.New("slot not found")

	// ErrRoutineAlreadyBound is returned when a workout tries to take
	// ownership of a routine that already belongs to another workout.
	ErrRoutineAlreadyBound = errors.New("routine already bound to a workout")

	ErrInvalidCategory = errors.New("invalid slot category")
)
