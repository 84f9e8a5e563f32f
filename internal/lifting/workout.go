package lifting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gr72s/self/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Workout is one training session. It is "in process" while its start time
// falls on the current calendar day and its end time is still unset.
type Workout struct {
	ID        int        `json:"id"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Note      string     `json:"note,omitempty"`
	Gym       Gym        `json:"gym"`
	Targets   []Target   `json:"targets"`
	RoutineID *int       `json:"routineId,omitempty"`
}

type CreateWorkoutParams struct {
	StartTime *time.Time `json:"startTime"`
	GymID     int        `json:"gymId"`
	RoutineID *int       `json:"routineId"`
	TargetIDs []int      `json:"targetIds"`
	Note      string     `json:"note"`
}

// UpdateWorkoutParams carries a partial update: nil fields stay untouched,
// set fields fully replace the stored value (targets wholesale). Supplying
// EndTime is how a session gets stopped.
type UpdateWorkoutParams struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	GymID     *int       `json:"gymId"`
	RoutineID *int       `json:"routineId"`
	TargetIDs *[]int     `json:"targetIds"`
	Note      *string    `json:"note"`
}

type WorkoutListParams struct {
	From  *time.Time
	To    *time.Time
	Skip  int
	Limit int
}

type WorkoutRepo struct {
	db *pgxpool.Pool
}

func NewWorkoutRepo(db *pgxpool.Pool) *WorkoutRepo {
	return &WorkoutRepo{
		db: db,
	}
}

// Create starts a session: gym and targets resolved, start time defaulting
// to now, end time always unset. A given routine id binds that routine to
// the new workout, if it is still free.
func (r *WorkoutRepo) Create(ctx context.Context, params CreateWorkoutParams) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.workout.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	gym, err := gymByID(ctx, tx, params.GymID)
	if err != nil {
		return nil, err
	}

	targets, err := targetsByIDs(ctx, tx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	if params.StartTime != nil {
		startTime = *params.StartTime
	}

	var workoutID int
	err = tx.QueryRow(
		ctx,
		`INSERT INTO lifting_workout (start_time, end_time, gym_id, note)
			VALUES ($1, NULL, $2, NULLIF($3, ''))
		RETURNING id;`,
		startTime, params.GymID, params.Note,
	).Scan(&workoutID)
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	if params.RoutineID != nil {
		if err := bindRoutineToWorkout(ctx, tx, *params.RoutineID, workoutID); err != nil {
			return nil, err
		}
	}

	if err := insertWorkoutTargets(ctx, tx, workoutID, targets); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	span.SetAttributes(attribute.Int("workout.id", workoutID))

	return &Workout{
		ID:        workoutID,
		StartTime: &startTime,
		Note:      params.Note,
		Gym:       *gym,
		Targets:   targets,
		RoutineID: params.RoutineID,
	}, nil
}

// Update applies a partial update. A supplied routine id releases the
// workout's current routine (if different) and binds the new one.
func (r *WorkoutRepo) Update(ctx context.Context, id int, params UpdateWorkoutParams) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.workout.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := getWorkout(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	startTime := current.StartTime
	if params.StartTime != nil {
		startTime = params.StartTime
	}
	endTime := current.EndTime
	if params.EndTime != nil {
		endTime = params.EndTime
	}
	gymID := current.Gym.ID
	if params.GymID != nil {
		if _, err := gymByID(ctx, tx, *params.GymID); err != nil {
			return nil, err
		}
		gymID = *params.GymID
	}
	note := current.Note
	if params.Note != nil {
		note = *params.Note
	}

	_, err = tx.Exec(
		ctx,
		`UPDATE lifting_workout
			SET start_time = $1, end_time = $2, gym_id = $3, note = NULLIF($4, '')
			WHERE id = $5;`,
		startTime, endTime, gymID, note, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}

	if params.RoutineID != nil && (current.RoutineID == nil || *current.RoutineID != *params.RoutineID) {
		_, err = tx.Exec(ctx, `UPDATE lifting_routine SET workout_id = NULL WHERE workout_id = $1;`, id)
		if err != nil {
			return nil, fmt.Errorf("release workout routine: %w", err)
		}
		if err := bindRoutineToWorkout(ctx, tx, *params.RoutineID, id); err != nil {
			return nil, err
		}
	}

	if params.TargetIDs != nil {
		targets, err := targetsByIDs(ctx, tx, *params.TargetIDs)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM lifting_workout_target WHERE workout_id = $1;`, id); err != nil {
			return nil, fmt.Errorf("clear workout targets: %w", err)
		}
		if err := insertWorkoutTargets(ctx, tx, id, targets); err != nil {
			return nil, err
		}
	}

	workout, err := getWorkout(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return workout, nil
}

func (r *WorkoutRepo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.workout.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	return getWorkout(ctx, r.db, id)
}

// FindInProcess returns the most recently started workout of the current
// calendar day that has no end time yet, ErrWorkoutNotFound when there is
// none. Two sessions started in parallel can both look "in process"; the
// later start wins here and nothing prevents the race.
func (r *WorkoutRepo) FindInProcess(ctx context.Context, dayStart time.Time) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.workout.findinprocess")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = r.db.QueryRow(ctx, `
		SELECT id FROM lifting_workout
			WHERE start_time >= $1 AND end_time IS NULL
			ORDER BY start_time DESC
			LIMIT 1;
	`, dayStart).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("workout.id", id))
	return getWorkout(ctx, r.db, id)
}

func (r *WorkoutRepo) List(ctx context.Context, params WorkoutListParams) (_ []Workout, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.workout.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_workout
			WHERE ($1::timestamptz IS NULL OR start_time >= $1)
				AND ($2::timestamptz IS NULL OR start_time <= $2);
	`, params.From, params.To).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count workouts: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id FROM lifting_workout
			WHERE ($1::timestamptz IS NULL OR start_time >= $1)
				AND ($2::timestamptz IS NULL OR start_time <= $2)
			ORDER BY start_time DESC
			LIMIT $3 OFFSET $4;
	`, params.From, params.To, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query workouts: %w", err)
	}

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, -1, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	workouts := make([]Workout, 0, len(ids))
	for _, id := range ids {
		workout, err := getWorkout(ctx, r.db, id)
		if err != nil {
			return nil, -1, err
		}
		workouts = append(workouts, *workout)
	}

	return workouts, total, nil
}

func getWorkout(ctx context.Context, q querier, id int) (*Workout, error) {
	var (
		workout Workout
		gymID   int
	)
	err := q.QueryRow(
		ctx,
		`SELECT id, start_time, end_time, gym_id, COALESCE(note, '')
			FROM lifting_workout
			WHERE id = $1;`,
		id,
	).Scan(&workout.ID, &workout.StartTime, &workout.EndTime, &gymID, &workout.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	gym, err := gymByID(ctx, q, gymID)
	if err != nil {
		return nil, err
	}
	workout.Gym = *gym

	workout.Targets, err = workoutTargets(ctx, q, id)
	if err != nil {
		return nil, err
	}

	// the routine link lives on the routine side of the one-to-one
	var routineID int
	err = q.QueryRow(
		ctx,
		`SELECT id FROM lifting_routine WHERE workout_id = $1;`,
		id,
	).Scan(&routineID)
	switch {
	case err == nil:
		workout.RoutineID = &routineID
	case errors.Is(err, pgx.ErrNoRows):
		// no routine bound, fine
	default:
		return nil, err
	}

	return &workout, nil
}

func insertWorkoutTargets(ctx context.Context, q querier, workoutID int, targets []Target) error {
	for _, t := range targets {
		_, err := q.Exec(
			ctx,
			`INSERT INTO lifting_workout_target (workout_id, target_id) VALUES ($1, $2);`,
			workoutID, t.ID,
		)
		if err != nil {
			return fmt.Errorf("insert workout target link: %w", err)
		}
	}
	return nil
}

func workoutTargets(ctx context.Context, q querier, workoutID int) ([]Target, error) {
	rows, err := q.Query(ctx, `
		SELECT t.id, t.name
			FROM lifting_target t
			JOIN lifting_workout_target wt ON wt.target_id = t.id
			WHERE wt.workout_id = $1
			ORDER BY t.id ASC;
	`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("query workout targets: %w", err)
	}
	defer rows.Close()

	targets := make([]Target, 0)
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
