package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ChecklistItem is one entry of a routine's ordered preparation checklist.
type ChecklistItem struct {
	Name       string `json:"name"`
	IsOptional bool   `json:"isOptional"`
}

// RoutineWorkout is the summary of the workout a routine is bound to.
type RoutineWorkout struct {
	ID        int        `json:"id"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	GymID     int        `json:"gymId"`
}

// Routine is a training plan. A routine created without an owning workout is
// a reusable template; one created under a workout is that session's live
// plan. The template flag is fixed at creation and never re-evaluated.
type Routine struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Template    bool            `json:"template"`
	Note        string          `json:"note,omitempty"`
	Checklist   []ChecklistItem `json:"checklist"`
	Targets     []Target        `json:"targets"`
	Slots       []Slot          `json:"slots"`
	Workout     *RoutineWorkout `json:"workout,omitempty"`
}

type CreateRoutineParams struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	WorkoutID   *int            `json:"workoutId"`
	TargetIDs   []int           `json:"targetIds"`
	Checklist   []ChecklistItem `json:"checklist"`
	Note        string          `json:"note"`
}

type UpdateRoutineParams struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	TargetIDs   []int           `json:"targetIds"`
	Checklist   []ChecklistItem `json:"checklist"`
	Note        string          `json:"note"`
}

type RoutineRepo struct {
	db *pgxpool.Pool
}

func NewRoutineRepo(db *pgxpool.Pool) *RoutineRepo {
	return &RoutineRepo{
		db: db,
	}
}

// Create inserts a routine together with its target associations. The
// template flag derives from the absence of an owning workout and is never
// changed afterwards.
func (r *RoutineRepo) Create(ctx context.Context, params CreateRoutineParams) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.routine.create")
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

	targets, err := targetsByIDs(ctx, tx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	var workout *RoutineWorkout
	if params.WorkoutID != nil {
		workout, err = routineWorkoutByID(ctx, tx, *params.WorkoutID)
		if err != nil {
			return nil, err
		}
	}

	checklist := params.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	checklistJson, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}

	template := params.WorkoutID == nil

	var routineID int
	err = tx.QueryRow(
		ctx,
		`INSERT INTO lifting_routine (name, description, template, workout_id, checklist, note)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''))
		RETURNING id;`,
		params.Name, params.Description, template, params.WorkoutID, checklistJson, params.Note,
	).Scan(&routineID)
	if err != nil {
		// unique workout_id: that workout already owns a routine
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrRoutineAlreadyBound
		}
		return nil, fmt.Errorf("insert routine: %w", err)
	}

	if err := insertRoutineTargets(ctx, tx, routineID, targets); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	span.SetAttributes(attribute.Int("routine.id", routineID))
	span.SetAttributes(attribute.Bool("routine.template", template))

	return &Routine{
		ID:          routineID,
		Name:        params.Name,
		Description: params.Description,
		Template:    template,
		Note:        params.Note,
		Checklist:   checklist,
		Targets:     targets,
		Slots:       []Slot{},
		Workout:     workout,
	}, nil
}

// CreateTemplate creates a standalone routine, never bound to a workout.
func (r *RoutineRepo) CreateTemplate(ctx context.Context, params CreateRoutineParams) (*Routine, error) {
	params.WorkoutID = nil
	return r.Create(ctx, params)
}

// Update replaces the routine scalars and checklist and wholesale-replaces
// the target set. The workout link and template flag are left untouched.
func (r *RoutineRepo) Update(ctx context.Context, id int, params UpdateRoutineParams) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.routine.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	targets, err := targetsByIDs(ctx, tx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	checklist := params.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	checklistJson, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}

	tag, err := tx.Exec(
		ctx,
		`UPDATE lifting_routine
			SET name = $1, description = NULLIF($2, ''), checklist = $3, note = NULLIF($4, '')
			WHERE id = $5;`,
		params.Name, params.Description, checklistJson, params.Note, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRoutineNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lifting_routine_target WHERE routine_id = $1;`, id); err != nil {
		return nil, fmt.Errorf("clear routine targets: %w", err)
	}
	if err := insertRoutineTargets(ctx, tx, id, targets); err != nil {
		return nil, err
	}

	routine, err := getRoutine(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return routine, nil
}

func (r *RoutineRepo) Get(ctx context.Context, id int) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.routine.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", id))

	return getRoutine(ctx, r.db, id)
}

func getRoutine(ctx context.Context, q querier, id int) (*Routine, error) {
	var (
		routine       Routine
		workoutID     *int
		checklistJson []byte
	)
	err := q.QueryRow(
		ctx,
		`SELECT id, name, COALESCE(description, ''), template, workout_id, checklist, COALESCE(note, '')
			FROM lifting_routine
			WHERE id = $1;`,
		id,
	).Scan(&routine.ID, &routine.Name, &routine.Description, &routine.Template, &workoutID, &checklistJson, &routine.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}

	// a corrupted checklist degrades to an empty list, it never fails the read
	if err := json.Unmarshal(checklistJson, &routine.Checklist); err != nil {
		log.Warnf("routine %d: malformed checklist blob, treating as empty: %s", id, err)
		routine.Checklist = []ChecklistItem{}
	}
	if routine.Checklist == nil {
		routine.Checklist = []ChecklistItem{}
	}

	routine.Targets, err = routineTargets(ctx, q, id)
	if err != nil {
		return nil, err
	}

	routine.Slots, err = slotsByRoutine(ctx, q, id)
	if err != nil {
		return nil, err
	}

	if workoutID != nil {
		routine.Workout, err = routineWorkoutByID(ctx, q, *workoutID)
		if err != nil {
			return nil, err
		}
	}

	return &routine, nil
}

func (r *RoutineRepo) List(ctx context.Context, params ListParams) (_ []Routine, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.routine.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", params.Name))
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_routine
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%');
	`, params.Name).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count routines: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id FROM lifting_routine
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
			ORDER BY id ASC
			LIMIT $2 OFFSET $3;
	`, params.Name, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query routines: %w", err)
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

	routines := make([]Routine, 0, len(ids))
	for _, id := range ids {
		routine, err := getRoutine(ctx, r.db, id)
		if err != nil {
			return nil, -1, err
		}
		routines = append(routines, *routine)
	}

	return routines, total, nil
}

// Delete removes the routine; its slots go with it (FK cascade).
func (r *RoutineRepo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.routine.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM lifting_routine WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoutineNotFound
	}

	return nil
}

func insertRoutineTargets(ctx context.Context, q querier, routineID int, targets []Target) error {
	for _, t := range targets {
		_, err := q.Exec(
			ctx,
			`INSERT INTO lifting_routine_target (routine_id, target_id) VALUES ($1, $2);`,
			routineID, t.ID,
		)
		if err != nil {
			return fmt.Errorf("insert routine target link: %w", err)
		}
	}
	return nil
}

func routineTargets(ctx context.Context, q querier, routineID int) ([]Target, error) {
	rows, err := q.Query(ctx, `
		SELECT t.id, t.name
			FROM lifting_target t
			JOIN lifting_routine_target rt ON rt.target_id = t.id
			WHERE rt.routine_id = $1
			ORDER BY t.id ASC;
	`, routineID)
	if err != nil {
		return nil, fmt.Errorf("query routine targets: %w", err)
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

func routineWorkoutByID(ctx context.Context, q querier, workoutID int) (*RoutineWorkout, error) {
	var w RoutineWorkout
	err := q.QueryRow(
		ctx,
		`SELECT id, start_time, end_time, gym_id FROM lifting_workout WHERE id = $1;`,
		workoutID,
	).Scan(&w.ID, &w.StartTime, &w.EndTime, &w.GymID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return &w, nil
}

// bindRoutineToWorkout sets the workout ownership of a free routine. A
// routine already bound to some workout stays bound, the caller gets
// ErrRoutineAlreadyBound. The template flag keeps whatever value it got at
// creation.
func bindRoutineToWorkout(ctx context.Context, q querier, routineID, workoutID int) error {
	tag, err := q.Exec(
		ctx,
		`UPDATE lifting_routine
			SET workout_id = $1
			WHERE id = $2 AND workout_id IS NULL;`,
		workoutID, routineID,
	)
	if err != nil {
		return fmt.Errorf("bind routine to workout: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// zero rows: either the routine does not exist or it is already taken
	var exists bool
	if err := q.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM lifting_routine WHERE id = $1);`,
		routineID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrRoutineNotFound
	}
	return ErrRoutineAlreadyBound
}
