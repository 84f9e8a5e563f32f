package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gr72s/self/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Exercise is a catalog entry: a movement with its primary and supporting
// muscles and an ordered list of coaching cues. Cues are stored as a JSONB
// array so a cue is free to contain any character.
type Exercise struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Cues           []string `json:"cues"`
	MainMuscles    []Muscle `json:"mainMuscles"`
	SupportMuscles []Muscle `json:"supportMuscles"`
}

// ExerciseParams carries the client-side shape of an exercise, with muscles
// given by id. The same muscle may appear in both sets.
type ExerciseParams struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Cues             []string `json:"cues"`
	MainMuscleIDs    []int    `json:"mainMuscleIds"`
	SupportMuscleIDs []int    `json:"supportMuscleIds"`
}

type ExerciseRepo struct {
	db *pgxpool.Pool
}

func NewExerciseRepo(db *pgxpool.Pool) *ExerciseRepo {
	return &ExerciseRepo{
		db: db,
	}
}

// Add resolves all referenced muscles, then inserts the exercise and both
// association sets in a single transaction.
func (r *ExerciseRepo) Add(ctx context.Context, params ExerciseParams) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.exercise.add")
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

	mainMuscles, err := musclesByIDs(ctx, tx, params.MainMuscleIDs)
	if err != nil {
		return nil, err
	}
	supportMuscles, err := musclesByIDs(ctx, tx, params.SupportMuscleIDs)
	if err != nil {
		return nil, err
	}

	cues := params.Cues
	if cues == nil {
		cues = []string{}
	}
	cuesJson, err := json.Marshal(cues)
	if err != nil {
		return nil, fmt.Errorf("marshal cues: %w", err)
	}

	var exerciseID int
	err = tx.QueryRow(
		ctx,
		`INSERT INTO lifting_exercise (name, description, cues)
			VALUES ($1, NULLIF($2, ''), $3)
		RETURNING id;`,
		params.Name, params.Description, cuesJson,
	).Scan(&exerciseID)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	if err := insertExerciseMuscles(ctx, tx, exerciseID, mainMuscles, supportMuscles); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	return &Exercise{
		ID:             exerciseID,
		Name:           params.Name,
		Description:    params.Description,
		Cues:           cues,
		MainMuscles:    mainMuscles,
		SupportMuscles: supportMuscles,
	}, nil
}

// Update replaces the exercise scalars and wholesale-replaces both muscle
// association sets, all in one transaction.
func (r *ExerciseRepo) Update(ctx context.Context, id int, params ExerciseParams) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.exercise.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	mainMuscles, err := musclesByIDs(ctx, tx, params.MainMuscleIDs)
	if err != nil {
		return nil, err
	}
	supportMuscles, err := musclesByIDs(ctx, tx, params.SupportMuscleIDs)
	if err != nil {
		return nil, err
	}

	cues := params.Cues
	if cues == nil {
		cues = []string{}
	}
	cuesJson, err := json.Marshal(cues)
	if err != nil {
		return nil, fmt.Errorf("marshal cues: %w", err)
	}

	tag, err := tx.Exec(
		ctx,
		`UPDATE lifting_exercise
			SET name = $1, description = NULLIF($2, ''), cues = $3
			WHERE id = $4;`,
		params.Name, params.Description, cuesJson, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrExerciseNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lifting_exercise_main_muscle WHERE exercise_id = $1;`, id); err != nil {
		return nil, fmt.Errorf("clear main muscles: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM lifting_exercise_support_muscle WHERE exercise_id = $1;`, id); err != nil {
		return nil, fmt.Errorf("clear support muscles: %w", err)
	}
	if err := insertExerciseMuscles(ctx, tx, id, mainMuscles, supportMuscles); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &Exercise{
		ID:             id,
		Name:           params.Name,
		Description:    params.Description,
		Cues:           cues,
		MainMuscles:    mainMuscles,
		SupportMuscles: supportMuscles,
	}, nil
}

func insertExerciseMuscles(ctx context.Context, q querier, exerciseID int, main, support []Muscle) error {
	for _, m := range main {
		_, err := q.Exec(
			ctx,
			`INSERT INTO lifting_exercise_main_muscle (exercise_id, muscle_id) VALUES ($1, $2);`,
			exerciseID, m.ID,
		)
		if err != nil {
			return fmt.Errorf("insert main muscle link: %w", err)
		}
	}
	for _, m := range support {
		_, err := q.Exec(
			ctx,
			`INSERT INTO lifting_exercise_support_muscle (exercise_id, muscle_id) VALUES ($1, $2);`,
			exerciseID, m.ID,
		)
		if err != nil {
			return fmt.Errorf("insert support muscle link: %w", err)
		}
	}
	return nil
}

func (r *ExerciseRepo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.exercise.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", id))

	return getExercise(ctx, r.db, id)
}

func getExercise(ctx context.Context, q querier, id int) (*Exercise, error) {
	var (
		exercise Exercise
		cuesJson []byte
	)
	err := q.QueryRow(
		ctx,
		`SELECT id, name, COALESCE(description, ''), cues
			FROM lifting_exercise
			WHERE id = $1;`,
		id,
	).Scan(&exercise.ID, &exercise.Name, &exercise.Description, &cuesJson)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(cuesJson, &exercise.Cues); err != nil {
		return nil, fmt.Errorf("decode cues: %w", err)
	}

	exercise.MainMuscles, err = exerciseMuscles(ctx, q, id, "lifting_exercise_main_muscle")
	if err != nil {
		return nil, err
	}
	exercise.SupportMuscles, err = exerciseMuscles(ctx, q, id, "lifting_exercise_support_muscle")
	if err != nil {
		return nil, err
	}

	return &exercise, nil
}

func exerciseMuscles(ctx context.Context, q querier, exerciseID int, joinTable string) ([]Muscle, error) {
	rows, err := q.Query(ctx, `
		SELECT m.id, m.name, COALESCE(m.description, ''), COALESCE(m.function, ''), COALESCE(m.origin_name, '')
			FROM lifting_muscle m
			JOIN `+joinTable+` em ON em.muscle_id = m.id
			WHERE em.exercise_id = $1
			ORDER BY m.id ASC;
	`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query exercise muscles: %w", err)
	}
	defer rows.Close()

	muscles := make([]Muscle, 0)
	for rows.Next() {
		var m Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Function, &m.OriginName); err != nil {
			return nil, err
		}
		muscles = append(muscles, m)
	}
	return muscles, rows.Err()
}

func (r *ExerciseRepo) List(ctx context.Context, params ListParams) (_ []Exercise, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.exercise.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", params.Name))
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_exercise
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%');
	`, params.Name).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count exercises: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id FROM lifting_exercise
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
			ORDER BY id ASC
			LIMIT $2 OFFSET $3;
	`, params.Name, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query exercises: %w", err)
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

	exercises := make([]Exercise, 0, len(ids))
	for _, id := range ids {
		exercise, err := getExercise(ctx, r.db, id)
		if err != nil {
			return nil, -1, err
		}
		exercises = append(exercises, *exercise)
	}

	return exercises, total, nil
}
