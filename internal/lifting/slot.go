package lifting

import (
	"context"
	"errors"
	"fmt"

	"github.com/gr72s/self/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Slot is one ordered exercise entry inside a routine. Sequence is a plain
// sort key supplied by the caller: duplicates and gaps are fine, ties fall
// back to insertion order.
type Slot struct {
	ID        int      `json:"id"`
	RoutineID int      `json:"routineId"`
	Exercise  Exercise `json:"exercise"`
	Stars     int      `json:"stars"`
	Category  Category `json:"category"`
	SetNumber int      `json:"setNumber"`
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	Duration  int      `json:"duration"`
	Sequence  int      `json:"sequence"`
}

type CreateSlotParams struct {
	RoutineID  int      `json:"routineId"`
	ExerciseID int      `json:"exerciseId"`
	Stars      int      `json:"stars"`
	Category   Category `json:"category"`
	SetNumber  int      `json:"setNumber"`
	Weight     float64  `json:"weight"`
	Reps       int      `json:"reps"`
	Duration   int      `json:"duration"`
	Sequence   int      `json:"sequence"`
}

type SlotRepo struct {
	db *pgxpool.Pool
}

func NewSlotRepo(db *pgxpool.Pool) *SlotRepo {
	return &SlotRepo{
		db: db,
	}
}

// Create persists a slot after resolving its routine and exercise. An empty
// category falls back to WorkingSets, anything else must be a known value.
func (r *SlotRepo) Create(ctx context.Context, params CreateSlotParams) (_ *Slot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.slot.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("slot.routineId", params.RoutineID))
	span.SetAttributes(attribute.Int("slot.exerciseId", params.ExerciseID))

	if params.Category == "" {
		params.Category = CategoryWorkingSets
	}
	if !params.Category.IsValid() {
		return nil, ErrInvalidCategory
	}

	var routineExists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM lifting_routine WHERE id = $1);`,
		params.RoutineID,
	).Scan(&routineExists)
	if err != nil {
		return nil, err
	}
	if !routineExists {
		return nil, ErrRoutineNotFound
	}

	exercise, err := getExercise(ctx, r.db, params.ExerciseID)
	if err != nil {
		return nil, err
	}

	slot := Slot{
		RoutineID: params.RoutineID,
		Exercise:  *exercise,
		Stars:     params.Stars,
		Category:  params.Category,
		SetNumber: params.SetNumber,
		Weight:    params.Weight,
		Reps:      params.Reps,
		Duration:  params.Duration,
		Sequence:  params.Sequence,
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO lifting_slot (routine_id, exercise_id, stars, category, set_number, weight, reps, duration, sequence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		params.RoutineID, params.ExerciseID, params.Stars, params.Category.String(),
		params.SetNumber, params.Weight, params.Reps, params.Duration, params.Sequence,
	).Scan(&slot.ID)
	if err != nil {
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	span.SetAttributes(attribute.Int("slot.id", slot.ID))
	return &slot, nil
}

func (r *SlotRepo) Get(ctx context.Context, id int) (_ *Slot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.slot.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("slot.id", id))

	var (
		slot       Slot
		exerciseID int
		category   string
	)
	err = r.db.QueryRow(
		ctx,
		`SELECT id, routine_id, exercise_id, stars, category, set_number, weight, reps, duration, sequence
			FROM lifting_slot
			WHERE id = $1;`,
		id,
	).Scan(&slot.ID, &slot.RoutineID, &exerciseID, &slot.Stars, &category,
		&slot.SetNumber, &slot.Weight, &slot.Reps, &slot.Duration, &slot.Sequence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	slot.Category = Category(category)

	exercise, err := getExercise(ctx, r.db, exerciseID)
	if err != nil {
		return nil, err
	}
	slot.Exercise = *exercise

	return &slot, nil
}

// GetByRoutine returns the routine's slots in execution order.
func (r *SlotRepo) GetByRoutine(ctx context.Context, routineID int) (_ []Slot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.slot.getbyroutine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("slot.routineId", routineID))

	var routineExists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM lifting_routine WHERE id = $1);`,
		routineID,
	).Scan(&routineExists)
	if err != nil {
		return nil, err
	}
	if !routineExists {
		return nil, ErrRoutineNotFound
	}

	return slotsByRoutine(ctx, r.db, routineID)
}

// slotsByRoutine lists a routine's slots ordered by sequence; the serial id
// breaks sequence ties, preserving insertion order.
func slotsByRoutine(ctx context.Context, q querier, routineID int) ([]Slot, error) {
	rows, err := q.Query(ctx, `
		SELECT id, exercise_id, stars, category, set_number, weight, reps, duration, sequence
			FROM lifting_slot
			WHERE routine_id = $1
			ORDER BY sequence ASC, id ASC;
	`, routineID)
	if err != nil {
		return nil, fmt.Errorf("query routine slots: %w", err)
	}

	type slotRow struct {
		slot       Slot
		exerciseID int
	}
	slotRows := make([]slotRow, 0)
	for rows.Next() {
		var (
			sr       slotRow
			category string
		)
		if err := rows.Scan(&sr.slot.ID, &sr.exerciseID, &sr.slot.Stars, &category,
			&sr.slot.SetNumber, &sr.slot.Weight, &sr.slot.Reps, &sr.slot.Duration, &sr.slot.Sequence); err != nil {
			rows.Close()
			return nil, err
		}
		sr.slot.RoutineID = routineID
		sr.slot.Category = Category(category)
		slotRows = append(slotRows, sr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(slotRows))
	for _, sr := range slotRows {
		exercise, err := getExercise(ctx, q, sr.exerciseID)
		if err != nil {
			return nil, err
		}
		sr.slot.Exercise = *exercise
		slots = append(slots, sr.slot)
	}

	return slots, nil
}
