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

type Muscle struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Function    string `json:"function,omitempty"`
	OriginName  string `json:"originName,omitempty"`
}

type MuscleRepo struct {
	db *pgxpool.Pool
}

func NewMuscleRepo(db *pgxpool.Pool) *MuscleRepo {
	return &MuscleRepo{
		db: db,
	}
}

func (r *MuscleRepo) Add(ctx context.Context, muscle Muscle) (_ *Muscle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.muscle.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO lifting_muscle (name, description, function, origin_name)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id;`,
		muscle.Name, muscle.Description, muscle.Function, muscle.OriginName,
	).Scan(&muscle.ID)
	if err != nil {
		return nil, fmt.Errorf("insert muscle: %w", err)
	}

	span.SetAttributes(attribute.Int("muscle.id", muscle.ID))
	return &muscle, nil
}

func (r *MuscleRepo) Update(ctx context.Context, muscle *Muscle) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.muscle.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("muscle.id", muscle.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE lifting_muscle
			SET name = $1, description = NULLIF($2, ''), function = NULLIF($3, ''), origin_name = NULLIF($4, '')
			WHERE id = $5;`,
		muscle.Name, muscle.Description, muscle.Function, muscle.OriginName, muscle.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrMuscleNotFound
	}

	return nil
}

func (r *MuscleRepo) Get(ctx context.Context, id int) (_ *Muscle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.muscle.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("muscle.id", id))

	var muscle Muscle
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, COALESCE(description, ''), COALESCE(function, ''), COALESCE(origin_name, '')
			FROM lifting_muscle
			WHERE id = $1;`,
		id,
	).Scan(&muscle.ID, &muscle.Name, &muscle.Description, &muscle.Function, &muscle.OriginName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMuscleNotFound
		}
		return nil, err
	}

	return &muscle, nil
}

// musclesByIDs resolves the given muscle ids, in the given order. Fails with
// ErrMuscleNotFound as soon as an id does not exist.
func musclesByIDs(ctx context.Context, q querier, ids []int) ([]Muscle, error) {
	muscles := make([]Muscle, 0, len(ids))
	for _, id := range ids {
		var m Muscle
		err := q.QueryRow(
			ctx,
			`SELECT id, name, COALESCE(description, ''), COALESCE(function, ''), COALESCE(origin_name, '')
				FROM lifting_muscle
				WHERE id = $1;`,
			id,
		).Scan(&m.ID, &m.Name, &m.Description, &m.Function, &m.OriginName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrMuscleNotFound
			}
			return nil, err
		}
		muscles = append(muscles, m)
	}
	return muscles, nil
}

func (r *MuscleRepo) List(ctx context.Context, params ListParams) (_ []Muscle, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.muscle.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", params.Name))
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_muscle
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%');
	`, params.Name).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count muscles: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(function, ''), COALESCE(origin_name, '')
			FROM lifting_muscle
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
			ORDER BY id ASC
			LIMIT $2 OFFSET $3;
	`, params.Name, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query muscles: %w", err)
	}
	defer rows.Close()

	muscles := make([]Muscle, 0)
	for rows.Next() {
		var m Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Function, &m.OriginName); err != nil {
			return nil, -1, err
		}
		muscles = append(muscles, m)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	return muscles, total, nil
}
