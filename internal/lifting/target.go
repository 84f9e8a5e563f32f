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

// Target is a training goal (e.g. strength, hypertrophy) that routines and
// workouts can be tagged with.
type Target struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TargetRepo struct {
	db *pgxpool.Pool
}

func NewTargetRepo(db *pgxpool.Pool) *TargetRepo {
	return &TargetRepo{
		db: db,
	}
}

func (r *TargetRepo) Add(ctx context.Context, target Target) (_ *Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.target.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO lifting_target (name) VALUES ($1) RETURNING id;`,
		target.Name,
	).Scan(&target.ID)
	if err != nil {
		return nil, fmt.Errorf("insert target: %w", err)
	}

	span.SetAttributes(attribute.Int("target.id", target.ID))
	return &target, nil
}

func (r *TargetRepo) Update(ctx context.Context, target *Target) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.target.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("target.id", target.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE lifting_target SET name = $1 WHERE id = $2;`,
		target.Name, target.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}

	return nil
}

func (r *TargetRepo) Get(ctx context.Context, id int) (_ *Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.target.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("target.id", id))

	var target Target
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name FROM lifting_target WHERE id = $1;`,
		id,
	).Scan(&target.ID, &target.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	return &target, nil
}

// targetsByIDs resolves the given target ids, in the given order. Fails with
// ErrTargetNotFound as soon as an id does not exist.
func targetsByIDs(ctx context.Context, q querier, ids []int) ([]Target, error) {
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		var t Target
		err := q.QueryRow(
			ctx,
			`SELECT id, name FROM lifting_target WHERE id = $1;`,
			id,
		).Scan(&t.ID, &t.Name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTargetNotFound
			}
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (r *TargetRepo) List(ctx context.Context, params ListParams) (_ []Target, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.target.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", params.Name))
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_target
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%');
	`, params.Name).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count targets: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name FROM lifting_target
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
			ORDER BY id ASC
			LIMIT $2 OFFSET $3;
	`, params.Name, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	targets := make([]Target, 0)
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, -1, err
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	return targets, total, nil
}
