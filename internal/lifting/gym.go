package lifting

import (
	"context"
	"errors"
	"fmt"

	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Gym struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type GymRepo struct {
	db *pgxpool.Pool
}

func NewGymRepo(db *pgxpool.Pool) *GymRepo {
	return &GymRepo{
		db: db,
	}
}

// Add inserts the gym. Gym names are unique; a duplicate name fails with
// ErrGymAlreadyExists and leaves the existing gym untouched.
func (r *GymRepo) Add(ctx context.Context, gym Gym) (_ *Gym, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.gym.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO lifting_gym (name, location)
			VALUES ($1, $2)
		RETURNING id;`,
		gym.Name, gym.Location,
	).Scan(&gym.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrGymAlreadyExists
		}
		return nil, fmt.Errorf("insert gym: %w", err)
	}

	span.SetAttributes(attribute.Int("gym.id", gym.ID))
	return &gym, nil
}

func (r *GymRepo) Update(ctx context.Context, gym *Gym) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.gym.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("gym.id", gym.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE lifting_gym SET name = $1, location = $2 WHERE id = $3;`,
		gym.Name, gym.Location, gym.ID,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrGymAlreadyExists
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrGymNotFound
	}

	return nil
}

func (r *GymRepo) Get(ctx context.Context, id int) (_ *Gym, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.gym.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("gym.id", id))

	var gym Gym
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, location FROM lifting_gym WHERE id = $1;`,
		id,
	).Scan(&gym.ID, &gym.Name, &gym.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}

	return &gym, nil
}

// gymByID resolves a gym inside or outside a transaction.
func gymByID(ctx context.Context, q querier, id int) (*Gym, error) {
	var gym Gym
	err := q.QueryRow(
		ctx,
		`SELECT id, name, location FROM lifting_gym WHERE id = $1;`,
		id,
	).Scan(&gym.ID, &gym.Name, &gym.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return &gym, nil
}

func (r *GymRepo) GetByName(ctx context.Context, name string) (_ *Gym, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.gym.getbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("gym.name", name))

	var gym Gym
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, location FROM lifting_gym WHERE name = $1;`,
		name,
	).Scan(&gym.ID, &gym.Name, &gym.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}

	return &gym, nil
}

func (r *GymRepo) List(ctx context.Context, params ListParams) (_ []Gym, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.lifting.gym.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", params.Name))
	span.SetAttributes(attribute.Int("skip", params.Skip))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	// the count query mirrors the filter of the listing query below
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifting_gym
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%');
	`, params.Name).Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count gyms: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, location FROM lifting_gym
			WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
			ORDER BY id ASC
			LIMIT $2 OFFSET $3;
	`, params.Name, params.Limit, params.Skip)
	if err != nil {
		return nil, -1, fmt.Errorf("query gyms: %w", err)
	}
	defer rows.Close()

	gyms := make([]Gym, 0)
	for rows.Next() {
		var g Gym
		if err := rows.Scan(&g.ID, &g.Name, &g.Location); err != nil {
			return nil, -1, err
		}
		gyms = append(gyms, g)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	return gyms, total, nil
}
