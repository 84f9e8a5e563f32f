package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS lifting_muscle (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	function    TEXT,
	origin_name TEXT
);

CREATE TABLE IF NOT EXISTS lifting_target (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lifting_gym (
	id       BIGSERIAL PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	location TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lifting_exercise (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	cues        JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS lifting_exercise_main_muscle (
	exercise_id BIGINT NOT NULL REFERENCES lifting_exercise(id) ON DELETE CASCADE,
	muscle_id   BIGINT NOT NULL REFERENCES lifting_muscle(id),
	PRIMARY KEY (exercise_id, muscle_id)
);

CREATE TABLE IF NOT EXISTS lifting_exercise_support_muscle (
	exercise_id BIGINT NOT NULL REFERENCES lifting_exercise(id) ON DELETE CASCADE,
	muscle_id   BIGINT NOT NULL REFERENCES lifting_muscle(id),
	PRIMARY KEY (exercise_id, muscle_id)
);

CREATE TABLE IF NOT EXISTS lifting_workout (
	id         BIGSERIAL PRIMARY KEY,
	start_time TIMESTAMPTZ,
	end_time   TIMESTAMPTZ,
	gym_id     BIGINT NOT NULL REFERENCES lifting_gym(id),
	note       TEXT
);

CREATE TABLE IF NOT EXISTS lifting_workout_target (
	workout_id BIGINT NOT NULL REFERENCES lifting_workout(id) ON DELETE CASCADE,
	target_id  BIGINT NOT NULL REFERENCES lifting_target(id),
	PRIMARY KEY (workout_id, target_id)
);

CREATE TABLE IF NOT EXISTS lifting_routine (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	template    BOOLEAN NOT NULL,
	workout_id  BIGINT UNIQUE REFERENCES lifting_workout(id),
	checklist   JSONB NOT NULL DEFAULT '[]',
	note        TEXT
);

CREATE TABLE IF NOT EXISTS lifting_routine_target (
	routine_id BIGINT NOT NULL REFERENCES lifting_routine(id) ON DELETE CASCADE,
	target_id  BIGINT NOT NULL REFERENCES lifting_target(id),
	PRIMARY KEY (routine_id, target_id)
);

CREATE TABLE IF NOT EXISTS lifting_slot (
	id          BIGSERIAL PRIMARY KEY,
	routine_id  BIGINT NOT NULL REFERENCES lifting_routine(id) ON DELETE CASCADE,
	exercise_id BIGINT NOT NULL REFERENCES lifting_exercise(id),
	stars       INT NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT 'WorkingSets',
	set_number  INT NOT NULL DEFAULT 0,
	weight      DOUBLE PRECISION NOT NULL DEFAULT 0,
	reps        INT NOT NULL DEFAULT 0,
	duration    INT NOT NULL DEFAULT 0,
	sequence    INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS lifting_slot_routine_idx ON lifting_slot (routine_id, sequence);
CREATE INDEX IF NOT EXISTS lifting_workout_start_time_idx ON lifting_workout (start_time DESC);
`

// Migrate ensures all lifting tables exist. Call once at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
