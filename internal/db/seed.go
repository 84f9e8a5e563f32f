package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type seedMuscle struct {
	name        string
	description string
	function    string
	originName  string
}

// default muscle catalog, inserted once into an empty database
var defaultMuscles = []seedMuscle{
	{"Pectoralis Major", "Large fan-shaped chest muscle", "Shoulder flexion, adduction and internal rotation", "musculus pectoralis major"},
	{"Latissimus Dorsi", "Broad back muscle", "Shoulder extension, adduction and internal rotation", "musculus latissimus dorsi"},
	{"Trapezius", "Upper back / neck muscle", "Scapular elevation, retraction and depression", "musculus trapezius"},
	{"Deltoid", "Shoulder cap muscle", "Arm abduction, flexion and extension", "musculus deltoideus"},
	{"Biceps Brachii", "Front upper arm muscle", "Elbow flexion and forearm supination", "musculus biceps brachii"},
	{"Triceps Brachii", "Rear upper arm muscle", "Elbow extension", "musculus triceps brachii"},
	{"Rectus Abdominis", "Front abdominal wall muscle", "Trunk flexion", "musculus rectus abdominis"},
	{"Erector Spinae", "Deep back muscle group", "Trunk extension and lateral flexion", "musculus erector spinae"},
	{"Gluteus Maximus", "Largest gluteal muscle", "Hip extension and external rotation", "musculus gluteus maximus"},
	{"Quadriceps Femoris", "Front thigh muscle group", "Knee extension and hip flexion", "musculus quadriceps femoris"},
	{"Hamstrings", "Rear thigh muscle group", "Knee flexion and hip extension", ""},
	{"Gastrocnemius", "Calf muscle", "Ankle plantar flexion and knee flexion", "musculus gastrocnemius"},
	{"Soleus", "Deep calf muscle", "Ankle plantar flexion", "musculus soleus"},
	{"Forearm Flexors", "Inner forearm muscle group", "Wrist and finger flexion, grip", ""},
}

// SeedMuscles inserts the default muscle catalog when the table is empty.
func SeedMuscles(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM lifting_muscle`).Scan(&count); err != nil {
		return fmt.Errorf("count muscles: %w", err)
	}
	if count > 0 {
		log.Debugf("muscle catalog already present [%d rows], skipping seed", count)
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range defaultMuscles {
		batch.Queue(
			`INSERT INTO lifting_muscle (name, description, function, origin_name) VALUES ($1, $2, $3, $4)`,
			m.name, m.description, m.function, m.originName,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			log.Errorf("close muscle seed batch: %s", err)
		}
	}()

	for range defaultMuscles {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("seed muscle: %w", err)
		}
	}

	log.Infof("muscle catalog seeded with %d muscles", len(defaultMuscles))
	return nil
}
