package lifting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gr72s/self/internal/telemetry/metrics"
)

func routineTestDeps(t *testing.T) (*routineRepoMock, *workoutRepoMock, *targetRepoMock) {
	t.Helper()
	gyms := newGymRepoMock()
	_, err := gyms.Add(context.Background(), Gym{Name: "Iron Temple", Location: "Kreuzberg"})
	require.NoError(t, err)

	targets := newTargetRepoMock()
	workouts := newWorkoutRepoMock(gyms, targets)
	return newRoutineRepoMock(targets, workouts), workouts, targets
}

func TestRoutineHandler_HandleCreate_Template(t *testing.T) {
	repo, _, targets := routineTestDeps(t)
	metricsManager := metrics.NewTestManager()
	handler := NewRoutineHandler(repo, metricsManager)

	target, err := targets.Add(context.Background(), Target{Name: "strength"})
	require.NoError(t, err)

	reqJson, err := json.Marshal(CreateRoutineParams{
		Name:      "Push Day",
		TargetIDs: []int{target.ID},
		Checklist: []ChecklistItem{
			{Name: "A", IsOptional: false},
		},
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/routine", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var routine Routine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routine))
	// no owning workout makes it a template
	assert.True(t, routine.Template)
	assert.Nil(t, routine.Workout)
	require.Len(t, routine.Targets, 1)
	assert.Equal(t, "strength", routine.Targets[0].Name)

	// checklist round trip, order and structure preserved
	require.Len(t, routine.Checklist, 1)
	assert.Equal(t, ChecklistItem{Name: "A", IsOptional: false}, routine.Checklist[0])

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterRoutinesCreated), 0.001)
}

func TestRoutineHandler_HandleCreate_BoundToWorkout(t *testing.T) {
	repo, workouts, _ := routineTestDeps(t)
	handler := NewRoutineHandler(repo, metrics.NewTestManager())

	workout, err := workouts.Create(context.Background(), CreateWorkoutParams{GymID: 1})
	require.NoError(t, err)

	reqJson, err := json.Marshal(CreateRoutineParams{
		Name:      "Today's Plan",
		WorkoutID: &workout.ID,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/routine", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var routine Routine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routine))
	assert.False(t, routine.Template)
	require.NotNil(t, routine.Workout)
	assert.Equal(t, workout.ID, routine.Workout.ID)
}

func TestRoutineHandler_HandleCreate_UnknownWorkout(t *testing.T) {
	repo, _, _ := routineTestDeps(t)
	handler := NewRoutineHandler(repo, metrics.NewTestManager())

	reqJson := []byte(`{"name":"Push Day","workoutId":42}`)
	req, err := http.NewRequest("POST", "/lifting/routine", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutineHandler_HandleCreateTemplate_IgnoresWorkoutID(t *testing.T) {
	repo, workouts, _ := routineTestDeps(t)
	handler := NewRoutineHandler(repo, metrics.NewTestManager())

	workout, err := workouts.Create(context.Background(), CreateWorkoutParams{GymID: 1})
	require.NoError(t, err)

	reqJson, err := json.Marshal(CreateRoutineParams{
		Name:      "Push Day",
		WorkoutID: &workout.ID,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/routine/template", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreateTemplate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var routine Routine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routine))
	assert.True(t, routine.Template)
	assert.Nil(t, routine.Workout)
}

func TestRoutineHandler_HandleUpdate_ReplacesTargetsWholesale(t *testing.T) {
	repo, _, targets := routineTestDeps(t)
	handler := NewRoutineHandler(repo, metrics.NewTestManager())

	strength, err := targets.Add(context.Background(), Target{Name: "strength"})
	require.NoError(t, err)
	hypertrophy, err := targets.Add(context.Background(), Target{Name: "hypertrophy"})
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), CreateRoutineParams{
		Name:      "Push Day",
		TargetIDs: []int{strength.ID},
	})
	require.NoError(t, err)
	assert.True(t, created.Template)

	reqJson, err := json.Marshal(UpdateRoutineParams{
		Name:      "Push Day v2",
		TargetIDs: []int{hypertrophy.ID},
		Checklist: []ChecklistItem{{Name: "bands", IsOptional: true}},
	})
	require.NoError(t, err)

	req, err := http.NewRequest("PUT", "/lifting/routine/1", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleUpdate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Routine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Push Day v2", updated.Name)
	require.Len(t, updated.Targets, 1)
	assert.Equal(t, "hypertrophy", updated.Targets[0].Name)
	// template flag survives updates untouched
	assert.True(t, updated.Template)
}

func TestRoutineHandler_HandleDelete(t *testing.T) {
	repo, _, _ := routineTestDeps(t)
	handler := NewRoutineHandler(repo, metrics.NewTestManager())

	_, err := repo.Create(context.Background(), CreateRoutineParams{Name: "Push Day"})
	require.NoError(t, err)

	req, err := http.NewRequest("DELETE", "/lifting/routine/1", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleDelete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.Routines)

	// second delete: gone already
	rec = httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
