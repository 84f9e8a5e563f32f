package lifting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gr72s/self/internal/telemetry/metrics"
)

func workoutTestDeps(t *testing.T) (*workoutRepoMock, *gymRepoMock, *targetRepoMock) {
	t.Helper()
	gyms := newGymRepoMock()
	_, err := gyms.Add(context.Background(), Gym{Name: "Iron Temple", Location: "Kreuzberg"})
	require.NoError(t, err)
	targets := newTargetRepoMock()
	return newWorkoutRepoMock(gyms, targets), gyms, targets
}

func TestWorkoutHandler_HandleCreate(t *testing.T) {
	repo, _, targets := workoutTestDeps(t)
	metricsManager := metrics.NewTestManager()
	handler := NewWorkoutHandler(repo, metricsManager)

	target, err := targets.Add(context.Background(), Target{Name: "strength"})
	require.NoError(t, err)

	reqJson, err := json.Marshal(CreateWorkoutParams{
		GymID:     1,
		TargetIDs: []int{target.ID},
		Note:      "morning session",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/workout", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var workout Workout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &workout))
	// start time defaults to now, end time always unset at creation
	require.NotNil(t, workout.StartTime)
	assert.WithinDuration(t, time.Now(), *workout.StartTime, time.Minute)
	assert.Nil(t, workout.EndTime)
	assert.Equal(t, "Iron Temple", workout.Gym.Name)
	require.Len(t, workout.Targets, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterWorkoutsStarted), 0.001)
}

func TestWorkoutHandler_HandleCreate_UnknownGym(t *testing.T) {
	repo, _, _ := workoutTestDeps(t)
	handler := NewWorkoutHandler(repo, metrics.NewTestManager())

	reqJson := []byte(`{"gymId":42}`)
	req, err := http.NewRequest("POST", "/lifting/workout", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkoutHandler_HandleCreate_RoutineAlreadyBound(t *testing.T) {
	repo, _, _ := workoutTestDeps(t)
	handler := NewWorkoutHandler(repo, metrics.NewTestManager())

	routineID := 7
	_, err := repo.Create(context.Background(), CreateWorkoutParams{GymID: 1, RoutineID: &routineID})
	require.NoError(t, err)

	reqJson, err := json.Marshal(CreateWorkoutParams{GymID: 1, RoutineID: &routineID})
	require.NoError(t, err)
	req, err := http.NewRequest("POST", "/lifting/workout", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWorkoutHandler_HandleUpdate_PartialFields(t *testing.T) {
	repo, gyms, _ := workoutTestDeps(t)
	handler := NewWorkoutHandler(repo, metrics.NewTestManager())

	secondGym, err := gyms.Add(context.Background(), Gym{Name: "Plate Palace", Location: "Neukölln"})
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), CreateWorkoutParams{GymID: 1, Note: "morning session"})
	require.NoError(t, err)

	// only the gym changes, note and times stay
	reqJson, err := json.Marshal(UpdateWorkoutParams{GymID: &secondGym.ID})
	require.NoError(t, err)

	req, err := http.NewRequest("PUT", "/lifting/workout/1", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleUpdate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Workout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Plate Palace", updated.Gym.Name)
	assert.Equal(t, "morning session", updated.Note)
	assert.Equal(t, created.StartTime.Unix(), updated.StartTime.Unix())
	assert.Nil(t, updated.EndTime)
}

func TestWorkoutHandler_HandleStop(t *testing.T) {
	repo, _, _ := workoutTestDeps(t)
	metricsManager := metrics.NewTestManager()
	handler := NewWorkoutHandler(repo, metricsManager)

	_, err := repo.Create(context.Background(), CreateWorkoutParams{GymID: 1})
	require.NoError(t, err)

	reqJson := []byte(`{"id":1}`)
	req, err := http.NewRequest("POST", "/lifting/workout/stop", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleStop(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stopped Workout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stopped))
	require.NotNil(t, stopped.EndTime)
	assert.WithinDuration(t, time.Now(), *stopped.EndTime, time.Minute)

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterWorkoutsFinished), 0.001)
}

func TestWorkoutHandler_HandleFindInProcess(t *testing.T) {
	repo, _, _ := workoutTestDeps(t)
	handler := NewWorkoutHandler(repo, metrics.NewTestManager())

	// nothing started yet
	req, err := http.NewRequest("GET", "/lifting/workout/in-process", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.HandleFindInProcess(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// yesterday's unfinished workout does not count
	yesterday := time.Now().Add(-25 * time.Hour)
	_, err = repo.Create(context.Background(), CreateWorkoutParams{GymID: 1, StartTime: &yesterday})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.HandleFindInProcess(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// two started today: the most recent one wins
	earlier := time.Now().Add(-2 * time.Hour)
	if earlier.Before(StartOfDay(time.Now())) {
		earlier = StartOfDay(time.Now())
	}
	_, err = repo.Create(context.Background(), CreateWorkoutParams{GymID: 1, StartTime: &earlier})
	require.NoError(t, err)
	latest, err := repo.Create(context.Background(), CreateWorkoutParams{GymID: 1})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.HandleFindInProcess(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var inProcess Workout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inProcess))
	assert.Equal(t, latest.ID, inProcess.ID)

	// stopping it clears the in-process state
	now := time.Now()
	_, err = repo.Update(context.Background(), latest.ID, UpdateWorkoutParams{EndTime: &now})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.HandleFindInProcess(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inProcess))
	assert.NotEqual(t, latest.ID, inProcess.ID)
}

func TestWorkoutHandler_HandleList_DateRange(t *testing.T) {
	repo, _, _ := workoutTestDeps(t)
	handler := NewWorkoutHandler(repo, metrics.NewTestManager())

	dayOld := time.Now().Add(-24 * time.Hour)
	weekOld := time.Now().Add(-7 * 24 * time.Hour)
	for _, start := range []time.Time{dayOld, weekOld, time.Now()} {
		st := start
		_, err := repo.Create(context.Background(), CreateWorkoutParams{GymID: 1, StartTime: &st})
		require.NoError(t, err)
	}

	from := time.Now().Add(-2 * 24 * time.Hour).Format(time.DateOnly)
	req, err := http.NewRequest("GET", "/lifting/workout/list/page/0/size/10?from="+from, nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"page": "0", "size": "10"})
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Workouts, 2)
	// ordered by start time, most recent first
	assert.True(t, resp.Workouts[0].StartTime.After(*resp.Workouts[1].StartTime))
}
