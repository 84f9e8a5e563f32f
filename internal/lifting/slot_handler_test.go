package lifting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotTestDeps(t *testing.T) (*slotRepoMock, *routineRepoMock, *exerciseRepoMock) {
	t.Helper()
	muscles := newMuscleRepoMock()
	exercises := newExerciseRepoMock(muscles)
	routines := newRoutineRepoMock(newTargetRepoMock(), nil)

	_, err := routines.Create(context.Background(), CreateRoutineParams{Name: "Push Day"})
	require.NoError(t, err)
	_, err = exercises.Add(context.Background(), ExerciseParams{Name: "Bench Press"})
	require.NoError(t, err)

	return newSlotRepoMock(routines, exercises), routines, exercises
}

func TestSlotHandler_HandleCreate(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	reqJson, err := json.Marshal(CreateSlotParams{
		RoutineID:  1,
		ExerciseID: 1,
		Stars:      4,
		Category:   CategoryWarmUp,
		SetNumber:  3,
		Weight:     62.5,
		Reps:       8,
		Sequence:   10,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/routine/exercise", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var slot Slot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	assert.Equal(t, CategoryWarmUp, slot.Category)
	assert.Equal(t, 62.5, slot.Weight)
	assert.Equal(t, 10, slot.Sequence)
	assert.Equal(t, "Bench Press", slot.Exercise.Name)
}

func TestSlotHandler_HandleCreate_DefaultCategory(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	reqJson := []byte(`{"routineId":1,"exerciseId":1,"sequence":1}`)
	req, err := http.NewRequest("POST", "/lifting/routine/exercise", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var slot Slot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	assert.Equal(t, CategoryWorkingSets, slot.Category)
}

func TestSlotHandler_HandleCreate_Invalid(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	// unknown category
	reqJson := []byte(`{"routineId":1,"exerciseId":1,"category":"Cardio"}`)
	req, err := http.NewRequest("POST", "/lifting/routine/exercise", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown routine
	reqJson = []byte(`{"routineId":42,"exerciseId":1}`)
	req, err = http.NewRequest("POST", "/lifting/routine/exercise", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// unknown exercise
	reqJson = []byte(`{"routineId":1,"exerciseId":42}`)
	req, err = http.NewRequest("POST", "/lifting/routine/exercise", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.HandleCreate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlotHandler_HandleGetByRoutine_Ordering(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	// sequences supplied out of order, with a duplicate
	for _, seq := range []int{20, 10, 20, 5} {
		_, err := repo.Create(context.Background(), CreateSlotParams{
			RoutineID:  1,
			ExerciseID: 1,
			Sequence:   seq,
		})
		require.NoError(t, err)
	}

	req, err := http.NewRequest("GET", "/lifting/routine/1/slots", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleGetByRoutine(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoutineSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 4)

	// ascending by sequence, ties by insertion order
	sequences := []int{resp.Slots[0].Sequence, resp.Slots[1].Sequence, resp.Slots[2].Sequence, resp.Slots[3].Sequence}
	assert.Equal(t, []int{5, 10, 20, 20}, sequences)
	assert.Less(t, resp.Slots[2].ID, resp.Slots[3].ID)
}

func TestSlotHandler_HandleGetByRoutine_UnknownRoutine(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	req, err := http.NewRequest("GET", "/lifting/routine/42/slots", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec := httptest.NewRecorder()

	handler.HandleGetByRoutine(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlotHandler_HandleGet(t *testing.T) {
	repo, _, _ := slotTestDeps(t)
	handler := NewSlotHandler(repo)

	created, err := repo.Create(context.Background(), CreateSlotParams{
		RoutineID:  1,
		ExerciseID: 1,
		Sequence:   1,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/lifting/slot/1", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleGet(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var slot Slot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	assert.Equal(t, created.ID, slot.ID)

	req, err = http.NewRequest("GET", "/lifting/slot/42", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec = httptest.NewRecorder()
	handler.HandleGet(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
