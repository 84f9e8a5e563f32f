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

func TestMuscleHandler_HandleAdd(t *testing.T) {
	repo := newMuscleRepoMock()
	handler := NewMuscleHandler(repo)

	reqJson, err := json.Marshal(Muscle{
		Name:        "Biceps Brachii",
		Description: "elbow flexor",
		Function:    "flexion",
		OriginName:  "biceps brachii",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/lifting/muscle", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleAdd(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var added Muscle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, "Biceps Brachii", added.Name)
	assert.Equal(t, 1, len(repo.Muscles))
}

func TestMuscleHandler_HandleAdd_InvalidRequests(t *testing.T) {
	handler := NewMuscleHandler(newMuscleRepoMock())

	// wrong content type
	req, err := http.NewRequest("POST", "/lifting/muscle", bytes.NewReader([]byte(`{"name":"Soleus"}`)))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.HandleAdd(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// empty name
	req, err = http.NewRequest("POST", "/lifting/muscle", bytes.NewReader([]byte(`{"name":""}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.HandleAdd(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMuscleHandler_HandleGet(t *testing.T) {
	repo := newMuscleRepoMock()
	handler := NewMuscleHandler(repo)

	added, err := repo.Add(context.Background(), Muscle{Name: "Soleus"})
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/lifting/muscle/1", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleGet(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var muscle Muscle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &muscle))
	assert.Equal(t, added.ID, muscle.ID)
	assert.Equal(t, "Soleus", muscle.Name)

	// unknown id
	req, err = http.NewRequest("GET", "/lifting/muscle/42", nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec = httptest.NewRecorder()
	handler.HandleGet(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMuscleHandler_HandleUpdate(t *testing.T) {
	repo := newMuscleRepoMock()
	handler := NewMuscleHandler(repo)

	_, err := repo.Add(context.Background(), Muscle{Name: "Soleus"})
	require.NoError(t, err)

	reqJson := []byte(`{"name":"Soleus","description":"ankle plantar flexor"}`)
	req, err := http.NewRequest("PUT", "/lifting/muscle/1", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	handler.HandleUpdate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ankle plantar flexor", repo.Muscles[1].Description)

	// unknown id
	req, err = http.NewRequest("PUT", "/lifting/muscle/42", bytes.NewReader(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec = httptest.NewRecorder()
	handler.HandleUpdate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMuscleHandler_HandleList(t *testing.T) {
	repo := newMuscleRepoMock()
	handler := NewMuscleHandler(repo)

	for _, name := range []string{"Biceps Brachii", "Triceps Brachii", "Soleus", "Gluteus Maximus"} {
		_, err := repo.Add(context.Background(), Muscle{Name: name})
		require.NoError(t, err)
	}

	listReq := func(page, size, name string) *httptest.ResponseRecorder {
		req, err := http.NewRequest("GET", "/lifting/muscle/list/page/"+page+"/size/"+size+"?name="+name, nil)
		require.NoError(t, err)
		req = mux.SetURLVars(req, map[string]string{"page": page, "size": size})
		rec := httptest.NewRecorder()
		handler.HandleList(rec, req)
		return rec
	}

	rec := listReq("0", "2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListMusclesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Muscles, 2)
	assert.Equal(t, "Biceps Brachii", resp.Muscles[0].Name)

	// second page
	rec = listReq("1", "2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Muscles, 2)
	assert.Equal(t, "Soleus", resp.Muscles[0].Name)

	// name filter, case-insensitive substring
	rec = listReq("0", "10", "brachii")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Muscles, 2)

	// invalid page
	rec = listReq("-2", "10", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
