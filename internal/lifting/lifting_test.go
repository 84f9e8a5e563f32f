package lifting

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	ts := time.Date(2024, 5, 17, 23, 59, 59, 999, loc)
	dayStart := StartOfDay(ts)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, loc), dayStart)
	assert.Equal(t, loc, dayStart.Location())

	// midnight maps to itself
	assert.Equal(t, dayStart, StartOfDay(dayStart))
}

func TestListParamsFromRequest(t *testing.T) {
	newReq := func(page, size, name string) *http.Request {
		req, err := http.NewRequest("GET", "/lifting/muscle/list/page/"+page+"/size/"+size+"?name="+name, nil)
		require.NoError(t, err)
		return mux.SetURLVars(req, map[string]string{"page": page, "size": size})
	}

	params, err := listParamsFromRequest(newReq("0", "10", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, params.Skip)
	assert.Equal(t, 10, params.Limit)
	assert.Empty(t, params.Name)

	params, err = listParamsFromRequest(newReq("3", "25", "biceps"))
	require.NoError(t, err)
	assert.Equal(t, 75, params.Skip)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "biceps", params.Name)

	_, err = listParamsFromRequest(newReq("-1", "10", ""))
	assert.Error(t, err)
	_, err = listParamsFromRequest(newReq("0", "0", ""))
	assert.Error(t, err)
	_, err = listParamsFromRequest(newReq("nan", "10", ""))
	assert.Error(t, err)
}
