package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return Cors()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCors_AllowedOrigin(t *testing.T) {
	req, err := http.NewRequest("GET", "/lifting/gym", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")

	rec := httptest.NewRecorder()
	corsTestHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_AllowedUserAgent(t *testing.T) {
	req, err := http.NewRequest("GET", "/lifting/gym", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")

	rec := httptest.NewRecorder()
	corsTestHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCors_ForbiddenOrigin(t *testing.T) {
	req, err := http.NewRequest("GET", "/lifting/gym", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")

	rec := httptest.NewRecorder()
	corsTestHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
