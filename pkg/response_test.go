package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResponse(rec, ContentType.JSON, `{"id":42}`, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ContentType.JSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"id":42}`, rec.Body.String())
}

func TestWriteResponse_NoContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResponseBytes(rec, "", []byte("raw"), http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Values("Content-Type"))
	assert.Equal(t, "raw", rec.Body.String())
}

func TestWriteJSONResponseOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONResponseOK(rec, `{"name":"deadlift"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType.JSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"name":"deadlift"}`, rec.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTextResponseOK(rec, "deleted")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType.Text, rec.Header().Get("Content-Type"))
	assert.Equal(t, "deleted", rec.Body.String())
}

func TestWriteResponseBytesOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResponseBytesOK(rec, ContentType.JSON, []byte(`[]`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `[]`, rec.Body.String())
}
