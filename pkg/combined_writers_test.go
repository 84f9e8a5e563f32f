package pkg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (bw *brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCombinedWriter_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	cw := NewCombinedWriter(&buf1, &buf2)

	n, err := cw.Write([]byte("workout started"))
	require.NoError(t, err)
	assert.Equal(t, 2*len("workout started"), n)

	n, err = cw.Write([]byte(" at 07:30"))
	require.NoError(t, err)
	assert.Equal(t, 2*len(" at 07:30"), n)

	assert.Equal(t, "workout started at 07:30", buf1.String())
	assert.Equal(t, buf1.String(), buf2.String())
}

func TestCombinedWriter_BrokenWriterDoesNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCombinedWriter(&brokenWriter{}, &buf)

	n, err := cw.Write([]byte("entry"))
	assert.Error(t, err)
	assert.Equal(t, len("entry"), n)
	assert.Equal(t, "entry", buf.String())
}
