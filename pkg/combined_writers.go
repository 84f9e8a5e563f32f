package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans a single Write out to all wrapped writers. One writer
// failing does not stop the others, their errors get combined instead.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

// Write returns the total number of bytes accepted across all writers.
func (cw CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.Writers {
		written, writeErr := w.Write(p)
		if writeErr != nil {
			err = multierr.Combine(err, writeErr)
			continue
		}
		n += written
	}
	return n, err
}
