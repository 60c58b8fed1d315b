package logutils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter holds log output in memory while a full-screen program owns
// the terminal and replays it to the wrapped writer on Release. Safe for
// concurrent use.
type DeferredWriter struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

// NewDeferredWriter returns a writer that buffers until Release writes to out.
func NewDeferredWriter(out io.Writer) *DeferredWriter {
	return &DeferredWriter{out: out}
}

func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Release writes everything buffered so far and empties the buffer.
func (d *DeferredWriter) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 {
		return nil
	}
	_, err := d.buf.WriteTo(d.out)
	return err
}
