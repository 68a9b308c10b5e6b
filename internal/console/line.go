package console

import (
	"bytes"
	"io"
	"sync"
)

// Splits written bytes into lines and forwards each complete line to an
// underlying writer, newline included.
//
// Writes are serialized, so a single LineWriter may be shared by concurrent
// writers without interleaving partial lines. Call [LineWriter.Flush] after
// the last write to forward a trailing line that has no newline.
type LineWriter struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

// Creates a [LineWriter] forwarding to out.
func NewLineWriter(out io.Writer) *LineWriter {
	return &LineWriter{out: out}
}

// Buffers p and forwards every complete line.
//
// Always reports len(p) as written unless forwarding fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		if _, err := w.out.Write(w.buf.Next(i + 1)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Forwards any buffered partial line, terminated with a newline.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	line := append(w.buf.Bytes(), '\n')
	w.buf.Reset()
	_, err := w.out.Write(line)
	return err
}
