package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pgtools/fastupdate/encoding"
)

const (
	// bufferLimit is the in-memory threshold. A batch whose encoded
	// size stays at or below it is delivered in a single in-memory
	// call; the first byte over switches to the pipe session.
	bufferLimit = 65535

	// chunkSize is the slice size for direct chunked writes.
	chunkSize = 65536
)

// errAborted poisons the pipe when encoding fails mid-stream.
var errAborted = errors.New("bulk load aborted")

// Writer batches encoded rows and delivers them to the sink. It owns
// the row buffer, the lazy entry list and, above the threshold, the
// pipe session. A Writer serves exactly one bulk operation and is not
// safe for concurrent use.
type Writer struct {
	sink    Sink
	table   string
	columns []string

	buf  []byte
	lazy encoding.Lazy
	sess *session
}

// NewWriter creates a writer delivering rows for the given target
// relation and column list.
func NewWriter(sink Sink, table string, columns []string) *Writer {
	return &Writer{sink: sink, table: table, columns: columns}
}

// WriteRow encodes one record: tab-delimited encoded values terminated
// by a newline, appended to the row buffer. values and encs are
// positional, aligned with the writer's column list. Crossing the
// buffer threshold hands the payload over to the pipe session.
func (w *Writer) WriteRow(ctx context.Context, values []any, encs []encoding.EncodeFunc) error {
	if len(values) != len(encs) || len(values) != len(w.columns) {
		return fmt.Errorf("row has %d values for %d columns", len(values), len(w.columns))
	}
	rowStart := len(w.buf)
	var err error
	for i, enc := range encs {
		if i > 0 {
			w.buf = append(w.buf, '\t')
		}
		if w.buf, err = enc(w.buf, values[i], &w.lazy); err != nil {
			w.buf = w.buf[:rowStart]
			return fmt.Errorf("column %q: %w", w.columns[i], err)
		}
	}
	w.buf = append(w.buf, '\n')

	if len(w.buf) <= bufferLimit {
		return nil
	}
	if w.sess == nil {
		w.sess = startSession(ctx, w.sink, w.table, w.columns)
	}
	if w.lazy.Pending() {
		// Placeholders must be resolved against the buffer they were
		// emitted into, so the whole buffer goes out through
		// substitution.
		if err := w.lazy.Flush(w.sess, w.buf); err != nil {
			return err
		}
		w.buf = w.buf[:0]
		return nil
	}
	// No deferred values: ship whole chunks and carry the remainder
	// forward. A single oversized row may produce several chunks here.
	pos := 0
	for len(w.buf)-pos > bufferLimit {
		if _, err := w.sess.Write(w.buf[pos : pos+chunkSize]); err != nil {
			return err
		}
		pos += chunkSize
	}
	w.buf = append(w.buf[:0], w.buf[pos:]...)
	return nil
}

// Flush delivers everything still buffered and returns the sink's row
// count. With an active session the remainder is written and the
// session torn down; otherwise the payload goes out as one in-memory
// call, with no goroutine involved.
func (w *Writer) Flush(ctx context.Context) (int64, error) {
	if w.sess != nil {
		sess := w.sess
		w.sess = nil
		if len(w.buf) > 0 {
			var err error
			if w.lazy.Pending() {
				err = w.lazy.Flush(sess, w.buf)
			} else {
				_, err = sess.Write(w.buf)
			}
			if err != nil {
				sess.abort(errAborted)
				return 0, err
			}
			w.buf = w.buf[:0]
		}
		return sess.Close()
	}
	if len(w.buf) == 0 {
		return 0, nil
	}
	var r io.Reader
	if w.lazy.Pending() {
		var out bytes.Buffer
		out.Grow(len(w.buf))
		if err := w.lazy.Flush(&out, w.buf); err != nil {
			return 0, err
		}
		r = &out
	} else {
		r = bytes.NewReader(w.buf)
	}
	w.buf = nil
	return w.sink.CopyFrom(ctx, r, w.table, w.columns)
}

// Close aborts an active session without delivering the remainder. It
// is a no-op after a successful Flush, which makes it safe to defer.
func (w *Writer) Close() {
	if w.sess != nil {
		w.sess.abort(errAborted)
		w.sess = nil
	}
}
