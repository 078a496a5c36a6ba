// Package stream turns encoded rows into an ordered byte stream for the
// bulk-load sink. Small batches are delivered from memory in one call;
// once the buffered payload crosses the threshold, a pipe session with
// a single background drain goroutine takes over.
package stream

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// Sink performs the actual bulk ingestion. It reads r to EOF and
// returns the number of rows ingested.
type Sink interface {
	CopyFrom(ctx context.Context, r io.Reader, table string, columns []string) (int64, error)
}

// session bridges the encoding producer and the sink's blocking
// CopyFrom call. The producer writes to the pipe's write end while the
// background goroutine feeds the read end into the sink. io.Pipe is
// synchronous, so the producer blocks until the consumer drains —
// backpressure comes for free.
type session struct {
	pw   *io.PipeWriter
	pr   *io.PipeReader
	g    *errgroup.Group
	rows int64
}

// startSession spawns the drain goroutine. At most one session exists
// per bulk operation.
func startSession(ctx context.Context, sink Sink, table string, columns []string) *session {
	pr, pw := io.Pipe()
	s := &session{pw: pw, pr: pr, g: new(errgroup.Group)}
	s.g.Go(func() error {
		n, err := sink.CopyFrom(ctx, pr, table, columns)
		if err != nil {
			// A consumer-side failure must not leave the producer
			// blocked in Write: poison the read end so pending and
			// future writes return the sink error.
			pr.CloseWithError(err)
			return err
		}
		s.rows = n
		return nil
	})
	return s
}

func (s *session) Write(p []byte) (int, error) {
	return s.pw.Write(p)
}

// Close tears the session down. The order is fixed: closing the write
// end is the sole end-of-data signal, the drain goroutine must have
// exited before the read end may be released. Close is the only
// teardown path and the pipe ends are unexported, so the ordering
// cannot be violated from outside.
func (s *session) Close() (int64, error) {
	s.pw.Close()
	err := s.g.Wait()
	s.pr.Close()
	return s.rows, err
}

// abort terminates the session after a producer-side failure. The write
// end carries the error so the sink sees a failed read and aborts the
// ingestion instead of committing a truncated payload.
func (s *session) abort(reason error) {
	s.pw.CloseWithError(reason)
	s.g.Wait()
	s.pr.Close()
}
