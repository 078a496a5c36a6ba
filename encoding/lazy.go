package encoding

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
)

// hexChunk is the input slice size used when streaming deferred values
// as hex. It bounds working memory for arbitrarily large payloads.
const hexChunk = 64 * 1024

// DeferredWriter streams the wire representation of a deferred value
// directly into the output sink.
type DeferredWriter func(w io.Writer, raw []byte) error

type deferred struct {
	write DeferredWriter
	raw   []byte
}

// Lazy collects deferred binary values during row encoding. Entries are
// consumed strictly in encode order against placeholder bytes in the
// row buffer: the Kth placeholder belongs to the Kth entry.
type Lazy struct {
	entries []deferred
}

// Defer registers a deferred value. The encoder that calls Defer must
// emit exactly one Placeholder byte in its wire fragment.
func (l *Lazy) Defer(write DeferredWriter, raw []byte) {
	l.entries = append(l.entries, deferred{write: write, raw: raw})
}

// Pending reports whether any deferred entries await substitution.
func (l *Lazy) Pending() bool {
	return len(l.entries) > 0
}

// Flush writes buf to w, replacing each placeholder byte with the wire
// bytes of the matching deferred entry. Non-placeholder bytes are
// copied verbatim. The entry list is cleared on success.
func (l *Lazy) Flush(w io.Writer, buf []byte) error {
	pos := 0
	for i, entry := range l.entries {
		idx := bytes.IndexByte(buf[pos:], Placeholder)
		if idx < 0 {
			return fmt.Errorf("lazy entry %d: no placeholder left in buffer", i)
		}
		idx += pos
		if _, err := w.Write(buf[pos:idx]); err != nil {
			return err
		}
		if err := entry.write(w, entry.raw); err != nil {
			return err
		}
		pos = idx + 1
	}
	if _, err := w.Write(buf[pos:]); err != nil {
		return err
	}
	l.entries = l.entries[:0]
	return nil
}

// writeHex streams raw as lowercase hex in hexChunk-sized input slices.
func writeHex(w io.Writer, raw []byte) error {
	scratch := make([]byte, 2*min(len(raw), hexChunk))
	for len(raw) > 0 {
		n := min(len(raw), hexChunk)
		hex.Encode(scratch[:2*n], raw[:n])
		if _, err := w.Write(scratch[:2*n]); err != nil {
			return err
		}
		raw = raw[n:]
	}
	return nil
}
