// Package wire implements the length-prefixed flat blob framing that every
// serialized output (§6 of the spec) is returned in: a little-endian u32
// byte count followed by the payload. The concrete schema above that framing
// (a flat-buffer IDL with enum tables, per the spec's own OUT OF SCOPE list)
// is not reproduced here — wire only supplies the opaque outer envelope that
// internal/script and pkg/engine hand back to a caller, who is expected to
// read the payload lazily rather than the engine eagerly marshaling a rich
// schema object on every call.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Frame wraps payload in the length-prefixed envelope described above.
func Frame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// Unframe reverses Frame, returning the payload and the number of bytes of
// buf it consumed.
func Unframe(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < 4 {
		return nil, 0, fmt.Errorf("wire: buffer too short for length prefix (%d bytes)", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf)
	total := 4 + int(n)
	if len(buf) < total {
		return nil, 0, fmt.Errorf("wire: buffer too short: want %d bytes, have %d", total, len(buf))
	}
	return buf[4:total], total, nil
}

// Writer accumulates a sequence of sub-blobs (used by callers that frame
// several related records, e.g. an AST's Nodes array plus its Children pool
// plus its Statements array, as one serialized ParsedScript view) into one
// buffer of back-to-back frames, with no outer length prefix around them.
type Writer struct {
	parts [][]byte
}

// Put appends one sub-blob, itself framed, in call order.
func (w *Writer) Put(payload []byte) {
	w.parts = append(w.parts, Frame(payload))
}

// Bytes concatenates every framed sub-blob written so far.
func (w *Writer) Bytes() []byte {
	var total int
	for _, p := range w.parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range w.parts {
		out = append(out, p...)
	}
	return out
}

// Reader walks the sequence of sub-blobs a Writer produced.
type Reader struct {
	buf []byte
}

// NewReader returns a Reader over buf, which must be the concatenation of
// one or more Frame-wrapped blobs (as produced by Writer.Bytes).
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next sub-blob, or ok=false when the buffer is exhausted.
func (r *Reader) Next() (payload []byte, ok bool, err error) {
	if len(r.buf) == 0 {
		return nil, false, nil
	}
	payload, n, err := Unframe(r.buf)
	if err != nil {
		return nil, false, err
	}
	r.buf = r.buf[n:]
	return payload, true, nil
}
