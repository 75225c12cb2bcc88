package treedoc

import "treedoc/internal/textpos"

// InputSource is the host-supplied pull source a Document streams text from.
// Offsets are in external units. Read returns the next chunk of source bytes
// starting at the given offset; chunks may be shorter than any expected
// length, and ok == false marks end of input. A non-empty chunk must carry
// at least one whole external unit — a host cannot hand out half a
// character of its own text.
type InputSource interface {
	Seek(offset uint32)
	Read(offset uint32) (chunk []byte, ok bool)
}

// inputAdapter bridges an InputSource into the engine's byte-offset input
// contract. It holds only a reference to the host source and is disposed
// exactly once, either when replaced or when the Document is closed.
type inputAdapter struct {
	src      InputSource
	codec    textpos.Codec
	disposed bool
}

func newInputAdapter(src InputSource, codec textpos.Codec) *inputAdapter {
	return &inputAdapter{src: src, codec: codec}
}

// Seek repositions the host source. The engine speaks bytes; the host hears
// external units.
func (a *inputAdapter) Seek(byteOffset uint32) {
	if a.disposed {
		return
	}
	a.src.Seek(a.codec.ToExternal(byteOffset))
}

// Read pulls the next chunk from the host source, passing it through without
// copying beyond what the host already returned. Engine offsets that fall
// inside an external unit — the previous chunk ended mid-unit — are floored
// to the unit boundary for the host, and the already-delivered lead bytes
// are trimmed off the chunk so nothing is replayed.
func (a *inputAdapter) Read(byteOffset uint32) ([]byte, bool) {
	if a.disposed {
		return nil, false
	}
	external := a.codec.ToExternal(byteOffset)
	chunk, ok := a.src.Read(external)
	if !ok {
		return nil, false
	}
	if skip := byteOffset - a.codec.ToInternal(external); skip > 0 {
		if int(skip) >= len(chunk) {
			return nil, false
		}
		chunk = chunk[skip:]
	}
	return chunk, true
}

// dispose releases the host source reference. Idempotent, so replace and
// close paths cannot double-free.
func (a *inputAdapter) dispose() {
	if a == nil || a.disposed {
		return
	}
	a.disposed = true
	a.src = nil
}

// source returns the wrapped host object, or nil after disposal.
func (a *inputAdapter) source() InputSource {
	if a == nil || a.disposed {
		return nil
	}
	return a.src
}
