// Package textpos converts between the two offset systems that meet at the
// document boundary: external character offsets as seen by the host, and
// internal byte offsets as consumed by the parsing engine. The two are related
// by a fixed unit width (bytes per external character).
package textpos

// DefaultWidth matches hosts whose text is stored in double-byte units.
const DefaultWidth = 2

// Codec scales offsets across the external/internal boundary. It is stateless
// and safe to copy. The zero Codec is not usable; construct with NewCodec.
type Codec struct {
	width uint32
}

// NewCodec returns a codec for the given unit width. Widths below 1 are
// clamped to 1 (byte-for-byte hosts).
func NewCodec(width uint32) Codec {
	if width < 1 {
		width = 1
	}
	return Codec{width: width}
}

// Width returns the number of internal bytes per external unit.
func (c Codec) Width() uint32 {
	return c.width
}

// ToInternal converts an external character offset to an internal byte offset.
func (c Codec) ToInternal(external uint32) uint32 {
	return external * c.width
}

// ToExternal converts an internal byte offset to an external character offset.
func (c Codec) ToExternal(internal uint32) uint32 {
	return internal / c.width
}
