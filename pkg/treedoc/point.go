package treedoc

import "treedoc/internal/engine"

// Point is a zero-based row/column position. Rows and columns are never
// scaled across the offset boundary; only flat offsets are.
type Point struct {
	Row    uint32
	Column uint32
}

// EditDescriptor records one source modification in external units. It is a
// transient value, consumed by Document.Edit.
type EditDescriptor struct {
	Position      uint32
	CharsRemoved  uint32
	CharsInserted uint32
}

func pointIn(p Point) engine.Point {
	return engine.Point{Row: p.Row, Column: p.Column}
}

func pointOut(p engine.Point) Point {
	return Point{Row: p.Row, Column: p.Column}
}
