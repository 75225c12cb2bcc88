// Package engine defines the contract between the document layer and the
// incremental parsing engine that actually owns the syntax tree. The document
// layer never touches tree memory directly; it navigates through NodeRef
// descriptors that the engine resolves on every call, so a reparse can rebuild
// the tree in place without leaving the caller holding a dangling pointer.
//
// All offsets and points crossing this boundary are in the engine's native
// units: byte offsets and zero-based row/column points.
package engine

// Point is a zero-based row/column position inside the source text.
type Point struct {
	Row    uint32
	Column uint32
}

// Less reports whether p orders strictly before q in source order.
func (p Point) Less(q Point) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Column < q.Column
}

// NodeRef identifies a node structurally, as the child-index path from the
// root. Refs compare by value, never by address, and stay meaningful only as
// long as the tree they were minted against; the layer above pairs every ref
// with a version stamp and discards stale ones before they reach the engine.
type NodeRef struct {
	// Path holds the child ordinal at each level, root first. The root
	// itself is the empty path.
	Path []uint32
}

// RootRef returns the descriptor of the root node.
func RootRef() NodeRef {
	return NodeRef{}
}

// Child returns the descriptor of the i-th child of r.
func (r NodeRef) Child(i uint32) NodeRef {
	path := make([]uint32, len(r.Path)+1)
	copy(path, r.Path)
	path[len(r.Path)] = i
	return NodeRef{Path: path}
}

// Parent returns the descriptor of r's parent and false when r is the root.
func (r NodeRef) Parent() (NodeRef, bool) {
	if len(r.Path) == 0 {
		return NodeRef{}, false
	}
	path := make([]uint32, len(r.Path)-1)
	copy(path, r.Path[:len(r.Path)-1])
	return NodeRef{Path: path}, true
}

// IsRoot reports whether r refers to the root node.
func (r NodeRef) IsRoot() bool {
	return len(r.Path) == 0
}

// Equal reports structural equality of two descriptors.
func (r NodeRef) Equal(o NodeRef) bool {
	if len(r.Path) != len(o.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// Input is the pull source the engine streams text from during a parse. The
// engine positions the stream with Seek and then drains it with Read; both
// take byte offsets. Read may return chunks of any length and signals end of
// input by returning ok == false.
type Input interface {
	Seek(byteOffset uint32)
	Read(byteOffset uint32) (chunk []byte, ok bool)
}

// LogKind classifies an engine trace event.
type LogKind int

const (
	LogParse LogKind = iota // parser table actions, reductions, reuse decisions
	LogLex                  // lexer advances and token boundaries
)

// String returns the wire name of the kind.
func (k LogKind) String() string {
	if k == LogLex {
		return "lex"
	}
	return "parse"
}

// Logger receives engine trace events. A nil Logger means tracing is off and
// the engine must not invoke anything per event.
type Logger interface {
	Log(message string, kind LogKind)
}

// Edit describes a committed source modification in byte offsets. Row/column
// coordinates for shifting unaffected subtrees are derived by the engine from
// the text it has already consumed.
type Edit struct {
	StartByte  uint32
	OldEndByte uint32
	NewEndByte uint32
}

// NodeInfo is the full set of per-node facts the engine reports in one
// resolution, so a single descriptor walk serves several accessors.
type NodeInfo struct {
	Type       string
	Named      bool
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Engine is the minimum surface the document layer relies on. Implementations
// are synchronous and single-threaded; every method runs to completion on the
// calling goroutine. Resolve-style methods return ok == false when the
// descriptor does not name a live node in the current tree.
type Engine interface {
	// SetLanguage installs the grammar used by subsequent parses.
	SetLanguage(lang Language) error

	// SetInput installs the text source for subsequent parses. A nil input
	// means a zero-length document.
	SetInput(in Input)

	// SetLogger installs the trace sink. nil turns tracing off entirely.
	SetLogger(l Logger)

	// Edit records a source modification so the next Parse can reuse
	// subtrees outside the edited range.
	Edit(e Edit)

	// Parse builds or incrementally rebuilds the tree from the current
	// input. It is the only method whose cost scales with input size.
	Parse() error

	// Invalidate discards incremental-reuse eligibility; the next Parse
	// starts from scratch.
	Invalidate()

	// HasTree reports whether a successful Parse has produced a root.
	HasTree() bool

	// Info resolves a descriptor to its node facts.
	Info(ref NodeRef) (NodeInfo, bool)

	// ChildCount returns how many children (all, or named only) the node
	// has.
	ChildCount(ref NodeRef, namedOnly bool) (uint32, bool)

	// Child resolves the i-th child (all, or named only) of the node.
	Child(ref NodeRef, i uint32, namedOnly bool) (NodeRef, bool)

	// NextSibling resolves the following sibling in source order; named
	// restricts to named siblings. Reverse walks backwards instead.
	NextSibling(ref NodeRef, named, reverse bool) (NodeRef, bool)

	// Descendant finds the smallest node whose byte range covers
	// [minByte, maxByte], optionally restricted to named nodes.
	Descendant(ref NodeRef, minByte, maxByte uint32, namedOnly bool) (NodeRef, bool)

	// DescendantForPoints is Descendant over point coordinates.
	DescendantForPoints(ref NodeRef, min, max Point, namedOnly bool) (NodeRef, bool)

	// Render returns the s-expression form of the subtree at ref. The
	// returned string is owned by the caller; the engine releases any
	// native buffer before returning.
	Render(ref NodeRef) (string, bool)

	// SetDebugGraphs toggles engine-level structural tracing.
	SetDebugGraphs(enabled bool)

	// Close releases the tree and any native resources. Safe to call once.
	Close()
}

// Language is an opaque grammar capability. Valid reports whether the handle
// carries a usable grammar; installing an invalid handle must fail.
type Language interface {
	Valid() bool
}
