package treedoc

import "treedoc/internal/engine"

// Node is a versioned handle on a position inside a specific tree. It owns
// nothing: the descriptor names the position structurally and the captured
// version decides whether the position still means anything. Every accessor
// re-checks validity; a stale handle degrades to absent results, which is the
// same outcome as a structural relation that does not exist — a stale handle
// carries no reliable structural information either way.
type Node struct {
	ref     engine.NodeRef
	doc     *Document
	version uint64
}

// live reports whether the handle may still touch the tree. Checked lazily on
// every access, never cached.
func (n *Node) live() bool {
	return n != nil && n.doc != nil && !n.doc.closed && n.version == n.doc.version
}

// mint wraps an engine descriptor in a handle stamped with n's own captured
// version, so navigation from a handle never outlives the handle itself.
func (n *Node) mint(ref engine.NodeRef, ok bool) *Node {
	if !ok {
		return nil
	}
	return &Node{ref: ref, doc: n.doc, version: n.version}
}

// IsValid reports whether the handle's captured version still matches the
// owning document. Never errors, no side effects.
func (n *Node) IsValid() bool {
	return n.live()
}

// StartIndex returns the node's start offset in external units.
func (n *Node) StartIndex() (uint32, bool) {
	info, ok := n.info()
	if !ok {
		return 0, false
	}
	return n.doc.codec.ToExternal(info.StartByte), true
}

// EndIndex returns the node's end offset in external units.
func (n *Node) EndIndex() (uint32, bool) {
	info, ok := n.info()
	if !ok {
		return 0, false
	}
	return n.doc.codec.ToExternal(info.EndByte), true
}

// StartPosition returns the node's start row/column.
func (n *Node) StartPosition() (Point, bool) {
	info, ok := n.info()
	if !ok {
		return Point{}, false
	}
	return pointOut(info.StartPoint), true
}

// EndPosition returns the node's end row/column.
func (n *Node) EndPosition() (Point, bool) {
	info, ok := n.info()
	if !ok {
		return Point{}, false
	}
	return pointOut(info.EndPoint), true
}

// Type returns the grammar-defined tag of the node.
func (n *Node) Type() (string, bool) {
	info, ok := n.info()
	if !ok {
		return "", false
	}
	return info.Type, true
}

// IsNamed reports whether the node is grammar-significant rather than a
// structural grouping.
func (n *Node) IsNamed() (named bool, ok bool) {
	info, ok := n.info()
	if !ok {
		return false, false
	}
	return info.Named, true
}

// Parent returns the parent handle, or nil for the root and for stale
// handles.
func (n *Node) Parent() *Node {
	if !n.live() {
		return nil
	}
	parent, ok := n.ref.Parent()
	if !ok {
		return nil
	}
	// Confirm the parent still resolves in the current tree.
	if _, exists := n.doc.eng.Info(parent); !exists {
		return nil
	}
	return n.mint(parent, true)
}

// Children returns a lazy view over all children.
func (n *Node) Children() *NodeList {
	return n.childList(false)
}

// NamedChildren returns a lazy view over the named children only, preserving
// source order.
func (n *Node) NamedChildren() *NodeList {
	return n.childList(true)
}

func (n *Node) childList(namedOnly bool) *NodeList {
	if !n.live() {
		return nil
	}
	return &NodeList{parent: n.ref, doc: n.doc, version: n.version, namedOnly: namedOnly}
}

// NextSibling returns the following sibling in source order, or nil.
func (n *Node) NextSibling() *Node {
	return n.sibling(false, false)
}

// NextNamedSibling returns the following named sibling, or nil.
func (n *Node) NextNamedSibling() *Node {
	return n.sibling(true, false)
}

// PreviousSibling returns the preceding sibling in source order, or nil.
func (n *Node) PreviousSibling() *Node {
	return n.sibling(false, true)
}

// PreviousNamedSibling returns the preceding named sibling, or nil.
func (n *Node) PreviousNamedSibling() *Node {
	return n.sibling(true, true)
}

func (n *Node) sibling(named, reverse bool) *Node {
	if !n.live() {
		return nil
	}
	return n.mint(n.doc.eng.NextSibling(n.ref, named, reverse))
}

// String renders the subtree rooted here as an s-expression for debugging.
// Stale handles render as the empty string.
func (n *Node) String() string {
	if !n.live() {
		return ""
	}
	s, _ := n.doc.eng.Render(n.ref)
	return s
}

// DescendantForIndex finds the smallest node whose range covers the external
// offsets [min, max]. With no extra argument the range collapses to a single
// offset. More than one extra argument fails with ArgumentArityError.
// Behavior when min > max is an accepted but unspecified precondition
// violation: the query is handed to the engine as-is.
func (n *Node) DescendantForIndex(min uint32, max ...uint32) (*Node, error) {
	return n.descendantForIndex("DescendantForIndex", false, min, max)
}

// NamedDescendantForIndex is DescendantForIndex restricted to named nodes.
func (n *Node) NamedDescendantForIndex(min uint32, max ...uint32) (*Node, error) {
	return n.descendantForIndex("NamedDescendantForIndex", true, min, max)
}

func (n *Node) descendantForIndex(op string, namedOnly bool, min uint32, max []uint32) (*Node, error) {
	if len(max) > 1 {
		return nil, &ArgumentArityError{Op: op, Got: len(max) + 1}
	}
	hi := min
	if len(max) == 1 {
		hi = max[0]
	}
	if !n.live() {
		return nil, nil
	}
	return n.mint(n.doc.eng.Descendant(
		n.ref,
		n.doc.codec.ToInternal(min),
		n.doc.codec.ToInternal(hi),
		namedOnly,
	)), nil
}

// DescendantForPosition finds the smallest node whose range covers the point
// range [min, max]. Arity rules match DescendantForIndex.
func (n *Node) DescendantForPosition(min Point, max ...Point) (*Node, error) {
	return n.descendantForPosition("DescendantForPosition", false, min, max)
}

// NamedDescendantForPosition is DescendantForPosition restricted to named
// nodes.
func (n *Node) NamedDescendantForPosition(min Point, max ...Point) (*Node, error) {
	return n.descendantForPosition("NamedDescendantForPosition", true, min, max)
}

func (n *Node) descendantForPosition(op string, namedOnly bool, min Point, max []Point) (*Node, error) {
	if len(max) > 1 {
		return nil, &ArgumentArityError{Op: op, Got: len(max) + 1}
	}
	hi := min
	if len(max) == 1 {
		hi = max[0]
	}
	if !n.live() {
		return nil, nil
	}
	return n.mint(n.doc.eng.DescendantForPoints(n.ref, pointIn(min), pointIn(hi), namedOnly)), nil
}

// info resolves the handle against the engine, gated on validity.
func (n *Node) info() (engine.NodeInfo, bool) {
	if !n.live() {
		return engine.NodeInfo{}, false
	}
	return n.doc.eng.Info(n.ref)
}
