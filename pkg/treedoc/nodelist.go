package treedoc

import "treedoc/internal/engine"

// NodeList is a lazy, indexable view over a node's children — all of them or
// the named subset — captured at a specific version. Nothing is materialized
// up front: each call re-resolves through the engine, which already stores
// the structure, so repeated access re-derives rather than caches. Once the
// owning document's version advances, every access yields an absent result.
type NodeList struct {
	parent    engine.NodeRef
	doc       *Document
	version   uint64
	namedOnly bool
}

// live mirrors Node's validity gate.
func (l *NodeList) live() bool {
	return l != nil && l.doc != nil && !l.doc.closed && l.version == l.doc.version
}

// IsValid reports whether the view's captured version still matches the
// owning document.
func (l *NodeList) IsValid() bool {
	return l.live()
}

// Len returns the number of children in the view, or 0 once stale.
func (l *NodeList) Len() int {
	if !l.live() {
		return 0
	}
	count, ok := l.doc.eng.ChildCount(l.parent, l.namedOnly)
	if !ok {
		return 0
	}
	return int(count)
}

// At returns a handle on the i-th child, or nil when the view is stale or i
// is out of range.
func (l *NodeList) At(i int) *Node {
	if !l.live() || i < 0 {
		return nil
	}
	ref, ok := l.doc.eng.Child(l.parent, uint32(i), l.namedOnly)
	if !ok {
		return nil
	}
	return &Node{ref: ref, doc: l.doc, version: l.version}
}
