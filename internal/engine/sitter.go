package engine

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
)

// TreeSitter is the production Engine, backed by the tree-sitter runtime. It
// owns the parser, the current tree, and a copy of the last text the parser
// consumed (needed to turn byte-offset edits into the row/column form the
// runtime expects). The document layer above streams text in through Input;
// the accumulated copy here is an engine implementation detail.
type TreeSitter struct {
	parser *sitter.Parser
	tree   *sitter.Tree
	lang   *sitter.Language

	input  Input
	logger Logger

	// src mirrors the text consumed by the most recent parse.
	src []byte

	// edits accumulate between parses; they are applied to the old tree
	// at the start of the next parse, once the post-edit text is in hand.
	edits []Edit

	// full forces the next parse to ignore the previous tree.
	full bool

	graphs bool
	log    *zap.Logger
	closed bool
}

// SitterLanguage wraps a tree-sitter grammar as an opaque capability handle.
type SitterLanguage struct {
	Inner *sitter.Language
}

// Valid reports whether the handle carries a usable grammar pointer.
func (l SitterLanguage) Valid() bool {
	return l.Inner != nil
}

// NewTreeSitter creates an engine with no language, input, or tree installed.
func NewTreeSitter(log *zap.Logger) *TreeSitter {
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("engine: creating tree-sitter backend")
	return &TreeSitter{
		parser: sitter.NewParser(),
		log:    log,
	}
}

// SetLanguage installs the grammar used by subsequent parses.
func (e *TreeSitter) SetLanguage(lang Language) error {
	sl, ok := lang.(SitterLanguage)
	if !ok || !sl.Valid() {
		return errors.New("language handle carries no grammar")
	}
	e.lang = sl.Inner
	e.parser.SetLanguage(sl.Inner)
	return nil
}

// SetInput installs the text source for subsequent parses. The current tree
// is untouched; recorded edits still apply against it on the next parse.
func (e *TreeSitter) SetInput(in Input) {
	e.input = in
}

// SetLogger installs the trace sink; nil disables tracing.
func (e *TreeSitter) SetLogger(l Logger) {
	e.logger = l
}

// Edit records a source modification against the current tree. The runtime
// wants row/column coordinates alongside the byte offsets; those cannot be
// computed precisely until the inserted text is visible, so application is
// deferred to the next Parse.
func (e *TreeSitter) Edit(ed Edit) {
	if e.tree == nil {
		return
	}
	e.edits = append(e.edits, ed)
}

// Parse builds or incrementally rebuilds the tree from the installed input.
// Accumulated edits are applied to the old tree first: start and old-end
// points come from the previously parsed text, the new-end point from the
// text just drained, which is exact for the usual single-edit-per-parse
// cycle and a close bound for stacked edits.
func (e *TreeSitter) Parse() error {
	if e.lang == nil {
		return errors.New("no language installed")
	}
	e.trace("parse start", LogParse)

	src := drain(e.input)
	old := e.tree
	if e.full {
		old = nil
	}
	if old != nil {
		for _, ed := range e.edits {
			start := pointAt(e.src, ed.StartByte)
			oldEnd := pointAt(e.src, ed.OldEndByte)
			newEnd := pointAt(src, ed.NewEndByte)
			old.Edit(sitter.EditInput{
				StartIndex:  ed.StartByte,
				OldEndIndex: ed.OldEndByte,
				NewEndIndex: ed.NewEndByte,
				StartPoint:  sitter.Point{Row: start.Row, Column: start.Column},
				OldEndPoint: sitter.Point{Row: oldEnd.Row, Column: oldEnd.Column},
				NewEndPoint: sitter.Point{Row: newEnd.Row, Column: newEnd.Column},
			})
		}
	}
	e.edits = nil
	tree, err := e.parser.ParseCtx(context.Background(), old, src)
	if err != nil {
		e.trace(fmt.Sprintf("parse failed: %v", err), LogParse)
		return fmt.Errorf("tree-sitter parse: %w", err)
	}
	if e.tree != nil {
		e.tree.Close()
	}
	e.tree = tree
	e.src = src
	e.full = false

	e.trace(fmt.Sprintf("parse done: %d bytes", len(src)), LogParse)
	if e.graphs {
		if s, ok := e.Render(RootRef()); ok {
			e.trace("graph: "+s, LogParse)
		}
	}
	return nil
}

// Invalidate discards incremental-reuse eligibility.
func (e *TreeSitter) Invalidate() {
	e.full = true
	e.trace("invalidate: next parse is from scratch", LogParse)
}

// HasTree reports whether a successful parse has produced a root.
func (e *TreeSitter) HasTree() bool {
	return e.tree != nil
}

// Info resolves a descriptor to its node facts.
func (e *TreeSitter) Info(ref NodeRef) (NodeInfo, bool) {
	n := e.resolve(ref)
	if n == nil {
		return NodeInfo{}, false
	}
	sp, ep := n.StartPoint(), n.EndPoint()
	return NodeInfo{
		Type:       n.Type(),
		Named:      n.IsNamed(),
		StartByte:  n.StartByte(),
		EndByte:    n.EndByte(),
		StartPoint: Point{Row: sp.Row, Column: sp.Column},
		EndPoint:   Point{Row: ep.Row, Column: ep.Column},
	}, true
}

// ChildCount returns how many children (all, or named only) the node has.
func (e *TreeSitter) ChildCount(ref NodeRef, namedOnly bool) (uint32, bool) {
	n := e.resolve(ref)
	if n == nil {
		return 0, false
	}
	if namedOnly {
		return n.NamedChildCount(), true
	}
	return n.ChildCount(), true
}

// Child resolves the i-th child of the node. Named indexing is mapped back to
// all-children ordinals so every NodeRef stays canonical.
func (e *TreeSitter) Child(ref NodeRef, i uint32, namedOnly bool) (NodeRef, bool) {
	n := e.resolve(ref)
	if n == nil {
		return NodeRef{}, false
	}
	count := n.ChildCount()
	if !namedOnly {
		if i >= count {
			return NodeRef{}, false
		}
		return ref.Child(i), true
	}
	seen := uint32(0)
	for j := uint32(0); j < count; j++ {
		if n.Child(int(j)).IsNamed() {
			if seen == i {
				return ref.Child(j), true
			}
			seen++
		}
	}
	return NodeRef{}, false
}

// NextSibling resolves the adjacent sibling in source order.
func (e *TreeSitter) NextSibling(ref NodeRef, named, reverse bool) (NodeRef, bool) {
	parentRef, ok := ref.Parent()
	if !ok {
		return NodeRef{}, false
	}
	parent := e.resolve(parentRef)
	if parent == nil {
		return NodeRef{}, false
	}
	idx := ref.Path[len(ref.Path)-1]
	count := parent.ChildCount()
	if idx >= count {
		return NodeRef{}, false
	}
	if reverse {
		for j := int(idx) - 1; j >= 0; j-- {
			if !named || parent.Child(j).IsNamed() {
				return parentRef.Child(uint32(j)), true
			}
		}
		return NodeRef{}, false
	}
	for j := idx + 1; j < count; j++ {
		if !named || parent.Child(int(j)).IsNamed() {
			return parentRef.Child(j), true
		}
	}
	return NodeRef{}, false
}

// Descendant finds the smallest node whose byte range covers [minByte, maxByte].
func (e *TreeSitter) Descendant(ref NodeRef, minByte, maxByte uint32, namedOnly bool) (NodeRef, bool) {
	return e.descend(ref, namedOnly, func(n *sitter.Node) bool {
		return n.StartByte() <= minByte && n.EndByte() >= maxByte
	})
}

// DescendantForPoints is Descendant over point coordinates.
func (e *TreeSitter) DescendantForPoints(ref NodeRef, min, max Point, namedOnly bool) (NodeRef, bool) {
	return e.descend(ref, namedOnly, func(n *sitter.Node) bool {
		sp, ep := n.StartPoint(), n.EndPoint()
		start := Point{Row: sp.Row, Column: sp.Column}
		end := Point{Row: ep.Row, Column: ep.Column}
		return !min.Less(start) && !end.Less(max)
	})
}

// descend walks from ref toward the leaves, following the unique child whose
// range still covers the query, and returns the deepest (optionally named)
// node reached.
func (e *TreeSitter) descend(ref NodeRef, namedOnly bool, covers func(*sitter.Node) bool) (NodeRef, bool) {
	n := e.resolve(ref)
	if n == nil {
		return NodeRef{}, false
	}
	cur, curRef := n, ref
	best, haveBest := ref, !namedOnly || n.IsNamed()
	for {
		descended := false
		count := cur.ChildCount()
		for j := uint32(0); j < count; j++ {
			c := cur.Child(int(j))
			if covers(c) {
				cur, curRef = c, curRef.Child(j)
				if !namedOnly || c.IsNamed() {
					best, haveBest = curRef, true
				}
				descended = true
				break
			}
		}
		if !descended {
			return best, haveBest
		}
	}
}

// Render returns the s-expression form of the subtree at ref. The runtime's
// native buffer is copied into a Go string and released inside the binding
// before this returns.
func (e *TreeSitter) Render(ref NodeRef) (string, bool) {
	n := e.resolve(ref)
	if n == nil {
		return "", false
	}
	return n.String(), true
}

// SetDebugGraphs toggles structural tracing of each parse result.
func (e *TreeSitter) SetDebugGraphs(enabled bool) {
	e.graphs = enabled
}

// Close releases the tree and the parser. Safe to call once.
func (e *TreeSitter) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.tree != nil {
		e.tree.Close()
		e.tree = nil
	}
	e.parser.Close()
	e.log.Debug("engine: tree-sitter backend closed")
}

// resolve walks the child-index path from the root. A nil result means the
// descriptor does not name a live node in the current tree.
func (e *TreeSitter) resolve(ref NodeRef) *sitter.Node {
	if e.tree == nil {
		return nil
	}
	n := e.tree.RootNode()
	for _, idx := range ref.Path {
		if idx >= n.ChildCount() {
			return nil
		}
		n = n.Child(int(idx))
		if n == nil {
			return nil
		}
	}
	return n
}

// trace emits an event to the installed logger, if any.
func (e *TreeSitter) trace(msg string, kind LogKind) {
	if e.logger != nil {
		e.logger.Log(msg, kind)
	}
}

// drain pulls the whole input through the streaming contract: seek to the
// start, then read until the end marker, tolerating chunks of any length.
func drain(in Input) []byte {
	if in == nil {
		return nil
	}
	var buf []byte
	in.Seek(0)
	for {
		chunk, ok := in.Read(uint32(len(buf)))
		if !ok {
			return buf
		}
		buf = append(buf, chunk...)
	}
}

// pointAt computes the row/column of a byte offset by scanning the retained
// source for newlines.
func pointAt(src []byte, offset uint32) Point {
	if int(offset) > len(src) {
		offset = uint32(len(src))
	}
	var p Point
	for _, b := range src[:offset] {
		if b == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}
