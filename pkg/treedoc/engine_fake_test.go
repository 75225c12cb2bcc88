package treedoc

import (
	"fmt"
	"strings"

	"treedoc/internal/engine"
)

// fakeNode is an in-memory tree node for the engine double.
type fakeNode struct {
	typ        string
	named      bool
	start, end uint32 // byte offsets
	startPt    engine.Point
	endPt      engine.Point
	children   []*fakeNode
}

// fakeEngine implements engine.Engine over a hand-built tree, so package
// tests exercise the handle layer without the native runtime. Parse drains
// the installed input and hands the bytes to build.
type fakeEngine struct {
	root  *fakeNode
	build func(src []byte) *fakeNode

	input  engine.Input
	logger engine.Logger

	edits       []engine.Edit
	invalidated bool
	parses      int
	fullParses  int
	graphs      bool
	closes      int
	lastSrc     []byte
}

func newFakeEngine(build func(src []byte) *fakeNode) *fakeEngine {
	return &fakeEngine{build: build}
}

func (f *fakeEngine) SetLanguage(lang engine.Language) error { return nil }
func (f *fakeEngine) SetInput(in engine.Input)               { f.input = in }
func (f *fakeEngine) SetLogger(l engine.Logger)              { f.logger = l }

func (f *fakeEngine) Edit(e engine.Edit) {
	f.edits = append(f.edits, e)
}

func (f *fakeEngine) Parse() error {
	var src []byte
	if f.input != nil {
		f.input.Seek(0)
		for {
			chunk, ok := f.input.Read(uint32(len(src)))
			if !ok {
				break
			}
			src = append(src, chunk...)
		}
	}
	f.lastSrc = src
	f.parses++
	if f.invalidated || len(f.edits) == 0 {
		f.fullParses++
	}
	f.invalidated = false
	f.edits = nil
	f.root = f.build(src)
	if f.logger != nil {
		f.logger.Log(fmt.Sprintf("parse done: %d bytes", len(src)), engine.LogParse)
		f.logger.Log("accepted token", engine.LogLex)
	}
	return nil
}

func (f *fakeEngine) Invalidate() { f.invalidated = true }
func (f *fakeEngine) HasTree() bool {
	return f.root != nil
}

func (f *fakeEngine) resolve(ref engine.NodeRef) *fakeNode {
	n := f.root
	if n == nil {
		return nil
	}
	for _, idx := range ref.Path {
		if int(idx) >= len(n.children) {
			return nil
		}
		n = n.children[idx]
	}
	return n
}

func (f *fakeEngine) Info(ref engine.NodeRef) (engine.NodeInfo, bool) {
	n := f.resolve(ref)
	if n == nil {
		return engine.NodeInfo{}, false
	}
	return engine.NodeInfo{
		Type:       n.typ,
		Named:      n.named,
		StartByte:  n.start,
		EndByte:    n.end,
		StartPoint: n.startPt,
		EndPoint:   n.endPt,
	}, true
}

func (f *fakeEngine) ChildCount(ref engine.NodeRef, namedOnly bool) (uint32, bool) {
	n := f.resolve(ref)
	if n == nil {
		return 0, false
	}
	if !namedOnly {
		return uint32(len(n.children)), true
	}
	count := uint32(0)
	for _, c := range n.children {
		if c.named {
			count++
		}
	}
	return count, true
}

func (f *fakeEngine) Child(ref engine.NodeRef, i uint32, namedOnly bool) (engine.NodeRef, bool) {
	n := f.resolve(ref)
	if n == nil {
		return engine.NodeRef{}, false
	}
	if !namedOnly {
		if int(i) >= len(n.children) {
			return engine.NodeRef{}, false
		}
		return ref.Child(i), true
	}
	seen := uint32(0)
	for j, c := range n.children {
		if c.named {
			if seen == i {
				return ref.Child(uint32(j)), true
			}
			seen++
		}
	}
	return engine.NodeRef{}, false
}

func (f *fakeEngine) NextSibling(ref engine.NodeRef, named, reverse bool) (engine.NodeRef, bool) {
	parentRef, ok := ref.Parent()
	if !ok {
		return engine.NodeRef{}, false
	}
	parent := f.resolve(parentRef)
	if parent == nil {
		return engine.NodeRef{}, false
	}
	idx := int(ref.Path[len(ref.Path)-1])
	if reverse {
		for j := idx - 1; j >= 0; j-- {
			if !named || parent.children[j].named {
				return parentRef.Child(uint32(j)), true
			}
		}
		return engine.NodeRef{}, false
	}
	for j := idx + 1; j < len(parent.children); j++ {
		if !named || parent.children[j].named {
			return parentRef.Child(uint32(j)), true
		}
	}
	return engine.NodeRef{}, false
}

func (f *fakeEngine) Descendant(ref engine.NodeRef, minByte, maxByte uint32, namedOnly bool) (engine.NodeRef, bool) {
	return f.descend(ref, namedOnly, func(n *fakeNode) bool {
		return n.start <= minByte && n.end >= maxByte
	})
}

func (f *fakeEngine) DescendantForPoints(ref engine.NodeRef, min, max engine.Point, namedOnly bool) (engine.NodeRef, bool) {
	return f.descend(ref, namedOnly, func(n *fakeNode) bool {
		return !min.Less(n.startPt) && !n.endPt.Less(max)
	})
}

func (f *fakeEngine) descend(ref engine.NodeRef, namedOnly bool, covers func(*fakeNode) bool) (engine.NodeRef, bool) {
	cur := f.resolve(ref)
	if cur == nil {
		return engine.NodeRef{}, false
	}
	curRef := ref
	best, haveBest := ref, !namedOnly || cur.named
	for {
		descended := false
		for j, c := range cur.children {
			if covers(c) {
				cur, curRef = c, curRef.Child(uint32(j))
				if !namedOnly || c.named {
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

func (f *fakeEngine) Render(ref engine.NodeRef) (string, bool) {
	n := f.resolve(ref)
	if n == nil {
		return "", false
	}
	return renderSexp(n), true
}

func renderSexp(n *fakeNode) string {
	if len(n.children) == 0 {
		return "(" + n.typ + ")"
	}
	parts := make([]string, 0, len(n.children))
	for _, c := range n.children {
		parts = append(parts, renderSexp(c))
	}
	return "(" + n.typ + " " + strings.Join(parts, " ") + ")"
}

func (f *fakeEngine) SetDebugGraphs(enabled bool) { f.graphs = enabled }
func (f *fakeEngine) Close()                      { f.closes++ }

// fixtureTree models external text "abcd " + "ef" style content: 5 external
// units, 10 bytes at width 2. Two named words separated by an unnamed space,
// the first word split into two named letters.
//
//	document [0,10)
//	├── word [0,4)
//	│   ├── letter [0,2)
//	│   └── letter [2,4)
//	├── space [4,6)   (unnamed)
//	└── word [6,10)
func fixtureTree([]byte) *fakeNode {
	pt := func(col uint32) engine.Point { return engine.Point{Row: 0, Column: col} }
	l1 := &fakeNode{typ: "letter", named: true, start: 0, end: 2, startPt: pt(0), endPt: pt(2)}
	l2 := &fakeNode{typ: "letter", named: true, start: 2, end: 4, startPt: pt(2), endPt: pt(4)}
	w1 := &fakeNode{typ: "word", named: true, start: 0, end: 4, startPt: pt(0), endPt: pt(4), children: []*fakeNode{l1, l2}}
	sp := &fakeNode{typ: "space", named: false, start: 4, end: 6, startPt: pt(4), endPt: pt(6)}
	w2 := &fakeNode{typ: "word", named: true, start: 6, end: 10, startPt: pt(6), endPt: pt(10)}
	return &fakeNode{typ: "document", named: true, start: 0, end: 10, startPt: pt(0), endPt: pt(10), children: []*fakeNode{w1, sp, w2}}
}

// newFixtureDocument builds a Document over the fake engine and fixture tree
// at the default unit width, already parsed once.
func newFixtureDocument(t interface{ Fatalf(string, ...any) }) (*Document, *fakeEngine) {
	eng := newFakeEngine(fixtureTree)
	doc := New(withEngine(eng))
	if err := doc.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc, eng
}
