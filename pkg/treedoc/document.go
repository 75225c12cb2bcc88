package treedoc

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"treedoc/internal/engine"
	"treedoc/internal/textpos"
)

// Document owns a mutable syntax tree, the version counter that gates every
// outstanding handle, and the single active input and logger adapters. All
// operations are synchronous and single-threaded: handles never observe a
// mutation in progress because nothing here runs concurrently, and staleness
// is detected by the version check alone.
type Document struct {
	eng     engine.Engine
	codec   textpos.Codec
	version uint64

	input  *inputAdapter
	logger *loggerAdapter

	log    *zap.Logger
	closed bool
}

// Option configures a Document at construction time.
type Option func(*Document)

// WithUnitWidth sets the number of internal bytes per external character
// unit. The default is 2, matching hosts with double-byte text units.
func WithUnitWidth(width uint32) Option {
	return func(d *Document) {
		d.codec = textpos.NewCodec(width)
	}
}

// WithZapLogger installs an ambient logger for lifecycle debug events. This
// is unrelated to SetLogger, which routes the engine's own trace stream to
// the host.
func WithZapLogger(log *zap.Logger) Option {
	return func(d *Document) {
		if log != nil {
			d.log = log
		}
	}
}

// withEngine swaps the parsing engine. Used by tests to substitute a double.
func withEngine(eng engine.Engine) Option {
	return func(d *Document) {
		d.eng = eng
	}
}

// New creates an empty Document: no language, no input, no logger, version 0.
func New(opts ...Option) *Document {
	d := &Document{
		codec: textpos.NewCodec(textpos.DefaultWidth),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.eng == nil {
		d.eng = engine.NewTreeSitter(d.log)
	}
	d.log.Debug("document created", zap.Uint32("unit_width", d.codec.Width()))
	return d
}

// SetLanguage installs the grammar used by subsequent parses. A handle
// carrying no grammar pointer is rejected with InvalidLanguageError and the
// previously installed language stays in effect.
func (d *Document) SetLanguage(lang Language) error {
	if !lang.valid() {
		return &InvalidLanguageError{Reason: "handle carries no grammar pointer"}
	}
	if err := d.eng.SetLanguage(lang.inner); err != nil {
		return &InvalidLanguageError{Reason: err.Error()}
	}
	d.log.Debug("language installed")
	return nil
}

// SetInput installs src as the text source for subsequent parses; nil resets
// to an empty zero-length input. The new adapter is installed before the old
// one is released, so a failure leaves the previous input untouched and no
// adapter is ever disposed while the engine still references it.
func (d *Document) SetInput(src InputSource) error {
	if src != nil && isNilValue(src) {
		return &ArgumentTypeError{Argument: "source", Want: "an object with seek and read"}
	}

	prev := d.input
	if src == nil {
		d.input = nil
		d.eng.SetInput(nil)
	} else {
		adapter := newInputAdapter(src, d.codec)
		d.eng.SetInput(adapter)
		d.input = adapter
	}
	prev.dispose()
	d.log.Debug("input installed", zap.Bool("empty", src == nil))
	return nil
}

// Input returns the currently installed host source, or nil.
func (d *Document) Input() InputSource {
	return d.input.source()
}

// SetLogger routes the engine's trace events to fn; nil uninstalls. The
// previous adapter is disposed first, mirroring the input replacement rule:
// exactly one disposal, never a dangling callback.
func (d *Document) SetLogger(fn LogFunc) {
	d.logger.dispose()
	if fn == nil {
		d.logger = nil
		d.eng.SetLogger(nil)
		return
	}
	d.logger = newLoggerAdapter(fn)
	d.eng.SetLogger(d.logger)
}

// Logger returns the currently installed host callback, or nil.
func (d *Document) Logger() LogFunc {
	return d.logger.callback()
}

// Edit records a pending modification in external units and immediately
// invalidates every outstanding handle: downstream byte offsets stop being
// trustworthy the moment the edit is committed, before any reparse runs.
// Multiple edits may be recorded before the next Parse. Returns d for
// chaining.
func (d *Document) Edit(e EditDescriptor) *Document {
	d.eng.Edit(engine.Edit{
		StartByte:  d.codec.ToInternal(e.Position),
		OldEndByte: d.codec.ToInternal(e.Position + e.CharsRemoved),
		NewEndByte: d.codec.ToInternal(e.Position + e.CharsInserted),
	})
	d.version++
	d.log.Debug("edit recorded",
		zap.Uint32("position", e.Position),
		zap.Uint32("removed", e.CharsRemoved),
		zap.Uint32("inserted", e.CharsInserted),
		zap.Uint64("version", d.version))
	return d
}

// Parse synchronously (re)parses the current input, reusing subtrees outside
// any recorded edits, or the whole document from scratch after Invalidate.
// Every successful parse rebuilds the tree underneath outstanding handles,
// so it advances the version even when no edit preceded it — a handle minted
// before any reparse must never resolve against the rebuilt tree.
// It blocks for the duration; the engine underneath offers no cancellation.
// Input and logger callbacks run nested inside this call and must not
// re-enter Parse on the same document.
func (d *Document) Parse() error {
	if err := d.eng.Parse(); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	d.version++
	d.log.Debug("parsed", zap.Uint64("version", d.version))
	return nil
}

// Invalidate discards incremental-reuse eligibility so the next Parse starts
// from scratch, and bumps the version like an edit does.
func (d *Document) Invalidate() {
	d.eng.Invalidate()
	d.version++
	d.log.Debug("invalidated", zap.Uint64("version", d.version))
}

// RootNode returns a handle on the current root stamped with the current
// version, or nil if no successful parse has happened yet.
func (d *Document) RootNode() *Node {
	if d.closed || !d.eng.HasTree() {
		return nil
	}
	return &Node{ref: engine.RootRef(), doc: d, version: d.version}
}

// SetDebugGraphs toggles engine-level structural tracing. Pure pass-through.
func (d *Document) SetDebugGraphs(enabled bool) {
	d.eng.SetDebugGraphs(enabled)
}

// Version returns the current handle-gating counter.
func (d *Document) Version() uint64 {
	return d.version
}

// Close releases the internal tree and disposes whichever adapters are still
// installed. Outstanding handles become permanently invalid. Idempotent.
func (d *Document) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.version++
	d.input.dispose()
	d.input = nil
	d.logger.dispose()
	d.logger = nil
	d.eng.Close()
	d.log.Debug("document closed")
}

// isNilValue reports whether a non-nil interface wraps a nil pointer, the
// one dynamic type failure Go's static checking cannot catch.
func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
