package treedoc

import "treedoc/internal/engine"

// LogKind classifies a trace event emitted during parsing.
type LogKind int

const (
	LogKindParse LogKind = iota
	LogKindLex
)

// String returns "parse" or "lex".
func (k LogKind) String() string {
	if k == LogKindLex {
		return "lex"
	}
	return "parse"
}

// LogFunc receives the engine's structured trace events.
type LogFunc func(message string, kind LogKind)

// loggerAdapter bridges a host LogFunc into the engine's logger contract.
// When no callback is installed the engine is handed nil instead of an
// adapter, so tracing costs nothing at the engine's call sites.
type loggerAdapter struct {
	fn       LogFunc
	disposed bool
}

func newLoggerAdapter(fn LogFunc) *loggerAdapter {
	return &loggerAdapter{fn: fn}
}

// Log forwards one engine event to the host callback.
func (a *loggerAdapter) Log(message string, kind engine.LogKind) {
	if a.disposed || a.fn == nil {
		return
	}
	a.fn(message, LogKind(kind))
}

// dispose releases the callback reference. Idempotent.
func (a *loggerAdapter) dispose() {
	if a == nil || a.disposed {
		return
	}
	a.disposed = true
	a.fn = nil
}

// callback returns the wrapped host function, or nil after disposal.
func (a *loggerAdapter) callback() LogFunc {
	if a == nil || a.disposed {
		return nil
	}
	return a.fn
}
