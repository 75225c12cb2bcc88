package treedoc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"treedoc/internal/engine"
)

// Language is an opaque grammar capability. The zero Language carries no
// grammar and is rejected by Document.SetLanguage.
type Language struct {
	inner engine.Language
}

// NewLanguage wraps a tree-sitter grammar. Passing nil yields a handle that
// SetLanguage rejects with InvalidLanguageError.
func NewLanguage(l *sitter.Language) Language {
	return Language{inner: engine.SitterLanguage{Inner: l}}
}

func (l Language) valid() bool {
	return l.inner != nil && l.inner.Valid()
}
