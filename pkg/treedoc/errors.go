package treedoc

import "fmt"

// ArgumentTypeError reports a parameter whose dynamic value cannot serve the
// call, such as an input source interface holding a nil implementation.
type ArgumentTypeError struct {
	Argument string
	Want     string
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("argument %s: must be %s", e.Argument, e.Want)
}

// ArgumentArityError reports a range-style query that received neither one
// nor two positions.
type ArgumentArityError struct {
	Op  string
	Got int
}

func (e *ArgumentArityError) Error() string {
	return fmt.Sprintf("%s: must provide 1 or 2 positions, got %d", e.Op, e.Got)
}

// InvalidLanguageError reports a language handle that carries no usable
// grammar.
type InvalidLanguageError struct {
	Reason string
}

func (e *InvalidLanguageError) Error() string {
	return fmt.Sprintf("invalid language: %s", e.Reason)
}
