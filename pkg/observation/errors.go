package observation

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks input that does not parse into the expected shape.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInconsistentFact marks a corpus-wide invariant reported two different ways.
	ErrInconsistentFact = errors.New("inconsistent fact")
)

// MalformedInputError reports the offending source, line and text.
type MalformedInputError struct {
	Source string // File or stream name
	Line   int    // 1-based line number, 0 when unknown
	Text   string // Offending line, verbatim
	Reason string // What was wrong with it
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s: %q", e.Source, e.Line, ErrMalformedInput, e.Reason, e.Text)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// InconsistentFactError reports a subject (pip or tile) seen with two different values.
type InconsistentFactError struct {
	Subject string // "pip" or "tile"
	Name    string // Pip name or tile instance name
	Have    string // Value recorded first
	Got     string // Conflicting value
	Source  string // Where the conflicting value was read
	Line    int    // Line of the conflicting value, 0 when unknown
}

func (e *InconsistentFactError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s '%s' already recorded as %s, now %s",
		e.Source, e.Line, ErrInconsistentFact, e.Subject, e.Name, e.Have, e.Got)
}

func (e *InconsistentFactError) Unwrap() error {
	return ErrInconsistentFact
}
