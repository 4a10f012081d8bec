package cif

import (
	"errors"
	"fmt"
)

// Sentinel errors for data-model contract violations. They are always
// returned wrapped with context (block name, dataname, counts) and can be
// tested with errors.Is.
var (
	// ErrDuplicateBlock reports a block name already present in the file.
	ErrDuplicateBlock = errors.New("cif: duplicate block name")

	// ErrOverwrite reports an assignment to an existing dataname while the
	// block's overwrite flag is off.
	ErrOverwrite = errors.New("cif: dataname exists and overwrite is disabled")

	// ErrLoopRowMismatch reports a loop whose value count is not an exact
	// multiple of its column count.
	ErrLoopRowMismatch = errors.New("cif: loop values do not fill whole rows")

	// ErrLoopLengthMismatch reports columns of unequal length handed to
	// CreateLoop or AddToLoop.
	ErrLoopLengthMismatch = errors.New("cif: loop columns have unequal lengths")

	// ErrNotInLoop reports a dataname that is not a column of any loop.
	ErrNotInLoop = errors.New("cif: dataname is not in a loop")

	// ErrAmbiguousKey reports a keyed packet lookup that matched zero rows
	// or more than one row.
	ErrAmbiguousKey = errors.New("cif: key does not select exactly one packet")

	// ErrPacketSchema reports a packet whose field names do not exactly
	// match the loop's columns.
	ErrPacketSchema = errors.New("cif: packet fields do not match loop columns")

	// ErrGrammar reports a value or construct that the requested output
	// grammar cannot represent.
	ErrGrammar = errors.New("cif: not representable in this grammar")
)

// ParseError reports malformed input: a bad token, an unterminated quote or
// text block, or a structurally misplaced construct.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cif: line %d: %s", e.Line, e.Msg)
}

func parseErrorf(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// LineLengthError reports a physical input line longer than the configured
// maximum.
type LineLengthError struct {
	Line   int
	Length int
	Limit  int
}

func (e *LineLengthError) Error() string {
	return fmt.Sprintf("cif: line %d: %d characters exceeds limit of %d", e.Line, e.Length, e.Limit)
}

// GrammarAttempt records one failed parse during grammar auto-detection.
type GrammarAttempt struct {
	Grammar Grammar
	Err     error
}

// GrammarDetectionError reports that no grammar in the detection chain
// parsed the input. Attempts holds the per-grammar failures in the order
// they were tried.
type GrammarDetectionError struct {
	Attempts []GrammarAttempt
}

func (e *GrammarDetectionError) Error() string {
	s := "cif: no grammar matches input"
	for _, a := range e.Attempts {
		s += fmt.Sprintf("; %s: %v", a.Grammar, a.Err)
	}
	return s
}

// Unwrap exposes the per-attempt errors to errors.Is and errors.As.
func (e *GrammarDetectionError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// TemplateFormatError reports a layout template that violates the template
// file constraints.
type TemplateFormatError struct {
	Line int
	Msg  string
}

func (e *TemplateFormatError) Error() string {
	return fmt.Sprintf("cif: template line %d: %s", e.Line, e.Msg)
}
