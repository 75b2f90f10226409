package syntax

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax is matched by every error returned from Parse:
//
//	if errors.Is(err, syntax.ErrSyntax) { ... }
var ErrSyntax = errors.New("syntax error")

// ErrorCode classifies a parse failure.
type ErrorCode uint8

const (
	// ErrUnexpectedEOS: an atom was required but the pattern ended.
	ErrUnexpectedEOS ErrorCode = iota + 1

	// ErrExpectChar: a specific character (`)`, `,`, `}`, `]`, `\`) was
	// required but something else, or nothing, was found.
	ErrExpectChar

	// ErrTrailingEscape: the pattern ends with a lone `\`.
	ErrTrailingEscape

	// ErrUnclosedClass: a `[` has no matching `]`.
	ErrUnclosedClass

	// ErrTrailingInput: input remains after the root branch and optional `$`.
	// The rest of the pattern is rejected rather than ignored: `a)b` and
	// `a$b` are errors instead of patterns that match like `a`. This is the
	// one error kind stricter than the grammar requires; the others report
	// input the grammar cannot derive at all.
	ErrTrailingInput

	// ErrNestingDepth: groups are nested deeper than ParseConfig.MaxDepth.
	ErrNestingDepth
)

// String returns a short identifier for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrUnexpectedEOS:
		return "unexpected end of pattern"
	case ErrExpectChar:
		return "missing expected character"
	case ErrTrailingEscape:
		return "trailing backslash"
	case ErrUnclosedClass:
		return "unclosed character class"
	case ErrTrailingInput:
		return "trailing input"
	case ErrNestingDepth:
		return "nesting too deep"
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// endOfString is how the end of the pattern is named in messages.
const endOfString = "End-Of-String"

// Error describes a pattern that could not be parsed.
//
// Every code except ErrTrailingInput marks a pattern the grammar cannot
// derive. ErrTrailingInput is deliberate hardening: a closing ')' with no
// opener, or a '$' before the end, would otherwise end the pattern early
// and silently drop what follows.
//
// Pos is the code point offset at which the problem was detected. Expected
// and Found name the characters involved when they apply; AtEOS is set
// instead of Found when the pattern ran out. Limit carries the configured
// bound for ErrNestingDepth.
type Error struct {
	Code     ErrorCode
	Pos      int
	Expected rune
	Found    rune
	AtEOS    bool
	Limit    int
}

// Error implements the error interface. The message text is stable and
// suitable for comparison in tests.
func (e *Error) Error() string {
	switch e.Code {
	case ErrUnexpectedEOS:
		return "Syntax Error: expect a character but found " + endOfString
	case ErrTrailingEscape:
		return "Syntax Error: expect char but found " + endOfString
	case ErrUnclosedClass:
		return "Syntax Error: unclosed char-class, `]` not found"
	case ErrExpectChar:
		if e.AtEOS {
			return fmt.Sprintf("Syntax Error: expect `%c` but found %s", e.Expected, endOfString)
		}
		return fmt.Sprintf("Syntax Error: expect `%c` but found `%c`", e.Expected, e.Found)
	case ErrTrailingInput:
		return fmt.Sprintf("Syntax Error: expect %s but found `%c`", endOfString, e.Found)
	case ErrNestingDepth:
		return fmt.Sprintf("Syntax Error: nesting depth exceeds %d", e.Limit)
	}
	return "Syntax Error: " + e.Code.String()
}

// Is reports whether target is ErrSyntax.
func (e *Error) Is(target error) bool {
	return target == ErrSyntax
}
