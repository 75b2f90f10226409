package vm

import (
	"errors"
	"fmt"
)

// Budget errors. Both are only returned when the corresponding Config
// limit is non-zero.
var (
	// ErrStepLimit indicates the search executed more than Config.MaxSteps
	// instructions.
	ErrStepLimit = errors.New("backtracking step limit exceeded")

	// ErrStackLimit indicates the backtrack stack grew beyond
	// Config.MaxStackDepth entries.
	ErrStackLimit = errors.New("backtracking stack limit exceeded")
)

// LimitError reports where a search gave up.
type LimitError struct {
	// From is the start offset being tried when the budget ran out.
	From  int
	Limit int
	Err   error
}

// Error implements the error interface
func (e *LimitError) Error() string {
	return fmt.Sprintf("search aborted at offset %d: %v (limit %d)", e.From, e.Err, e.Limit)
}

// Unwrap returns the underlying error
func (e *LimitError) Unwrap() error {
	return e.Err
}
