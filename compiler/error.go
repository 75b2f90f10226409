// Package compiler translates a syntax tree into a prog.Program.
//
// Every node becomes a fragment whose Jump and Branch operands are offsets
// relative to the instruction that carries them. Fragments are therefore
// position independent and compose by plain concatenation; a single final
// pass adds each instruction's own index to its operands, producing the
// absolute addresses the VM executes.
package compiler

import (
	"errors"
	"fmt"

	"github.com/coregx/regvm/syntax"
)

// Compilation errors
var (
	// ErrEmptyBranch indicates an alternation node with no alternatives.
	// The parser never produces one; it can only come from a hand-built tree.
	ErrEmptyBranch = errors.New("branch node has no alternatives")

	// ErrEmptyConnect indicates a concatenation node with no factors.
	ErrEmptyConnect = errors.New("connect node has no factors")

	// ErrInvalidNode indicates a nil node, a unary node without a child, or
	// an unknown Op.
	ErrInvalidNode = errors.New("invalid syntax node")

	// ErrInvalidRepeat indicates a {min,max} repetition with min > max or a
	// negative bound.
	ErrInvalidRepeat = errors.New("invalid repeat range")

	// ErrTooLarge indicates the program would exceed Config.MaxInstructions.
	ErrTooLarge = errors.New("program too large")

	// ErrTooDeep indicates the tree is nested deeper than
	// Config.MaxRecursionDepth.
	ErrTooDeep = errors.New("pattern nested too deeply")

	// ErrInvalidProgram indicates the relocated program failed validation.
	// This is a compiler defect, surfaced instead of handed to the VM.
	ErrInvalidProgram = errors.New("compiler produced an invalid program")
)

// CompileError wraps compilation errors with the node kind being compiled
type CompileError struct {
	Op  syntax.Op
	Err error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Op != 0 {
		return fmt.Sprintf("compile error at %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("compile error: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}
