package prog

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	// ErrEmptyProgram indicates a Program with no instructions.
	ErrEmptyProgram = errors.New("empty program")

	// ErrMissingFinish indicates the last instruction is not Finish.
	ErrMissingFinish = errors.New("program does not end with Finish")

	// ErrInvalidTarget indicates a Jump or Branch target outside the program.
	ErrInvalidTarget = errors.New("jump target out of range")

	// ErrInvalidInst indicates an instruction with an unknown opcode or
	// operand kind.
	ErrInvalidInst = errors.New("invalid instruction")
)

// Error reports which instruction failed validation.
type Error struct {
	PC  int
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("invalid program at %02d: %v", e.PC, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Program is an address-resolved instruction sequence.
type Program struct {
	Inst []Inst
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Inst)
}

// At returns the instruction at pc, or nil if pc is out of range.
func (p *Program) At(pc int) *Inst {
	if pc < 0 || pc >= len(p.Inst) {
		return nil
	}
	return &p.Inst[pc]
}

// AnchoredStart reports whether every match must begin at offset 0, which
// is the case when the first instruction is MatchPos(Front).
func (p *Program) AnchoredStart() bool {
	return len(p.Inst) > 0 && p.Inst[0].Op == InstMatchPos && p.Inst[0].Pos == PosFront
}

// Validate checks the structural invariants the VM relies on: the program
// is non-empty, ends with Finish, and every Jump/Branch target is a valid
// instruction index.
func (p *Program) Validate() error {
	n := len(p.Inst)
	if n == 0 {
		return &Error{PC: 0, Err: ErrEmptyProgram}
	}
	if p.Inst[n-1].Op != InstFinish {
		return &Error{PC: n - 1, Err: ErrMissingFinish}
	}
	for pc := range p.Inst {
		inst := &p.Inst[pc]
		switch inst.Op {
		case InstJump:
			if int64(inst.X) >= int64(n) {
				return &Error{PC: pc, Err: ErrInvalidTarget}
			}
		case InstBranch:
			if int64(inst.X) >= int64(n) || int64(inst.Y) >= int64(n) {
				return &Error{PC: pc, Err: ErrInvalidTarget}
			}
		case InstMatchChar:
			if inst.Char < CharLiteral || inst.Char > CharClass {
				return &Error{PC: pc, Err: ErrInvalidInst}
			}
		case InstMatchPos:
			if inst.Pos != PosFront && inst.Pos != PosBack {
				return &Error{PC: pc, Err: ErrInvalidInst}
			}
		case InstGroupParenL, InstGroupParenR, InstFinish:
		default:
			return &Error{PC: pc, Err: ErrInvalidInst}
		}
	}
	return nil
}

// Equal reports whether p and other hold the same instructions.
func (p *Program) Equal(other *Program) bool {
	if len(p.Inst) != len(other.Inst) {
		return false
	}
	for i := range p.Inst {
		if !p.Inst[i].Equal(&other.Inst[i]) {
			return false
		}
	}
	return true
}

// String disassembles the program, one "index: instruction" line each:
//
//	00: Branch(1, 2)
//	01: MatchChar(Literal('a'))
//	02: Finish
func (p *Program) String() string {
	var b strings.Builder
	for pc := range p.Inst {
		fmt.Fprintf(&b, "%02d: %s\n", pc, p.Inst[pc].String())
	}
	return b.String()
}
