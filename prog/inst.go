// Package prog defines the bytecode executed by the backtracking VM.
//
// A Program is a flat slice of instructions with absolute jump targets. It
// is produced once by package compiler and then only read, so a single
// Program may be shared by any number of concurrent searches.
//
// The instruction set:
//
//	MatchChar(kind)       consume one code point if it matches kind
//	Jump(x)               pc = x
//	Branch(x, y)          try pc = x, remember y for backtracking
//	MatchPos(Front|Back)  zero-width start / end of text assertion
//	GroupParenL           open a capture group at the current position
//	GroupParenR           close the innermost open capture group
//	Finish                report a match
package prog

import (
	"strconv"
	"strings"
)

// InstOp is an instruction opcode.
type InstOp uint8

const (
	// InstMatchChar consumes one code point described by Char.
	InstMatchChar InstOp = iota + 1

	// InstJump transfers control to X.
	InstJump

	// InstBranch transfers control to X and records Y as the backtrack
	// alternative. X is always explored exhaustively before Y.
	InstBranch

	// InstMatchPos asserts Pos without consuming input.
	InstMatchPos

	// InstGroupParenL marks the start of a capture group.
	InstGroupParenL

	// InstGroupParenR marks the end of the innermost open capture group.
	InstGroupParenR

	// InstFinish ends a successful match. It is always the last
	// instruction of a Program.
	InstFinish
)

var instOpNames = [...]string{
	InstMatchChar:   "MatchChar",
	InstJump:        "Jump",
	InstBranch:      "Branch",
	InstMatchPos:    "MatchPos",
	InstGroupParenL: "GroupParenL",
	InstGroupParenR: "GroupParenR",
	InstFinish:      "Finish",
}

func (op InstOp) String() string {
	if int(op) < len(instOpNames) && instOpNames[op] != "" {
		return instOpNames[op]
	}
	return "InstOp(" + strconv.Itoa(int(op)) + ")"
}

// CharKind selects what an InstMatchChar accepts.
type CharKind uint8

const (
	// CharLiteral accepts exactly Rune.
	CharLiteral CharKind = iota + 1

	// CharAny accepts any code point.
	CharAny

	// CharClass accepts a code point in Runes, or not in Runes when Negated.
	CharClass
)

// Position is the operand of InstMatchPos.
type Position uint8

const (
	// PosFront holds at offset 0.
	PosFront Position = iota + 1

	// PosBack holds at the end of the text.
	PosBack
)

func (p Position) String() string {
	switch p {
	case PosFront:
		return "Front"
	case PosBack:
		return "Back"
	}
	return "Position(" + strconv.Itoa(int(p)) + ")"
}

// Inst is a single instruction.
//
// Only the fields relevant to Op are set:
//   - InstMatchChar: Char, plus Rune (CharLiteral) or Negated/Runes (CharClass)
//   - InstJump: X
//   - InstBranch: X (primary) and Y (alternate)
//   - InstMatchPos: Pos
type Inst struct {
	Op      InstOp
	Char    CharKind
	Pos     Position
	Negated bool
	Rune    rune
	Runes   []rune
	X, Y    uint32
}

// MatchLiteral returns MatchChar(Literal(r)).
func MatchLiteral(r rune) Inst {
	return Inst{Op: InstMatchChar, Char: CharLiteral, Rune: r}
}

// MatchAny returns MatchChar(Any).
func MatchAny() Inst {
	return Inst{Op: InstMatchChar, Char: CharAny}
}

// MatchClass returns MatchChar(CharClass(negated, runes)).
func MatchClass(negated bool, runes []rune) Inst {
	return Inst{Op: InstMatchChar, Char: CharClass, Negated: negated, Runes: runes}
}

// Jump returns Jump(x).
func Jump(x uint32) Inst {
	return Inst{Op: InstJump, X: x}
}

// Branch returns Branch(x, y).
func Branch(x, y uint32) Inst {
	return Inst{Op: InstBranch, X: x, Y: y}
}

// MatchPos returns MatchPos(pos).
func MatchPos(pos Position) Inst {
	return Inst{Op: InstMatchPos, Pos: pos}
}

// GroupParenL returns GroupParenL.
func GroupParenL() Inst {
	return Inst{Op: InstGroupParenL}
}

// GroupParenR returns GroupParenR.
func GroupParenR() Inst {
	return Inst{Op: InstGroupParenR}
}

// Finish returns Finish.
func Finish() Inst {
	return Inst{Op: InstFinish}
}

// Matches reports whether an InstMatchChar accepts r. It is false for any
// other opcode.
func (i *Inst) Matches(r rune) bool {
	if i.Op != InstMatchChar {
		return false
	}
	switch i.Char {
	case CharLiteral:
		return r == i.Rune
	case CharAny:
		return true
	case CharClass:
		for _, m := range i.Runes {
			if m == r {
				return !i.Negated
			}
		}
		return i.Negated
	}
	return false
}

// Equal reports whether i and other encode the same instruction.
func (i *Inst) Equal(other *Inst) bool {
	if i.Op != other.Op {
		return false
	}
	switch i.Op {
	case InstMatchChar:
		if i.Char != other.Char {
			return false
		}
		switch i.Char {
		case CharLiteral:
			return i.Rune == other.Rune
		case CharClass:
			if i.Negated != other.Negated || len(i.Runes) != len(other.Runes) {
				return false
			}
			for k := range i.Runes {
				if i.Runes[k] != other.Runes[k] {
					return false
				}
			}
		}
		return true
	case InstJump:
		return i.X == other.X
	case InstBranch:
		return i.X == other.X && i.Y == other.Y
	case InstMatchPos:
		return i.Pos == other.Pos
	}
	return true
}

// String returns the instruction in the form used by disassembly listings,
// e.g. "Branch(1, 3)" or "MatchChar(CharClass(false, ['c', 'd']))".
func (i *Inst) String() string {
	var b strings.Builder
	b.WriteString(i.Op.String())
	switch i.Op {
	case InstMatchChar:
		b.WriteByte('(')
		switch i.Char {
		case CharLiteral:
			b.WriteString("Literal(")
			b.WriteString(strconv.QuoteRune(i.Rune))
			b.WriteByte(')')
		case CharAny:
			b.WriteString("Any")
		case CharClass:
			b.WriteString("CharClass(")
			b.WriteString(strconv.FormatBool(i.Negated))
			b.WriteString(", [")
			for k, r := range i.Runes {
				if k > 0 {
					b.WriteString(", ")
				}
				b.WriteString(strconv.QuoteRune(r))
			}
			b.WriteString("])")
		default:
			b.WriteString("?")
		}
		b.WriteByte(')')
	case InstJump:
		b.WriteByte('(')
		b.WriteString(strconv.FormatUint(uint64(i.X), 10))
		b.WriteByte(')')
	case InstBranch:
		b.WriteByte('(')
		b.WriteString(strconv.FormatUint(uint64(i.X), 10))
		b.WriteString(", ")
		b.WriteString(strconv.FormatUint(uint64(i.Y), 10))
		b.WriteByte(')')
	case InstMatchPos:
		b.WriteByte('(')
		b.WriteString(i.Pos.String())
		b.WriteByte(')')
	}
	return b.String()
}
