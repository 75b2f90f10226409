// Package syntax parses regular expression patterns into an abstract syntax
// tree.
//
// The grammar is deliberately small:
//
//	PrefixSuffix = '^'? Branch '$'?
//	Branch       = Connect ('|' Connect)*
//	Connect      = Repeat+
//	Repeat       = Group ('*' | '+' | '?' | '{' number ',' number '}')?
//	Group        = '(' Branch ')' | '[' CharClass ']' | '.' | Literal
//	Literal      = any char, with '\' escaping the next char verbatim
//
// Parsing is recursive descent with a single code point of lookahead. The
// tree produced by Parse is consumed by package compiler; nothing else in the
// engine ever looks at it.
//
// Basic usage:
//
//	re, err := syntax.Parse(`^a?b+[cde]{1,3}|hoge(.+)$`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(re) // PrefixSuffix(true, Branch[...], true)
package syntax

import (
	"strconv"
	"strings"
)

// Op identifies the kind of a Regexp node.
type Op uint8

const (
	// OpPrefixSuffix is the root node. AnchorStart and AnchorEnd record
	// a leading '^' and a trailing '$'; Sub[0] is the body.
	OpPrefixSuffix Op = iota + 1

	// OpBranch is an alternation. Sub holds the alternatives in priority
	// order: Sub[0] is tried first.
	OpBranch

	// OpConnect is a concatenation of Sub.
	OpConnect

	// OpRepeatStar is Sub[0]* (greedy).
	OpRepeatStar

	// OpRepeatPlus is Sub[0]+ (greedy).
	OpRepeatPlus

	// OpMaybe is Sub[0]? (greedy).
	OpMaybe

	// OpRepeatRange is Sub[0]{Min,Max}: Min mandatory copies followed by
	// Max-Min optional ones. Min <= Max is not checked by the parser.
	OpRepeatRange

	// OpGroup is a capturing group around Sub[0].
	OpGroup

	// OpAnyChar matches any single code point.
	OpAnyChar

	// OpCharClass matches one code point that is (or, when Negated, is not)
	// one of Runes.
	OpCharClass

	// OpLiteral matches Rune.
	OpLiteral
)

var opNames = [...]string{
	OpPrefixSuffix: "PrefixSuffix",
	OpBranch:       "Branch",
	OpConnect:      "Connect",
	OpRepeatStar:   "RepeatStar",
	OpRepeatPlus:   "RepeatPlus",
	OpMaybe:        "Maybe",
	OpRepeatRange:  "RepeatRange",
	OpGroup:        "Group",
	OpAnyChar:      "AnyChar",
	OpCharClass:    "CharClass",
	OpLiteral:      "Literal",
}

// String returns the node kind name, e.g. "Branch".
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// Regexp is a node in the pattern syntax tree.
//
// Which fields are meaningful depends on Op; see the Op constants. A tree is
// immutable once built and owned by whoever called Parse until it is handed
// to the compiler.
type Regexp struct {
	Op Op

	// Sub holds child nodes. Unary nodes use Sub[0].
	Sub []*Regexp

	// Rune is the code point of an OpLiteral.
	Rune rune

	// Runes holds the members of an OpCharClass, in pattern order.
	Runes []rune

	// Negated marks an OpCharClass written as [^...].
	Negated bool

	// Min and Max are the bounds of an OpRepeatRange.
	Min, Max int

	// AnchorStart and AnchorEnd belong to OpPrefixSuffix.
	AnchorStart, AnchorEnd bool
}

// PrefixSuffix builds a root node.
func PrefixSuffix(anchorStart bool, body *Regexp, anchorEnd bool) *Regexp {
	return &Regexp{Op: OpPrefixSuffix, Sub: []*Regexp{body}, AnchorStart: anchorStart, AnchorEnd: anchorEnd}
}

// Branch builds an alternation node.
func Branch(alts ...*Regexp) *Regexp {
	return &Regexp{Op: OpBranch, Sub: alts}
}

// Connect builds a concatenation node.
func Connect(factors ...*Regexp) *Regexp {
	return &Regexp{Op: OpConnect, Sub: factors}
}

// RepeatStar builds body*.
func RepeatStar(body *Regexp) *Regexp {
	return &Regexp{Op: OpRepeatStar, Sub: []*Regexp{body}}
}

// RepeatPlus builds body+.
func RepeatPlus(body *Regexp) *Regexp {
	return &Regexp{Op: OpRepeatPlus, Sub: []*Regexp{body}}
}

// Maybe builds body?.
func Maybe(body *Regexp) *Regexp {
	return &Regexp{Op: OpMaybe, Sub: []*Regexp{body}}
}

// RepeatRange builds body{min,max}.
func RepeatRange(body *Regexp, min, max int) *Regexp {
	return &Regexp{Op: OpRepeatRange, Sub: []*Regexp{body}, Min: min, Max: max}
}

// Group builds a capturing group.
func Group(body *Regexp) *Regexp {
	return &Regexp{Op: OpGroup, Sub: []*Regexp{body}}
}

// AnyChar builds '.'.
func AnyChar() *Regexp {
	return &Regexp{Op: OpAnyChar}
}

// CharClass builds [members] or, when negated, [^members].
func CharClass(negated bool, members ...rune) *Regexp {
	return &Regexp{Op: OpCharClass, Negated: negated, Runes: members}
}

// Literal builds a single code point literal.
func Literal(r rune) *Regexp {
	return &Regexp{Op: OpLiteral, Rune: r}
}

// Equal reports whether re and other are structurally identical trees.
func (re *Regexp) Equal(other *Regexp) bool {
	if re == nil || other == nil {
		return re == other
	}
	if re.Op != other.Op || len(re.Sub) != len(other.Sub) {
		return false
	}
	switch re.Op {
	case OpPrefixSuffix:
		if re.AnchorStart != other.AnchorStart || re.AnchorEnd != other.AnchorEnd {
			return false
		}
	case OpRepeatRange:
		if re.Min != other.Min || re.Max != other.Max {
			return false
		}
	case OpCharClass:
		if re.Negated != other.Negated || len(re.Runes) != len(other.Runes) {
			return false
		}
		for i := range re.Runes {
			if re.Runes[i] != other.Runes[i] {
				return false
			}
		}
	case OpLiteral:
		if re.Rune != other.Rune {
			return false
		}
	}
	for i := range re.Sub {
		if !re.Sub[i].Equal(other.Sub[i]) {
			return false
		}
	}
	return true
}

// String renders the tree in constructor notation:
//
//	PrefixSuffix(true, Branch[Connect[Maybe(Literal('a')), RepeatPlus(Literal('b'))]], false)
func (re *Regexp) String() string {
	var b strings.Builder
	writeRegexp(&b, re)
	return b.String()
}

func writeRegexp(b *strings.Builder, re *Regexp) {
	if re == nil {
		b.WriteString("<nil>")
		return
	}
	switch re.Op {
	case OpPrefixSuffix:
		b.WriteString("PrefixSuffix(")
		b.WriteString(strconv.FormatBool(re.AnchorStart))
		b.WriteString(", ")
		writeSub(b, re, 0)
		b.WriteString(", ")
		b.WriteString(strconv.FormatBool(re.AnchorEnd))
		b.WriteByte(')')
	case OpBranch, OpConnect:
		b.WriteString(re.Op.String())
		b.WriteByte('[')
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRegexp(b, sub)
		}
		b.WriteByte(']')
	case OpRepeatStar, OpRepeatPlus, OpMaybe, OpGroup:
		b.WriteString(re.Op.String())
		b.WriteByte('(')
		writeSub(b, re, 0)
		b.WriteByte(')')
	case OpRepeatRange:
		b.WriteString("RepeatRange(")
		writeSub(b, re, 0)
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(re.Min))
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(re.Max))
		b.WriteByte(')')
	case OpAnyChar:
		b.WriteString("AnyChar")
	case OpCharClass:
		b.WriteString("CharClass(")
		b.WriteString(strconv.FormatBool(re.Negated))
		b.WriteString(", [")
		for i, r := range re.Runes {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.QuoteRune(r))
		}
		b.WriteString("])")
	case OpLiteral:
		b.WriteString("Literal(")
		b.WriteString(strconv.QuoteRune(re.Rune))
		b.WriteByte(')')
	default:
		b.WriteString(re.Op.String())
	}
}

func writeSub(b *strings.Builder, re *Regexp, i int) {
	if i < len(re.Sub) {
		writeRegexp(b, re.Sub[i])
		return
	}
	b.WriteString("<nil>")
}
