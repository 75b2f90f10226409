// Package literal extracts the literal strings every match of a pattern must
// start with, so a search can skip start offsets that cannot match.
//
// Key concepts:
//   - A Literal is a UTF-8 byte string. Complete means a match of the
//     subexpression is exactly this string; otherwise it is only a prefix.
//   - A Seq is a set of alternative literals. Every match starts with at
//     least one of them.
//   - An empty, inexact literal stands for "any text": a Seq holding one
//     cannot narrow down start offsets.
package literal

import (
	"bytes"
	"sort"
	"strings"
)

// Literal is a byte string that a match begins with.
//
// Example:
//   - Pattern "hello"    → Literal{"hello", Complete: true}
//   - Pattern "hel+o"    → Literal{"hel", Complete: false}
type Literal struct {
	Bytes []byte

	// Complete reports whether the literal is an entire match of the
	// subexpression it was extracted from.
	Complete bool
}

// NewLiteral creates a Literal.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{Bytes: b, Complete: complete}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String formats the literal for debugging: literal{bytes, complete=bool}.
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + string(l.Bytes) + ", complete=" + complete + "}"
}

// Seq is a set of alternative literals.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("foo"), true),
//	    literal.NewLiteral([]byte("bar"), true),
//	)
//	fmt.Println(seq.Len()) // 2
type Seq struct {
	literals []Literal
}

// NewSeq creates a sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{literals: lits}
}

// anything returns the sequence that matches any prefix.
func anything() *Seq {
	return NewSeq(NewLiteral(nil, false))
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at index i. It panics if i is out of range.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty returns true if the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// IsExact reports whether every literal is complete.
func (s *Seq) IsExact() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if !lit.Complete {
			return false
		}
	}
	return true
}

// Usable reports whether the sequence can drive a prefilter: it is
// non-empty and no literal is empty.
func (s *Seq) Usable() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if len(lit.Bytes) == 0 {
			return false
		}
	}
	return true
}

// MinLen returns the length of the shortest literal, 0 for an empty sequence.
func (s *Seq) MinLen() int {
	if s.IsEmpty() {
		return 0
	}
	n := len(s.literals[0].Bytes)
	for _, lit := range s.literals[1:] {
		n = min(n, len(lit.Bytes))
	}
	return n
}

// Clone returns a deep copy of the sequence.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}
	cloned := make([]Literal, len(s.literals))
	for i, lit := range s.literals {
		cloned[i] = Literal{Bytes: bytes.Clone(lit.Bytes), Complete: lit.Complete}
	}
	return &Seq{literals: cloned}
}

// makeInexact marks every literal as a prefix only.
func (s *Seq) makeInexact() {
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

// dedup drops literals that appear more than once with the same
// completeness, keeping the first occurrence.
func (s *Seq) dedup() {
	seen := make(map[string]struct{}, len(s.literals))
	kept := s.literals[:0]
	for _, lit := range s.literals {
		key := string(lit.Bytes)
		if lit.Complete {
			key += "\x00c"
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, lit)
	}
	s.literals = kept
}

// Minimize removes literals that have a shorter literal of the set as a
// prefix. Wherever the longer one occurs the shorter one does too, so the
// set of candidate start offsets is unchanged.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("foo"), true),
//	    literal.NewLiteral([]byte("foobar"), true),
//	)
//	seq.Minimize()
//	fmt.Println(seq.Len()) // 1
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}
	sort.SliceStable(s.literals, func(i, j int) bool {
		return len(s.literals[i].Bytes) < len(s.literals[j].Bytes)
	})

	kept := make([]Literal, 0, len(s.literals))
	for _, cur := range s.literals {
		redundant := false
		for _, k := range kept {
			if bytes.HasPrefix(cur.Bytes, k.Bytes) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, cur)
		}
	}
	s.literals = kept
}

// LongestCommonPrefix returns the longest prefix shared by all literals.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("hello"), true),
//	    literal.NewLiteral([]byte("help"), true),
//	)
//	fmt.Println(string(seq.LongestCommonPrefix())) // hel
func (s *Seq) LongestCommonPrefix() []byte {
	if s.IsEmpty() {
		return []byte{}
	}
	prefix := s.literals[0].Bytes
	for _, lit := range s.literals[1:] {
		n := 0
		for n < len(prefix) && n < len(lit.Bytes) && prefix[n] == lit.Bytes[n] {
			n++
		}
		prefix = prefix[:n]
		if n == 0 {
			break
		}
	}
	return bytes.Clone(prefix)
}

// String formats the sequence for debugging, e.g. [literal{a, complete=true}].
func (s *Seq) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.literals[i].String())
	}
	b.WriteByte(']')
	return b.String()
}
