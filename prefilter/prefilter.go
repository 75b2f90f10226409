// Package prefilter finds candidate match start offsets from extracted
// prefix literals.
//
// A prefilter quickly rejects offsets of the haystack where no match can
// begin. The search engine runs the full program only at the candidates.
//
// Strategy by literal set:
//   - one single-byte literal → memchr
//   - several single-byte literals → byte set scan
//   - one longer literal → memmem
//   - several literals sharing a prefix of 2+ bytes → memmem on that prefix
//   - several literals → Aho-Corasick automaton
//
// Example usage:
//
//	re, _ := syntax.Parse("(hello|world)")
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(re)
//	pf := prefilter.NewBuilder(prefixes).Build()
//
//	haystack := []byte("foo hello bar world baz")
//	pos := pf.Find(haystack, 0)
//	// pos == 4 (position of "hello")
package prefilter

import (
	"bytes"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/regvm/literal"
)

// Prefilter finds candidate match positions before running the full
// program.
type Prefilter interface {
	// Find returns the smallest candidate index >= start, or -1 if there is
	// none. No literal begins before the returned index. Exact finders
	// return the first literal occurrence; the shared-prefix finder may
	// return an earlier index where only the prefix occurs.
	//
	// Example:
	//
	//	pos := pf.Find(haystack, 0)
	//	for pos != -1 {
	//	    if fullMatchAt(haystack, pos) {
	//	        return pos
	//	    }
	//	    pos = pf.Find(haystack, pos+1)
	//	}
	Find(haystack []byte, start int) int

	// Len returns the number of literals searched for.
	Len() int

	// String names the search algorithm, for logs and stats.
	String() string
}

// Builder constructs the prefilter for a prefix literal set.
//
// Example:
//
//	pf := prefilter.NewBuilder(prefixes).Build()
//	if pf == nil {
//	    // no usable literals; try every offset
//	}
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a new prefilter builder.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build returns the prefilter for the literal set, or nil if none applies:
// the set is empty, holds an empty literal, or holds U+FFFD. Invalid UTF-8
// in the text decodes to U+FFFD without containing its encoding, so such a
// literal could miss matches.
func (b *Builder) Build() Prefilter {
	if !b.prefixes.Usable() {
		return nil
	}
	seq := b.prefixes.Clone()
	for i := 0; i < seq.Len(); i++ {
		if bytes.ContainsRune(seq.Get(i).Bytes, utf8.RuneError) {
			return nil
		}
	}
	seq.Minimize()

	if seq.Len() == 1 {
		lit := seq.Get(0).Bytes
		if len(lit) == 1 {
			return &memchrPrefilter{needle: lit[0]}
		}
		return &memmemPrefilter{needle: lit, n: 1}
	}

	if allLen(seq, 1) {
		return newByteSetPrefilter(seq)
	}

	// Every literal starts with the shared prefix, so its first occurrence
	// is no later than the first occurrence of any literal.
	if lcp := seq.LongestCommonPrefix(); len(lcp) >= minSharedPrefix {
		return &memmemPrefilter{needle: lcp, n: seq.Len()}
	}

	pf, err := newAhoCorasickPrefilter(seq)
	if err != nil {
		return nil
	}
	return pf
}

// minSharedPrefix is the shortest common prefix searched with memmem in
// place of an Aho-Corasick automaton.
const minSharedPrefix = 2

func allLen(seq *literal.Seq, n int) bool {
	for i := 0; i < seq.Len(); i++ {
		if len(seq.Get(i).Bytes) != n {
			return false
		}
	}
	return true
}

// memchrPrefilter searches for a single byte.
type memchrPrefilter struct {
	needle byte
}

func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := bytes.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

func (p *memchrPrefilter) Len() int { return 1 }

func (p *memchrPrefilter) String() string { return "memchr" }

// memmemPrefilter searches for a single substring: the only literal, or
// the prefix shared by n literals.
type memmemPrefilter struct {
	needle []byte
	n      int
}

func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start+len(p.needle) > len(haystack) {
		return -1
	}
	idx := bytes.Index(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

func (p *memmemPrefilter) Len() int { return p.n }

func (p *memmemPrefilter) String() string { return "memmem" }

// byteSetPrefilter searches for any byte of a small set, such as the
// members of [abc].
type byteSetPrefilter struct {
	set [256]bool
	n   int
}

func newByteSetPrefilter(seq *literal.Seq) *byteSetPrefilter {
	p := &byteSetPrefilter{n: seq.Len()}
	for i := 0; i < seq.Len(); i++ {
		p.set[seq.Get(i).Bytes[0]] = true
	}
	return p
}

func (p *byteSetPrefilter) Find(haystack []byte, start int) int {
	if start < 0 {
		return -1
	}
	for i := start; i < len(haystack); i++ {
		if p.set[haystack[i]] {
			return i
		}
	}
	return -1
}

func (p *byteSetPrefilter) Len() int { return p.n }

func (p *byteSetPrefilter) String() string { return "byteset" }

// ahoCorasickPrefilter searches for many literals at once.
type ahoCorasickPrefilter struct {
	auto     *ahocorasick.Automaton
	patterns [][]byte
	maxLen   int
}

func newAhoCorasickPrefilter(seq *literal.Seq) (*ahoCorasickPrefilter, error) {
	builder := ahocorasick.NewBuilder()
	p := &ahoCorasickPrefilter{patterns: make([][]byte, 0, seq.Len())}
	for i := 0; i < seq.Len(); i++ {
		lit := seq.Get(i).Bytes
		builder.AddPattern(lit)
		p.patterns = append(p.patterns, lit)
		p.maxLen = max(p.maxLen, len(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	p.auto = auto
	return p, nil
}

func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	// The automaton may report the occurrence that ends first. Any
	// occurrence starting earlier ends no sooner, so it starts within
	// maxLen bytes of m.End.
	from := max(start, m.End-p.maxLen)
	for pos := from; pos < m.Start; pos++ {
		for _, pat := range p.patterns {
			if bytes.HasPrefix(haystack[pos:], pat) {
				return pos
			}
		}
	}
	return m.Start
}

func (p *ahoCorasickPrefilter) Len() int { return len(p.patterns) }

func (p *ahoCorasickPrefilter) String() string { return "aho-corasick" }
