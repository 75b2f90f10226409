package literal

import (
	"github.com/coregx/regvm/syntax"
)

// ExtractorConfig configures literal extraction limits.
//
// Example:
//
//	config := literal.ExtractorConfig{
//	    MaxLiterals:   64,
//	    MaxLiteralLen: 64,
//	    MaxClassSize:  10,
//	}
//	extractor := literal.New(config)
type ExtractorConfig struct {
	// MaxLiterals limits the size of any intermediate sequence. A sequence
	// that would grow beyond it degrades to something less precise but
	// still correct. Default: 64.
	MaxLiterals int

	// MaxLiteralLen truncates longer literals, which then become inexact.
	// Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the character classes that are expanded into one
	// literal per member. Larger classes match any prefix. Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// maxDepth guards recursion on hand-built trees. Deeper subtrees yield
// "anything", which only costs the prefilter.
var maxDepth = syntax.TreeDepth(syntax.DefaultParseConfig().MaxDepth)

// Extractor computes prefix literal sets from syntax trees.
//
// Example:
//
//	re, _ := syntax.Parse("(hello|world)!")
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(re)
//	// prefixes = [hello!, world!], all complete
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor. Non-positive limits take their defaults.
func New(config ExtractorConfig) *Extractor {
	def := DefaultConfig()
	if config.MaxLiterals <= 0 {
		config.MaxLiterals = def.MaxLiterals
	}
	if config.MaxLiteralLen <= 0 {
		config.MaxLiteralLen = def.MaxLiteralLen
	}
	if config.MaxClassSize <= 0 {
		config.MaxClassSize = def.MaxClassSize
	}
	return &Extractor{config: config}
}

// ExtractPrefixes returns a set of literals such that every match of re
// starts with one of them.
//
// Handles the node kinds as follows:
//   - Literal: the rune itself
//   - CharClass: one literal per member, if small and not negated
//   - Connect: cross product, left to right, while literals stay complete
//   - Branch: union of the alternatives
//   - Group, PrefixSuffix: the operand (anchors consume nothing)
//   - Maybe, RepeatStar, RepeatRange{0,n}: the operand as prefixes, plus
//     the empty literal
//   - RepeatPlus, RepeatRange{m,n} with m ≥ 1: the operand as prefixes
//   - AnyChar, negated or large classes: any prefix
//
// Examples:
//
//	"hello"         → [hello]
//	"(foo|bar)"     → [foo, bar]
//	"[ab]c"         → [ac, bc]
//	"a*b"           → [a (inexact), b]
//	"hello.*world"  → [hello (inexact), helloworld]
//	".*foo"         → [""] (not usable)
//
// The result is deduplicated but not minimized.
func (e *Extractor) ExtractPrefixes(re *syntax.Regexp) *Seq {
	seq := e.extractPrefixes(re, 0)
	seq.dedup()
	return seq
}

func (e *Extractor) extractPrefixes(re *syntax.Regexp, depth int) *Seq {
	if re == nil || depth > maxDepth {
		return anything()
	}

	switch re.Op {
	case syntax.OpLiteral:
		return NewSeq(NewLiteral([]byte(string(re.Rune)), true))

	case syntax.OpCharClass:
		return e.expandCharClass(re)

	case syntax.OpAnyChar:
		return anything()

	case syntax.OpConnect:
		if len(re.Sub) == 0 {
			return anything()
		}
		acc := e.extractPrefixes(re.Sub[0], depth+1)
		for _, sub := range re.Sub[1:] {
			if !hasComplete(acc) {
				break
			}
			acc = e.cross(acc, e.extractPrefixes(sub, depth+1))
		}
		return acc

	case syntax.OpBranch:
		if len(re.Sub) == 0 {
			return anything()
		}
		var lits []Literal
		for _, sub := range re.Sub {
			seq := e.extractPrefixes(sub, depth+1)
			lits = append(lits, seq.literals...)
			if len(lits) > e.config.MaxLiterals {
				return anything()
			}
		}
		return NewSeq(lits...)

	case syntax.OpGroup, syntax.OpPrefixSuffix:
		if len(re.Sub) == 0 {
			return anything()
		}
		return e.extractPrefixes(re.Sub[0], depth+1)

	case syntax.OpRepeatPlus:
		return e.repeated(re, depth, false, false)

	case syntax.OpRepeatStar:
		return e.repeated(re, depth, false, true)

	case syntax.OpMaybe:
		return e.repeated(re, depth, true, true)

	case syntax.OpRepeatRange:
		return e.repeated(re, depth, re.Max == 1, re.Min <= 0)
	}

	return anything()
}

// repeated handles a quantified operand. The first iteration's prefixes
// are prefixes of the whole; they stay complete only when the operand
// occurs at most once. An optional operand adds the empty literal.
func (e *Extractor) repeated(re *syntax.Regexp, depth int, once, optional bool) *Seq {
	if len(re.Sub) == 0 {
		return anything()
	}
	seq := e.extractPrefixes(re.Sub[0], depth+1)
	if !once {
		seq.makeInexact()
	}
	if optional {
		if seq.Len()+1 > e.config.MaxLiterals {
			return anything()
		}
		seq.literals = append(seq.literals, NewLiteral(nil, true))
	}
	return seq
}

// cross appends every literal of right to every complete literal of left.
// Inexact literals of left are kept unchanged. When the product would
// exceed MaxLiterals, left is returned with all literals marked inexact.
func (e *Extractor) cross(left, right *Seq) *Seq {
	n := 0
	for _, l := range left.literals {
		if l.Complete {
			n += right.Len()
		} else {
			n++
		}
	}
	if n > e.config.MaxLiterals {
		left.makeInexact()
		return left
	}

	out := make([]Literal, 0, n)
	for _, l := range left.literals {
		if !l.Complete {
			out = append(out, l)
			continue
		}
		for _, r := range right.literals {
			b := make([]byte, 0, len(l.Bytes)+len(r.Bytes))
			b = append(b, l.Bytes...)
			b = append(b, r.Bytes...)
			complete := r.Complete
			if len(b) > e.config.MaxLiteralLen {
				b = b[:e.config.MaxLiteralLen]
				complete = false
			}
			out = append(out, NewLiteral(b, complete))
		}
	}
	seq := NewSeq(out...)
	seq.dedup()
	return seq
}

// expandCharClass returns one literal per class member, or any prefix if
// the class is negated, empty or larger than MaxClassSize or MaxLiterals.
//
// Examples:
//
//	[abc]   → ["a", "b", "c"]
//	[^abc]  → [""] (not usable)
func (e *Extractor) expandCharClass(re *syntax.Regexp) *Seq {
	if re.Negated || len(re.Runes) == 0 || len(re.Runes) > e.config.MaxClassSize ||
		len(re.Runes) > e.config.MaxLiterals {
		return anything()
	}
	lits := make([]Literal, 0, len(re.Runes))
	for _, r := range re.Runes {
		lits = append(lits, NewLiteral([]byte(string(r)), true))
	}
	seq := NewSeq(lits...)
	seq.dedup()
	return seq
}

func hasComplete(s *Seq) bool {
	for _, lit := range s.literals {
		if lit.Complete {
			return true
		}
	}
	return false
}
