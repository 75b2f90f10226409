// Package regvm is a small regular-expression engine built from a
// recursive-descent parser, a compiler to a compact instruction set and a
// backtracking virtual machine.
//
// The grammar is deliberately small: concatenation, alternation, groups,
// the quantifiers *, +, ? and {m,n}, character classes, '.', escapes with
// '\' and the anchors '^' and '$' at the ends of the pattern. Matching runs
// over Unicode code points; offsets reported by Search are code point
// indices.
//
// Basic usage:
//
//	re, err := regvm.Compile("hoge(.+)$")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := re.Search("xhoge123")
//	fmt.Println(m.Format()) // [(1, 8), (5, 8)]
//
// Captures differ from stdlib regexp: every time a group closes, its span
// is appended to the result. A group inside a repetition therefore reports
// one span per iteration, in closing order.
//
// Advanced usage:
//
//	// Bound the work a hostile pattern can cause
//	config := regvm.DefaultConfig()
//	config.MaxSteps = 100000
//	re, err := regvm.CompileWithConfig("(a|aa)*c", config)
//
// The lower layers are usable on their own: syntax.Parse builds the tree,
// compiler.Compile emits a prog.Program and vm.Search runs it.
package regvm

import (
	"unicode/utf8"

	"github.com/coregx/regvm/literal"
	"github.com/coregx/regvm/meta"
	"github.com/coregx/regvm/prog"
	"github.com/coregx/regvm/syntax"
)

// Regex represents a compiled regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines.
//
// Example:
//
//	re := regvm.MustCompile(`hello`)
//	if re.MatchString("hello world") {
//	    println("matched!")
//	}
type Regex struct {
	engine  *meta.Engine
	pattern string
}

// Compile compiles a regular expression pattern.
//
// Returns an error if the pattern is invalid. Syntax errors carry the exact
// parser message, for example "Syntax Error: unclosed char-class, `]` not
// found".
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, meta.DefaultConfig())
}

// MustCompile compiles a regular expression pattern and panics if it fails.
//
// Example:
//
//	var dateRe = regvm.MustCompile(`[0123456789]{4}-[0123456789]{2}`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("regvm: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with custom configuration.
//
// Example:
//
//	config := regvm.DefaultConfig()
//	config.EnablePrefilter = false // try every offset
//	re, err := regvm.CompileWithConfig("(a|b|c)*d", config)
func CompileWithConfig(pattern string, config meta.Config) (*Regex, error) {
	engine, err := meta.CompileWithConfig(pattern, config)
	if err != nil {
		return nil, err
	}

	return &Regex{
		engine:  engine,
		pattern: pattern,
	}, nil
}

// DefaultConfig returns the default configuration for compilation.
func DefaultConfig() meta.Config {
	return meta.DefaultConfig()
}

// QuoteMeta returns a string that escapes every metacharacter of the
// pattern grammar inside the argument text; the returned string is a
// pattern matching the literal text.
//
// Example:
//
//	escaped := regvm.QuoteMeta("1+1=2?")
//	// escaped = `1\+1=2\?`
func QuoteMeta(s string) string {
	const special = `\.+*?()|[]{}^$`

	n := 0
	for i := 0; i < len(s); i++ {
		if isSpecial(s[i], special) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, len(s)+n)
	j := 0
	for i := 0; i < len(s); i++ {
		if isSpecial(s[i], special) {
			buf[j] = '\\'
			j++
		}
		buf[j] = s[i]
		j++
	}
	return string(buf)
}

func isSpecial(c byte, special string) bool {
	for i := 0; i < len(special); i++ {
		if c == special[i] {
			return true
		}
	}
	return false
}

// String returns the source text used to compile the regular expression.
func (r *Regex) String() string {
	return r.pattern
}

// AST returns the parsed syntax tree. It must not be modified.
func (r *Regex) AST() *syntax.Regexp {
	return r.engine.AST()
}

// Program returns the compiled instruction sequence.
//
// Example:
//
//	fmt.Print(regvm.MustCompile("a|b").Program())
//	// 00: Branch(1, 3)
//	// 01: MatchChar(Literal('a'))
//	// 02: Jump(4)
//	// 03: MatchChar(Literal('b'))
//	// 04: Finish
func (r *Regex) Program() *prog.Program {
	return r.engine.Program()
}

// Strategy returns the execution strategy selected for the pattern.
func (r *Regex) Strategy() meta.Strategy {
	return r.engine.Strategy()
}

// StrategyReason explains the selected strategy in one line.
func (r *Regex) StrategyReason() string {
	return r.engine.StrategyReason()
}

// Prefixes returns the literals every match starts with, or nil when
// prefiltering is disabled. An inexact or empty literal means the set does
// not constrain the start.
func (r *Regex) Prefixes() *literal.Seq {
	return r.engine.Prefixes()
}

// Stats returns a snapshot of the execution statistics.
func (r *Regex) Stats() meta.Stats {
	return r.engine.Stats()
}

// Search returns the leftmost match with all capture spans, or nil.
//
// The error is non-nil only when a configured step or stack budget ran out;
// it wraps vm.ErrStepLimit or vm.ErrStackLimit. The empty string never
// matches, even for patterns such as "a*".
func (r *Regex) Search(s string) (*meta.Match, error) {
	return r.engine.Search(s)
}

// MatchString reports whether s contains any match of the pattern.
// A search that exceeds its budget reports false; use Search to tell the
// two apart.
func (r *Regex) MatchString(s string) bool {
	m, err := r.engine.Search(s)
	return err == nil && m != nil
}

// FindString returns the text of the leftmost match in s, or "" if there
// is none.
func (r *Regex) FindString(s string) string {
	m, err := r.engine.Search(s)
	if err != nil || m == nil {
		return ""
	}
	return m.String()
}

// FindStringIndex returns the byte offsets [start, end) of the leftmost
// match in s, so that s[loc[0]:loc[1]] is the matched text. Returns nil if
// there is no match.
//
// Example:
//
//	re := regvm.MustCompile(`b+`)
//	loc := re.FindStringIndex("日abb") // [4 6]
func (r *Regex) FindStringIndex(s string) []int {
	m, err := r.engine.Search(s)
	if err != nil || m == nil {
		return nil
	}
	starts := byteStarts(s)
	return []int{starts[m.Start()], starts[m.End()]}
}

// FindStringSubmatch returns the whole match followed by the text of every
// closed group, in closing order. Returns nil if there is no match.
//
// Example:
//
//	re := regvm.MustCompile(`^(a(bra)?(cad)?)+$`)
//	re.FindStringSubmatch("abra") // ["abra" "bra" "abra"]
func (r *Regex) FindStringSubmatch(s string) []string {
	m, err := r.engine.Search(s)
	if err != nil || m == nil {
		return nil
	}
	return m.Groups()
}

// FindStringSubmatchIndex is FindStringSubmatch reporting byte offset pairs:
// result[2*i:2*i+2] locates span i.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	m, err := r.engine.Search(s)
	if err != nil || m == nil {
		return nil
	}
	starts := byteStarts(s)
	loc := make([]int, 0, 2*m.NumSpans())
	for _, span := range m.Spans() {
		loc = append(loc, starts[span.Start], starts[span.End])
	}
	return loc
}

// byteStarts maps every code point index of s, plus len(s), to a byte
// offset. Invalid bytes count as one code point each, as in []rune(s).
func byteStarts(s string) []int {
	starts := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		starts = append(starts, i)
	}
	return append(starts, len(s))
}
