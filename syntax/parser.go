package syntax

import "math"

// ParseConfig configures the parser.
type ParseConfig struct {
	// MaxDepth limits how deeply groups may nest. Each '(' recurses once in
	// the parser and again in the compiler, so this bounds stack usage for
	// hostile patterns.
	// Default: 1000
	MaxDepth int
}

// DefaultParseConfig returns the default parser configuration.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{
		MaxDepth: 1000,
	}
}

// TreeDepth bounds the depth of a tree parsed with MaxDepth set to nesting.
// Each group level adds at most Group, Branch, Connect and one quantifier
// node; the root adds PrefixSuffix, Branch, Connect and a leaf.
//
// Consumers that recurse over parsed trees size their own limits with it:
//
//	limit := syntax.TreeDepth(syntax.DefaultParseConfig().MaxDepth)
func TreeDepth(nesting int) int {
	return 4*nesting + 8
}

// maxRepeatBound caps the value of a {m,n} bound so digit accumulation
// cannot overflow. Bounds this large are rejected later by the compiler's
// instruction limit anyway.
const maxRepeatBound = math.MaxInt32

// Parse parses pattern into a syntax tree rooted at an OpPrefixSuffix node.
//
// Parsing stops at the first problem; the returned error is a *Error.
//
// Example:
//
//	re, err := syntax.Parse("(ab)+c")
//	// re = PrefixSuffix(false, Branch[Connect[RepeatPlus(Group(...)), Literal('c')]], false)
func Parse(pattern string) (*Regexp, error) {
	return ParseWithConfig(pattern, DefaultParseConfig())
}

// ParseWithConfig is Parse with explicit limits.
func ParseWithConfig(pattern string, config ParseConfig) (*Regexp, error) {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultParseConfig().MaxDepth
	}
	p := &parser{
		src:      []rune(pattern),
		maxDepth: config.MaxDepth,
	}
	return p.parseRegex()
}

// parser holds the cursor over the pattern. It never backtracks; every
// decision is made on a single peeked code point.
type parser struct {
	src      []rune
	pos      int
	depth    int
	maxDepth int
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) peekIs(r rune) bool {
	c, ok := p.peek()
	return ok && c == r
}

func (p *parser) next() (rune, bool) {
	c, ok := p.peek()
	if ok {
		p.pos++
	}
	return c, ok
}

// parseRegex parses PrefixSuffix = '^'? Branch '$'?
func (p *parser) parseRegex() (*Regexp, error) {
	anchorStart := false
	if p.peekIs('^') {
		p.pos++
		anchorStart = true
	}

	body, err := p.parseBranch()
	if err != nil {
		return nil, err
	}

	anchorEnd := false
	if p.peekIs('$') {
		p.pos++
		anchorEnd = true
	}

	if c, ok := p.peek(); ok {
		return nil, &Error{Code: ErrTrailingInput, Pos: p.pos, Found: c}
	}
	return PrefixSuffix(anchorStart, body, anchorEnd), nil
}

// parseBranch parses Branch = Connect ('|' Connect)*
func (p *parser) parseBranch() (*Regexp, error) {
	first, err := p.parseConnect()
	if err != nil {
		return nil, err
	}
	alts := []*Regexp{first}
	for p.peekIs('|') {
		p.pos++
		alt, err := p.parseConnect()
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	return Branch(alts...), nil
}

// parseConnect parses Connect = Repeat+
//
// Only the second and later factors check for a terminator, so a
// metacharacter that opens a concatenation (`|a`, `)`, `$`) is read as a
// literal.
func (p *parser) parseConnect() (*Regexp, error) {
	first, err := p.parseRepeat()
	if err != nil {
		return nil, err
	}
	factors := []*Regexp{first}
	for !p.atEndOfConnect() {
		f, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return Connect(factors...), nil
}

func (p *parser) atEndOfConnect() bool {
	c, ok := p.peek()
	return !ok || c == '|' || c == ')' || c == '$'
}

// parseRepeat parses Repeat = Group ('*' | '+' | '?' | '{' n ',' n '}')?
func (p *parser) parseRepeat() (*Regexp, error) {
	g, err := p.parseGroup()
	if err != nil {
		return nil, err
	}

	c, ok := p.peek()
	if !ok {
		return g, nil
	}
	switch c {
	case '*':
		p.pos++
		return RepeatStar(g), nil
	case '+':
		p.pos++
		return RepeatPlus(g), nil
	case '?':
		p.pos++
		return Maybe(g), nil
	case '{':
		p.pos++
		lo := p.parseNumber()
		if err := p.expect(','); err != nil {
			return nil, err
		}
		hi := p.parseNumber()
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		return RepeatRange(g, lo, hi), nil
	}
	return g, nil
}

// parseGroup parses Group = '(' Branch ')' | CharClass | '.' | Literal
func (p *parser) parseGroup() (*Regexp, error) {
	if !p.peekIs('(') {
		return p.parseChar()
	}
	if p.depth >= p.maxDepth {
		return nil, &Error{Code: ErrNestingDepth, Pos: p.pos, Limit: p.maxDepth}
	}
	p.pos++
	p.depth++
	body, err := p.parseBranch()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	p.depth--
	return Group(body), nil
}

func (p *parser) parseChar() (*Regexp, error) {
	c, _ := p.peek()
	switch c {
	case '[':
		return p.parseCharClass()
	case '.':
		p.pos++
		return AnyChar(), nil
	}
	r, err := p.getChar()
	if err != nil {
		return nil, err
	}
	return Literal(r), nil
}

// parseCharClass collects members up to the closing ']'. Members are single
// code points; '\' escapes the next one, which is how ']' and '\' get in.
func (p *parser) parseCharClass() (*Regexp, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}

	negated := false
	if p.peekIs('^') {
		p.pos++
		negated = true
	}

	var members []rune
	for {
		c, ok := p.peek()
		if !ok {
			return nil, &Error{Code: ErrUnclosedClass, Pos: p.pos, AtEOS: true}
		}
		if c == ']' {
			break
		}
		r, err := p.getChar()
		if err != nil {
			return nil, err
		}
		members = append(members, r)
	}

	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return CharClass(negated, members...), nil
}

// getChar reads one literal code point, resolving a '\' escape.
func (p *parser) getChar() (rune, error) {
	c, ok := p.peek()
	if !ok {
		return 0, &Error{Code: ErrUnexpectedEOS, Pos: p.pos, AtEOS: true}
	}
	if c != '\\' {
		p.pos++
		return c, nil
	}
	if err := p.expect('\\'); err != nil {
		return 0, err
	}
	r, ok := p.next()
	if !ok {
		return 0, &Error{Code: ErrTrailingEscape, Pos: p.pos, AtEOS: true}
	}
	return r, nil
}

func (p *parser) expect(want rune) error {
	pos := p.pos
	c, ok := p.next()
	if !ok {
		return &Error{Code: ErrExpectChar, Pos: pos, Expected: want, AtEOS: true}
	}
	if c != want {
		return &Error{Code: ErrExpectChar, Pos: pos, Expected: want, Found: c}
	}
	return nil
}

// parseNumber reads a run of ASCII digits. An empty run yields 0; this is
// how `{,3}` means `{0,3}`.
func (p *parser) parseNumber() int {
	n := 0
	for {
		c, ok := p.peek()
		if !ok || c < '0' || c > '9' {
			return n
		}
		p.pos++
		if n <= (maxRepeatBound-9)/10 {
			n = n*10 + int(c-'0')
		} else {
			n = maxRepeatBound
		}
	}
}
