package compiler

import (
	"fmt"

	"github.com/coregx/regvm/internal/conv"
	"github.com/coregx/regvm/prog"
	"github.com/coregx/regvm/syntax"
)

// Config configures compilation limits
type Config struct {
	// MaxInstructions caps the size of the final program, Finish included.
	// {m,n} repetition copies its operand, so small patterns can expand
	// into very large programs.
	// Default: 1 << 20
	MaxInstructions int

	// MaxRecursionDepth limits recursion during compilation to prevent stack
	// overflow. The default admits every tree syntax.Parse accepts with its
	// default nesting limit.
	// Default: syntax.TreeDepth(1000)
	MaxRecursionDepth int
}

// DefaultConfig returns a compiler configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxInstructions:   1 << 20,
		MaxRecursionDepth: syntax.TreeDepth(syntax.DefaultParseConfig().MaxDepth),
	}
}

// Compiler compiles syntax trees into programs
type Compiler struct {
	config Config
	depth  int // current recursion depth
}

// NewCompiler creates a new compiler with the given configuration
func NewCompiler(config Config) *Compiler {
	def := DefaultConfig()
	if config.MaxInstructions <= 0 {
		config.MaxInstructions = def.MaxInstructions
	}
	if config.MaxRecursionDepth <= 0 {
		config.MaxRecursionDepth = def.MaxRecursionDepth
	}
	return &Compiler{config: config}
}

// NewDefaultCompiler creates a new compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultConfig())
}

// Compile compiles re with the default configuration.
//
// Example:
//
//	re, _ := syntax.Parse("a|b*")
//	p, _ := compiler.Compile(re)
//	fmt.Print(p)
//	// 00: Branch(1, 3)
//	// 01: MatchChar(Literal('a'))
//	// 02: Jump(6)
//	// 03: Branch(4, 6)
//	// 04: MatchChar(Literal('b'))
//	// 05: Jump(3)
//	// 06: Finish
func Compile(re *syntax.Regexp) (*prog.Program, error) {
	return NewDefaultCompiler().Compile(re)
}

// inst is an instruction under construction. For Jump and Branch, x and y
// hold offsets relative to the instruction's own index.
type inst struct {
	prog.Inst
	x, y int
}

// frag is the compiled form of one node.
type frag []inst

// Compile translates re into a program terminated by Finish, with every
// jump target resolved to an absolute index.
//
// A Compiler is not safe for concurrent use; the resulting Program is.
func (c *Compiler) Compile(re *syntax.Regexp) (*prog.Program, error) {
	c.depth = 0

	f, err := c.compile(re)
	if err != nil {
		return nil, err
	}
	if err := c.checkSize(len(f) + 1); err != nil {
		return nil, err
	}
	f = append(f, inst{Inst: prog.Finish()})

	p, err := relocate(f)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, &CompileError{Err: fmt.Errorf("%w: %w", ErrInvalidProgram, err)}
	}
	return p, nil
}

// relocate converts relative operands to absolute addresses in one pass.
func relocate(f frag) (*prog.Program, error) {
	out := make([]prog.Inst, len(f))
	for pc, in := range f {
		out[pc] = in.Inst
		switch in.Op {
		case prog.InstJump:
			if pc+in.x < 0 {
				return nil, &CompileError{Err: fmt.Errorf("%w: jump at %d to %d", ErrInvalidProgram, pc, pc+in.x)}
			}
			out[pc].X = conv.Relocate(pc, in.x)
		case prog.InstBranch:
			if pc+in.x < 0 || pc+in.y < 0 {
				return nil, &CompileError{Err: fmt.Errorf("%w: branch at %d to (%d, %d)", ErrInvalidProgram, pc, pc+in.x, pc+in.y)}
			}
			out[pc].X = conv.Relocate(pc, in.x)
			out[pc].Y = conv.Relocate(pc, in.y)
		}
	}
	return &prog.Program{Inst: out}, nil
}

//nolint:gocyclo,cyclop // complexity is inherent to node dispatch
func (c *Compiler) compile(re *syntax.Regexp) (frag, error) {
	if re == nil {
		return nil, &CompileError{Err: ErrInvalidNode}
	}

	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.config.MaxRecursionDepth {
		return nil, &CompileError{Op: re.Op, Err: ErrTooDeep}
	}

	switch re.Op {
	case syntax.OpPrefixSuffix:
		body, err := c.compileSub(re)
		if err != nil {
			return nil, err
		}
		var f frag
		if re.AnchorStart {
			f = append(f, inst{Inst: prog.MatchPos(prog.PosFront)})
		}
		f = append(f, body...)
		if re.AnchorEnd {
			f = append(f, inst{Inst: prog.MatchPos(prog.PosBack)})
		}
		return f, c.checkSize(len(f))

	case syntax.OpBranch:
		if len(re.Sub) == 0 {
			return nil, &CompileError{Op: re.Op, Err: ErrEmptyBranch}
		}
		return c.compileBranch(re.Sub)

	case syntax.OpConnect:
		if len(re.Sub) == 0 {
			return nil, &CompileError{Op: re.Op, Err: ErrEmptyConnect}
		}
		return c.compileConnect(re.Sub)

	case syntax.OpRepeatStar:
		body, err := c.compileSub(re)
		if err != nil {
			return nil, err
		}
		return c.repeatStar(body)

	case syntax.OpRepeatPlus:
		body, err := c.compileSub(re)
		if err != nil {
			return nil, err
		}
		return c.repeatPlus(body)

	case syntax.OpMaybe:
		body, err := c.compileSub(re)
		if err != nil {
			return nil, err
		}
		return c.maybe(body)

	case syntax.OpRepeatRange:
		return c.compileRepeatRange(re)

	case syntax.OpGroup:
		body, err := c.compileSub(re)
		if err != nil {
			return nil, err
		}
		f := make(frag, 0, len(body)+2)
		f = append(f, inst{Inst: prog.GroupParenL()})
		f = append(f, body...)
		f = append(f, inst{Inst: prog.GroupParenR()})
		return f, c.checkSize(len(f))

	case syntax.OpAnyChar:
		return frag{{Inst: prog.MatchAny()}}, nil

	case syntax.OpCharClass:
		return frag{{Inst: prog.MatchClass(re.Negated, re.Runes)}}, nil

	case syntax.OpLiteral:
		return frag{{Inst: prog.MatchLiteral(re.Rune)}}, nil
	}

	return nil, &CompileError{Op: re.Op, Err: ErrInvalidNode}
}

func (c *Compiler) compileSub(re *syntax.Regexp) (frag, error) {
	if len(re.Sub) == 0 || re.Sub[0] == nil {
		return nil, &CompileError{Op: re.Op, Err: ErrInvalidNode}
	}
	return c.compile(re.Sub[0])
}

// compileBranch folds alternatives pairwise, so a|b|c compiles as
// (a|b)|c: every earlier alternative is tried before a later one.
func (c *Compiler) compileBranch(alts []*syntax.Regexp) (frag, error) {
	acc, err := c.compile(alts[0])
	if err != nil {
		return nil, err
	}
	for _, alt := range alts[1:] {
		y, err := c.compile(alt)
		if err != nil {
			return nil, err
		}
		if acc, err = c.branch(acc, y); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (c *Compiler) compileConnect(factors []*syntax.Regexp) (frag, error) {
	acc, err := c.compile(factors[0])
	if err != nil {
		return nil, err
	}
	for _, factor := range factors[1:] {
		y, err := c.compile(factor)
		if err != nil {
			return nil, err
		}
		if err := c.checkSize(len(acc) + len(y)); err != nil {
			return nil, err
		}
		acc = append(acc, y...)
	}
	return acc, nil
}

// compileRepeatRange emits min copies of the operand followed by max-min
// copies of operand?. The operand is compiled once; its fragment is
// position independent, so copies are plain slice appends.
//
// {0,0} would be an empty concatenation and is rejected like one.
func (c *Compiler) compileRepeatRange(re *syntax.Regexp) (frag, error) {
	if re.Min < 0 || re.Max <= 0 || re.Min > re.Max {
		return nil, &CompileError{Op: re.Op, Err: fmt.Errorf("%w: {%d,%d}", ErrInvalidRepeat, re.Min, re.Max)}
	}
	body, err := c.compileSub(re)
	if err != nil {
		return nil, err
	}

	n := int64(len(body))
	total := n*int64(re.Min) + (n+1)*int64(re.Max-re.Min)
	if total >= int64(c.config.MaxInstructions) {
		return nil, &CompileError{Op: re.Op, Err: ErrTooLarge}
	}

	f := make(frag, 0, int(total))
	for i := 0; i < re.Min; i++ {
		f = append(f, body...)
	}
	if re.Max > re.Min {
		opt, err := c.maybe(body)
		if err != nil {
			return nil, err
		}
		for i := re.Min; i < re.Max; i++ {
			f = append(f, opt...)
		}
	}
	return f, nil
}

// branch emits:
//
//	Branch(1, 2+len(x))
//	x
//	Jump(1+len(y))
//	y
func (c *Compiler) branch(x, y frag) (frag, error) {
	if err := c.checkSize(len(x) + len(y) + 2); err != nil {
		return nil, err
	}
	f := make(frag, 0, len(x)+len(y)+2)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstBranch}, x: 1, y: 2 + len(x)})
	f = append(f, x...)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstJump}, x: 1 + len(y)})
	f = append(f, y...)
	return f, nil
}

// maybe emits:
//
//	Branch(1, 1+len(body))
//	body
func (c *Compiler) maybe(body frag) (frag, error) {
	if err := c.checkSize(len(body) + 1); err != nil {
		return nil, err
	}
	f := make(frag, 0, len(body)+1)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstBranch}, x: 1, y: 1 + len(body)})
	f = append(f, body...)
	return f, nil
}

// repeatStar emits:
//
//	Branch(1, 2+len(body))
//	body
//	Jump(-(1+len(body)))
func (c *Compiler) repeatStar(body frag) (frag, error) {
	if err := c.checkSize(len(body) + 2); err != nil {
		return nil, err
	}
	f := make(frag, 0, len(body)+2)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstBranch}, x: 1, y: 2 + len(body)})
	f = append(f, body...)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstJump}, x: -(1 + len(body))})
	return f, nil
}

// repeatPlus emits:
//
//	body
//	Branch(-len(body), 1)
func (c *Compiler) repeatPlus(body frag) (frag, error) {
	if err := c.checkSize(len(body) + 1); err != nil {
		return nil, err
	}
	f := make(frag, 0, len(body)+1)
	f = append(f, body...)
	f = append(f, inst{Inst: prog.Inst{Op: prog.InstBranch}, x: -len(body), y: 1})
	return f, nil
}

func (c *Compiler) checkSize(n int) error {
	if n > c.config.MaxInstructions {
		return &CompileError{Err: ErrTooLarge}
	}
	return nil
}
