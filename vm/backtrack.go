// Package vm executes compiled programs with a backtracking interpreter.
//
// The interpreter explores alternatives depth first: a Branch pushes its
// alternate target onto an explicit stack and continues with the primary
// one; any failed assertion resumes the most recently pushed alternative.
// The primary path of a Branch is therefore always exhausted before its
// alternate is tried, which is what makes quantifiers greedy and gives
// earlier alternatives priority.
//
// Offsets are code point indices into the text.
package vm

import (
	"sync"

	"github.com/coregx/regvm/prog"
)

// Span is a half-open [Start, End) range of code point offsets.
type Span struct {
	Start, End int
}

// Len returns End - Start.
func (s Span) Len() int {
	return s.End - s.Start
}

// Config bounds the work a single search may do. Zero values mean
// unlimited.
type Config struct {
	// MaxSteps limits the number of instructions executed by one search,
	// summed over every start offset tried.
	MaxSteps int

	// MaxStackDepth limits the number of pending alternatives.
	MaxStackDepth int
}

// thread is a saved continuation: where to resume, and the capture state
// to roll back to.
type thread struct {
	pc, sp int
	capTop int // index of the innermost open group frame, -1 if none
	capLen int // len(State.frames) at the checkpoint
	closed int // len(State.closed) at the checkpoint
}

// capFrame is an open capture group. Frames link to the group that was
// open before them, so closing a group never destroys a frame that an
// older checkpoint still refers to.
type capFrame struct {
	start  int
	parent int
}

// State holds the scratch space of one search. It may be reused across
// searches but never shared between goroutines.
type State struct {
	stack  []thread
	frames []capFrame
	closed []Span

	steps    int
	maxStack int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Reset clears the counters. Buffers are kept for reuse.
func (s *State) Reset() {
	s.stack = s.stack[:0]
	s.frames = s.frames[:0]
	s.closed = s.closed[:0]
	s.steps = 0
	s.maxStack = 0
}

// Steps returns the number of instructions executed since the last Reset.
func (s *State) Steps() int {
	return s.steps
}

// MaxStack returns the deepest backtrack stack seen since the last Reset.
func (s *State) MaxStack() int {
	return s.maxStack
}

// Backtracker runs a Program. It holds no per-search state and is safe
// for concurrent use.
type Backtracker struct {
	prog   *prog.Program
	config Config
	states sync.Pool
}

// NewBacktracker creates a Backtracker for p. The program must not be
// modified afterwards.
func NewBacktracker(p *prog.Program, config Config) *Backtracker {
	return &Backtracker{
		prog:   p,
		config: config,
		states: sync.Pool{New: func() any { return NewState() }},
	}
}

// Program returns the program being executed.
func (b *Backtracker) Program() *prog.Program {
	return b.prog
}

// Search runs p over text with no budget and reports the leftmost match.
//
// The result holds the whole match first, then one span per capture group
// in the order the groups closed. ok is false when nothing matches.
//
// Example:
//
//	re, _ := syntax.Parse("(a)(b)")
//	p, _ := compiler.Compile(re)
//	spans, ok := vm.Search(p, "ab")
//	// spans = [{0 2} {0 1} {1 2}], ok = true
func Search(p *prog.Program, text string) ([]Span, bool) {
	spans, err := NewBacktracker(p, Config{}).Search([]rune(text))
	if err != nil {
		return nil, false
	}
	return spans, spans != nil
}

// Search tries start offsets 0, 1, ... len(text)-1 in order and returns
// the first match found. A nil result with a nil error means no match.
func (b *Backtracker) Search(text []rune) ([]Span, error) {
	s := b.states.Get().(*State)
	defer b.states.Put(s)
	s.Reset()
	return b.SearchState(s, text, 0)
}

// SearchFrom is Search starting at offset from instead of 0.
func (b *Backtracker) SearchFrom(text []rune, from int) ([]Span, error) {
	s := b.states.Get().(*State)
	defer b.states.Put(s)
	s.Reset()
	return b.SearchState(s, text, from)
}

// SearchState is Search starting at offset from, using caller-provided
// scratch space. Step counts accumulate in s across calls until s.Reset.
func (b *Backtracker) SearchState(s *State, text []rune, from int) ([]Span, error) {
	if from < 0 {
		from = 0
	}
	for ; from < len(text); from++ {
		spans, err := b.ExecState(s, text, from)
		if err != nil || spans != nil {
			return spans, err
		}
	}
	return nil, nil
}

// MatchAt runs the program once with the string pointer at from. It does
// not try any other start offset.
func (b *Backtracker) MatchAt(text []rune, from int) ([]Span, error) {
	s := b.states.Get().(*State)
	defer b.states.Put(s)
	s.Reset()
	return b.ExecState(s, text, from)
}

// Stats describes the work done by one MatchAtStats call.
type Stats struct {
	Steps    int
	MaxStack int
}

// MatchAtStats is MatchAt that also reports how much work was done.
func (b *Backtracker) MatchAtStats(text []rune, from int) ([]Span, Stats, error) {
	s := b.states.Get().(*State)
	defer b.states.Put(s)
	s.Reset()
	spans, err := b.ExecState(s, text, from)
	return spans, Stats{Steps: s.steps, MaxStack: s.maxStack}, err
}

// ExecState is MatchAt with caller-provided scratch space.
//
//nolint:gocyclo,cyclop // complexity is inherent to instruction dispatch
func (b *Backtracker) ExecState(s *State, text []rune, from int) ([]Span, error) {
	if from < 0 || from > len(text) {
		return nil, nil
	}
	s.stack = s.stack[:0]
	s.frames = s.frames[:0]
	s.closed = s.closed[:0]

	pc, sp := 0, from
	capTop := -1

	// fail resumes the most recent alternative. It returns false when none
	// is left, meaning this start offset cannot match.
	fail := func() bool {
		n := len(s.stack)
		if n == 0 {
			return false
		}
		t := s.stack[n-1]
		s.stack = s.stack[:n-1]
		pc, sp = t.pc, t.sp
		capTop = t.capTop
		s.frames = s.frames[:t.capLen]
		s.closed = s.closed[:t.closed]
		return true
	}

	for {
		s.steps++
		if b.config.MaxSteps > 0 && s.steps > b.config.MaxSteps {
			return nil, &LimitError{From: from, Limit: b.config.MaxSteps, Err: ErrStepLimit}
		}

		inst := b.prog.At(pc)
		if inst == nil {
			return nil, nil
		}

		switch inst.Op {
		case prog.InstMatchChar:
			if sp < len(text) && inst.Matches(text[sp]) {
				pc++
				sp++
				continue
			}
			if !fail() {
				return nil, nil
			}

		case prog.InstMatchPos:
			ok := false
			switch inst.Pos {
			case prog.PosFront:
				ok = sp == 0
			case prog.PosBack:
				ok = sp == len(text)
			}
			if ok {
				pc++
				continue
			}
			if !fail() {
				return nil, nil
			}

		case prog.InstBranch:
			s.stack = append(s.stack, thread{
				pc:     int(inst.Y),
				sp:     sp,
				capTop: capTop,
				capLen: len(s.frames),
				closed: len(s.closed),
			})
			if len(s.stack) > s.maxStack {
				s.maxStack = len(s.stack)
			}
			if b.config.MaxStackDepth > 0 && len(s.stack) > b.config.MaxStackDepth {
				return nil, &LimitError{From: from, Limit: b.config.MaxStackDepth, Err: ErrStackLimit}
			}
			pc = int(inst.X)

		case prog.InstJump:
			pc = int(inst.X)

		case prog.InstGroupParenL:
			s.frames = append(s.frames, capFrame{start: sp, parent: capTop})
			capTop = len(s.frames) - 1
			pc++

		case prog.InstGroupParenR:
			if capTop < 0 {
				// Unbalanced program; the compiler never emits one.
				if !fail() {
					return nil, nil
				}
				continue
			}
			f := s.frames[capTop]
			s.closed = append(s.closed, Span{Start: f.start, End: sp})
			capTop = f.parent
			pc++

		case prog.InstFinish:
			spans := make([]Span, 0, len(s.closed)+1)
			spans = append(spans, Span{Start: from, End: sp})
			spans = append(spans, s.closed...)
			return spans, nil

		default:
			return nil, nil
		}
	}
}
