package meta

import (
	"errors"
	"sync/atomic"

	"github.com/coregx/regvm/compiler"
	"github.com/coregx/regvm/literal"
	"github.com/coregx/regvm/prefilter"
	"github.com/coregx/regvm/prog"
	"github.com/coregx/regvm/syntax"
	"github.com/coregx/regvm/vm"
)

// Engine is a compiled pattern together with its search strategy.
//
// An Engine is safe for concurrent use; per-search state is pooled.
//
// Example:
//
//	engine, err := meta.Compile("hoge(.+)$")
//	if err != nil {
//	    return err
//	}
//	m, err := engine.Search("xhoge123")
//	if m != nil {
//	    fmt.Println(m.Format()) // [(1, 8), (5, 8)]
//	}
type Engine struct {
	pattern   string
	ast       *syntax.Regexp
	prog      *prog.Program
	bt        *vm.Backtracker
	prefixes  *literal.Seq
	prefilter prefilter.Prefilter
	strategy  Strategy
	config    Config

	stats     Stats
	statePool *searchStatePool
}

// Stats tracks execution statistics. Counters are updated atomically.
type Stats struct {
	// Searches counts calls to Search.
	Searches uint64

	// Matches counts searches that found a match.
	Matches uint64

	// PrefilterCandidates counts offsets reported by the prefilter.
	PrefilterCandidates uint64

	// PrefilterAbandoned counts searches that retired the prefilter and
	// fell back to trying every offset.
	PrefilterAbandoned uint64

	// LimitExceeded counts searches aborted by a step or stack budget.
	LimitExceeded uint64
}

// CompileError represents a pattern compilation error.
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface. Syntax errors are returned
// unchanged so their messages stay exact.
func (e *CompileError) Error() string {
	var syntaxErr *syntax.Error
	if errors.As(e.Err, &syntaxErr) {
		return e.Err.Error()
	}
	return "regvm: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile parses and compiles pattern with the default configuration.
func Compile(pattern string) (*Engine, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// CompileWithConfig parses and compiles pattern.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.MaxSteps = 0 // no budget
//	engine, err := meta.CompileWithConfig("(a|b)*c", config)
func CompileWithConfig(pattern string, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	re, err := syntax.ParseWithConfig(pattern, config.parseConfig())
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	e, err := CompileRegexp(re, config)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	e.pattern = pattern
	return e, nil
}

// CompileRegexp compiles an already parsed or hand-built tree.
func CompileRegexp(re *syntax.Regexp, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p, err := compiler.NewCompiler(config.compilerConfig()).Compile(re)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		ast:    re,
		prog:   p,
		bt:     vm.NewBacktracker(p, config.vmConfig()),
		config: config,
	}

	if config.EnablePrefilter {
		e.prefixes = literal.New(config.extractorConfig()).ExtractPrefixes(re)
		e.prefilter = prefilter.NewBuilder(e.prefixes).Build()
	}
	e.strategy = SelectStrategy(p, e.prefilter, config)
	if e.strategy != UsePrefilter {
		e.prefilter = nil
	}
	e.statePool = newSearchStatePool(e.prefilter, config.TrackPrefilter)
	return e, nil
}

// Pattern returns the source pattern, "" for CompileRegexp engines.
func (e *Engine) Pattern() string {
	return e.pattern
}

// AST returns the syntax tree. It must not be modified.
func (e *Engine) AST() *syntax.Regexp {
	return e.ast
}

// Program returns the compiled program.
func (e *Engine) Program() *prog.Program {
	return e.prog
}

// Strategy returns the execution strategy selected for this engine.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// StrategyReason explains the selected strategy.
func (e *Engine) StrategyReason() string {
	return StrategyReason(e.strategy, e.prefilter, e.config)
}

// Prefixes returns the extracted prefix literals, nil when prefiltering is
// disabled.
func (e *Engine) Prefixes() *literal.Seq {
	return e.prefixes
}

// Prefilter returns the prefilter in use, or nil.
func (e *Engine) Prefilter() prefilter.Prefilter {
	return e.prefilter
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Stats returns a snapshot of the execution statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Searches:            atomic.LoadUint64(&e.stats.Searches),
		Matches:             atomic.LoadUint64(&e.stats.Matches),
		PrefilterCandidates: atomic.LoadUint64(&e.stats.PrefilterCandidates),
		PrefilterAbandoned:  atomic.LoadUint64(&e.stats.PrefilterAbandoned),
		LimitExceeded:       atomic.LoadUint64(&e.stats.LimitExceeded),
	}
}

// ResetStats resets execution statistics to zero.
func (e *Engine) ResetStats() {
	atomic.StoreUint64(&e.stats.Searches, 0)
	atomic.StoreUint64(&e.stats.Matches, 0)
	atomic.StoreUint64(&e.stats.PrefilterCandidates, 0)
	atomic.StoreUint64(&e.stats.PrefilterAbandoned, 0)
	atomic.StoreUint64(&e.stats.LimitExceeded, 0)
}

func (e *Engine) getSearchState() *SearchState {
	return e.statePool.get()
}

func (e *Engine) putSearchState(state *SearchState) {
	e.statePool.put(state)
}
