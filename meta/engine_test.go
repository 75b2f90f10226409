package meta

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/coregx/regvm/compiler"
	"github.com/coregx/regvm/syntax"
	"github.com/coregx/regvm/vm"
)

func mustCompile(t *testing.T, pattern string, config Config) *Engine {
	t.Helper()
	e, err := CompileWithConfig(pattern, config)
	assert.NilError(t, err, "pattern %q", pattern)
	return e
}

func TestConfigValidate(t *testing.T) {
	mutate := func(f func(*Config)) Config {
		c := DefaultConfig()
		f(&c)
		return c
	}
	tests := []struct {
		name  string
		cfg   Config
		field string // "" means valid
	}{
		{"default", DefaultConfig(), ""},
		{"no budgets", mutate(func(c *Config) { c.MaxSteps, c.MaxStackDepth = 0, 0 }), ""},
		{"prefilter off ignores literal limits", mutate(func(c *Config) { c.EnablePrefilter, c.MaxLiterals = false, 0 }), ""},
		{"zero depth", mutate(func(c *Config) { c.MaxDepth = 0 }), "MaxDepth"},
		{"zero instructions", mutate(func(c *Config) { c.MaxInstructions = 0 }), "MaxInstructions"},
		{"negative steps", mutate(func(c *Config) { c.MaxSteps = -1 }), "MaxSteps"},
		{"negative stack", mutate(func(c *Config) { c.MaxStackDepth = -1 }), "MaxStackDepth"},
		{"zero literals", mutate(func(c *Config) { c.MaxLiterals = 0 }), "MaxLiterals"},
		{"huge class", mutate(func(c *Config) { c.MaxClassSize = 1000 }), "MaxClassSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				assert.NilError(t, err)
				return
			}
			var cerr *ConfigError
			assert.Assert(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, cerr.Field, tt.field)
		})
	}

	_, err := CompileWithConfig("a", Config{})
	assert.ErrorContains(t, err, "regvm: invalid config: MaxDepth")
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("[ab")
	assert.Error(t, err, "Syntax Error: unclosed char-class, `]` not found")
	assert.Assert(t, errors.Is(err, syntax.ErrSyntax))
	var cerr *CompileError
	assert.Assert(t, errors.As(err, &cerr))
	assert.Equal(t, cerr.Pattern, "[ab")

	_, err = Compile("a{3,1}")
	assert.Assert(t, errors.Is(err, compiler.ErrInvalidRepeat))
	assert.Error(t, err, "regvm: compile error at RepeatRange: invalid repeat range: {3,1}")

	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	_, err = CompileWithConfig("(((a)))", cfg)
	assert.Error(t, err, "Syntax Error: nesting depth exceeds 2")

	_, err = CompileRegexp(syntax.Branch(), DefaultConfig())
	assert.Assert(t, errors.Is(err, compiler.ErrEmptyBranch))
}

func TestCompileAtNestingLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 7
	for _, pattern := range []string{
		strings.Repeat("(", 7) + "a" + strings.Repeat(")*", 7),
		strings.Repeat("(", 7) + "a" + strings.Repeat("){1,2}", 7),
		strings.Repeat("(b|", 7) + "a" + strings.Repeat(")+", 7),
	} {
		_, err := CompileWithConfig(pattern, cfg)
		assert.NilError(t, err, "pattern %q", pattern)

		_, err = CompileWithConfig("("+pattern+")", cfg)
		assert.Error(t, err, "Syntax Error: nesting depth exceeds 7")
	}
}

func TestStrategySelection(t *testing.T) {
	noPrefilter := DefaultConfig()
	noPrefilter.EnablePrefilter = false

	tests := []struct {
		pattern string
		config  Config
		want    Strategy
		pf      string
	}{
		{"^abc", DefaultConfig(), UseAnchoredStart, ""},
		{"^a|b", DefaultConfig(), UseAnchoredStart, ""},
		{"abc", DefaultConfig(), UsePrefilter, "memmem"},
		{"a+x", DefaultConfig(), UsePrefilter, "memchr"},
		{"[xyz]", DefaultConfig(), UsePrefilter, "byteset"},
		{"foo|bar", DefaultConfig(), UsePrefilter, "aho-corasick"},
		{".*a", DefaultConfig(), UseBacktrack, ""},
		{"a?", DefaultConfig(), UseBacktrack, ""},
		{"abc", noPrefilter, UseBacktrack, ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			e := mustCompile(t, tt.pattern, tt.config)
			assert.Equal(t, e.Strategy(), tt.want)
			if tt.pf == "" {
				assert.Assert(t, e.Prefilter() == nil)
			} else {
				assert.Equal(t, e.Prefilter().String(), tt.pf)
			}
			assert.Assert(t, e.StrategyReason() != "")
		})
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, UseBacktrack.String(), "UseBacktrack")
	assert.Equal(t, UseAnchoredStart.String(), "UseAnchoredStart")
	assert.Equal(t, UsePrefilter.String(), "UsePrefilter")
	assert.Equal(t, Strategy(9).String(), "Strategy(9)")
}

func TestStrategyReason(t *testing.T) {
	e := mustCompile(t, "foo|bar", DefaultConfig())
	assert.Equal(t, e.StrategyReason(), "every match starts with one of 2 literal(s); searching with aho-corasick")

	cfg := DefaultConfig()
	cfg.EnablePrefilter = false
	assert.Equal(t, mustCompile(t, "foo", cfg).StrategyReason(), "prefilter disabled by config")
	assert.Equal(t, mustCompile(t, ".foo", DefaultConfig()).StrategyReason(), "no finite set of prefix literals")
	assert.Equal(t, mustCompile(t, "^foo", DefaultConfig()).StrategyReason(), "pattern starts with '^'; only offset 0 can match")
}

// Every strategy must give exactly what the plain offset loop gives.
func TestStrategiesAgreeWithPlainSearch(t *testing.T) {
	patterns := []string{
		"abc", "a+x", "[xyz]", "foo|bar", "(foo|ba)r?", "a*b", "hoge(.+)$",
		"^a?b+[cde]{1,3}|hoge(.+)$", "^(a(bra)?(cad)?)+$", "x{0,1}y", "é+",
		"(a|ab)c", "[^a]b", "日本", "b$", "hello1|hello2",
	}
	texts := []string{
		"", "abc", "xxabcxx", "aaax", "zzz", "the bar and foo", "baby", "aaab",
		"hogeXXXX", "abracadabra", "xy y", "café éé", "abc", "日本語の日本",
		"\xffabc", "a\xe6\x97bx", "\xe6\x97\xa5\xe6\x9c\xac", "aab", "ab\xff",
		"hello3 hello2", "hello",
	}

	plain := DefaultConfig()
	plain.EnablePrefilter = false
	untracked := DefaultConfig()
	untracked.TrackPrefilter = false

	for _, pattern := range patterns {
		def := mustCompile(t, pattern, DefaultConfig())
		noPf := mustCompile(t, pattern, plain)
		noTrack := mustCompile(t, pattern, untracked)
		for _, text := range texts {
			want, _ := vm.Search(def.Program(), text)
			for _, e := range []*Engine{def, noPf, noTrack} {
				m, err := e.Search(text)
				assert.NilError(t, err)
				if want == nil {
					assert.Assert(t, m == nil, "%q on %q (%s): got %s", pattern, text, e.Strategy(), m)
					continue
				}
				assert.Assert(t, m != nil, "%q on %q (%s): no match", pattern, text, e.Strategy())
				assert.DeepEqual(t, m.Spans(), want)
			}
		}
	}
}

func TestPrefilterRetirement(t *testing.T) {
	text := strings.Repeat("ab", 200) + "aax"

	e := mustCompile(t, "a+x", DefaultConfig())
	assert.Equal(t, e.Strategy(), UsePrefilter)
	m, err := e.Search(text)
	assert.NilError(t, err)
	assert.Equal(t, m.Format(), "[(400, 403)]")

	stats := e.Stats()
	assert.Equal(t, stats.PrefilterCandidates, uint64(128))
	assert.Equal(t, stats.PrefilterAbandoned, uint64(1))

	cfg := DefaultConfig()
	cfg.TrackPrefilter = false
	e = mustCompile(t, "a+x", cfg)
	m, err = e.Search(text)
	assert.NilError(t, err)
	assert.Equal(t, m.Format(), "[(400, 403)]")
	stats = e.Stats()
	assert.Equal(t, stats.PrefilterCandidates, uint64(201))
	assert.Equal(t, stats.PrefilterAbandoned, uint64(0))
}

func TestSearchBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 1000
	e := mustCompile(t, "(a|aa)*c", cfg)

	_, err := e.Search(strings.Repeat("a", 30))
	assert.Assert(t, errors.Is(err, vm.ErrStepLimit), "got %v", err)
	assert.Equal(t, e.Stats().LimitExceeded, uint64(1))

	// A short text fits in the budget.
	m, err := e.Search("aac")
	assert.NilError(t, err)
	assert.Equal(t, m.String(), "aac")
}

func TestSearchResults(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    string // Format() of the match, "" for none
	}{
		{"^(a(bra)?(cad)?)+$", "abracadabra", "[(0, 11), (1, 4), (4, 7), (0, 7), (8, 11), (7, 11)]"},
		{"^(a(bra)?(cad)?)+$", "abraabra", "[(0, 8), (1, 4), (0, 4), (5, 8), (4, 8)]"},
		{"^(a(bra)?(cad)?)+$", "abra", "[(0, 4), (1, 4), (0, 4)]"},
		{"^(a(bra)?(cad)?)+$", "cadcad", ""},
		{"hoge(.+)$", "xhoge123", "[(1, 8), (5, 8)]"},
		{"a*", "", ""},
		{"^abc", "", ""},
		{"abc", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.text, func(t *testing.T) {
			m, err := mustCompile(t, tt.pattern, DefaultConfig()).Search(tt.text)
			assert.NilError(t, err)
			if tt.want == "" {
				assert.Assert(t, m == nil)
				return
			}
			assert.Equal(t, m.Format(), tt.want)
		})
	}
}

func TestMatch(t *testing.T) {
	e := mustCompile(t, "(日)(本+)", DefaultConfig())
	m, err := e.Search("xx日本本!")
	assert.NilError(t, err)

	assert.Equal(t, m.Start(), 2)
	assert.Equal(t, m.End(), 5)
	assert.Equal(t, m.Len(), 3)
	assert.Equal(t, m.String(), "日本本")
	assert.Assert(t, !m.IsEmpty())
	assert.Equal(t, m.NumSpans(), 3)
	assert.Equal(t, m.Span(2), vm.Span{Start: 3, End: 5})
	assert.DeepEqual(t, m.Groups(), []string{"日本本", "日", "本本"})
	assert.Equal(t, m.Group(3), "")
	assert.Equal(t, m.Group(-1), "")

	spans := m.Spans()
	spans[0].Start = 99
	assert.Equal(t, m.Start(), 2)

	ok, err := e.IsMatch("日")
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}

func TestEngineAccessors(t *testing.T) {
	e := mustCompile(t, "ab|cd", DefaultConfig())
	assert.Equal(t, e.Pattern(), "ab|cd")
	assert.Equal(t, e.AST().String(), "PrefixSuffix(false, Branch[Connect[Literal('a'), Literal('b')], Connect[Literal('c'), Literal('d')]], false)")
	assert.Equal(t, e.Program().Len(), 7)
	assert.Equal(t, e.Prefixes().Len(), 2)
	assert.Equal(t, e.Config(), DefaultConfig())

	_, _ = e.Search("xxcd")
	_, _ = e.Search("xx")
	stats := e.Stats()
	assert.Check(t, is.Equal(stats.Searches, uint64(2)))
	assert.Check(t, is.Equal(stats.Matches, uint64(1)))

	e.ResetStats()
	assert.Equal(t, e.Stats(), Stats{})
}

func TestEngineConcurrent(t *testing.T) {
	e := mustCompile(t, "(foo|bar)+baz", DefaultConfig())
	texts := map[string]string{
		"xxfoobarbaz": "[(2, 11), (2, 5), (5, 8)]",
		"barbaz":      "[(0, 6), (0, 3)]",
		"foo baz":     "",
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				for text, want := range texts {
					m, err := e.Search(text)
					got := ""
					if m != nil {
						got = m.Format()
					}
					if err != nil || got != want {
						errs <- text + ": " + got
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
	assert.Equal(t, e.Stats().Searches, uint64(16*50*3))
}
