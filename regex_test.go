package regvm

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"gotest.tools/v3/assert"

	"github.com/coregx/regvm/meta"
	"github.com/coregx/regvm/syntax"
	"github.com/coregx/regvm/vm"
)

// TestCompile tests compilation errors and their messages
func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr string
	}{
		{"simple literal", "hello", ""},
		{"alternation", "foo|bar", ""},
		{"repetition", "a+", ""},
		{"unicode", "日本+", ""},
		{"unclosed group", "(", "Syntax Error: expect a character but found End-Of-String"},
		{"missing paren", "(ab", "Syntax Error: expect `)` but found End-Of-String"},
		{"stray paren", "ab)", "Syntax Error: expect End-Of-String but found `)`"},
		{"unclosed class", "[ab", "Syntax Error: unclosed char-class, `]` not found"},
		{"bad range", "a{2,1}", "regvm: compile error at RepeatRange: invalid repeat range: {2,1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if tt.wantErr == "" {
				assert.NilError(t, err)
				assert.Equal(t, re.String(), tt.pattern)
				return
			}
			assert.Error(t, err, tt.wantErr)
			assert.Assert(t, re == nil)
		})
	}
}

// TestMustCompile tests panic on invalid pattern
func TestMustCompile(t *testing.T) {
	defer func() {
		r := recover()
		assert.Equal(t, r, "regvm: Compile(`[ab`): Syntax Error: unclosed char-class, `]` not found")
	}()

	MustCompile("[ab")
	t.Error("MustCompile() did not panic on invalid pattern")
}

func TestSyntaxErrorIsExposed(t *testing.T) {
	_, err := Compile("a|")
	var serr *syntax.Error
	assert.Assert(t, errors.As(err, &serr))
	assert.Equal(t, serr.Code, syntax.ErrUnexpectedEOS)
	assert.Assert(t, errors.Is(err, syntax.ErrSyntax))
}

// The two end-to-end scenarios: an anchored alternation with a trailing
// capture, and the repeated-group demo pattern.
func TestEndToEnd(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    string // Format() of the match, "" for no match
	}{
		{"^a?b+[cde]{1,3}|hoge(.+)$", "abc", "[(0, 3)]"},
		{"^a?b+[cde]{1,3}|hoge(.+)$", "bbbdee", "[(0, 6)]"},
		{"^a?b+[cde]{1,3}|hoge(.+)$", "hogeXXXX", "[(0, 8), (4, 8)]"},
		{"^a?b+[cde]{1,3}|hoge(.+)$", "ac", ""},
		{"^a?b+[cde]{1,3}|hoge(.+)$", "xabc", ""},
		{"^(a(bra)?(cad)?)+$", "abracadabra", "[(0, 11), (1, 4), (4, 7), (0, 7), (8, 11), (7, 11)]"},
		{"^(a(bra)?(cad)?)+$", "abraabra", "[(0, 8), (1, 4), (0, 4), (5, 8), (4, 8)]"},
		{"^(a(bra)?(cad)?)+$", "abra", "[(0, 4), (1, 4), (0, 4)]"},
		{"^(a(bra)?(cad)?)+$", "cadcad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			m, err := re.Search(tt.input)
			assert.NilError(t, err)
			if tt.want == "" {
				assert.Assert(t, m == nil)
				assert.Assert(t, !re.MatchString(tt.input))
				return
			}
			assert.Equal(t, m.Format(), tt.want)
			assert.Assert(t, re.MatchString(tt.input))
		})
	}
}

func TestEmptyTextNeverMatches(t *testing.T) {
	for _, pattern := range []string{"a*", "x?", ".*", "(ab)*", "^a*$"} {
		re := MustCompile(pattern)
		assert.Assert(t, !re.MatchString(""), pattern)
		assert.Assert(t, re.FindStringIndex("") == nil, pattern)
	}

	// The same patterns match the empty string at offset 0 of a non-empty text.
	for _, pattern := range []string{"a*", "x?", "(ab)*"} {
		assert.DeepEqual(t, MustCompile(pattern).FindStringIndex("z"), []int{0, 0})
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		pattern  string
		input    string
		str      string
		index    []int
		submatch []string
		subindex []int
	}{
		{
			pattern: "b+", input: "日abb",
			str: "bb", index: []int{4, 6},
			submatch: []string{"bb"}, subindex: []int{4, 6},
		},
		{
			pattern: "(é)(.)", input: "caféx",
			str: "éx", index: []int{3, 6},
			submatch: []string{"éx", "é", "x"}, subindex: []int{3, 6, 3, 5, 5, 6},
		},
		{
			pattern: "(ab)+", input: "xababy",
			str: "abab", index: []int{1, 5},
			submatch: []string{"abab", "ab", "ab"}, subindex: []int{1, 5, 1, 3, 3, 5},
		},
		{
			pattern: "z", input: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			assert.Equal(t, re.FindString(tt.input), tt.str)
			assert.DeepEqual(t, re.FindStringIndex(tt.input), tt.index)
			assert.DeepEqual(t, re.FindStringSubmatch(tt.input), tt.submatch)
			assert.DeepEqual(t, re.FindStringSubmatchIndex(tt.input), tt.subindex)
			if loc := re.FindStringIndex(tt.input); loc != nil {
				assert.Equal(t, tt.input[loc[0]:loc[1]], tt.str)
			}
		})
	}
}

func TestFindInvalidUTF8(t *testing.T) {
	re := MustCompile("b+")
	input := "\xff\xfeabb"
	loc := re.FindStringIndex(input)
	assert.DeepEqual(t, loc, []int{3, 5})
	assert.Equal(t, input[loc[0]:loc[1]], "bb")
}

func TestQuoteMeta(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"1+1=2?", `1\+1=2\?`},
		{"a.b", `a\.b`},
		{"(x|y)*", `\(x\|y\)\*`},
		{"[1]{2,3}", `\[1\]\{2,3\}`},
		{`^$\`, `\^\$\\`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			quoted := QuoteMeta(tt.input)
			assert.Equal(t, quoted, tt.want)

			re := MustCompile(quoted)
			assert.Equal(t, re.FindString("<<"+tt.input+">>"), tt.input)
		})
	}
}

// TestQuotedTextMatchesItself searches generated text for its own quoted
// form. The match must cover the whole text and nothing else.
func TestQuotedTextMatchesItself(t *testing.T) {
	alphabet := []rune(`abcxyz019 -,=_\.+*?()|[]{}^$éß日本😀`)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		runes := make([]rune, 1+rng.Intn(24))
		for j := range runes {
			runes[j] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(runes)

		re, err := Compile(QuoteMeta(text))
		assert.NilError(t, err, "text %q", text)

		m, err := re.Search(text)
		assert.NilError(t, err, "text %q", text)
		assert.Assert(t, m != nil, "text %q", text)
		assert.Equal(t, m.Format(), fmt.Sprintf("[(0, %d)]", utf8.RuneCountInString(text)), "text %q", text)
		assert.DeepEqual(t, re.FindStringIndex(text), []int{0, len(text)})
	}
}

func TestSearchBudget(t *testing.T) {
	config := DefaultConfig()
	config.MaxSteps = 1000
	re, err := CompileWithConfig("(a|aa)*c", config)
	assert.NilError(t, err)

	input := strings.Repeat("a", 30)
	_, err = re.Search(input)
	assert.Assert(t, errors.Is(err, vm.ErrStepLimit), "got %v", err)
	var lerr *vm.LimitError
	assert.Assert(t, errors.As(err, &lerr))
	assert.Equal(t, lerr.From, 0)

	assert.Assert(t, !re.MatchString(input))
	assert.Equal(t, re.FindString(input), "")
	assert.Equal(t, re.Stats().LimitExceeded, uint64(3))
}

func TestInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxInstructions = 0
	_, err := CompileWithConfig("a", config)
	var cerr *meta.ConfigError
	assert.Assert(t, errors.As(err, &cerr))
	assert.Equal(t, cerr.Field, "MaxInstructions")
}

func TestAccessors(t *testing.T) {
	re := MustCompile("^ab")
	assert.Equal(t, re.String(), "^ab")
	assert.Equal(t, re.Strategy(), meta.UseAnchoredStart)
	assert.Equal(t, re.AST().String(), "PrefixSuffix(true, Branch[Connect[Literal('a'), Literal('b')]], false)")
	assert.Equal(t, re.Program().String(), "00: MatchPos(Front)\n01: MatchChar(Literal('a'))\n02: MatchChar(Literal('b'))\n03: Finish\n")

	assert.Equal(t, re.StrategyReason(), "pattern starts with '^'; only offset 0 can match")
	assert.Equal(t, re.Prefixes().String(), "[literal{ab, complete=true}]")

	re.MatchString("abc")
	re.MatchString("xab")
	stats := re.Stats()
	assert.Equal(t, stats.Searches, uint64(2))
	assert.Equal(t, stats.Matches, uint64(1))
}

// TestConcurrentSearch runs one Regex from many goroutines; run with -race.
func TestConcurrentSearch(t *testing.T) {
	re := MustCompile("^(a(bra)?(cad)?)+$")
	inputs := map[string]string{
		"abracadabra": "[(0, 11), (1, 4), (4, 7), (0, 7), (8, 11), (7, 11)]",
		"abraabra":    "[(0, 8), (1, 4), (0, 4), (5, 8), (4, 8)]",
		"abra":        "[(0, 4), (1, 4), (0, 4)]",
		"cadcad":      "no match",
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for input, want := range inputs {
					got := "no match"
					m, err := re.Search(input)
					if err != nil {
						errs <- err
						return
					}
					if m != nil {
						got = m.Format()
					}
					if got != want {
						errs <- fmt.Errorf("%s: got %s, want %s", input, got, want)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
