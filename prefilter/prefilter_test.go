package prefilter

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/coregx/regvm/literal"
	"github.com/coregx/regvm/syntax"
)

func buildForTest(t *testing.T, pattern string) Prefilter {
	t.Helper()
	re, err := syntax.Parse(pattern)
	assert.NilError(t, err)
	return NewBuilder(literal.New(literal.DefaultConfig()).ExtractPrefixes(re)).Build()
}

// naiveFind is the reference: the first offset >= start where any of the
// literals begins.
func naiveFind(lits [][]byte, haystack []byte, start int) int {
	if start < 0 {
		return -1
	}
	for pos := start; pos < len(haystack); pos++ {
		for _, lit := range lits {
			if bytes.HasPrefix(haystack[pos:], lit) {
				return pos
			}
		}
	}
	return -1
}

func TestBuildSelection(t *testing.T) {
	tests := []struct {
		pattern string
		want    string // "" means no prefilter
		n       int
	}{
		{"a+b", "memchr", 1},
		{"hello", "memmem", 1},
		{"hello.*world", "memmem", 1},
		{"[abc]x", "aho-corasick", 3},
		{"[abc]", "byteset", 3},
		{"a|b", "byteset", 2},
		{"foo|bar|baz", "aho-corasick", 3},
		{"foo|foobar", "memmem", 1},
		{"hello1|hello2", "memmem", 2},
		{"(abc|abd)x", "memmem", 2},
		{"ab|cd|ax", "aho-corasick", 3},
		{"日本", "memmem", 1},

		{".*foo", "", 0},
		{"[^a]", "", 0},
		{"a?", "", 0},
		{"x\uFFFDy", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			pf := buildForTest(t, tt.pattern)
			if tt.want == "" {
				assert.Assert(t, pf == nil, "got %v", pf)
				return
			}
			assert.Assert(t, pf != nil)
			assert.Equal(t, pf.String(), tt.want)
			assert.Equal(t, pf.Len(), tt.n)
		})
	}
}

func TestBuildNil(t *testing.T) {
	assert.Assert(t, NewBuilder(nil).Build() == nil)
	assert.Assert(t, NewBuilder(literal.NewSeq()).Build() == nil)
}

func TestSharedPrefixCandidates(t *testing.T) {
	pf := buildForTest(t, "hello1|hello2")
	haystack := []byte("hello3 hello2")

	// The prefix occurrence at 0 is a candidate the program rejects later.
	assert.Equal(t, pf.Find(haystack, 0), 0)
	assert.Equal(t, pf.Find(haystack, 1), 7)
	assert.Equal(t, pf.Find(haystack, 8), -1)
}

func TestFindMatchesNaive(t *testing.T) {
	sets := [][]string{
		{"a"},
		{"needle"},
		{"x", "y", "z"},
		{"abcd", "bc"},
		{"foo", "bar", "baz", "qux"},
		{"aaa", "aab"},
		{"é", "ü"},
	}
	haystacks := []string{
		"",
		"a",
		"xxabcdxx",
		"abcd",
		"abc",
		"the needle in the haystack",
		"quxbazbarfoo",
		"aaaaab",
		"caféüber",
		"zzz",
	}

	for _, set := range sets {
		lits := make([]literal.Literal, 0, len(set))
		raw := make([][]byte, 0, len(set))
		for _, s := range set {
			lits = append(lits, literal.NewLiteral([]byte(s), true))
			raw = append(raw, []byte(s))
		}
		pf := NewBuilder(literal.NewSeq(lits...)).Build()
		assert.Assert(t, pf != nil, "set %v", set)

		for _, h := range haystacks {
			hb := []byte(h)
			for start := -1; start <= len(hb)+1; start++ {
				got := pf.Find(hb, start)
				want := naiveFind(raw, hb, start)
				assert.Equal(t, got, want, "%s %v in %q from %d", pf, set, h, start)
			}
		}
	}
}

// The occurrence that ends first is not always the one that starts first.
func TestAhoCorasickLeftmostStart(t *testing.T) {
	pf := NewBuilder(literal.NewSeq(
		literal.NewLiteral([]byte("abcd"), true),
		literal.NewLiteral([]byte("bc"), true),
	)).Build()
	assert.Equal(t, pf.String(), "aho-corasick")
	assert.Equal(t, pf.Find([]byte("xabcd"), 0), 1)
	assert.Equal(t, pf.Find([]byte("xabcd"), 2), 2)
}

// everyPos reports every offset as a candidate.
type everyPos struct{}

func (everyPos) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	return start
}

func (everyPos) Len() int       { return 1 }
func (everyPos) String() string { return "every" }

func TestTracker(t *testing.T) {
	assert.Assert(t, NewTracker(nil) == nil)

	tr := NewTrackerWithConfig(everyPos{}, TrackerConfig{CheckInterval: 2, MinEfficiency: 0.5, WarmupPeriod: 4})
	haystack := []byte("0123456789")

	// One confirm per two candidates keeps the ratio at 0.5.
	for i := 0; i < 6; i++ {
		assert.Equal(t, tr.Find(haystack, i), i)
		if i%2 == 0 {
			tr.ConfirmMatch()
		}
	}
	assert.Assert(t, tr.IsActive())

	// No confirms: the ratio drops below 0.5 at the next checkpoint.
	assert.Equal(t, tr.Find(haystack, 6), 6)
	assert.Equal(t, tr.Find(haystack, 7), 7)
	assert.Assert(t, !tr.IsActive())
	assert.Equal(t, tr.Find(haystack, 8), -1)

	candidates, confirms, eff, active := tr.Stats()
	assert.Equal(t, candidates, uint64(8))
	assert.Equal(t, confirms, uint64(3))
	assert.Equal(t, eff, 3.0/8.0)
	assert.Assert(t, !active)

	tr.Reset()
	assert.Assert(t, tr.IsActive())
	assert.Equal(t, tr.Find(haystack, 9), 9)
	candidates, confirms, _, active = tr.Stats()
	assert.Equal(t, candidates, uint64(1))
	assert.Equal(t, confirms, uint64(0))
	assert.Assert(t, active)
}

func TestDefaultTracker(t *testing.T) {
	tr := NewTracker(everyPos{})
	haystack := bytes.Repeat([]byte("x"), 200)
	for i := 0; i < 127; i++ {
		tr.Find(haystack, i)
	}
	assert.Assert(t, tr.IsActive())
	// The warmup ends at 128 candidates and the first check retires it.
	tr.Find(haystack, 127)
	assert.Assert(t, !tr.IsActive())
}
