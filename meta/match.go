package meta

import (
	"strconv"
	"strings"

	"github.com/coregx/regvm/vm"
)

// Match is a successful search result with its capture spans.
//
// Offsets are code point indices into the searched text. Span 0 is the
// whole match; spans 1+ are the capture groups in the order they closed,
// one per completed iteration for a repeated group.
//
// Example:
//
//	m, _ := engine.Search("xhoge123")
//	m.Start(), m.End() // 1, 8
//	m.String()         // "hoge123"
type Match struct {
	spans []vm.Span
	text  []rune
}

// NewMatch creates a Match over text. spans must be non-empty.
func NewMatch(spans []vm.Span, text []rune) *Match {
	return &Match{spans: spans, text: text}
}

// Start returns the inclusive start offset of the match.
func (m *Match) Start() int {
	return m.spans[0].Start
}

// End returns the exclusive end offset of the match.
func (m *Match) End() int {
	return m.spans[0].End
}

// Len returns the length of the match in code points.
func (m *Match) Len() int {
	return m.spans[0].Len()
}

// String returns the matched text.
func (m *Match) String() string {
	return m.Group(0)
}

// IsEmpty returns true if the match consumed no text.
func (m *Match) IsEmpty() bool {
	return m.Len() == 0
}

// NumSpans returns the number of spans, whole match included.
func (m *Match) NumSpans() int {
	return len(m.spans)
}

// Span returns span i. It panics if i is out of range.
func (m *Match) Span(i int) vm.Span {
	return m.spans[i]
}

// Spans returns a copy of all spans.
func (m *Match) Spans() []vm.Span {
	out := make([]vm.Span, len(m.spans))
	copy(out, m.spans)
	return out
}

// Group returns the text of span i, or "" if i is out of range.
func (m *Match) Group(i int) string {
	if i < 0 || i >= len(m.spans) {
		return ""
	}
	s := m.spans[i]
	return string(m.text[s.Start:s.End])
}

// Groups returns the text of every span.
func (m *Match) Groups() []string {
	out := make([]string, len(m.spans))
	for i := range m.spans {
		out[i] = m.Group(i)
	}
	return out
}

// Format renders the spans the way the demo driver prints them:
// [(0, 4), (1, 4)].
func (m *Match) Format() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range m.spans {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		b.WriteString(strconv.Itoa(s.Start))
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(s.End))
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}
