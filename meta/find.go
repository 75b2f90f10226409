package meta

import (
	"errors"
	"slices"
	"sync/atomic"

	"github.com/coregx/regvm/vm"
)

// Search returns the leftmost match in text, or nil if there is none.
//
// An empty text never matches. The error is non-nil only when a search
// budget ran out; it wraps vm.ErrStepLimit or vm.ErrStackLimit.
func (e *Engine) Search(text string) (*Match, error) {
	atomic.AddUint64(&e.stats.Searches, 1)

	runes := []rune(text)
	state := e.getSearchState()
	defer e.putSearchState(state)

	var spans []vm.Span
	var err error
	switch e.strategy {
	case UseAnchoredStart:
		spans, err = e.searchAnchored(state, runes)
	case UsePrefilter:
		spans, err = e.searchPrefilter(state, text, runes)
	default:
		spans, err = e.bt.SearchState(state.vm, runes, 0)
	}

	if err != nil {
		if errors.Is(err, vm.ErrStepLimit) || errors.Is(err, vm.ErrStackLimit) {
			atomic.AddUint64(&e.stats.LimitExceeded, 1)
		}
		return nil, err
	}
	if spans == nil {
		return nil, nil
	}
	atomic.AddUint64(&e.stats.Matches, 1)
	return NewMatch(spans, runes), nil
}

// IsMatch reports whether text contains a match.
func (e *Engine) IsMatch(text string) (bool, error) {
	m, err := e.Search(text)
	return m != nil, err
}

// searchAnchored tries offset 0 only.
func (e *Engine) searchAnchored(state *SearchState, runes []rune) ([]vm.Span, error) {
	if len(runes) == 0 {
		return nil, nil
	}
	return e.bt.ExecState(state.vm, runes, 0)
}

// searchPrefilter runs the VM only at offsets where the prefilter reports
// a literal. Offsets it skips cannot start a match, so the first success
// is the leftmost match.
func (e *Engine) searchPrefilter(state *SearchState, text string, runes []rune) ([]vm.Span, error) {
	state.index(text)
	tracker := state.tracker
	if tracker != nil {
		// The tracker counts candidates itself; fold them in once.
		defer func() {
			candidates, _, _, _ := tracker.Stats()
			atomic.AddUint64(&e.stats.PrefilterCandidates, candidates)
		}()
	}

	for from := 0; from < len(runes); {
		var pos int
		if tracker != nil {
			pos = tracker.Find(state.haystack, state.starts[from])
		} else {
			pos = e.prefilter.Find(state.haystack, state.starts[from])
		}
		if pos < 0 {
			if tracker != nil && !tracker.IsActive() {
				atomic.AddUint64(&e.stats.PrefilterAbandoned, 1)
				return e.bt.SearchState(state.vm, runes, from)
			}
			return nil, nil
		}
		if tracker == nil {
			atomic.AddUint64(&e.stats.PrefilterCandidates, 1)
		}

		at, ok := slices.BinarySearch(state.starts, pos)
		if !ok {
			// Inside an invalid UTF-8 sequence; resume at the next code point.
			from = at
			continue
		}
		spans, err := e.bt.ExecState(state.vm, runes, at)
		if err != nil {
			return nil, err
		}
		if spans != nil {
			if tracker != nil {
				tracker.ConfirmMatch()
			}
			return spans, nil
		}
		from = at + 1
	}
	return nil, nil
}
