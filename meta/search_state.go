package meta

import (
	"sync"

	"github.com/coregx/regvm/prefilter"
	"github.com/coregx/regvm/vm"
)

// SearchState holds per-search mutable state so one compiled Engine can
// serve concurrent searches. States come from a sync.Pool and must not be
// shared between goroutines.
//
// Usage pattern:
//
//	state := engine.getSearchState()
//	defer engine.putSearchState(state)
type SearchState struct {
	// vm holds the backtrack stack, capture frames and step counter.
	vm *vm.State

	// tracker measures prefilter effectiveness for the current search.
	// nil unless the engine uses a tracked prefilter.
	tracker *prefilter.Tracker

	// haystack is the UTF-8 text handed to the prefilter.
	haystack []byte

	// starts maps a code point index to its byte offset in haystack.
	starts []int
}

func newSearchState(pf prefilter.Prefilter, track bool) *SearchState {
	s := &SearchState{vm: vm.NewState()}
	if pf != nil && track {
		s.tracker = prefilter.NewTracker(pf)
	}
	return s
}

// reset prepares the state for reuse.
func (s *SearchState) reset() {
	s.vm.Reset()
	if s.tracker != nil {
		s.tracker.Reset()
	}
	s.haystack = s.haystack[:0]
	s.starts = s.starts[:0]
}

// index fills haystack and starts for text.
func (s *SearchState) index(text string) {
	s.haystack = append(s.haystack[:0], text...)
	s.starts = s.starts[:0]
	for i := range text {
		s.starts = append(s.starts, i)
	}
}

// searchStatePool manages SearchState instances for one Engine.
type searchStatePool struct {
	pool sync.Pool
}

func newSearchStatePool(pf prefilter.Prefilter, track bool) *searchStatePool {
	p := &searchStatePool{}
	p.pool = sync.Pool{
		New: func() any {
			return newSearchState(pf, track)
		},
	}
	return p
}

func (p *searchStatePool) get() *SearchState {
	return p.pool.Get().(*SearchState)
}

func (p *searchStatePool) put(state *SearchState) {
	if state == nil {
		return
	}
	state.reset()
	p.pool.Put(state)
}
