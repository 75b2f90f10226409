package meta

import (
	"fmt"

	"github.com/coregx/regvm/prefilter"
	"github.com/coregx/regvm/prog"
)

// Strategy represents how a search picks the start offsets it tries.
//
// Strategy selection is automatic based on pattern analysis. The match
// found is the same under every strategy.
type Strategy int

const (
	// UseBacktrack runs the VM at every offset 0, 1, ... len(text)-1.
	// Selected when nothing better applies.
	UseBacktrack Strategy = iota

	// UseAnchoredStart runs the VM at offset 0 only.
	// Selected for patterns starting with '^': MatchPos(Front) fails at
	// every other offset.
	UseAnchoredStart

	// UsePrefilter runs the VM only where a prefix literal occurs.
	// Selected when every match starts with one of a finite set of
	// literals and prefiltering is enabled.
	UsePrefilter
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case UseBacktrack:
		return "UseBacktrack"
	case UseAnchoredStart:
		return "UseAnchoredStart"
	case UsePrefilter:
		return "UsePrefilter"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// SelectStrategy chooses the strategy for a compiled program.
//
// Decision order:
//  1. Start anchor → UseAnchoredStart
//  2. Usable prefilter → UsePrefilter
//  3. Otherwise → UseBacktrack
func SelectStrategy(p *prog.Program, pf prefilter.Prefilter, config Config) Strategy {
	if p.AnchoredStart() {
		return UseAnchoredStart
	}
	if config.EnablePrefilter && pf != nil {
		return UsePrefilter
	}
	return UseBacktrack
}

// StrategyReason explains why a strategy was chosen, for debug output.
func StrategyReason(strategy Strategy, pf prefilter.Prefilter, config Config) string {
	switch strategy {
	case UseAnchoredStart:
		return "pattern starts with '^'; only offset 0 can match"
	case UsePrefilter:
		return fmt.Sprintf("every match starts with one of %d literal(s); searching with %s", pf.Len(), pf)
	case UseBacktrack:
		if !config.EnablePrefilter {
			return "prefilter disabled by config"
		}
		return "no finite set of prefix literals"
	}
	return "unknown strategy"
}
