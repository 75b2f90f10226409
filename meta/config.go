// Package meta implements the engine orchestrator: it parses and compiles a
// pattern, picks a search strategy and runs searches against the compiled
// program.
//
// The orchestrator coordinates:
//   - the parser and compiler (pattern → program)
//   - literal extraction and prefilters (skip impossible start offsets)
//   - the backtracking VM (the only matcher)
//
// Every strategy produces exactly the result of trying each start offset in
// order; strategies only change how many offsets are tried.
package meta

import (
	"github.com/coregx/regvm/compiler"
	"github.com/coregx/regvm/literal"
	"github.com/coregx/regvm/syntax"
	"github.com/coregx/regvm/vm"
)

// Config controls compilation limits, search budgets and prefiltering.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.EnablePrefilter = false // try every start offset
//	engine, err := meta.CompileWithConfig("a+b", config)
type Config struct {
	// MaxDepth bounds group nesting in the parser.
	// Default: 1000
	MaxDepth int

	// MaxInstructions caps the compiled program size.
	// Default: 1 << 20
	MaxInstructions int

	// MaxSteps bounds the instructions executed by one search. 0 means
	// unlimited.
	// Default: 1 << 24
	MaxSteps int

	// MaxStackDepth bounds the pending alternatives of one search. 0 means
	// unlimited.
	// Default: 1 << 20
	MaxStackDepth int

	// EnablePrefilter enables literal-based prefiltering.
	// Default: true
	EnablePrefilter bool

	// TrackPrefilter retires the prefilter for the rest of a search when
	// most of its candidates fail to match.
	// Default: true
	TrackPrefilter bool

	// MaxLiterals limits the number of prefix literals extracted.
	// Default: 64
	MaxLiterals int

	// MaxClassSize limits the character classes expanded into literals.
	// Default: 10
	MaxClassSize int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        1000,
		MaxInstructions: 1 << 20,
		MaxSteps:        1 << 24,
		MaxStackDepth:   1 << 20,
		EnablePrefilter: true,
		TrackPrefilter:  true,
		MaxLiterals:     64,
		MaxClassSize:    10,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxDepth: 1 to 100,000
//   - MaxInstructions: 1 to 1 << 26
//   - MaxSteps, MaxStackDepth: >= 0
//   - MaxLiterals: 1 to 1,000 (when EnablePrefilter)
//   - MaxClassSize: 1 to 256 (when EnablePrefilter)
//
// Example:
//
//	config := meta.Config{MaxDepth: 0} // Invalid!
//	if err := config.Validate(); err != nil {
//	    log.Fatal(err)
//	}
func (c Config) Validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > 100_000 {
		return &ConfigError{Field: "MaxDepth", Message: "must be between 1 and 100,000"}
	}
	if c.MaxInstructions < 1 || c.MaxInstructions > 1<<26 {
		return &ConfigError{Field: "MaxInstructions", Message: "must be between 1 and 67,108,864"}
	}
	if c.MaxSteps < 0 {
		return &ConfigError{Field: "MaxSteps", Message: "must not be negative"}
	}
	if c.MaxStackDepth < 0 {
		return &ConfigError{Field: "MaxStackDepth", Message: "must not be negative"}
	}

	if c.EnablePrefilter {
		if c.MaxLiterals < 1 || c.MaxLiterals > 1_000 {
			return &ConfigError{Field: "MaxLiterals", Message: "must be between 1 and 1,000"}
		}
		if c.MaxClassSize < 1 || c.MaxClassSize > 256 {
			return &ConfigError{Field: "MaxClassSize", Message: "must be between 1 and 256"}
		}
	}

	return nil
}

func (c Config) parseConfig() syntax.ParseConfig {
	return syntax.ParseConfig{MaxDepth: c.MaxDepth}
}

func (c Config) compilerConfig() compiler.Config {
	return compiler.Config{
		MaxInstructions:   c.MaxInstructions,
		MaxRecursionDepth: syntax.TreeDepth(c.MaxDepth),
	}
}

func (c Config) vmConfig() vm.Config {
	return vm.Config{MaxSteps: c.MaxSteps, MaxStackDepth: c.MaxStackDepth}
}

func (c Config) extractorConfig() literal.ExtractorConfig {
	cfg := literal.DefaultConfig()
	cfg.MaxLiterals = c.MaxLiterals
	cfg.MaxClassSize = c.MaxClassSize
	return cfg
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "regvm: invalid config: " + e.Field + ": " + e.Message
}
