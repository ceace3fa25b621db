// Package config defines the enumerated run options recognized by the core
// (spec-level RunConfig) plus the invocation-surface fields (inputs,
// pattern database/index paths, output directory) that wire the core to the
// filesystem.
package config

import "fmt"

// MatchMode selects between single-end and dual-end classification.
type MatchMode string

const (
	Single MatchMode = "single"
	Dual   MatchMode = "dual"
)

// WriteType selects how output keys are derived.
type WriteType string

const (
	WriteNames WriteType = "names"
	WriteLabel WriteType = "type"
)

// Config is the full set of options the core recognizes, covering both the
// invocation surface (paths, thread count) and the enumerated matching
// options.
type Config struct {
	// Invocation surface.
	Inputs       []string
	PatternDB    string
	PatternIndex string
	OutDir       string
	Threads      int

	// Matching options.
	MinLength     int
	WindowLeft    int
	WindowRight   int
	ErrorRateLeft  float64
	ErrorRateRight float64
	MatchMode     MatchMode
	TrimMode      int
	WriteType     WriteType
	UsePosition   bool
	Shift         int
	MaxDist       int
	IDSep         byte
}

// Default returns the documented defaults from the invocation surface,
// leaving Inputs/PatternDB/PatternIndex/OutDir empty (they are required and
// have no sensible default).
func Default() Config {
	return Config{
		Threads:        20,
		MinLength:      100,
		WindowLeft:     400,
		WindowRight:    400,
		ErrorRateLeft:  0.2,
		ErrorRateRight: 0.2,
		MatchMode:      Single,
		TrimMode:       0,
		WriteType:      WriteLabel,
		UsePosition:    false,
		Shift:          3,
		MaxDist:        4,
		IDSep:          '%',
	}
}

// Error reports an invalid or conflicting configuration value. Config errors
// are fatal and surface before any worker starts (exit code 2).
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks the enumerated options for range and consistency errors.
// It does not check filesystem existence of Inputs/PatternDB/PatternIndex;
// that is an I/O concern raised when the paths are actually opened.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return &Error{"inputs", "at least one input file is required"}
	}
	if c.PatternDB == "" {
		return &Error{"pattern-db", "required"}
	}
	if c.PatternIndex == "" {
		return &Error{"pattern-index", "required"}
	}
	if c.OutDir == "" {
		return &Error{"outdir", "required"}
	}
	if c.Threads < 1 {
		return &Error{"threads", "must be >= 1"}
	}
	if c.MinLength < 0 {
		return &Error{"min-length", "must be >= 0"}
	}
	if c.WindowLeft < 0 || c.WindowRight < 0 {
		return &Error{"window-size", "left and right lengths must be >= 0"}
	}
	if c.ErrorRateLeft < 0 || c.ErrorRateLeft > 1 || c.ErrorRateRight < 0 || c.ErrorRateRight > 1 {
		return &Error{"error-rate", "left and right rates must be within [0, 1]"}
	}
	if c.TrimMode < 0 {
		return &Error{"trim-mode", "must be >= 0"}
	}
	if c.Shift < 0 {
		return &Error{"shift", "must be >= 0"}
	}
	if c.MaxDist < 0 {
		return &Error{"maxdist", "must be >= 0"}
	}
	switch c.MatchMode {
	case Single, Dual:
	default:
		return &Error{"match-mode", fmt.Sprintf("must be %q or %q", Single, Dual)}
	}
	switch c.WriteType {
	case WriteNames, WriteLabel:
	default:
		return &Error{"write-type", fmt.Sprintf("must be %q or %q", WriteNames, WriteLabel)}
	}
	if c.IDSep == 0 {
		return &Error{"id-sep", "must be a single non-zero character"}
	}
	return nil
}

// MaxEditsFor computes floor(len(pattern) * rate), clamped against the
// absolute maxdist ceiling, as spec.md's per-end matching rule requires.
func (c *Config) MaxEditsFor(patternLen int, rate float64) int {
	perEnd := int(float64(patternLen) * rate)
	if perEnd > c.MaxDist {
		return c.MaxDist
	}
	return perEnd
}
