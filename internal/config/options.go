package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/steveyegge/curator/internal/types"
)

// Invocation limits accepted by the analyze command.
const (
	MinItems = 50
	MaxItems = 1000
	MinDepth = 1
	MaxDepth = 10
	MinDirs  = 10
	MaxDirs  = 500
)

// Options holds the per-invocation settings of one analysis run.
type Options struct {
	// TargetDirectory is the root of the corpus to analyze
	TargetDirectory string

	// IncludeContentPreviews adds a short excerpt of each sampled document
	// to the deep content results
	IncludeContentPreviews bool

	// MaxItems caps how many documents a run may touch
	// Default: 200, Range: 50-1000
	MaxItems int

	// MaxDepth caps how deep the folder hierarchy is traversed
	// Default: 5, Range: 1-10
	MaxDepth int

	// MaxDirs caps how many folders appear in the hierarchy sketch
	// Default: 100, Range: 10-500
	MaxDirs int

	// ComplexityOverride replaces the profiled complexity when set
	ComplexityOverride types.Complexity

	// Language is the explicit output-language preference (empty = auto)
	Language string
}

// DefaultOptions returns the default invocation options.
func DefaultOptions() Options {
	return Options{
		TargetDirectory: ".",
		MaxItems:        200,
		MaxDepth:        5,
		MaxDirs:         100,
	}
}

// Validate checks if the options have valid values
func (o Options) Validate() error {
	if o.TargetDirectory == "" {
		return fmt.Errorf("target directory is required")
	}
	if o.MaxItems < MinItems || o.MaxItems > MaxItems {
		return fmt.Errorf("max_items must be between %d and %d (got %d)", MinItems, MaxItems, o.MaxItems)
	}
	if o.MaxDepth < MinDepth || o.MaxDepth > MaxDepth {
		return fmt.Errorf("max_depth must be between %d and %d (got %d)", MinDepth, MaxDepth, o.MaxDepth)
	}
	if o.MaxDirs < MinDirs || o.MaxDirs > MaxDirs {
		return fmt.Errorf("max_dirs must be between %d and %d (got %d)", MinDirs, MaxDirs, o.MaxDirs)
	}
	if o.ComplexityOverride != "" && !o.ComplexityOverride.IsValid() {
		return fmt.Errorf("invalid complexity override: %s (expected simple, moderate or complex)", o.ComplexityOverride)
	}
	return nil
}

// ApplyEnv overlays environment variables on the options and config. Call it
// after config file values are in place and before flags are applied.
//
// Supported environment variables:
//   - CURATOR_LANG: explicit output language (e.g. "en", "ja")
//   - CURATOR_MODEL: completion model override
//   - CURATOR_MAX_ITEMS: default max items when the flag was not given
//   - CURATOR_HISTORY: enable/disable the run ledger
func ApplyEnv(opts *Options, cfg *Config) error {
	if err := parseEnvString("CURATOR_LANG", &opts.Language); err != nil {
		return err
	}
	if err := parseEnvString("CURATOR_MODEL", &cfg.AI.Model); err != nil {
		return err
	}
	if err := parseEnvInt("CURATOR_MAX_ITEMS", &opts.MaxItems); err != nil {
		return err
	}
	if err := parseEnvBool("CURATOR_HISTORY", &cfg.History.Enabled); err != nil {
		return err
	}
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
