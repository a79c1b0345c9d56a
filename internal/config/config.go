// Package config holds curator's configuration: scoring thresholds, per-tier
// resource budgets, content acquisition limits, output and AI settings.
//
// Configuration is layered:
//  1. Built-in defaults (Default)
//  2. Config file (<target>/.curator/config.yaml), see LoadConfigFile
//  3. Invocation options (CLI flags), see Options
//
// The scoring thresholds are hand-tuned constants kept for compatibility with
// earlier releases. They live here so they can be tuned per corpus instead of
// being baked into the profiler.
package config

import (
	"time"

	"github.com/steveyegge/curator/internal/types"
)

// Thresholds are the constants used by the profiler's scoring.
// Each *Steps slice is ascending; a signal earns one point per step it exceeds.
type Thresholds struct {
	FileSteps         []float64 `yaml:"file_steps"`
	DepthSteps        []float64 `yaml:"depth_steps"`
	FolderSteps       []float64 `yaml:"folder_steps"`
	TagSteps          []float64 `yaml:"tag_steps"`
	MetadataSteps     []float64 `yaml:"metadata_steps"` // percent
	LinkDensitySteps  []float64 `yaml:"link_density_steps"`
	ComplexScore      int       `yaml:"complex_score"`
	ModerateScore     int       `yaml:"moderate_score"`
	OrgMetadataSteps  []float64 `yaml:"org_metadata_steps"` // percent
	OrgTagStep        float64   `yaml:"org_tag_step"`
	OrgLinkStep       float64   `yaml:"org_link_step"`
	SophisticatedOrg  int       `yaml:"sophisticated_org"`
	StructuredOrg     int       `yaml:"structured_org"`
	LargeFolderFiles  int       `yaml:"large_folder_files"`
	OptimizationFiles int       `yaml:"optimization_files"`
	DomainTags        int       `yaml:"domain_tags"`
	DomainDepth       int       `yaml:"domain_depth"`
}

// TierBudget is the resource budget and stage hint for one complexity tier.
type TierBudget struct {
	MaxItems         int     `yaml:"max_items"`
	MaxDepth         int     `yaml:"max_depth"`
	SamplingRate     float64 `yaml:"sampling_rate"`
	RecommendedStage int     `yaml:"recommended_stages"`
}

// ContentConfig bounds content acquisition.
type ContentConfig struct {
	Pattern       string `yaml:"pattern"`        // glob for content files
	CharBudget    int    `yaml:"char_budget"`    // global character budget for deep reads
	ProfileSample int    `yaml:"profile_sample"` // max items sampled by the profiler
	PreviewChars  int    `yaml:"preview_chars"`
}

// OutputConfig controls the rendered document.
type OutputConfig struct {
	File     string `yaml:"file"`
	Language string `yaml:"language"` // explicit preference, empty = auto
	TopN     int    `yaml:"top_n"`
}

// AIConfig controls the completion service.
type AIConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"-"`
}

// HistoryConfig controls the run ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // relative to the target directory
}

// Config is the full curator configuration.
type Config struct {
	Thresholds Thresholds
	Budgets    map[types.Complexity]TierBudget
	Content    ContentConfig
	Output     OutputConfig
	AI         AIConfig
	History    HistoryConfig
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Thresholds: DefaultThresholds(),
		Budgets: map[types.Complexity]TierBudget{
			types.ComplexitySimple:   {MaxItems: 100, MaxDepth: 3, SamplingRate: 1.0, RecommendedStage: 6},
			types.ComplexityModerate: {MaxItems: 300, MaxDepth: 5, SamplingRate: 0.5, RecommendedStage: 8},
			types.ComplexityComplex:  {MaxItems: 1000, MaxDepth: 8, SamplingRate: 0.25, RecommendedStage: 11},
		},
		Content: ContentConfig{
			Pattern:       "*.md",
			CharBudget:    120000,
			ProfileSample: 50,
			PreviewChars:  240,
		},
		Output: OutputConfig{
			File: "CORPUS_GUIDE.md",
			TopN: 8,
		},
		AI: AIConfig{
			Enabled:     true,
			MaxTokens:   1024,
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".curator/history.db",
		},
	}
}

// DefaultThresholds returns the compatibility scoring constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FileSteps:         []float64{20, 100, 500},
		DepthSteps:        []float64{3, 5},
		FolderSteps:       []float64{10, 50},
		TagSteps:          []float64{5, 20},
		MetadataSteps:     []float64{20, 50},
		LinkDensitySteps:  []float64{1, 3},
		ComplexScore:      8,
		ModerateScore:     4,
		OrgMetadataSteps:  []float64{30, 60},
		OrgTagStep:        10,
		OrgLinkStep:       2,
		SophisticatedOrg:  5,
		StructuredOrg:     2,
		LargeFolderFiles:  50,
		OptimizationFiles: 300,
		DomainTags:        20,
		DomainDepth:       4,
	}
}

// Budget returns the tier budget for a complexity, falling back to the simple tier.
func (c *Config) Budget(complexity types.Complexity) TierBudget {
	if b, ok := c.Budgets[complexity]; ok {
		return b
	}
	return Default().Budgets[types.ComplexitySimple]
}
