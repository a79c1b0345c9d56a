package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/curator/internal/types"
)

// ConfigFile represents the structure of .curator/config.yaml
type ConfigFile struct {
	// Scoring thresholds (omitted values keep their defaults)
	Thresholds *Thresholds `yaml:"thresholds,omitempty"`

	// Per-complexity resource budgets
	Budgets map[string]TierBudget `yaml:"budgets,omitempty"`

	Content ContentConfig     `yaml:"content"`
	Output  OutputConfig      `yaml:"output"`
	AI      AIFileConfig      `yaml:"ai"`
	History HistoryFileConfig `yaml:"history"`
}

// HistoryFileConfig defines run ledger settings in the config file.
type HistoryFileConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// AIFileConfig defines completion settings in the config file.
type AIFileConfig struct {
	Enabled     *bool   `yaml:"enabled,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"` // Duration string like "60s", "2m"
}

// Path returns the config file location for a target directory.
func Path(targetDir string) string {
	return filepath.Join(targetDir, ".curator", "config.yaml")
}

// LoadConfigFile loads configuration from <target>/.curator/config.yaml
func LoadConfigFile(targetDir string) (*Config, error) {
	configPath := Path(targetDir)

	// If file doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var configFile ConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return configFile.ToConfig()
}

// ToConfig converts a ConfigFile to a Config, starting from the defaults.
func (cf *ConfigFile) ToConfig() (*Config, error) {
	config := Default()

	if cf.Thresholds != nil {
		config.Thresholds = mergeThresholds(config.Thresholds, *cf.Thresholds)
	}

	for name, tb := range cf.Budgets {
		complexity := types.Complexity(name)
		if !complexity.IsValid() {
			return nil, fmt.Errorf("invalid budget tier %q", name)
		}
		base := config.Budgets[complexity]
		if tb.MaxItems > 0 {
			base.MaxItems = tb.MaxItems
		}
		if tb.MaxDepth > 0 {
			base.MaxDepth = tb.MaxDepth
		}
		if tb.SamplingRate > 0 {
			if tb.SamplingRate > 1 {
				return nil, fmt.Errorf("sampling_rate for %s must be <= 1 (got %.2f)", name, tb.SamplingRate)
			}
			base.SamplingRate = tb.SamplingRate
		}
		if tb.RecommendedStage > 0 {
			base.RecommendedStage = tb.RecommendedStage
		}
		config.Budgets[complexity] = base
	}

	// Content
	if cf.Content.Pattern != "" {
		if _, err := filepath.Match(cf.Content.Pattern, "x"); err != nil {
			return nil, fmt.Errorf("invalid content pattern %q: %w", cf.Content.Pattern, err)
		}
		config.Content.Pattern = cf.Content.Pattern
	}
	if cf.Content.CharBudget > 0 {
		config.Content.CharBudget = cf.Content.CharBudget
	}
	if cf.Content.ProfileSample > 0 {
		config.Content.ProfileSample = cf.Content.ProfileSample
	}
	if cf.Content.PreviewChars > 0 {
		config.Content.PreviewChars = cf.Content.PreviewChars
	}

	// Output
	if cf.Output.File != "" {
		config.Output.File = cf.Output.File
	}
	if cf.Output.Language != "" {
		config.Output.Language = cf.Output.Language
	}
	if cf.Output.TopN > 0 {
		config.Output.TopN = cf.Output.TopN
	}

	// AI
	if cf.AI.Enabled != nil {
		config.AI.Enabled = *cf.AI.Enabled
	}
	if cf.AI.Model != "" {
		config.AI.Model = cf.AI.Model
	}
	if cf.AI.MaxTokens > 0 {
		config.AI.MaxTokens = cf.AI.MaxTokens
	}
	if cf.AI.Temperature > 0 {
		config.AI.Temperature = cf.AI.Temperature
	}
	if cf.AI.Timeout != "" {
		timeout, err := parseDuration(cf.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ai timeout: %w", err)
		}
		config.AI.Timeout = timeout
	}

	// History
	if cf.History.Enabled != nil {
		config.History.Enabled = *cf.History.Enabled
	}
	if cf.History.Path != "" {
		config.History.Path = cf.History.Path
	}

	return config, nil
}

// SaveConfigFile saves a Config to <target>/.curator/config.yaml
func SaveConfigFile(targetDir string, config *Config) error {
	configPath := Path(targetDir)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating .curator directory: %w", err)
	}

	enabled := config.AI.Enabled
	historyEnabled := config.History.Enabled
	thresholds := config.Thresholds
	configFile := ConfigFile{
		Thresholds: &thresholds,
		Budgets:    make(map[string]TierBudget, len(config.Budgets)),
		Content:    config.Content,
		Output:     config.Output,
		AI: AIFileConfig{
			Enabled:     &enabled,
			Model:       config.AI.Model,
			MaxTokens:   config.AI.MaxTokens,
			Temperature: config.AI.Temperature,
			Timeout:     config.AI.Timeout.String(),
		},
		History: HistoryFileConfig{
			Enabled: &historyEnabled,
			Path:    config.History.Path,
		},
	}
	for complexity, tb := range config.Budgets {
		configFile.Budgets[string(complexity)] = tb
	}

	data, err := yaml.Marshal(&configFile)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ExampleConfigFile returns an example configuration file content.
func ExampleConfigFile() string {
	return `# curator configuration

# Scoring thresholds (each step list is ascending; one point per step exceeded)
thresholds:
  file_steps: [20, 100, 500]
  depth_steps: [3, 5]
  tag_steps: [5, 20]
  complex_score: 8
  moderate_score: 4

# Resource budgets per complexity tier
budgets:
  complex:
    max_items: 1000
    max_depth: 8
    sampling_rate: 0.25

# Content acquisition
content:
  pattern: "*.md"
  char_budget: 120000     # Total characters read by deep content discovery
  profile_sample: 50      # Documents sampled while profiling

# Output document
output:
  file: CORPUS_GUIDE.md
  language: ""            # empty = detect from content
  top_n: 8

# Completion service (requires ANTHROPIC_API_KEY)
ai:
  enabled: true
  max_tokens: 1024
  temperature: 0.3
  timeout: 60s

# Run ledger
history:
  enabled: true
  path: .curator/history.db
`
}

func mergeThresholds(base, override Thresholds) Thresholds {
	mergeSteps := func(dst *[]float64, src []float64) {
		if len(src) > 0 {
			*dst = src
		}
	}
	mergeInt := func(dst *int, src int) {
		if src > 0 {
			*dst = src
		}
	}
	mergeFloat := func(dst *float64, src float64) {
		if src > 0 {
			*dst = src
		}
	}

	mergeSteps(&base.FileSteps, override.FileSteps)
	mergeSteps(&base.DepthSteps, override.DepthSteps)
	mergeSteps(&base.FolderSteps, override.FolderSteps)
	mergeSteps(&base.TagSteps, override.TagSteps)
	mergeSteps(&base.MetadataSteps, override.MetadataSteps)
	mergeSteps(&base.LinkDensitySteps, override.LinkDensitySteps)
	mergeSteps(&base.OrgMetadataSteps, override.OrgMetadataSteps)
	mergeInt(&base.ComplexScore, override.ComplexScore)
	mergeInt(&base.ModerateScore, override.ModerateScore)
	mergeInt(&base.SophisticatedOrg, override.SophisticatedOrg)
	mergeInt(&base.StructuredOrg, override.StructuredOrg)
	mergeInt(&base.LargeFolderFiles, override.LargeFolderFiles)
	mergeInt(&base.OptimizationFiles, override.OptimizationFiles)
	mergeInt(&base.DomainTags, override.DomainTags)
	mergeInt(&base.DomainDepth, override.DomainDepth)
	mergeFloat(&base.OrgTagStep, override.OrgTagStep)
	mergeFloat(&base.OrgLinkStep, override.OrgLinkStep)
	return base
}

// parseDuration parses duration strings like "5m", "1h", "7d"
func parseDuration(s string) (time.Duration, error) {
	// Handle day suffix
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
