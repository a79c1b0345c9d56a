package types

import "time"

// Complexity classifies the scale and sophistication of a corpus.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// IsValid checks if the complexity value is valid
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

// AtLeast reports whether c is the same tier as other or a higher one.
func (c Complexity) AtLeast(other Complexity) bool {
	return complexityRank(c) >= complexityRank(other)
}

func complexityRank(c Complexity) int {
	switch c {
	case ComplexityModerate:
		return 1
	case ComplexityComplex:
		return 2
	default:
		return 0
	}
}

// OrganizationLevel classifies how deliberately a corpus is organized.
type OrganizationLevel string

const (
	OrganizationBasic         OrganizationLevel = "basic"
	OrganizationStructured    OrganizationLevel = "structured"
	OrganizationSophisticated OrganizationLevel = "sophisticated"
)

// IsValid checks if the organization level is valid
func (o OrganizationLevel) IsValid() bool {
	switch o {
	case OrganizationBasic, OrganizationStructured, OrganizationSophisticated:
		return true
	}
	return false
}

// ScaleMetrics describe the size and shape of the document hierarchy.
type ScaleMetrics struct {
	FileCount         int    `json:"file_count"`
	FolderCount       int    `json:"folder_count"`
	MaxDepth          int    `json:"max_depth"`
	LargestFolderSize int    `json:"largest_folder_size"`
	LargestFolder     string `json:"largest_folder,omitempty"`
}

// ContentMetrics are estimated from a bounded content sample.
type ContentMetrics struct {
	SampledFiles     int     `json:"sampled_files"`
	MetadataUsagePct float64 `json:"metadata_usage_pct"` // 0-100
	TagDiversity     int     `json:"tag_diversity"`
	LinkDensity      float64 `json:"link_density"` // links per sampled file
}

// OrganizationSignals are boolean hints derived from folder names and marker files.
type OrganizationSignals struct {
	HasIndexFolders   bool   `json:"has_index_folders"`
	HasPermanentNotes bool   `json:"has_permanent_notes"`
	HasJournal        bool   `json:"has_journal"`
	HasTemplates      bool   `json:"has_templates"`
	HasProjects       bool   `json:"has_projects"`
	HasConfig         bool   `json:"has_config"`
	HasVCS            bool   `json:"has_vcs"`
	HasAIInstructions bool   `json:"has_ai_instructions"`
	ModulePath        string `json:"module_path,omitempty"` // from a go.mod marker, if any
}

// StructuredFolderCount returns the number of structured-folder signals present.
func (s OrganizationSignals) StructuredFolderCount() int {
	n := 0
	for _, b := range []bool{s.HasIndexFolders, s.HasPermanentNotes, s.HasJournal, s.HasTemplates, s.HasProjects} {
		if b {
			n++
		}
	}
	return n
}

// ResourceBudget bounds collaborator call cost for one run.
type ResourceBudget struct {
	MaxItems     int     `json:"max_items"`
	MaxDepth     int     `json:"max_depth"`
	SamplingRate float64 `json:"sampling_rate"`
}

// Profile is the scored summary of a corpus. It is created once per run by the
// profiler and must not be modified afterwards.
type Profile struct {
	Complexity            Complexity          `json:"complexity"`
	OrganizationLevel     OrganizationLevel   `json:"organization_level"`
	ComplexityScore       int                 `json:"complexity_score"`
	OrganizationScore     int                 `json:"organization_score"`
	Scale                 ScaleMetrics        `json:"scale"`
	Content               ContentMetrics      `json:"content"`
	Signals               OrganizationSignals `json:"signals"`
	FileTypes             map[string]int      `json:"file_types"`
	Budget                ResourceBudget      `json:"budget"`
	RecommendedStageCount int                 `json:"recommended_stage_count"`

	// Warnings records recoverable profiling problems (defaults were applied).
	Warnings  []string  `json:"warnings,omitempty"`
	ScannedAt time.Time `json:"scanned_at"`
}
