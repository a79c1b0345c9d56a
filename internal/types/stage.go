package types

import "time"

// StageID identifies one stage of the analysis catalog.
type StageID string

const (
	StageDiscovery             StageID = "discovery"
	StageDeepContentDiscovery  StageID = "deep_content_discovery"
	StageContentAnalysis       StageID = "content_analysis"
	StagePatternRecognition    StageID = "pattern_recognition"
	StageRelationshipMapping   StageID = "relationship_mapping"
	StageDomainAnalysis        StageID = "domain_analysis"
	StageInsightGeneration     StageID = "insight_generation"
	StageOptimizationAnalysis  StageID = "optimization_analysis"
	StageLegacyMigration       StageID = "legacy_migration"
	StageInstructionGeneration StageID = "instruction_generation"
	StageInstructionFormatting StageID = "instruction_formatting"
	StageInstructionSynthesis  StageID = "instruction_synthesis"
)

// CatalogOrder is the fixed total order of every stage in the catalog.
// Planning selects a subset; it never reorders.
var CatalogOrder = []StageID{
	StageDiscovery,
	StageDeepContentDiscovery,
	StageContentAnalysis,
	StagePatternRecognition,
	StageRelationshipMapping,
	StageDomainAnalysis,
	StageInsightGeneration,
	StageOptimizationAnalysis,
	StageLegacyMigration,
	StageInstructionGeneration,
	StageInstructionFormatting,
	StageInstructionSynthesis,
}

// MandatoryStages run for every profile.
var MandatoryStages = []StageID{
	StageDiscovery,
	StageDeepContentDiscovery,
	StageContentAnalysis,
	StageInstructionGeneration,
	StageInstructionFormatting,
	StageInstructionSynthesis,
}

// Position returns the stage's index in CatalogOrder, or -1 if unknown.
func (id StageID) Position() int {
	for i, s := range CatalogOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// IsValid checks if the stage is part of the catalog
func (id StageID) IsValid() bool {
	return id.Position() >= 0
}

// IsMandatory reports whether the stage belongs to the base set.
func (id StageID) IsMandatory() bool {
	for _, s := range MandatoryStages {
		if s == id {
			return true
		}
	}
	return false
}

// StageTiming records how long a stage took within a run.
type StageTiming struct {
	Stage    StageID       `json:"stage"`
	Duration time.Duration `json:"duration"`
	Outcome  OutcomeStatus `json:"outcome,omitempty"`
}
