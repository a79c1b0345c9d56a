// Package planner turns a corpus Profile into a WorkflowStrategy: the subset
// of catalog stages to run, in catalog order, with a rationale per decision.
//
// Selection is rule based. Rules only add stages; the result is deduplicated
// and projected onto the fixed catalog order, so two profiles that select the
// same subset always get the same order.
package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/types"
)

// scaleDivisor is the file count that doubles the duration estimate.
const scaleDivisor = 500.0

// BaseEstimates are per-stage duration estimates for a tiny corpus.
var BaseEstimates = map[types.StageID]time.Duration{
	types.StageDiscovery:             2 * time.Second,
	types.StageDeepContentDiscovery:  8 * time.Second,
	types.StageContentAnalysis:       3 * time.Second,
	types.StagePatternRecognition:    2 * time.Second,
	types.StageRelationshipMapping:   4 * time.Second,
	types.StageDomainAnalysis:        3 * time.Second,
	types.StageInsightGeneration:     6 * time.Second,
	types.StageOptimizationAnalysis:  2 * time.Second,
	types.StageLegacyMigration:       2 * time.Second,
	types.StageInstructionGeneration: 5 * time.Second,
	types.StageInstructionFormatting: 1 * time.Second,
	types.StageInstructionSynthesis:  1 * time.Second,
}

// Rule adds stages when its predicate holds for a profile.
type Rule struct {
	Name    string
	Applies func(p types.Profile, th config.Thresholds) bool
	Adds    []types.StageID
	Reason  func(p types.Profile, th config.Thresholds) string
}

// DefaultRules are evaluated in order after the base set.
var DefaultRules = []Rule{
	{
		Name: "moderate-tier",
		Applies: func(p types.Profile, _ config.Thresholds) bool {
			return p.Complexity.AtLeast(types.ComplexityModerate)
		},
		Adds: []types.StageID{types.StagePatternRecognition, types.StageInsightGeneration},
		Reason: func(p types.Profile, _ config.Thresholds) string {
			return fmt.Sprintf("%s corpus: adding pattern recognition and semantic insight", p.Complexity)
		},
	},
	{
		Name: "complex-tier",
		Applies: func(p types.Profile, _ config.Thresholds) bool {
			return p.Complexity == types.ComplexityComplex
		},
		Adds: []types.StageID{types.StageRelationshipMapping},
		Reason: func(types.Profile, config.Thresholds) string {
			return "complex corpus: mapping relationships between documents"
		},
	},
	{
		Name: "optimization",
		Applies: func(p types.Profile, th config.Thresholds) bool {
			return p.Complexity == types.ComplexityComplex && p.Scale.FileCount > th.OptimizationFiles
		},
		Adds: []types.StageID{types.StageOptimizationAnalysis},
		Reason: func(p types.Profile, th config.Thresholds) string {
			return fmt.Sprintf("%d files (> %d): analyzing optimization opportunities", p.Scale.FileCount, th.OptimizationFiles)
		},
	},
	{
		Name: "domain",
		Applies: func(p types.Profile, th config.Thresholds) bool {
			return p.Complexity == types.ComplexityComplex &&
				(p.Content.TagDiversity > th.DomainTags || p.Scale.MaxDepth > th.DomainDepth)
		},
		Adds: []types.StageID{types.StageDomainAnalysis},
		Reason: func(p types.Profile, th config.Thresholds) string {
			return fmt.Sprintf("%d unique tags, depth %d: labeling subject domains", p.Content.TagDiversity, p.Scale.MaxDepth)
		},
	},
	{
		Name: "sophisticated-organization",
		Applies: func(p types.Profile, _ config.Thresholds) bool {
			return p.OrganizationLevel == types.OrganizationSophisticated
		},
		Adds: []types.StageID{types.StageRelationshipMapping},
		Reason: func(types.Profile, config.Thresholds) string {
			return "sophisticated organization: following its link structure"
		},
	},
	{
		Name: "legacy-structure",
		Applies: func(p types.Profile, th config.Thresholds) bool {
			return p.Scale.LargestFolderSize > th.LargeFolderFiles && p.OrganizationLevel == types.OrganizationBasic
		},
		Adds: []types.StageID{types.StageLegacyMigration},
		Reason: func(p types.Profile, _ config.Thresholds) string {
			return fmt.Sprintf("folder %q holds %d files with basic organization: planning migration",
				p.Scale.LargestFolder, p.Scale.LargestFolderSize)
		},
	},
}

// Planner builds workflow strategies.
type Planner struct {
	thresholds config.Thresholds
	rules      []Rule
	logger     *zap.Logger
}

// New creates a planner with the default rules.
func New(cfg *config.Config, logger *zap.Logger) *Planner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{thresholds: cfg.Thresholds, rules: DefaultRules, logger: logger}
}

// Plan selects and orders the stages for a profile.
func (p *Planner) Plan(profile types.Profile) (*types.WorkflowStrategy, error) {
	selected := append([]types.StageID(nil), types.MandatoryStages...)
	rationales := []string{fmt.Sprintf("base set: %s", joinStages(types.MandatoryStages))}
	reasons := make(map[types.StageID]string, len(types.CatalogOrder))
	for _, id := range types.MandatoryStages {
		reasons[id] = "always included"
	}

	for _, rule := range p.rules {
		if !rule.Applies(profile, p.thresholds) {
			continue
		}
		reason := rule.Reason(profile, p.thresholds)
		selected = append(selected, rule.Adds...)
		rationales = append(rationales, reason)
		for _, id := range rule.Adds {
			if _, ok := reasons[id]; !ok {
				reasons[id] = reason
			}
		}
		p.logger.Debug("planning rule applied", zap.String("rule", rule.Name))
	}

	ordered, err := Order(selected)
	if err != nil {
		return nil, &types.PlanningError{Reason: "invalid stage selection", Err: err}
	}

	strategy := &types.WorkflowStrategy{
		Profile:           profile,
		Stages:            ordered,
		Rationales:        rationales,
		EstimatedDuration: EstimateDuration(ordered, profile.Scale.FileCount),
		StageReasons:      reasons,
	}
	if err := strategy.Validate(); err != nil {
		return nil, &types.PlanningError{Reason: "strategy failed validation", Err: err}
	}
	return strategy, nil
}

// Order deduplicates stage identifiers and sorts them by catalog position.
func Order(ids []types.StageID) ([]types.StageID, error) {
	seen := make(map[types.StageID]bool, len(ids))
	out := make([]types.StageID, 0, len(ids))
	for _, id := range ids {
		if !id.IsValid() {
			return nil, fmt.Errorf("unknown stage %q", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position() < out[j].Position() })
	return out, nil
}

// EstimateDuration sums base estimates scaled by corpus size.
func EstimateDuration(ids []types.StageID, fileCount int) time.Duration {
	var total time.Duration
	for _, id := range ids {
		total += BaseEstimates[id]
	}
	factor := 1 + float64(fileCount)/scaleDivisor
	return time.Duration(float64(total) * factor)
}

func joinStages(ids []types.StageID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
