package profiler

import (
	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/types"
)

// steps returns how many thresholds v strictly exceeds. With ascending
// thresholds the result is non-decreasing in v.
func steps(v float64, thresholds []float64) int {
	n := 0
	for _, t := range thresholds {
		if v > t {
			n++
		}
	}
	return n
}

// ComplexityScore combines the six weighted signal groups.
func ComplexityScore(th config.Thresholds, scale types.ScaleMetrics, content types.ContentMetrics) int {
	return steps(float64(scale.FileCount), th.FileSteps) +
		steps(float64(scale.MaxDepth), th.DepthSteps) +
		steps(float64(scale.FolderCount), th.FolderSteps) +
		steps(float64(content.TagDiversity), th.TagSteps) +
		steps(content.MetadataUsagePct, th.MetadataSteps) +
		steps(content.LinkDensity, th.LinkDensitySteps)
}

// ClassifyComplexity maps a complexity score onto a tier.
func ClassifyComplexity(th config.Thresholds, score int) types.Complexity {
	switch {
	case score >= th.ComplexScore:
		return types.ComplexityComplex
	case score >= th.ModerateScore:
		return types.ComplexityModerate
	default:
		return types.ComplexitySimple
	}
}

// OrganizationScore is an additive score over structured folders, metadata
// usage, tag diversity and link density.
func OrganizationScore(th config.Thresholds, signals types.OrganizationSignals, content types.ContentMetrics) int {
	score := signals.StructuredFolderCount()
	score += steps(content.MetadataUsagePct, th.OrgMetadataSteps)
	if float64(content.TagDiversity) > th.OrgTagStep {
		score++
	}
	if content.LinkDensity > th.OrgLinkStep {
		score++
	}
	return score
}

// ClassifyOrganization maps an organization score onto a level.
func ClassifyOrganization(th config.Thresholds, score int) types.OrganizationLevel {
	switch {
	case score >= th.SophisticatedOrg:
		return types.OrganizationSophisticated
	case score >= th.StructuredOrg:
		return types.OrganizationStructured
	default:
		return types.OrganizationBasic
	}
}

// DeriveBudget returns the tier budget for a complexity, clamped by the
// invocation limits. Zero limits leave the tier value untouched.
func DeriveBudget(cfg *config.Config, complexity types.Complexity, opts config.Options) (types.ResourceBudget, int) {
	tier := cfg.Budget(complexity)
	budget := types.ResourceBudget{
		MaxItems:     tier.MaxItems,
		MaxDepth:     tier.MaxDepth,
		SamplingRate: tier.SamplingRate,
	}
	if opts.MaxItems > 0 && opts.MaxItems < budget.MaxItems {
		budget.MaxItems = opts.MaxItems
	}
	if opts.MaxDepth > 0 && opts.MaxDepth < budget.MaxDepth {
		budget.MaxDepth = opts.MaxDepth
	}
	return budget, tier.RecommendedStage
}
