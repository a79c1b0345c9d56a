package planner

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/types"
)

func newTestPlanner(t *testing.T) *Planner {
	return New(config.Default(), zaptest.NewLogger(t))
}

func TestPlanSimpleCorpusUsesBaseSet(t *testing.T) {
	profile := types.Profile{
		Complexity:        types.ComplexitySimple,
		OrganizationLevel: types.OrganizationBasic,
		Scale:             types.ScaleMetrics{FileCount: 10, FolderCount: 2, MaxDepth: 2, LargestFolderSize: 5},
	}

	strategy, err := newTestPlanner(t).Plan(profile)
	require.NoError(t, err)

	if diff := cmp.Diff(types.MandatoryStages, strategy.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, strategy.Rationales, 1)
	assert.Equal(t, profile, strategy.Profile)
	assert.Equal(t, "always included", strategy.StageReasons[types.StageDiscovery])
}

func TestPlanComplexCorpus(t *testing.T) {
	profile := types.Profile{
		Complexity:        types.ComplexityComplex,
		OrganizationLevel: types.OrganizationStructured,
		Scale:             types.ScaleMetrics{FileCount: 600, MaxDepth: 6, LargestFolderSize: 40},
		Content:           types.ContentMetrics{TagDiversity: 25, MetadataUsagePct: 80},
	}

	strategy, err := newTestPlanner(t).Plan(profile)
	require.NoError(t, err)

	want := []types.StageID{
		types.StageDiscovery,
		types.StageDeepContentDiscovery,
		types.StageContentAnalysis,
		types.StagePatternRecognition,
		types.StageRelationshipMapping,
		types.StageDomainAnalysis,
		types.StageInsightGeneration,
		types.StageOptimizationAnalysis,
		types.StageInstructionGeneration,
		types.StageInstructionFormatting,
		types.StageInstructionSynthesis,
	}
	if diff := cmp.Diff(want, strategy.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, strategy.Rationales, 5)
	assert.Contains(t, strategy.StageReasons[types.StageOptimizationAnalysis], "600 files")
}

func TestPlanConditionalRules(t *testing.T) {
	tests := []struct {
		name     string
		profile  types.Profile
		included []types.StageID
		excluded []types.StageID
	}{
		{
			name:     "moderate adds pattern and insight only",
			profile:  types.Profile{Complexity: types.ComplexityModerate, OrganizationLevel: types.OrganizationStructured},
			included: []types.StageID{types.StagePatternRecognition, types.StageInsightGeneration},
			excluded: []types.StageID{types.StageRelationshipMapping, types.StageDomainAnalysis, types.StageOptimizationAnalysis},
		},
		{
			name: "complex but small and shallow",
			profile: types.Profile{
				Complexity: types.ComplexityComplex,
				Scale:      types.ScaleMetrics{FileCount: 200, MaxDepth: 3},
				Content:    types.ContentMetrics{TagDiversity: 10},
			},
			included: []types.StageID{types.StageRelationshipMapping},
			excluded: []types.StageID{types.StageDomainAnalysis, types.StageOptimizationAnalysis},
		},
		{
			name: "complex and deep triggers domain analysis",
			profile: types.Profile{
				Complexity: types.ComplexityComplex,
				Scale:      types.ScaleMetrics{FileCount: 200, MaxDepth: 5},
			},
			included: []types.StageID{types.StageDomainAnalysis},
		},
		{
			name:     "sophisticated simple corpus maps relationships",
			profile:  types.Profile{Complexity: types.ComplexitySimple, OrganizationLevel: types.OrganizationSophisticated},
			included: []types.StageID{types.StageRelationshipMapping},
			excluded: []types.StageID{types.StagePatternRecognition},
		},
		{
			name: "large flat folder with basic organization",
			profile: types.Profile{
				Complexity:        types.ComplexitySimple,
				OrganizationLevel: types.OrganizationBasic,
				Scale:             types.ScaleMetrics{LargestFolder: "inbox", LargestFolderSize: 51},
			},
			included: []types.StageID{types.StageLegacyMigration},
		},
		{
			name: "large folder but structured",
			profile: types.Profile{
				Complexity:        types.ComplexitySimple,
				OrganizationLevel: types.OrganizationStructured,
				Scale:             types.ScaleMetrics{LargestFolderSize: 500},
			},
			excluded: []types.StageID{types.StageLegacyMigration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := newTestPlanner(t).Plan(tt.profile)
			require.NoError(t, err)
			for _, id := range tt.included {
				assert.True(t, strategy.Includes(id), "expected %s", id)
			}
			for _, id := range tt.excluded {
				assert.False(t, strategy.Includes(id), "unexpected %s", id)
			}
			for _, id := range types.MandatoryStages {
				assert.True(t, strategy.Includes(id), "mandatory %s missing", id)
			}
			assert.NoError(t, strategy.Validate())
		})
	}
}

func TestPlanNeverDuplicates(t *testing.T) {
	// Complex + sophisticated both add relationship mapping.
	profile := types.Profile{
		Complexity:        types.ComplexityComplex,
		OrganizationLevel: types.OrganizationSophisticated,
	}
	strategy, err := newTestPlanner(t).Plan(profile)
	require.NoError(t, err)

	seen := make(map[types.StageID]int)
	for _, id := range strategy.Stages {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "stage %s appears %d times", id, n)
	}
}

func TestOrderIsIndependentOfInput(t *testing.T) {
	a := []types.StageID{types.StageInstructionSynthesis, types.StageDiscovery, types.StageRelationshipMapping, types.StageDiscovery}
	b := []types.StageID{types.StageRelationshipMapping, types.StageDiscovery, types.StageInstructionSynthesis}

	orderedA, err := Order(a)
	require.NoError(t, err)
	orderedB, err := Order(b)
	require.NoError(t, err)

	want := []types.StageID{types.StageDiscovery, types.StageRelationshipMapping, types.StageInstructionSynthesis}
	if diff := cmp.Diff(want, orderedA); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orderedA, orderedB); diff != "" {
		t.Errorf("same subset ordered differently (-a +b):\n%s", diff)
	}

	_, err = Order([]types.StageID{"bogus"})
	assert.Error(t, err)
}

func TestSameSubsetSameOrderAcrossProfiles(t *testing.T) {
	// Both profiles select base + relationship mapping through different rules.
	p1 := types.Profile{Complexity: types.ComplexitySimple, OrganizationLevel: types.OrganizationSophisticated}
	p2 := types.Profile{Complexity: types.ComplexitySimple, OrganizationLevel: types.OrganizationSophisticated,
		Scale: types.ScaleMetrics{FileCount: 999}}

	s1, err := newTestPlanner(t).Plan(p1)
	require.NoError(t, err)
	s2, err := newTestPlanner(t).Plan(p2)
	require.NoError(t, err)
	assert.Equal(t, s1.Stages, s2.Stages)
}

func TestEstimateDuration(t *testing.T) {
	ids := []types.StageID{types.StageDiscovery, types.StageInstructionSynthesis}
	assert.Equal(t, 3*time.Second, EstimateDuration(ids, 0))
	assert.Equal(t, 6*time.Second, EstimateDuration(ids, 500))
}
