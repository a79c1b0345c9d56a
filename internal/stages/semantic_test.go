package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

func graphOf(docs ...[]string) *cooccurrence {
	g := newCooccurrence()
	for _, d := range docs {
		g.addDocument(d)
	}
	return g
}

func networkConcepts(networks []types.KnowledgeNetwork) []string {
	var out []string
	for _, n := range networks {
		out = append(out, n.Concept)
	}
	return out
}

// A concept seen with only one other concept is not a network.
func TestNetworksRequireTwoConnections(t *testing.T) {
	assert.Empty(t, extractNetworks(graphOf([]string{"alpha", "beta"})))

	networks := extractNetworks(graphOf(
		[]string{"alpha", "beta"},
		[]string{"gamma", "delta", "epsilon"},
	))
	assert.ElementsMatch(t, []string{"gamma", "delta", "epsilon"}, networkConcepts(networks))
	for _, n := range networks {
		assert.Len(t, n.Connections, 2)
		assert.InDelta(t, 0.4, n.Strength, 1e-9)
	}
}

func TestNetworkDropsConceptWhenConnectionsRemoved(t *testing.T) {
	with := extractNetworks(graphOf([]string{"hub", "left"}, []string{"hub", "right"}))
	assert.Contains(t, networkConcepts(with), "hub")

	without := extractNetworks(graphOf([]string{"hub", "left"}))
	assert.NotContains(t, networkConcepts(without), "hub")
}

func TestNetworkStrengthIsCapped(t *testing.T) {
	networks := extractNetworks(graphOf([]string{"center", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}))
	var center types.KnowledgeNetwork
	for _, n := range networks {
		if n.Concept == "center" {
			center = n
		}
	}
	require.Equal(t, "center", center.Concept)
	assert.Equal(t, 1.0, center.Strength)
}

func TestNetworkLinkingPattern(t *testing.T) {
	tests := []struct {
		name string
		doc  []string
		want string
	}{
		{"technical", []string{"api", "database", "server"}, linkTechnical},
		{"process", []string{"meeting", "sprint", "retro"}, linkProcess},
		{"domain", []string{"cooking", "garden", "travel"}, linkDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			networks := extractNetworks(graphOf(tt.doc))
			require.NotEmpty(t, networks)
			for _, n := range networks {
				assert.Equal(t, tt.want, n.LinkingPattern, n.Concept)
			}
		})
	}
}

func TestThemesFromConceptFrequency(t *testing.T) {
	docs := []conceptDoc{
		{concepts: []string{"golang", "testing"}},
		{concepts: []string{"golang", "deploy"}},
		{concepts: []string{"golang"}},
		{concepts: []string{"recipes"}},
	}
	g := newCooccurrence()
	for _, d := range docs {
		g.addDocument(d.concepts)
	}

	themes := extractThemes(docs, nil, g)
	require.NotEmpty(t, themes)
	assert.Equal(t, "golang", themes[0].Name)
	assert.InDelta(t, 0.75, themes[0].Prevalence, 1e-9)
	assert.Equal(t, defaultDepth, themes[0].Depth, "no content signals")
	assert.Equal(t, []string{"deploy", "testing"}, themes[0].Connections)
}

func TestThemesPreferDomainLabels(t *testing.T) {
	docs := []conceptDoc{
		{concepts: []string{"api", "golang"}, hasSignals: true, technical: 1, density: 0.6},
		{concepts: []string{"journal"}, hasSignals: true, technical: 0, density: 0.2},
	}
	labels := []types.DomainLabel{
		{Name: "software engineering", Documents: 1, Keywords: []string{"api", "golang"}},
		{Name: "personal knowledge", Documents: 1, Keywords: []string{"journal"}},
	}
	themes := extractThemes(docs, labels, newCooccurrence())

	want := []types.Theme{
		{Name: "software engineering", Prevalence: 0.5, Depth: 0.8, Connections: []string{"api", "golang"}},
		{Name: "personal knowledge", Prevalence: 0.5, Depth: 0.1, Connections: []string{"journal"}},
	}
	if diff := cmp.Diff(want, themes, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("themes mismatch (-want +got):\n%s", diff)
	}
}

// Label document counts come from another population; prevalence is measured
// over the sampled documents only.
func TestThemePrevalenceUsesSampledDocuments(t *testing.T) {
	docs := []conceptDoc{
		{concepts: []string{"api", "golang"}},
		{concepts: []string{"golang"}},
		{concepts: []string{"journal"}},
		{concepts: []string{"recipes"}},
	}
	labels := []types.DomainLabel{
		{Name: "software engineering", Documents: 40, Keywords: []string{"golang"}},
		{Name: "personal knowledge", Documents: 1, Keywords: []string{"journal"}},
		{Name: "finance", Documents: 3, Keywords: []string{"budget"}},
	}
	themes := extractThemes(docs, labels, newCooccurrence())
	require.Len(t, themes, 3)

	prevalence := map[string]float64{}
	for _, th := range themes {
		prevalence[th.Name] = th.Prevalence
	}
	assert.InDelta(t, 0.5, prevalence["software engineering"], 1e-9)
	assert.InDelta(t, 0.25, prevalence["personal knowledge"], 1e-9)
	assert.InDelta(t, 0.0, prevalence["finance"], 1e-9)
}

func TestSemanticUsesDeepContentCache(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"eng/api.md":    "# API design\n\n#golang #api #testing",
		"eng/deploy.md": "# Deploy\n\n#golang #kubernetes #api",
		"ops/tests.md":  "# Tests\n\n#golang #testing",
	})
	env := newTestEnv(t, store.CapabilitiesOf(mem))
	state := types.NewAnalysisState("r")
	runStage(t, deepContentStage{}, state, env)

	res := runStage(t, semanticStage{}, state, env)
	sem := state.Semantic
	require.NotNil(t, sem)
	assert.Equal(t, sourceAnalyzer, sem.Source)
	assert.Equal(t, types.OutcomeOK, res.Outcome)
	assert.Contains(t, networkConcepts(sem.Networks), "golang")
	require.NotEmpty(t, sem.Themes)
	assert.Equal(t, "golang", sem.Themes[0].Name)
	assert.InDelta(t, 1.0, sem.Themes[0].Prevalence, 1e-9)
}

// Without the analyzer the result keeps the same shape, with lower fidelity.
func TestSemanticFallbackChain(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"research/papers/one.md": "#paper #ml",
		"research/papers/two.md": "#paper #survey",
		"journal/today.md":       "today",
	})

	t.Run("list and read", func(t *testing.T) {
		caps := store.CapabilitiesOf(mem)
		caps.Analyzer = nil
		state := types.NewAnalysisState("r")
		res := runStage(t, semanticStage{}, state, newTestEnv(t, caps))
		assert.Equal(t, sourceListRead, state.Semantic.Source)
		assert.Equal(t, types.OutcomeDegraded, res.Outcome)
		assert.NotEmpty(t, state.Semantic.Themes)
	})

	t.Run("folder names", func(t *testing.T) {
		state := types.NewAnalysisState("r")
		res := runStage(t, semanticStage{}, state, newTestEnv(t, store.Capabilities{Lister: mem}))
		sem := state.Semantic
		assert.Equal(t, sourceFolders, sem.Source)
		assert.Equal(t, types.OutcomeDegraded, res.Outcome)
		require.NotEmpty(t, sem.Themes)
		assert.Equal(t, "papers", sem.Themes[0].Name)
		assert.Equal(t, defaultDepth, sem.Themes[0].Depth)
	})

	t.Run("placeholder", func(t *testing.T) {
		state := types.NewAnalysisState("r")
		res := runStage(t, semanticStage{}, state, newTestEnv(t, store.Capabilities{}))
		sem := state.Semantic
		require.NotNil(t, sem)
		assert.Equal(t, sourcePlaceholder, sem.Source)
		assert.Equal(t, types.OutcomeDegraded, res.Outcome)
		assert.Empty(t, sem.Themes)
		assert.Empty(t, sem.Networks)
	})
}

func TestUsagePatternsAndCharacteristics(t *testing.T) {
	state := types.NewAnalysisState("r")
	state.Relationships.AddCentralNode(types.CentralNode{Path: "index", InboundLinks: 4})
	state.Content.AddNamingConvention(namingDatePrefixed)
	state.Structure.MaxDepth = 4
	for _, d := range []string{"research", "business", "writing"} {
		state.Insights.AddDomain(d)
	}

	patterns := usagePatterns(state, types.Profile{})
	assert.Equal(t, []string{string(i18n.UsageHubNavigation), string(i18n.UsageTemporal), string(i18n.UsageHierarchical)}, patterns)

	themes := []types.Theme{{Name: "x", Prevalence: 0.6, Depth: 0.7}}
	networks := make([]types.KnowledgeNetwork, 5)
	assert.Equal(t,
		[]string{string(i18n.CharMultiDomain), string(i18n.CharTechnical), string(i18n.CharRichNetworks), string(i18n.CharFocusedCorpus)},
		characteristics(themes, networks, state))
}

func TestSemanticSampleHonorsSamplingRate(t *testing.T) {
	docs := map[string]string{}
	for i := 0; i < 40; i++ {
		docs[fmt.Sprintf("notes/%02d.md", i)] = "x"
	}
	env := newTestEnv(t, store.CapabilitiesOf(store.NewMem(docs)))

	tests := []struct {
		name   string
		budget types.ResourceBudget
		want   int
	}{
		{"full rate", types.ResourceBudget{MaxItems: 1000, SamplingRate: 1.0}, 40},
		{"quarter rate", types.ResourceBudget{MaxItems: 1000, SamplingRate: 0.25}, 10},
		{"item budget", types.ResourceBudget{MaxItems: 5, SamplingRate: 0.5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.Profile.Budget = tt.budget
			paths, err := semanticSample(context.Background(), env)
			require.NoError(t, err)
			assert.Len(t, paths, tt.want)
		})
	}

	env.Profile.Budget = types.ResourceBudget{MaxItems: 1000, SamplingRate: 0.1}
	paths, err := semanticSample(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/00.md", "notes/10.md", "notes/20.md", "notes/30.md"}, paths, "sample is spread across the listing")
}
