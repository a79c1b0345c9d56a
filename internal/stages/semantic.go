package stages

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/markdown"
	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

const (
	sourceFolders = "folders"

	// defaultDepth is used when no document carries content signals.
	defaultDepth = 0.5

	minNetworkConnections = 2
	fullStrengthLinks     = 5
	maxThemeConnections   = 5
	maxThemes             = 12
	maxNetworks           = 20
	maxNetworkConnections = 10
)

// conceptDoc is the topical view of one document used for semantic extraction.
type conceptDoc struct {
	concepts   []string
	technical  float64 // 0-1
	density    float64 // 0-1
	hasSignals bool
}

// semanticStage extracts themes, knowledge networks, usage patterns and
// characteristics with pure heuristics.
type semanticStage struct{}

func (semanticStage) ID() types.StageID { return types.StageInsightGeneration }

func (s semanticStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	log := env.Log().With(zap.String("stage", string(s.ID())))

	attempts := []struct {
		name string
		run  func() types.Outcome[[]conceptDoc]
	}{
		{sourceAnalyzer, func() types.Outcome[[]conceptDoc] { return s.viaAnalyzer(ctx, state, env) }},
		{sourceListRead, func() types.Outcome[[]conceptDoc] { return s.viaListRead(ctx, state, env) }},
		{sourceFolders, func() types.Outcome[[]conceptDoc] { return s.viaFolders(ctx, state, env) }},
		{sourcePlaceholder, func() types.Outcome[[]conceptDoc] {
			return types.Degraded[[]conceptDoc](nil, "no content or structure available")
		}},
	}

	var outcome types.Outcome[[]conceptDoc]
	var skipped []string
	source := ""
	for i, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome = attempt.run()
		if outcome.Usable() {
			source = attempt.name
			if i > 0 && outcome.Status == types.OutcomeOK {
				outcome = types.Degraded(outcome.Data, strings.Join(skipped, "; "))
			}
			break
		}
		log.Info("semantic strategy unavailable", zap.String("strategy", attempt.name), zap.String("reason", outcome.Reason))
		skipped = append(skipped, attempt.name+": "+outcome.Reason)
	}

	docs := outcome.Data
	graph := newCooccurrence()
	for _, d := range docs {
		graph.addDocument(d.concepts)
	}
	var labels []types.DomainLabel
	if state.Domain != nil {
		labels = state.Domain.Labels
	}
	themes := extractThemes(docs, labels, graph)
	networks := extractNetworks(graph)

	result := &types.SemanticResult{
		Source:          source,
		Status:          outcome.Status,
		Reason:          outcome.Reason,
		Themes:          themes,
		Networks:        networks,
		UsagePatterns:   usagePatterns(state, env.Profile),
		Characteristics: characteristics(themes, networks, state),
	}
	if err := state.SetSemantic(result); err != nil {
		return nil, err
	}

	discoveries := []string{fmt.Sprintf("%d themes, %d knowledge networks", len(themes), len(networks))}
	if len(themes) > 0 {
		discoveries = append(discoveries, "leading theme: "+i18n.Label(i18n.Default, themes[0].Name))
	}
	if result.Status == types.OutcomeDegraded {
		discoveries = append(discoveries, fmt.Sprintf("using %s strategy", source))
	}
	return &pipeline.Result{Discoveries: discoveries, Outcome: result.Status}, nil
}

// viaAnalyzer uses documents parsed by the analyzer, reusing the deep content
// cache when it came from the same capability.
func (semanticStage) viaAnalyzer(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) types.Outcome[[]conceptDoc] {
	if dc := state.DeepContent; dc != nil && dc.Source == sourceAnalyzer && len(dc.ReadFiles) > 0 {
		return types.Ok(fromInsights(dc.ReadFiles))
	}
	if env.Store.Analyzer == nil {
		return types.Failed[[]conceptDoc](types.Unavailable(store.CapAnalyze))
	}
	paths, err := semanticSample(ctx, env)
	if err != nil {
		return types.Failed[[]conceptDoc](err)
	}
	parsed, err := env.Store.Analyzer.Analyze(ctx, paths, env.Config.Content.CharBudget)
	if err != nil {
		return types.Failed[[]conceptDoc](err)
	}
	if len(parsed) == 0 {
		return types.Failed[[]conceptDoc](fmt.Errorf("analyzer returned no documents"))
	}
	return types.Ok(fromDocuments(parsed))
}

// viaListRead reuses documents read by deep content discovery, or reads a
// fresh sample.
func (semanticStage) viaListRead(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) types.Outcome[[]conceptDoc] {
	if dc := state.DeepContent; dc != nil && dc.Source == sourceListRead && len(dc.ReadFiles) > 0 {
		return types.Ok(fromInsights(dc.ReadFiles))
	}
	if !env.Store.CanRead() {
		return types.Failed[[]conceptDoc](types.Unavailable(store.CapRead))
	}
	paths, err := semanticSample(ctx, env)
	if err != nil {
		return types.Failed[[]conceptDoc](err)
	}
	results, err := store.ReadAll(ctx, env.Store, paths, env.Config.Content.CharBudget)
	if err != nil {
		return types.Failed[[]conceptDoc](err)
	}
	var parsed []markdown.Document
	for _, r := range results {
		if r.Success {
			parsed = append(parsed, markdown.Parse(r.Path, r.Content))
		}
	}
	if len(parsed) == 0 {
		return types.Failed[[]conceptDoc](fmt.Errorf("no documents could be read"))
	}
	return types.Ok(fromDocuments(parsed))
}

// viaFolders treats each listed path as a document whose concepts are its
// folder names.
func (semanticStage) viaFolders(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) types.Outcome[[]conceptDoc] {
	var paths []string
	if env.Store.Lister != nil {
		listed, err := env.Store.Lister.List(ctx, env.Config.Content.Pattern)
		if err == nil {
			paths = listed
		}
	}
	var docs []conceptDoc
	for _, p := range paths {
		if concepts := pathConcepts(path.Dir(p)); len(concepts) > 0 {
			docs = append(docs, conceptDoc{concepts: concepts})
		}
	}
	if len(docs) == 0 {
		for _, f := range state.Structure.Folders {
			concepts := pathConcepts(f.Path)
			if len(concepts) == 0 {
				continue
			}
			for i := 0; i < max(f.FileCount, 1); i++ {
				docs = append(docs, conceptDoc{concepts: concepts})
			}
		}
	}
	if len(docs) == 0 {
		return types.Failed[[]conceptDoc](fmt.Errorf("no folder names to analyze"))
	}
	return types.Degraded(docs, "themes derived from folder names")
}

func semanticSample(ctx context.Context, env *pipeline.Env) ([]string, error) {
	if env.Store.Lister == nil {
		return nil, types.Unavailable(store.CapList)
	}
	paths, err := env.Store.Lister.List(ctx, env.Config.Content.Pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents listed")
	}
	return store.Spread(paths, sampleSize(env, len(paths))), nil
}

// sampleSize bounds a sample of listed documents by the configured sample
// size, the item budget and the profile's sampling rate.
func sampleSize(env *pipeline.Env, listed int) int {
	n := env.Config.Content.ProfileSample
	if items := itemBudget(env); items > 0 && items < n {
		n = items
	}
	if rate := env.Profile.Budget.SamplingRate; rate > 0 && rate < 1 {
		if rated := int(math.Ceil(rate * float64(listed))); rated < n {
			n = max(rated, 1)
		}
	}
	return n
}

func pathConcepts(dir string) []string {
	if dir == "." || dir == "" {
		return nil
	}
	return uniqueSorted(tokenize(strings.ReplaceAll(dir, "/", " ")))
}

func fromInsights(insights []types.DocumentInsight) []conceptDoc {
	docs := make([]conceptDoc, 0, len(insights))
	for _, in := range insights {
		var concepts []string
		concepts = append(concepts, in.Tags...)
		for _, h := range in.Headings {
			concepts = append(concepts, tokenize(h)...)
		}
		d := conceptDoc{concepts: uniqueSorted(concepts)}
		if in.Length > 0 {
			d.hasSignals = true
			d.technical = technicalScore(in.HasCode, concepts)
			d.density = densityScore(len(in.Headings), len(in.InternalLinks)+in.ExternalLinks, in.Length)
		}
		docs = append(docs, d)
	}
	return docs
}

func fromDocuments(parsed []markdown.Document) []conceptDoc {
	insights := make([]types.DocumentInsight, 0, len(parsed))
	for _, doc := range parsed {
		in := types.DocumentInsight{
			Path:          doc.Path,
			Length:        doc.Length,
			Tags:          doc.Tags,
			InternalLinks: doc.InternalLinks,
			ExternalLinks: len(doc.ExternalLinks),
			HasCode:       doc.CodeBlocks > 0,
		}
		for _, h := range doc.Headings {
			in.Headings = append(in.Headings, h.Text)
		}
		insights = append(insights, in)
	}
	return fromInsights(insights)
}

// technicalScore blends code presence with technical vocabulary.
func technicalScore(hasCode bool, concepts []string) float64 {
	score := 0.0
	if hasCode {
		score = 0.5
	}
	hits := len(linkingTaxonomy.match(concepts)[linkTechnical])
	score += 0.5 * min(float64(hits)/3, 1)
	return score
}

// densityScore measures structure per thousand characters.
func densityScore(headings, links, length int) float64 {
	if length <= 0 {
		return 0
	}
	perK := float64(headings+links) * 1000 / float64(length)
	return min(perK/10, 1)
}

// extractThemes prefers explicit domain labels; otherwise themes are the most
// frequent concepts. Prevalence is always the share of docs carrying the theme.
func extractThemes(docs []conceptDoc, labels []types.DomainLabel, graph *cooccurrence) []types.Theme {
	total := max(len(docs), 1)
	var themes []types.Theme
	if len(labels) > 0 {
		for _, l := range truncateList(labelNames(labels), maxThemes) {
			label := findLabel(labels, l)
			keywords := toSet(label.Keywords)
			matches := func(d conceptDoc) bool { return matchesAny(d.concepts, keywords) }
			themes = append(themes, types.Theme{
				Name:        label.Name,
				Prevalence:  float64(countMatching(docs, matches)) / float64(total),
				Depth:       themeDepth(docs, matches),
				Connections: truncateList(label.Keywords, maxThemeConnections),
			})
		}
		return themes
	}

	for _, concept := range truncateList(rankKeys(graph.frequency), maxThemes) {
		themes = append(themes, types.Theme{
			Name:        concept,
			Prevalence:  float64(graph.frequency[concept]) / float64(total),
			Depth:       themeDepth(docs, func(d conceptDoc) bool { return contains(d.concepts, concept) }),
			Connections: truncateList(graph.connections(concept), maxThemeConnections),
		})
	}
	return themes
}

func countMatching(docs []conceptDoc, matches func(conceptDoc) bool) int {
	n := 0
	for _, d := range docs {
		if matches(d) {
			n++
		}
	}
	return n
}

// themeDepth averages the content signals of matching documents, or returns
// defaultDepth when none carries signals.
func themeDepth(docs []conceptDoc, matches func(conceptDoc) bool) float64 {
	sum, n := 0.0, 0
	for _, d := range docs {
		if !d.hasSignals || !matches(d) {
			continue
		}
		sum += 0.5*d.technical + 0.5*d.density
		n++
	}
	if n == 0 {
		return defaultDepth
	}
	return sum / float64(n)
}

// extractNetworks keeps concepts with at least two distinct co-occurring
// concepts.
func extractNetworks(graph *cooccurrence) []types.KnowledgeNetwork {
	var networks []types.KnowledgeNetwork
	for _, concept := range rankKeys(graph.frequency) {
		conns := graph.connections(concept)
		if len(conns) < minNetworkConnections {
			continue
		}
		pattern := linkingTaxonomy.best(append([]string{concept}, conns...))
		if pattern == "" {
			pattern = linkDomain
		}
		networks = append(networks, types.KnowledgeNetwork{
			Concept:        concept,
			Connections:    truncateList(conns, maxNetworkConnections),
			Strength:       min(float64(len(conns))/fullStrengthLinks, 1),
			LinkingPattern: pattern,
		})
		if len(networks) == maxNetworks {
			break
		}
	}
	return networks
}

// usagePatterns derives how the corpus is navigated from signals already in state.
func usagePatterns(state *types.AnalysisState, profile types.Profile) []string {
	var out []string
	if len(state.Relationships.CentralNodes) > 0 || profile.Signals.HasIndexFolders ||
		(state.DeepContent != nil && state.DeepContent.DocumentTypes[docIndex] > 0) {
		out = append(out, string(i18n.UsageHubNavigation))
	}
	if profile.Signals.HasJournal || contains(state.Content.NamingConventions, namingDatePrefixed) {
		out = append(out, string(i18n.UsageTemporal))
	}
	if len(state.Content.Tags) >= 5 {
		out = append(out, string(i18n.UsageTagRetrieval))
	}
	if state.Structure.MaxDepth >= 3 {
		out = append(out, string(i18n.UsageHierarchical))
	}
	if state.Relationships.LinkDensity >= 2 {
		out = append(out, string(i18n.UsageLinkFollowing))
	}
	if profile.Signals.HasProjects {
		out = append(out, string(i18n.UsageProjectCentric))
	}
	return out
}

// characteristics applies threshold rules over the extracted data.
func characteristics(themes []types.Theme, networks []types.KnowledgeNetwork, state *types.AnalysisState) []string {
	var out []string
	if len(state.Insights.Domains) >= 3 {
		out = append(out, string(i18n.CharMultiDomain))
	}
	if dc := state.DeepContent; dc != nil && dc.Flags.HasPrimaryDocumentation && len(state.Content.MetadataFields) > 0 {
		out = append(out, string(i18n.CharDocQuality))
	}
	deep := 0
	for _, t := range themes {
		if t.Depth >= 0.6 {
			deep++
		}
	}
	if deep > 0 && deep*2 >= len(themes) {
		out = append(out, string(i18n.CharTechnical))
	}
	if len(networks) >= 5 {
		out = append(out, string(i18n.CharRichNetworks))
	}
	if len(themes) > 0 && themes[0].Prevalence >= 0.5 {
		out = append(out, string(i18n.CharFocusedCorpus))
	}
	return out
}

func labelNames(labels []types.DomainLabel) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

func findLabel(labels []types.DomainLabel, name string) types.DomainLabel {
	for _, l := range labels {
		if l.Name == name {
			return l
		}
	}
	return types.DomainLabel{Name: name}
}

func matchesAny(concepts []string, keywords map[string]struct{}) bool {
	for _, c := range concepts {
		for kw := range keywords {
			if c == kw || strings.HasPrefix(c, kw) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
