package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// domainStage labels the subject domains of the corpus.
type domainStage struct{}

func (domainStage) ID() types.StageID { return types.StageDomainAnalysis }

func (domainStage) Execute(ctx context.Context, state *types.AnalysisState, _ *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var evidence [][]string
	if state.DeepContent != nil {
		for _, doc := range state.DeepContent.ReadFiles {
			evidence = append(evidence, documentTokens(doc))
		}
	}
	outcome := types.OutcomeOK
	if len(evidence) == 0 {
		outcome = types.OutcomeDegraded
		for _, f := range state.Structure.Folders {
			evidence = append(evidence, tokenize(strings.ReplaceAll(f.Path, "/", " ")))
		}
	}

	analysis := &types.DomainAnalysis{Labels: labelDomains(evidence)}
	if err := state.SetDomain(analysis); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(analysis.Labels))
	for _, l := range analysis.Labels {
		state.Insights.AddDomain(l.Name)
		names = append(names, l.Name)
	}

	discovery := "no recognizable subject domain"
	if len(names) > 0 {
		discovery = fmt.Sprintf("domains: %s", strings.Join(i18n.Labels(i18n.Default, names), ", "))
	}
	return &pipeline.Result{Discoveries: []string{discovery}, Outcome: outcome}, nil
}

// labelDomains matches each evidence set against the domain taxonomy and
// returns the domains ordered by supporting documents, then name.
func labelDomains(evidence [][]string) []types.DomainLabel {
	byName := make(map[string]*types.DomainLabel)
	for _, tokens := range evidence {
		for name, keywords := range domainTaxonomy.match(tokens) {
			l, ok := byName[name]
			if !ok {
				l = &types.DomainLabel{Name: name}
				byName[name] = l
			}
			l.Documents++
			for _, kw := range keywords {
				l.Keywords = appendUnique(l.Keywords, kw)
			}
		}
	}

	labels := make([]types.DomainLabel, 0, len(byName))
	for _, l := range byName {
		sort.Strings(l.Keywords)
		labels = append(labels, *l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Documents != labels[j].Documents {
			return labels[i].Documents > labels[j].Documents
		}
		return labels[i].Name < labels[j].Name
	})
	return labels
}

// documentTokens gathers the topical tokens of one document: tags, heading
// words and folder names.
func documentTokens(doc types.DocumentInsight) []string {
	var tokens []string
	for _, t := range doc.Tags {
		tokens = append(tokens, tokenize(t)...)
	}
	for _, h := range doc.Headings {
		tokens = append(tokens, tokenize(h)...)
	}
	tokens = append(tokens, tokenize(strings.ReplaceAll(doc.Folder, "/", " "))...)
	tokens = append(tokens, tokenize(baseName(doc.Path))...)
	return uniqueSorted(tokens)
}
