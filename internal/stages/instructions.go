package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

const (
	generatedByCompletion = "completion"
	generatedByHeuristic  = "heuristic"
)

// generationStage assembles the guidance draft from every insight collected
// so far. The overview comes from the completion service when one is
// configured; otherwise, or when it fails, a heuristic summary is used.
type generationStage struct{}

func (generationStage) ID() types.StageID { return types.StageInstructionGeneration }

func (generationStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang := outputLanguage(env, state)
	draft := &types.InstructionDraft{
		Domains:    append([]string(nil), state.Insights.Domains...),
		Patterns:   append([]string(nil), state.Insights.WorkflowPatterns...),
		Principles: append([]string(nil), state.Insights.OrganizationPrinciples...),
	}
	if sem := state.Semantic; sem != nil {
		draft.Themes = sem.Themes
		draft.Networks = sem.Networks
		draft.Characteristics = sem.Characteristics
		for _, p := range sem.UsagePatterns {
			draft.Patterns = appendUnique(draft.Patterns, p)
		}
	}
	if opt := state.Optimization; opt != nil {
		draft.Recommendations = append(draft.Recommendations, opt.Suggestions...)
	}
	if mig := state.Migration; mig != nil {
		for _, c := range mig.Candidates {
			draft.Recommendations = append(draft.Recommendations, c.Suggestion)
		}
	}

	heuristic := i18n.Phrase(lang, i18n.KeyHeuristicNote,
		state.Structure.FileCount, state.Structure.FolderCount, state.Structure.MaxDepth,
		env.Profile.OrganizationLevel, env.Profile.Complexity)
	draft.Overview, draft.GeneratedBy = heuristic, generatedByHeuristic

	outcome := types.OutcomeOK
	discoveries := []string{}
	if env.Completer != nil && env.Config.AI.Enabled {
		text, err := env.Completer.Complete(ctx, overviewPrompt(lang, state, env.Profile, draft),
			env.Config.AI.MaxTokens, env.Config.AI.Temperature)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil && strings.TrimSpace(text) != "" {
			draft.Overview, draft.GeneratedBy = strings.TrimSpace(text), generatedByCompletion
		} else {
			env.Log().Warn("completion failed, using heuristic overview", zap.Error(err))
			outcome = types.OutcomeDegraded
			discoveries = append(discoveries, "completion unavailable, using heuristic overview")
		}
	}

	if err := state.SetDraft(draft); err != nil {
		return nil, err
	}
	discoveries = append([]string{
		fmt.Sprintf("overview by %s, %d recommendations", draft.GeneratedBy, len(draft.Recommendations)),
	}, discoveries...)
	return &pipeline.Result{Discoveries: discoveries, Outcome: outcome}, nil
}

// overviewPrompt asks for a short prose overview grounded in the findings.
func overviewPrompt(lang string, state *types.AnalysisState, profile types.Profile, draft *types.InstructionDraft) string {
	var b strings.Builder
	b.WriteString("You are writing the overview paragraph of a guide to a document collection.\n")
	fmt.Fprintf(&b, "Write 3-5 sentences in the language with tag %q. Do not use headings or lists.\n\n", lang)
	fmt.Fprintf(&b, "Scale: %d documents, %d folders, max depth %d.\n",
		state.Structure.FileCount, state.Structure.FolderCount, state.Structure.MaxDepth)
	fmt.Fprintf(&b, "Complexity: %s. Organization: %s.\n", profile.Complexity, profile.OrganizationLevel)
	writeList(&b, "Domains", i18n.Labels(lang, draft.Domains))
	writeList(&b, "Workflow patterns", i18n.Labels(lang, draft.Patterns))
	writeList(&b, "Organization principles", i18n.Labels(lang, draft.Principles))
	themes := make([]string, 0, len(draft.Themes))
	for _, t := range truncateThemes(draft.Themes, 5) {
		themes = append(themes, i18n.Label(lang, t.Name))
	}
	writeList(&b, "Themes", themes)
	writeList(&b, "Characteristics", i18n.Labels(lang, draft.Characteristics))
	if top := state.Content.TopTags(10); len(top) > 0 {
		writeList(&b, "Frequent tags", top)
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s.\n", label, strings.Join(items, ", "))
}

func truncateThemes(themes []types.Theme, n int) []types.Theme {
	if len(themes) > n {
		return themes[:n]
	}
	return themes
}

// outputLanguage resolves the output language: explicit preference, then the
// last detected input language, then the default.
func outputLanguage(env *pipeline.Env, state *types.AnalysisState) string {
	pref := env.Options.Language
	if pref == "" {
		pref = env.Config.Output.Language
	}
	return i18n.Resolve(pref, state.InputLanguage)
}

// formattingStage localizes the draft into fixed sections truncated to the
// configured top-N.
type formattingStage struct{}

func (formattingStage) ID() types.StageID { return types.StageInstructionFormatting }

func (formattingStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state.Draft == nil {
		return nil, fmt.Errorf("no instruction draft to format")
	}
	lang := outputLanguage(env, state)
	formatted := formatDraft(state.Draft, lang, env.Config.Output.TopN)
	if err := state.SetFormatted(formatted); err != nil {
		return nil, err
	}
	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("%d sections in %s", len(formatted.Sections), lang),
	}}, nil
}

// formatDraft renders the draft into the fixed section order. Empty sections
// carry a single "none" line.
func formatDraft(d *types.InstructionDraft, lang string, topN int) *types.FormattedInstructions {
	themes := make([]string, 0, len(d.Themes))
	for _, t := range d.Themes {
		themes = append(themes, i18n.Phrase(lang, i18n.KeyThemeLine, i18n.Label(lang, t.Name), t.Prevalence*100, t.Depth))
	}
	networks := make([]string, 0, len(d.Networks))
	for _, n := range d.Networks {
		networks = append(networks, i18n.Phrase(lang, i18n.KeyNetworkLine,
			n.Concept, strings.Join(truncateList(n.Connections, 5), ", "), n.Strength, i18n.Label(lang, n.LinkingPattern)))
	}
	patterns := i18n.Labels(lang, append(append([]string(nil), d.Patterns...), d.Principles...))

	sections := []struct {
		key   i18n.Key
		lines []string
	}{
		{i18n.KeyOverview, nonEmpty(d.Overview)},
		{i18n.KeyDomains, i18n.Labels(lang, d.Domains)},
		{i18n.KeyPatterns, patterns},
		{i18n.KeyCharacteristics, i18n.Labels(lang, d.Characteristics)},
		{i18n.KeyThemes, themes},
		{i18n.KeyNetworks, networks},
		{i18n.KeyRecommendations, d.Recommendations},
	}

	out := &types.FormattedInstructions{Language: lang, Title: i18n.Phrase(lang, i18n.KeyTitle)}
	for _, s := range sections {
		lines := truncateList(s.lines, topN)
		if len(lines) == 0 {
			lines = []string{i18n.Phrase(lang, i18n.KeyNone)}
		}
		out.Sections = append(out.Sections, types.FormattedSection{
			Key:   string(s.key),
			Title: i18n.Phrase(lang, s.key),
			Lines: append([]string(nil), lines...),
		})
	}
	return out
}

func nonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}
