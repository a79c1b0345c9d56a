package stages

import (
	"context"
	"fmt"
	"sort"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

const maxReported = 10

// optimizationStage reports oversized folders, orphan documents and overly
// deep paths.
type optimizationStage struct{}

func (optimizationStage) ID() types.StageID { return types.StageOptimizationAnalysis }

func (optimizationStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	th := env.Config.Thresholds
	lang := outputLanguage(env, state)
	report := &types.OptimizationReport{}

	for _, f := range state.Structure.Folders {
		if f.FileCount > th.LargeFolderFiles {
			report.OversizedFolders = append(report.OversizedFolders, f.Path)
		}
		if f.Depth > th.DomainDepth {
			report.DeepPaths = append(report.DeepPaths, f.Path)
		}
	}
	report.OrphanDocuments = orphans(state.DeepContent)
	report.OversizedFolders = truncateList(report.OversizedFolders, maxReported)
	report.DeepPaths = truncateList(report.DeepPaths, maxReported)
	report.OrphanDocuments = truncateList(report.OrphanDocuments, maxReported)

	if len(report.OversizedFolders) > 0 {
		report.Suggestions = append(report.Suggestions,
			i18n.Label(lang, string(i18n.RecSplitFolders), th.LargeFolderFiles))
	}
	if len(report.OrphanDocuments) > 0 {
		report.Suggestions = append(report.Suggestions, i18n.Label(lang, string(i18n.RecLinkOrphans)))
	}
	if len(report.DeepPaths) > 0 {
		report.Suggestions = append(report.Suggestions,
			i18n.Label(lang, string(i18n.RecFlatten), th.DomainDepth))
	}
	if state.DeepContent != nil && !state.DeepContent.Flags.HasPrimaryDocumentation {
		report.Suggestions = append(report.Suggestions, i18n.Label(lang, string(i18n.RecAddIndex)))
	}

	if err := state.SetOptimization(report); err != nil {
		return nil, err
	}
	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("%d oversized folders, %d orphans, %d deep paths",
			len(report.OversizedFolders), len(report.OrphanDocuments), len(report.DeepPaths)),
	}}, nil
}

// orphans returns read documents that no other read document links to and
// that link nowhere themselves.
func orphans(dc *types.DeepContentResult) []string {
	if dc == nil {
		return nil
	}
	linked := make(map[string]bool)
	for _, doc := range dc.ReadFiles {
		for _, target := range doc.InternalLinks {
			linked[linkKey(target)] = true
		}
	}
	var out []string
	for _, doc := range dc.ReadFiles {
		if doc.Length == 0 || doc.Type == docIndex {
			continue
		}
		if len(doc.InternalLinks) == 0 && !linked[linkKey(doc.Path)] {
			out = append(out, doc.Path)
		}
	}
	sort.Strings(out)
	return out
}
