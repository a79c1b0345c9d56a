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

// migrationStage proposes restructuring for folders that look unmaintained or
// overloaded.
type migrationStage struct{}

func (migrationStage) ID() types.StageID { return types.StageLegacyMigration }

func (migrationStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	th := env.Config.Thresholds
	lang := outputLanguage(env, state)
	plan := &types.MigrationPlan{}
	for _, f := range state.Structure.Folders {
		if suggestion := migrationSuggestion(lang, f, th.LargeFolderFiles); suggestion != "" {
			plan.Candidates = append(plan.Candidates, types.MigrationCandidate{
				Folder:     f.Path,
				FileCount:  f.FileCount,
				Suggestion: suggestion,
			})
		}
	}
	sort.SliceStable(plan.Candidates, func(i, j int) bool {
		return plan.Candidates[i].FileCount > plan.Candidates[j].FileCount
	})
	if len(plan.Candidates) > maxReported {
		plan.Candidates = plan.Candidates[:maxReported]
	}
	if err := state.SetMigration(plan); err != nil {
		return nil, err
	}
	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("%d folders are migration candidates", len(plan.Candidates)),
	}}, nil
}

var legacyHints = []string{"old", "archive", "legacy", "backup", "misc", "inbox", "unsorted", "temp", "tmp"}

func migrationSuggestion(lang string, f types.FolderSummary, largeFolder int) string {
	name := strings.ToLower(f.Path)
	for _, seg := range strings.Split(name, "/") {
		for _, hint := range legacyHints {
			if seg == hint || strings.HasPrefix(seg, hint+"-") || strings.HasPrefix(seg, hint+"_") {
				return i18n.Label(lang, string(i18n.RecTriage), f.Path)
			}
		}
	}
	if f.FileCount > largeFolder {
		if f.Path == "." {
			return i18n.Label(lang, string(i18n.RecMoveRoot), f.FileCount)
		}
		return i18n.Label(lang, string(i18n.RecBreakFolder), f.Path, f.FileCount)
	}
	return ""
}
