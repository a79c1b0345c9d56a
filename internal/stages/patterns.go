package stages

import (
	"context"
	"fmt"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// patternStage infers workflow patterns and organization principles from the
// profile signals and what earlier stages collected.
type patternStage struct{}

func (patternStage) ID() types.StageID { return types.StagePatternRecognition }

func (patternStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ins := &state.Insights
	sig := env.Profile.Signals

	if sig.HasJournal {
		ins.AddWorkflowPattern(string(i18n.WorkflowJournaling))
	}
	if sig.HasPermanentNotes {
		ins.AddWorkflowPattern(string(i18n.WorkflowPermanentNotes))
	}
	if sig.HasProjects {
		ins.AddWorkflowPattern(string(i18n.WorkflowProjectTracking))
	}
	if sig.HasTemplates {
		ins.AddWorkflowPattern(string(i18n.WorkflowTemplates))
	}
	if sig.HasVCS {
		ins.AddWorkflowPattern(string(i18n.WorkflowVersionControl))
	}
	if sig.HasAIInstructions {
		ins.AddWorkflowPattern(string(i18n.WorkflowAssistant))
	}
	if dc := state.DeepContent; dc != nil {
		if dc.Flags.HasTaskLists {
			ins.AddWorkflowPattern(string(i18n.WorkflowTaskTracking))
		}
		if dc.DocumentTypes[docJournal] > 0 {
			ins.AddWorkflowPattern(string(i18n.WorkflowDatedEntries))
		}
	}
	for _, conv := range state.Content.NamingConventions {
		if conv == namingDatePrefixed {
			ins.AddWorkflowPattern(string(i18n.WorkflowChronological))
		}
	}

	if sig.HasIndexFolders || (state.DeepContent != nil && state.DeepContent.DocumentTypes[docIndex] > 0) {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleHubs))
	}
	if len(state.Content.Tags) > 0 {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleTags))
	}
	if len(state.Content.MetadataFields) > 0 {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleFrontMatter))
	}
	if state.Structure.MaxDepth >= 3 {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleHierarchy))
	} else if state.Structure.FileCount > 0 {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleFlat))
	}
	if state.DeepContent != nil && state.DeepContent.Flags.HasCrossLinks {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleCrossLinks))
	}
	if len(state.Content.NamingConventions) > 0 {
		ins.AddOrganizationPrinciple(string(i18n.PrincipleNaming))
	}

	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("%d workflow patterns, %d organization principles", len(ins.WorkflowPatterns), len(ins.OrganizationPrinciples)),
	}}, nil
}
