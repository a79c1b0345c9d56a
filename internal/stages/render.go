package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// provenance is the metadata header of the rendered document.
type provenance struct {
	Created       string `yaml:"created"`
	Language      string `yaml:"language"`
	ItemsAnalyzed int    `yaml:"items_analyzed"`
	DocumentsRead int    `yaml:"documents_read"`
	StagesRun     int    `yaml:"stages_run"`
	RunID         string `yaml:"run_id,omitempty"`
}

// synthesisStage renders the formatted sections into the final document.
type synthesisStage struct {
	now func() time.Time
}

func (synthesisStage) ID() types.StageID { return types.StageInstructionSynthesis }

func (s synthesisStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state.Formatted == nil {
		return nil, fmt.Errorf("no formatted instructions to render")
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	doc := &types.RenderedDocument{
		Language:      state.Formatted.Language,
		CreatedAt:     now().UTC(),
		ItemsAnalyzed: state.Structure.FileCount,
		StagesRun:     state.Version + 1,
	}
	read := 0
	if state.DeepContent != nil {
		read = len(state.DeepContent.ReadFiles)
	}
	content, err := render(state.Formatted, provenance{
		Created:       doc.CreatedAt.Format(time.RFC3339),
		Language:      doc.Language,
		ItemsAnalyzed: doc.ItemsAnalyzed,
		DocumentsRead: read,
		StagesRun:     doc.StagesRun,
		RunID:         state.RunID,
	})
	if err != nil {
		return nil, err
	}
	doc.Content = content
	if err := state.SetDocument(doc); err != nil {
		return nil, err
	}
	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("rendered %d characters in %s", len(content), doc.Language),
	}}, nil
}

// render writes the metadata header followed by one markdown section per
// formatted section. The overview is rendered as prose, the rest as lists.
func render(f *types.FormattedInstructions, meta provenance) (string, error) {
	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding metadata header: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", f.Title)
	for _, sec := range f.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", sec.Title)
		if sec.Key == string(i18n.KeyOverview) {
			b.WriteString(strings.Join(sec.Lines, "\n\n"))
			b.WriteString("\n")
			continue
		}
		for _, line := range sec.Lines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String(), nil
}
