package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEnv(t *testing.T, caps store.Capabilities) *pipeline.Env {
	t.Helper()
	return &pipeline.Env{
		RunID:   "test-run",
		Store:   caps,
		Config:  config.Default(),
		Options: config.DefaultOptions(),
		Logger:  zaptest.NewLogger(t),
	}
}

func runStage(t *testing.T, s pipeline.Stage, state *types.AnalysisState, env *pipeline.Env) *pipeline.Result {
	t.Helper()
	res, err := s.Execute(context.Background(), state, env)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func threeFolderCorpus(size int) *store.Mem {
	body := strings.Repeat("word ", size/5)
	docs := make(map[string]string)
	for _, dir := range []string{"guides", "journal", "projects"} {
		for i := 0; i < 5; i++ {
			docs[fmt.Sprintf("%s/doc-%d.md", dir, i)] = "# Heading\n\n" + body
		}
	}
	return store.NewMem(docs)
}

func TestRepresentativeCap(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{10, 3},
		{11, 4},
		{200, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.size), func(t *testing.T) {
			files := make([]string, tt.size)
			for i := range files {
				files[i] = fmt.Sprintf("dir/f%03d.md", i)
			}
			assert.Len(t, pickRepresentatives(files), tt.want)
		})
	}
}

func TestPickRepresentativesPrefersIndexAndDescriptiveNames(t *testing.T) {
	files := []string{
		"docs/a.md",
		"docs/b.md",
		"docs/api-design-guide.md",
		"docs/README.md",
		"docs/misc.md",
	}
	got := pickRepresentatives(files)
	require.Len(t, got, 3)
	assert.Equal(t, "docs/README.md", got[0])
	assert.Equal(t, "docs/api-design-guide.md", got[1])
}

func TestDeepContentRespectsCharacterBudget(t *testing.T) {
	mem := threeFolderCorpus(3000)
	env := newTestEnv(t, store.CapabilitiesOf(mem))
	env.Config.Content.CharBudget = 6000
	state := types.NewAnalysisState("r")

	res := runStage(t, deepContentStage{}, state, env)

	dc := state.DeepContent
	require.NotNil(t, dc)
	assert.Equal(t, sourceAnalyzer, dc.Source)
	assert.Equal(t, types.OutcomeOK, dc.Status)
	assert.Equal(t, types.OutcomeOK, res.Outcome)
	assert.Equal(t, 15, dc.TotalFiles)
	assert.Equal(t, 3, dc.FolderCount)
	assert.Len(t, dc.ReadFiles, 9, "three representatives per five-file folder")
	for _, dir := range []string{"guides", "journal", "projects"} {
		assert.Len(t, dc.Representatives[dir], 3, dir)
	}
	assert.Equal(t, 6000, dc.CharBudget)
	assert.LessOrEqual(t, dc.CharsRead, 6000)
	assert.Positive(t, dc.CharsRead)
	assert.Equal(t, 3, dc.DocumentTypes[docJournal])
}

func TestDeepContentHonorsItemBudget(t *testing.T) {
	env := newTestEnv(t, store.CapabilitiesOf(threeFolderCorpus(100)))
	env.Profile.Budget.MaxItems = 4
	state := types.NewAnalysisState("r")

	runStage(t, deepContentStage{}, state, env)
	assert.Len(t, state.DeepContent.ReadFiles, 4)
}

func TestDeepContentFallsBackToListRead(t *testing.T) {
	caps := store.CapabilitiesOf(threeFolderCorpus(100))
	caps.Analyzer = nil
	state := types.NewAnalysisState("r")

	res := runStage(t, deepContentStage{}, state, newTestEnv(t, caps))

	dc := state.DeepContent
	assert.Equal(t, sourceListRead, dc.Source)
	assert.Equal(t, types.OutcomeDegraded, dc.Status)
	assert.Equal(t, types.OutcomeDegraded, res.Outcome)
	assert.Contains(t, dc.Reason, "analyzer")
	assert.Len(t, dc.ReadFiles, 9)
	assert.NotNil(t, dc.DocumentTypes)
	assert.NotNil(t, dc.FolderCategories)
}

// Batch and single reads both fail; the listing still yields a result.
func TestDeepContentListingOnly(t *testing.T) {
	mem := threeFolderCorpus(100)
	mem.ReadErr = func(string) error { return errors.New("permission denied") }
	state := types.NewAnalysisState("r")

	res := runStage(t, deepContentStage{}, state, newTestEnv(t, store.CapabilitiesOf(mem)))

	dc := state.DeepContent
	require.NotNil(t, dc)
	assert.Equal(t, sourceListing, dc.Source)
	assert.Equal(t, types.OutcomeDegraded, res.Outcome)
	assert.Len(t, dc.ReadFiles, 9)
	assert.Zero(t, dc.CharsRead)
	for _, doc := range dc.ReadFiles {
		assert.Zero(t, doc.Length)
		assert.NotEmpty(t, doc.Type)
	}
	assert.Equal(t, 3, dc.DocumentTypes[docJournal], "journal folder is classified from its path")
}

func TestDeepContentPlaceholder(t *testing.T) {
	mem := threeFolderCorpus(100)
	state := types.NewAnalysisState("r")
	state.Structure.FileCount = 15
	state.Structure.FolderCount = 3

	res := runStage(t, deepContentStage{}, state, newTestEnv(t, store.Capabilities{Reader: mem}))

	dc := state.DeepContent
	assert.Equal(t, sourcePlaceholder, dc.Source)
	assert.Equal(t, types.OutcomeDegraded, res.Outcome)
	assert.Equal(t, 15, dc.TotalFiles)
	assert.Empty(t, dc.ReadFiles)
}

func TestDeepContentClassification(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"index.md":              "# Home\n\n[[alpha]] [[beta]]",
		"work/tasks.md":         "# Tasks\n\n- [ ] one\n- [x] two",
		"work/code.md":          "# Code\n\n```go\nfunc main() {}\n```",
		"journal/2024-01-02.md": "Dear diary",
		"notes/plain.md":        "just a thought",
	})
	env := newTestEnv(t, store.CapabilitiesOf(mem))
	env.Options.IncludeContentPreviews = true
	state := types.NewAnalysisState("r")

	runStage(t, deepContentStage{}, state, env)

	got := map[string]string{}
	for _, doc := range state.DeepContent.ReadFiles {
		got[doc.Path] = doc.Type
		assert.NotEmpty(t, doc.Preview, doc.Path)
	}
	assert.Equal(t, map[string]string{
		"index.md":              docIndex,
		"work/tasks.md":         docTaskList,
		"work/code.md":          docTechnical,
		"journal/2024-01-02.md": docJournal,
		"notes/plain.md":        docNote,
	}, got)

	flags := state.DeepContent.Flags
	assert.True(t, flags.HasPrimaryDocumentation)
	assert.True(t, flags.HasCodeDocumentation)
	assert.True(t, flags.HasTaskLists)
	assert.True(t, flags.HasCrossLinks)
	assert.False(t, flags.HasExternalReferences)
}

func TestDeepContentDetectsInputLanguage(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"メモ/会議.md": "# 会議メモ\n\n今日はプロジェクトの進捗について話し合いました。",
	})
	state := types.NewAnalysisState("r")
	runStage(t, deepContentStage{}, state, newTestEnv(t, store.CapabilitiesOf(mem)))
	assert.Equal(t, "ja", state.InputLanguage)
}

func TestDeepContentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := types.NewAnalysisState("r")

	_, err := deepContentStage{}.Execute(ctx, state, newTestEnv(t, store.CapabilitiesOf(threeFolderCorpus(100))))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, state.DeepContent)
}
