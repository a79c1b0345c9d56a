package profiler

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

func newTestProfiler(t *testing.T) *Profiler {
	return New(config.Default(), zaptest.NewLogger(t))
}

func TestScanSmallCorpusIsSimple(t *testing.T) {
	docs := make(map[string]string)
	for i := 0; i < 5; i++ {
		docs[fmt.Sprintf("inbox/note%d.md", i)] = "plain text"
		docs[fmt.Sprintf("archive/old%d.md", i)] = "more plain text"
	}
	mem := store.NewMem(docs)

	profile, err := newTestProfiler(t).Scan(context.Background(), store.CapabilitiesOf(mem), config.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, types.ComplexitySimple, profile.Complexity)
	assert.Equal(t, 0, profile.ComplexityScore)
	assert.Equal(t, types.OrganizationBasic, profile.OrganizationLevel)
	assert.Equal(t, 10, profile.Scale.FileCount)
	assert.Equal(t, 2, profile.Scale.FolderCount)
	assert.Equal(t, 2, profile.Scale.MaxDepth)
	assert.Equal(t, 5, profile.Scale.LargestFolderSize)
	assert.Equal(t, "archive", profile.Scale.LargestFolder)
	assert.Equal(t, map[string]int{".md": 10}, profile.FileTypes)
	assert.Equal(t, 10, profile.Content.SampledFiles)
	assert.Zero(t, profile.Content.MetadataUsagePct)
	assert.Zero(t, profile.Content.TagDiversity)
	assert.Equal(t, 6, profile.RecommendedStageCount)
	assert.Equal(t, types.ResourceBudget{MaxItems: 100, MaxDepth: 3, SamplingRate: 1.0}, profile.Budget)
	assert.Empty(t, profile.Warnings)
}

func TestScanLargeTaggedCorpusIsComplex(t *testing.T) {
	paths := []string{"deep/a/b/c/d/leaf.md"}
	for i := 0; i < 599; i++ {
		paths = append(paths, fmt.Sprintf("notes/n%03d.md", i))
	}
	sort.Strings(paths)

	docs := make(map[string]string, len(paths))
	for i, p := range paths {
		body := fmt.Sprintf("Note body #t%02d\n", i%25)
		if i%5 != 0 {
			body = "---\ntitle: note\n---\n" + body
		}
		docs[p] = body
	}
	mem := store.NewMem(docs)

	profile, err := newTestProfiler(t).Scan(context.Background(), store.CapabilitiesOf(mem), config.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 600, profile.Scale.FileCount)
	assert.Equal(t, 6, profile.Scale.MaxDepth)
	assert.Equal(t, 50, profile.Content.SampledFiles)
	assert.InDelta(t, 80.0, profile.Content.MetadataUsagePct, 0.001)
	assert.Equal(t, 25, profile.Content.TagDiversity)
	assert.Equal(t, types.ComplexityComplex, profile.Complexity)
	assert.Equal(t, 9, profile.ComplexityScore)
	assert.Equal(t, "notes", profile.Scale.LargestFolder)
	assert.Equal(t, 599, profile.Scale.LargestFolderSize)

	// Complex tier allows 1000 items but the invocation caps it at 200.
	assert.Equal(t, 200, profile.Budget.MaxItems)
	assert.Equal(t, 5, profile.Budget.MaxDepth)
	assert.Equal(t, 11, profile.RecommendedStageCount)
}

func TestScanSignalsAndMarkers(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"Daily Journal/2024-01-01.md": "today",
		"Templates/meeting.md":        "---\ntype: template\n---\n",
		"Projects/alpha/plan.md":      "see [[Home]] and [[Index]]",
		"000 Index/Home.md":           "#hub",
		"go.mod":                      "module example.com/notes\n\ngo 1.22\n",
		"CLAUDE.md":                   "instructions",
	})
	mem.AddMarker(".git")

	profile, err := newTestProfiler(t).Scan(context.Background(), store.CapabilitiesOf(mem), config.DefaultOptions())
	require.NoError(t, err)

	s := profile.Signals
	assert.True(t, s.HasJournal)
	assert.True(t, s.HasTemplates)
	assert.True(t, s.HasProjects)
	assert.True(t, s.HasIndexFolders)
	assert.False(t, s.HasPermanentNotes)
	assert.True(t, s.HasVCS)
	assert.True(t, s.HasConfig)
	assert.True(t, s.HasAIInstructions)
	assert.Equal(t, "example.com/notes", s.ModulePath)
	assert.Equal(t, 4, s.StructuredFolderCount())
	assert.Equal(t, types.OrganizationStructured, profile.OrganizationLevel)
}

func TestScanDegradesWithoutCapabilities(t *testing.T) {
	mem := store.NewMem(map[string]string{
		"a/one.md": "#x [[two]]",
		"a/two.md": "---\nk: v\n---\n",
		"b/c/3.md": "text",
	})

	t.Run("listing reconstructs structure", func(t *testing.T) {
		caps := store.Capabilities{Lister: mem, Reader: mem}
		profile, err := newTestProfiler(t).Scan(context.Background(), caps, config.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 3, profile.Scale.FileCount)
		assert.Equal(t, 3, profile.Scale.FolderCount) // a, b, b/c
		assert.Equal(t, 3, profile.Scale.MaxDepth)
		assert.Equal(t, 3, profile.Content.SampledFiles)
		require.Len(t, profile.Warnings, 1)
		assert.Contains(t, profile.Warnings[0], "markers")
	})

	t.Run("no capabilities", func(t *testing.T) {
		profile, err := newTestProfiler(t).Scan(context.Background(), store.Capabilities{}, config.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, types.ComplexitySimple, profile.Complexity)
		assert.Equal(t, types.OrganizationBasic, profile.OrganizationLevel)
		assert.Len(t, profile.Warnings, 3)
	})

	t.Run("every read fails", func(t *testing.T) {
		failing := store.NewMem(map[string]string{"a.md": "#tag"})
		failing.ReadErr = func(string) error { return fmt.Errorf("io error") }
		profile, err := newTestProfiler(t).Scan(context.Background(), store.CapabilitiesOf(failing), config.DefaultOptions())
		require.NoError(t, err)
		assert.Zero(t, profile.Content.SampledFiles)
		assert.Equal(t, 1, profile.Scale.FileCount)
	})
}

func TestScanComplexityOverride(t *testing.T) {
	mem := store.NewMem(map[string]string{"a.md": "x"})
	opts := config.DefaultOptions()
	opts.ComplexityOverride = types.ComplexityComplex

	profile, err := newTestProfiler(t).Scan(context.Background(), store.CapabilitiesOf(mem), opts)
	require.NoError(t, err)
	assert.Equal(t, types.ComplexityComplex, profile.Complexity)
	assert.Equal(t, 0, profile.ComplexityScore)
	assert.Equal(t, 11, profile.RecommendedStageCount)
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProfiler(t).Scan(ctx, store.CapabilitiesOf(store.NewMem(map[string]string{"a.md": "x"})), config.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
