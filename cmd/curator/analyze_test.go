package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/history"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

func init() {
	color.NoColor = true
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"README.md":              "# Notes\n\nStart at [[roadmap]].",
		"projects/roadmap.md":    "---\ntitle: Roadmap\ntags: [planning]\n---\n# Roadmap\n\n- [ ] ship",
		"projects/api-design.md": "# API design\n\n```go\nfunc main() {}\n```",
		"journal/2024-05-01.md":  "# Day one\n\n#daily",
		"journal/2024-05-02.md":  "# Day two\n\n#daily",
	}
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return dir
}

func noneChanged(string) bool { return false }

func TestAnalyzeWritesGuideAndRecordsRun(t *testing.T) {
	t.Setenv("CURATOR_LANG", "")
	t.Setenv("CURATOR_HISTORY", "")
	dir := writeCorpus(t)

	opts, cfg, err := resolveOptions(dir, analyzeFlags{noAI: true}, noneChanged)
	require.NoError(t, err)
	assert.False(t, cfg.AI.Enabled)

	var out bytes.Buffer
	require.NoError(t, runAnalyze(context.Background(), &out, opts, cfg, analyzeFlags{}))

	guide, err := os.ReadFile(filepath.Join(dir, "CORPUS_GUIDE.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(guide), "---\n"))
	assert.Contains(t, string(guide), "# Corpus Guide")

	text := out.String()
	assert.Contains(t, text, "Corpus profile")
	assert.Contains(t, text, "[1/")
	assert.Contains(t, text, "Analysis complete!")

	ledger, err := history.Open(context.Background(), filepath.Join(dir, cfg.History.Path), nil)
	require.NoError(t, err)
	defer ledger.Close()
	runs, err := ledger.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusCompleted, runs[0].Status)
	assert.Equal(t, filepath.Join(dir, "CORPUS_GUIDE.md"), runs[0].OutputPath)

	out.Reset()
	require.NoError(t, showHistory(context.Background(), &out, dir, 5))
	assert.Contains(t, out.String(), runs[0].ID)
}

func TestAnalyzeDryRunWritesNothing(t *testing.T) {
	dir := writeCorpus(t)
	opts, cfg, err := resolveOptions(dir, analyzeFlags{noAI: true}, noneChanged)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runAnalyze(context.Background(), &out, opts, cfg, analyzeFlags{dryRun: true}))
	assert.Contains(t, out.String(), "Dry-run mode")
	assert.NoFileExists(t, filepath.Join(dir, "CORPUS_GUIDE.md"))
	assert.NoFileExists(t, filepath.Join(dir, ".curator", "history.db"))
}

func TestAnalyzeHonorsOutputAndLanguage(t *testing.T) {
	dir := writeCorpus(t)
	flags := analyzeFlags{noAI: true, lang: "ja", output: filepath.Join(t.TempDir(), "guide.md")}
	opts, cfg, err := resolveOptions(dir, flags, noneChanged)
	require.NoError(t, err)
	assert.Equal(t, "ja", opts.Language)

	require.NoError(t, runAnalyze(context.Background(), &bytes.Buffer{}, opts, cfg, flags))
	guide, err := os.ReadFile(flags.output)
	require.NoError(t, err)
	assert.Contains(t, string(guide), "# コーパスガイド")
}

func TestAnalyzeCancelled(t *testing.T) {
	dir := writeCorpus(t)
	opts, cfg, err := resolveOptions(dir, analyzeFlags{noAI: true}, noneChanged)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runAnalyze(ctx, &bytes.Buffer{}, opts, cfg, analyzeFlags{})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "CORPUS_GUIDE.md"))
}

func TestResolveOptions(t *testing.T) {
	dir := writeCorpus(t)

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("CURATOR_MAX_ITEMS", "300")
		opts, _, err := resolveOptions(dir, analyzeFlags{maxItems: 60}, func(name string) bool { return name == "max-items" })
		require.NoError(t, err)
		assert.Equal(t, 60, opts.MaxItems)

		opts, _, err = resolveOptions(dir, analyzeFlags{}, noneChanged)
		require.NoError(t, err)
		assert.Equal(t, 300, opts.MaxItems)
	})

	t.Run("language precedence", func(t *testing.T) {
		langDir := writeCorpus(t)
		require.NoError(t, os.MkdirAll(filepath.Join(langDir, ".curator"), 0755))
		require.NoError(t, os.WriteFile(config.Path(langDir), []byte("output:\n  language: en\n"), 0644))

		t.Setenv("CURATOR_LANG", "")
		opts, _, err := resolveOptions(langDir, analyzeFlags{}, noneChanged)
		require.NoError(t, err)
		assert.Equal(t, "en", opts.Language, "config file")

		t.Setenv("CURATOR_LANG", "ja")
		opts, _, err = resolveOptions(langDir, analyzeFlags{}, noneChanged)
		require.NoError(t, err)
		assert.Equal(t, "ja", opts.Language, "environment beats config file")

		opts, _, err = resolveOptions(langDir, analyzeFlags{lang: "en"}, noneChanged)
		require.NoError(t, err)
		assert.Equal(t, "en", opts.Language, "flag beats environment")
	})

	t.Run("invalid complexity", func(t *testing.T) {
		_, _, err := resolveOptions(dir, analyzeFlags{complexity: "huge"}, noneChanged)
		assert.Error(t, err)
	})

	t.Run("out of range depth", func(t *testing.T) {
		_, _, err := resolveOptions(dir, analyzeFlags{maxDepth: 42}, func(name string) bool { return name == "max-depth" })
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := resolveOptions(filepath.Join(dir, "nope"), analyzeFlags{}, noneChanged)
		assert.Error(t, err)
	})
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)
	p.Report(pipeline.Progress{
		StageLabel:  "Deep content",
		StepIndex:   2,
		TotalSteps:  6,
		Action:      "reading representative documents",
		Discoveries: []string{"a", "b", "c", "d", "e"},
		Elapsed:     42 * time.Millisecond,
		Completed:   true,
		Outcome:     types.OutcomeDegraded,
	})
	text := out.String()
	assert.Contains(t, text, "⚠ [2/6] Deep content (42ms)")
	assert.Contains(t, text, "→ reading representative documents")
	assert.Contains(t, text, "- c")
	assert.NotContains(t, text, "- d")
	assert.Contains(t, text, "… 2 more")

	out.Reset()
	p.Report(pipeline.Progress{StageLabel: "Discovery", StepIndex: 1, TotalSteps: 6})
	assert.Contains(t, out.String(), "✗ [1/6] Discovery")
}

func TestListStagesAndInit(t *testing.T) {
	var out bytes.Buffer
	listStages(&out, "en")
	text := out.String()
	assert.Contains(t, text, "Analysis stages (12)")
	assert.Contains(t, text, string(types.StageInstructionSynthesis))

	dir := t.TempDir()
	require.NoError(t, writeExampleConfig(&out, dir, false))
	assert.FileExists(t, config.Path(dir))
	assert.Error(t, writeExampleConfig(&out, dir, false))
	require.NoError(t, writeExampleConfig(&out, dir, true))

	_, err := config.LoadConfigFile(dir)
	assert.NoError(t, err)
}

func TestCompleterFor(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Enabled = false
	assert.Nil(t, completerFor(&bytes.Buffer{}, cfg))

	cfg.AI.Enabled = true
	t.Setenv("ANTHROPIC_API_KEY", "")
	var out bytes.Buffer
	assert.Nil(t, completerFor(&out, cfg))
	assert.Contains(t, out.String(), "Completion service unavailable")

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	out.Reset()
	assert.NotNil(t, completerFor(&out, cfg), "healthy client is used")
	assert.Empty(t, out.String())
}

func TestInitEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".curator"), 0755))
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("output:\n  top_n: 4\n"), 0644))
	t.Setenv("CURATOR_LANG", "ja")
	t.Setenv("CURATOR_MODEL", "claude-env")

	var out bytes.Buffer
	assert.Error(t, writeEffectiveConfig(&out, dir, false), "existing file needs --force")
	require.NoError(t, writeEffectiveConfig(&out, dir, true))
	assert.Contains(t, out.String(), "Wrote effective configuration")

	t.Setenv("CURATOR_LANG", "")
	t.Setenv("CURATOR_MODEL", "")
	cfg, err := config.LoadConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Output.TopN)
	assert.Equal(t, "ja", cfg.Output.Language)
	assert.Equal(t, "claude-env", cfg.AI.Model)
}
