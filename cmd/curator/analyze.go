package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/ai"
	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/history"
	"github.com/steveyegge/curator/internal/markdown"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/planner"
	"github.com/steveyegge/curator/internal/profiler"
	"github.com/steveyegge/curator/internal/stages"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// analyzeFlags mirrors the analyze command line.
type analyzeFlags struct {
	maxItems   int
	maxDepth   int
	maxDirs    int
	complexity string
	previews   bool
	lang       string
	output     string
	print      bool
	dryRun     bool
	noAI       bool
}

var analyzeOpts analyzeFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze [directory]",
	Short: "Profile a corpus, run the planned analysis and write the guide",
	Long: `Profile a corpus, choose the analysis stages that fit it, run them in
order and write the resulting guide into the corpus.

The amount of work scales with the corpus: a small flat folder gets the six
base stages, a large richly linked knowledge base gets up to twelve.

Examples:
  curator analyze                         # Analyze the current directory
  curator analyze ~/notes --lang=ja       # Write the guide in Japanese
  curator analyze --complexity=complex    # Force the full catalog
  curator analyze --dry-run               # Show profile and plan only
  curator analyze --print                 # Also render the guide in the terminal`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		opts, cfg, err := resolveOptions(target, analyzeOpts, cmd.Flags().Changed)
		if err != nil {
			return err
		}
		return runAnalyze(ctx, cmd.OutOrStdout(), opts, cfg, analyzeOpts)
	},
}

func init() {
	defaults := config.DefaultOptions()
	f := analyzeCmd.Flags()
	f.IntVar(&analyzeOpts.maxItems, "max-items", defaults.MaxItems, fmt.Sprintf("Maximum documents to touch (%d-%d)", config.MinItems, config.MaxItems))
	f.IntVar(&analyzeOpts.maxDepth, "max-depth", defaults.MaxDepth, fmt.Sprintf("Maximum folder depth (%d-%d)", config.MinDepth, config.MaxDepth))
	f.IntVar(&analyzeOpts.maxDirs, "max-dirs", defaults.MaxDirs, fmt.Sprintf("Maximum folders in the hierarchy sketch (%d-%d)", config.MinDirs, config.MaxDirs))
	f.StringVar(&analyzeOpts.complexity, "complexity", "", "Override profiled complexity: simple, moderate or complex")
	f.BoolVar(&analyzeOpts.previews, "previews", false, "Include content previews of sampled documents")
	f.StringVar(&analyzeOpts.lang, "lang", "", "Output language (default: detected from content)")
	f.StringVarP(&analyzeOpts.output, "output", "o", "", "Output file (default: <directory>/CORPUS_GUIDE.md)")
	f.BoolVar(&analyzeOpts.print, "print", false, "Render the guide in the terminal after writing it")
	f.BoolVar(&analyzeOpts.dryRun, "dry-run", false, "Show profile and plan without running stages")
	f.BoolVar(&analyzeOpts.noAI, "no-ai", false, "Use heuristic prose only, never call the completion service")
	rootCmd.AddCommand(analyzeCmd)
}

// resolveOptions layers defaults, the config file, environment and flags.
// changed reports whether a flag was given explicitly.
func resolveOptions(target string, flags analyzeFlags, changed func(string) bool) (config.Options, *config.Config, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return config.Options{}, nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return config.Options{}, nil, fmt.Errorf("target directory: %w", err)
	} else if !info.IsDir() {
		return config.Options{}, nil, fmt.Errorf("target %s is not a directory", abs)
	}

	cfg, err := config.LoadConfigFile(abs)
	if err != nil {
		return config.Options{}, nil, err
	}

	opts := config.DefaultOptions()
	opts.TargetDirectory = abs
	opts.Language = cfg.Output.Language
	if err := config.ApplyEnv(&opts, cfg); err != nil {
		return config.Options{}, nil, err
	}

	if changed("max-items") {
		opts.MaxItems = flags.maxItems
	}
	if changed("max-depth") {
		opts.MaxDepth = flags.maxDepth
	}
	if changed("max-dirs") {
		opts.MaxDirs = flags.maxDirs
	}
	if flags.lang != "" {
		opts.Language = flags.lang
	}
	opts.ComplexityOverride = types.Complexity(flags.complexity)
	opts.IncludeContentPreviews = flags.previews
	if flags.noAI {
		cfg.AI.Enabled = false
	}

	if err := opts.Validate(); err != nil {
		return config.Options{}, nil, err
	}
	return opts, cfg, nil
}

// completerFor returns the completion client, or nil when the service is
// disabled or unusable. Problems are warnings: the guide falls back to
// heuristic prose.
func completerFor(out io.Writer, cfg *config.Config) pipeline.Completer {
	if !cfg.AI.Enabled {
		return nil
	}
	client, err := ai.NewClient(ai.FromSettings(cfg.AI, logger))
	if err == nil {
		err = client.HealthCheck()
	}
	if err != nil {
		fmt.Fprintf(out, "%s Completion service unavailable (%v), using heuristic prose\n\n", yellow("⚠"), err)
		return nil
	}
	return client
}

// runAnalyze profiles, plans, executes and writes the guide.
func runAnalyze(ctx context.Context, out io.Writer, opts config.Options, cfg *config.Config, flags analyzeFlags) error {
	fs := store.NewFS(opts.TargetDirectory, nil, logger)
	caps := store.CapabilitiesOf(fs)
	if err := pipeline.Precheck(caps); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Analyzing %s\n\n", gray("→"), cyan(opts.TargetDirectory))
	profile, err := profiler.New(cfg, logger).Scan(ctx, caps, opts)
	if err != nil {
		return fmt.Errorf("profiling corpus: %w", err)
	}
	strategy, err := planner.New(cfg, logger).Plan(profile)
	if err != nil {
		return err
	}
	printPlan(out, strategy)
	if flags.dryRun {
		fmt.Fprintf(out, "%s Dry-run mode: no stages were run\n", yellow("⚠"))
		return nil
	}

	env := &pipeline.Env{
		RunID:   uuid.NewString(),
		Store:   caps,
		Config:  cfg,
		Options: opts,
		Profile: profile,
		Logger:  logger,
	}
	env.Completer = completerFor(out, cfg)

	started := time.Now()
	executor := pipeline.NewExecutor(stages.NewRegistry(), newProgressPrinter(out), logger)
	result, runErr := executor.Run(ctx, strategy, env)

	outputPath := outputPathFor(opts, cfg, flags)
	if runErr == nil {
		runErr = writeDocument(outputPath, result.State.Document)
	}
	recordRun(ctx, out, opts, cfg, strategy, env.RunID, started, result, runErr, outputPath)
	if runErr != nil {
		return runErr
	}

	printSummary(out, result, outputPath)
	if flags.print {
		return printDocument(out, result.State.Document.Content)
	}
	return nil
}

func outputPathFor(opts config.Options, cfg *config.Config, flags analyzeFlags) string {
	if flags.output != "" {
		return flags.output
	}
	return filepath.Join(opts.TargetDirectory, cfg.Output.File)
}

func writeDocument(path string, doc *types.RenderedDocument) error {
	if doc == nil {
		return fmt.Errorf("run finished without a rendered document")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// recordRun adds the run to the history ledger. Ledger problems never fail
// the run; they are reported as warnings.
func recordRun(ctx context.Context, out io.Writer, opts config.Options, cfg *config.Config,
	strategy *types.WorkflowStrategy, runID string, started time.Time,
	result *pipeline.RunResult, runErr error, outputPath string) {
	if !cfg.History.Enabled {
		return
	}
	ledger, err := history.Open(ctx, filepath.Join(opts.TargetDirectory, cfg.History.Path), logger)
	if err != nil {
		logger.Warn("history ledger unavailable", zap.Error(err))
		fmt.Fprintf(out, "%s Run history not recorded: %v\n", yellow("⚠"), err)
		return
	}
	defer ledger.Close()

	run := history.NewRun(opts.TargetDirectory, strategy, result, runErr)
	if run.ID == "" {
		run.ID = runID
		run.StartedAt = started
		run.CompletedAt = time.Now()
	}
	if runErr == nil {
		run.OutputPath = outputPath
	}
	// Record even when the run was interrupted
	if err := ledger.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("recording run failed", zap.String("run_id", run.ID), zap.Error(err))
		fmt.Fprintf(out, "%s Run history not recorded: %v\n", yellow("⚠"), err)
	}
}

func printSummary(out io.Writer, result *pipeline.RunResult, outputPath string) {
	degraded := 0
	for _, t := range result.Timings {
		if t.Outcome == types.OutcomeDegraded {
			degraded++
		}
	}
	doc := result.State.Document

	fmt.Fprintf(out, "\n%s Analysis complete!\n\n", green("✓"))
	fmt.Fprintf(out, "  Stages run: %s\n", cyan(len(result.Timings)))
	if degraded > 0 {
		fmt.Fprintf(out, "    Degraded: %s\n", yellow(degraded))
	}
	fmt.Fprintf(out, "  Documents analyzed: %s\n", cyan(doc.ItemsAnalyzed))
	fmt.Fprintf(out, "  Language: %s\n", cyan(doc.Language))
	fmt.Fprintf(out, "  Duration: %s\n", cyan(result.Duration().Round(time.Millisecond).String()))
	fmt.Fprintf(out, "  Guide: %s\n", cyan(outputPath))
	fmt.Fprintf(out, "  Run: %s\n\n", gray(result.RunID))
}

// printDocument renders the guide body for the terminal.
func printDocument(out io.Writer, content string) error {
	_, body := markdown.SplitFrontMatter(content)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := r.Render(body)
	if err != nil {
		return fmt.Errorf("rendering guide: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
