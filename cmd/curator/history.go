package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [directory]",
	Short: "Show recent analysis runs of a corpus",
	Long: `Show the most recent analysis runs recorded in the corpus's run ledger
(.curator/history.db by default), newest first.

Examples:
  curator history                 # Last 20 runs of the current directory
  curator history ~/notes -n 5    # Last 5 runs of ~/notes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		return showHistory(cmd.Context(), cmd.OutOrStdout(), target, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(ctx context.Context, out io.Writer, target string, limit int) error {
	cfg, err := config.LoadConfigFile(target)
	if err != nil {
		return err
	}
	path := filepath.Join(target, cfg.History.Path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "%s No runs recorded yet for %s\n", gray("→"), cyan(target))
		return nil
	}

	ledger, err := history.Open(ctx, path, logger)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer ledger.Close()

	runs, err := ledger.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "%s No runs recorded yet for %s\n", gray("→"), cyan(target))
		return nil
	}

	fmt.Fprintf(out, "\n%s Recent runs (%d):\n\n", green("✓"), len(runs))
	for _, run := range runs {
		printRun(out, run)
	}
	return nil
}

func printRun(out io.Writer, run *history.Run) {
	status := green(run.Status)
	if run.Status == history.StatusFailed {
		status = red(run.Status)
	}
	fmt.Fprintf(out, "  %s  %s  %s\n", gray(run.StartedAt.Local().Format(time.DateTime)), status, gray(run.ID))
	fmt.Fprintf(out, "    %s/%s, %d/%d stages, %s\n",
		cyan(run.Complexity), cyan(run.Organization), run.StagesRun(), run.Planned,
		run.Duration().Round(time.Millisecond))
	if n := run.Degraded(); n > 0 {
		fmt.Fprintf(out, "    %s %d stage(s) ran on a fallback\n", yellow("⚠"), n)
	}
	if run.FailedStage != "" {
		fmt.Fprintf(out, "    %s %s: %s\n", red("✗"), run.FailedStage, run.Error)
	} else if run.Error != "" {
		fmt.Fprintf(out, "    %s %s\n", red("✗"), run.Error)
	}
	if run.OutputPath != "" {
		fmt.Fprintf(out, "    %s %s", gray("→"), run.OutputPath)
		if run.Language != "" {
			fmt.Fprintf(out, " (%s)", run.Language)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
}
