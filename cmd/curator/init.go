package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/curator/internal/config"
)

var (
	initForce     bool
	initEffective bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write an example .curator/config.yaml into a corpus",
	Long: `Write an example configuration file to <directory>/.curator/config.yaml.

The file documents every tunable: scoring thresholds, per-tier budgets,
content limits, output, completion and history settings. Omitted values keep
their built-in defaults.

With --effective the resolved settings are written instead: built-in
defaults, then any existing config file, then CURATOR_* environment
overrides, as plain YAML without comments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		if initEffective {
			return writeEffectiveConfig(cmd.OutOrStdout(), target, initForce)
		}
		return writeExampleConfig(cmd.OutOrStdout(), target, initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initEffective, "effective", false, "Write the resolved settings instead of the commented example")
	rootCmd.AddCommand(initCmd)
}

func writeExampleConfig(out io.Writer, target string, force bool) error {
	path := config.Path(target)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating .curator directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfigFile()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	printInitDone(out, "example", path, target)
	return nil
}

// writeEffectiveConfig saves the configuration analyze would run with.
func writeEffectiveConfig(out io.Writer, target string, force bool) error {
	path := config.Path(target)
	_, statErr := os.Stat(path)
	if statErr == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg, err := config.LoadConfigFile(target)
	if err != nil {
		return err
	}
	opts := config.DefaultOptions()
	opts.Language = cfg.Output.Language
	if err := config.ApplyEnv(&opts, cfg); err != nil {
		return err
	}
	cfg.Output.Language = opts.Language
	if err := config.SaveConfigFile(target, cfg); err != nil {
		return err
	}
	printInitDone(out, "effective", path, target)
	return nil
}

func printInitDone(out io.Writer, kind, path, target string) {
	fmt.Fprintf(out, "\n%s Wrote %s configuration\n\n", green("✓"), kind)
	fmt.Fprintf(out, "  Config: %s\n\n", cyan(path))
	fmt.Fprintf(out, "%s Next steps:\n", gray("→"))
	fmt.Fprintf(out, "  %s\n\n", gray("curator analyze "+target+"   # Write the corpus guide"))
}
