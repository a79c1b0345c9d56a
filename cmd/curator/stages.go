package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/planner"
	"github.com/steveyegge/curator/internal/stages"
)

var stagesLang string

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the analysis stages in catalog order",
	Long: `List every analysis stage in the order it runs. Stages marked "base"
run on every corpus; the others are added by the planner when the corpus
profile calls for them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang := i18n.Resolve(stagesLang, "")
		listStages(cmd.OutOrStdout(), lang)
		return nil
	},
}

func init() {
	stagesCmd.Flags().StringVar(&stagesLang, "lang", "", "Language for stage labels")
	rootCmd.AddCommand(stagesCmd)
}

func listStages(out io.Writer, lang string) {
	ids := stages.IDs()
	fmt.Fprintf(out, "\n%s Analysis stages (%d):\n\n", green("✓"), len(ids))
	for i, id := range ids {
		kind := gray("optional")
		if id.IsMandatory() {
			kind = cyan("base")
		}
		fmt.Fprintf(out, "  %2d. %-24s %-10s %s\n", i+1, id, kind, i18n.StageLabel(lang, id))
		fmt.Fprintf(out, "      %s %s\n", gray(i18n.StageAction(lang, id)), gray(fmt.Sprintf("(~%v)", planner.BaseEstimates[id])))
	}
	fmt.Fprintln(out)
}
