package stages

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// Naming conventions detected from file names.
const (
	namingDatePrefixed    = "date-prefixed"
	namingNumericPrefixed = "numeric-prefixed"
	namingKebab           = "kebab-case"
	namingSnake           = "snake_case"
	namingTitle           = "Title Case"
	namingLower           = "lowercase"
)

// namingShare is the minimum share of names a convention must cover.
const namingShare = 0.2

var (
	datePrefixRe    = regexp.MustCompile(`^\d{4}-?\d{2}-?\d{2}`)
	numericPrefixRe = regexp.MustCompile(`^\d+[-_. ]`)
	kebabRe         = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)+$`)
	snakeRe         = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)+$`)
)

// contentAnalysisStage aggregates metadata fields, tags and naming conventions.
type contentAnalysisStage struct{}

func (contentAnalysisStage) ID() types.StageID { return types.StageContentAnalysis }

func (contentAnalysisStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &state.Content
	var names []string
	if state.DeepContent != nil {
		for _, doc := range state.DeepContent.ReadFiles {
			for _, f := range doc.MetadataFields {
				c.IncMetadataField(f, 1)
			}
			for _, t := range doc.Tags {
				c.IncTag(t, 1)
			}
		}
		for _, files := range state.DeepContent.Representatives {
			names = append(names, files...)
		}
	}
	if len(names) == 0 && env.Store.Lister != nil {
		listed, err := env.Store.Lister.List(ctx, env.Config.Content.Pattern)
		if err != nil {
			env.Log().Debug("listing for naming conventions failed", zap.Error(err))
		}
		names = truncateList(listed, itemBudget(env))
	}
	for _, conv := range namingConventions(names) {
		c.AddNamingConvention(conv)
	}

	discoveries := []string{
		fmt.Sprintf("%d metadata fields, %d distinct tags", len(c.MetadataFields), len(c.Tags)),
	}
	if top := c.TopTags(3); len(top) > 0 {
		discoveries = append(discoveries, "top tags: "+strings.Join(top, ", "))
	}
	if len(c.NamingConventions) > 0 {
		discoveries = append(discoveries, "naming: "+strings.Join(c.NamingConventions, ", "))
	}
	return &pipeline.Result{Discoveries: discoveries}, nil
}

// namingConventions returns the conventions followed by at least namingShare
// of the given file names, in a fixed order.
func namingConventions(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, p := range paths {
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		for _, conv := range classifyName(name) {
			counts[conv]++
		}
	}
	var out []string
	for _, conv := range []string{namingDatePrefixed, namingNumericPrefixed, namingKebab, namingSnake, namingTitle, namingLower} {
		if float64(counts[conv]) >= namingShare*float64(len(paths)) && counts[conv] > 0 {
			out = append(out, conv)
		}
	}
	return out
}

// classifyName reports the prefix convention of a name and the case style of
// what follows the prefix.
func classifyName(name string) []string {
	var out []string
	rest := name
	switch {
	case datePrefixRe.MatchString(name):
		out = append(out, namingDatePrefixed)
		rest = datePrefixRe.ReplaceAllString(name, "")
	case numericPrefixRe.MatchString(name):
		out = append(out, namingNumericPrefixed)
		rest = numericPrefixRe.ReplaceAllString(name, "")
	}
	rest = strings.TrimLeft(rest, "-_. ")
	switch {
	case rest == "":
	case kebabRe.MatchString(rest):
		out = append(out, namingKebab)
	case snakeRe.MatchString(rest):
		out = append(out, namingSnake)
	case isTitleCase(rest):
		out = append(out, namingTitle)
	case strings.ToLower(rest) == rest && !strings.ContainsAny(rest, " -_"):
		out = append(out, namingLower)
	}
	return out
}

func isTitleCase(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if unicode.IsLetter(r[0]) && !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}
