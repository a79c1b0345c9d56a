package stages

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/markdown"
	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// Content acquisition strategies, in order of preference.
const (
	sourceAnalyzer    = "analyzer"
	sourceListRead    = "list_read"
	sourceListing     = "listing"
	sourcePlaceholder = "placeholder"
)

// Document types assigned by classification.
const (
	docIndex     = "index"
	docTaskList  = "task_list"
	docTechnical = "technical"
	docJournal   = "journal"
	docReference = "reference"
	docGuide     = "guide"
	docTemplate  = "template"
	docHub       = "hub"
	docNote      = "note"
)

var datePattern = regexp.MustCompile(`\b(19|20)\d{2}-\d{2}-\d{2}\b`)

// deepContentStage reads representative documents from every folder under a
// global character budget and classifies them.
type deepContentStage struct{}

func (deepContentStage) ID() types.StageID { return types.StageDeepContentDiscovery }

// representatives is the listing grouped by folder with the chosen files.
type representatives struct {
	total    int
	folders  []string
	byFolder map[string][]string
	selected []string
}

func (s deepContentStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	log := env.Log().With(zap.String("stage", string(s.ID())))
	budget := env.Config.Content.CharBudget
	reps, listErr := selectRepresentatives(ctx, env)
	var sample strings.Builder

	attempts := []struct {
		name string
		run  func() types.Outcome[*types.DeepContentResult]
	}{
		{sourceAnalyzer, func() types.Outcome[*types.DeepContentResult] {
			return s.viaAnalyzer(ctx, env, reps, listErr, budget, &sample)
		}},
		{sourceListRead, func() types.Outcome[*types.DeepContentResult] {
			return s.viaListRead(ctx, env, reps, listErr, budget, &sample)
		}},
		{sourceListing, func() types.Outcome[*types.DeepContentResult] {
			return s.viaListing(reps, listErr, budget)
		}},
		{sourcePlaceholder, func() types.Outcome[*types.DeepContentResult] {
			return s.placeholder(state, budget)
		}},
	}

	var outcome types.Outcome[*types.DeepContentResult]
	var skipped []string
	source := ""
	for i, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome = attempt.run()
		if outcome.Usable() {
			source = attempt.name
			if i > 0 && outcome.Status == types.OutcomeOK {
				outcome = types.Degraded(outcome.Data, strings.Join(skipped, "; "))
			}
			break
		}
		log.Info("content strategy unavailable", zap.String("strategy", attempt.name), zap.String("reason", outcome.Reason))
		skipped = append(skipped, attempt.name+": "+outcome.Reason)
	}

	result := outcome.Data
	result.Source = source
	result.Status = outcome.Status
	result.Reason = outcome.Reason
	if err := state.SetDeepContent(result); err != nil {
		return nil, err
	}
	if lang := i18n.Detect(sample.String()); lang != "" {
		state.InputLanguage = lang
	}

	discoveries := []string{
		fmt.Sprintf("read %d representative documents from %d folders (%d of %d chars)",
			len(result.ReadFiles), result.FolderCount, result.CharsRead, result.CharBudget),
	}
	if kinds := rankKeys(result.DocumentTypes); len(kinds) > 0 {
		parts := make([]string, 0, 4)
		for _, t := range truncateList(kinds, 4) {
			parts = append(parts, fmt.Sprintf("%s %d", t, result.DocumentTypes[t]))
		}
		discoveries = append(discoveries, "document types: "+strings.Join(parts, ", "))
	}
	if result.Status == types.OutcomeDegraded {
		discoveries = append(discoveries, fmt.Sprintf("using %s strategy", source))
	}
	return &pipeline.Result{Discoveries: discoveries, Outcome: result.Status}, nil
}

// viaAnalyzer uses the store's combined read-and-parse capability.
func (deepContentStage) viaAnalyzer(ctx context.Context, env *pipeline.Env, reps *representatives, listErr error,
	budget int, sample *strings.Builder) types.Outcome[*types.DeepContentResult] {
	if env.Store.Analyzer == nil {
		return types.Failed[*types.DeepContentResult](types.Unavailable(store.CapAnalyze))
	}
	if listErr != nil {
		return types.Failed[*types.DeepContentResult](listErr)
	}
	result := newDeepContentResult(reps, budget)
	if len(reps.selected) == 0 {
		return types.Ok(result)
	}

	docs, err := env.Store.Analyzer.Analyze(ctx, reps.selected, budget)
	if err != nil {
		return types.Failed[*types.DeepContentResult](err)
	}
	if len(docs) == 0 {
		return types.Failed[*types.DeepContentResult](fmt.Errorf("analyzer returned no documents"))
	}

	share := store.PerFileShare(budget, len(reps.selected))
	for _, doc := range docs {
		if result.CharsRead >= budget {
			break
		}
		result.CharsRead += min(doc.Length, share)
		sample.WriteString(store.Truncate(doc.Body, share))
		result.ReadFiles = append(result.ReadFiles, insightFromDocument(doc, env))
	}
	aggregate(result)
	return types.Ok(result)
}

// viaListRead reads the representatives through the batch or single reader.
// Individual read failures are skipped.
func (deepContentStage) viaListRead(ctx context.Context, env *pipeline.Env, reps *representatives, listErr error,
	budget int, sample *strings.Builder) types.Outcome[*types.DeepContentResult] {
	if listErr != nil {
		return types.Failed[*types.DeepContentResult](listErr)
	}
	if !env.Store.CanRead() {
		return types.Failed[*types.DeepContentResult](types.Unavailable(store.CapRead))
	}
	result := newDeepContentResult(reps, budget)
	if len(reps.selected) == 0 {
		return types.Ok(result)
	}

	results, err := store.ReadAll(ctx, env.Store, reps.selected, budget)
	if err != nil {
		return types.Failed[*types.DeepContentResult](err)
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			env.Log().Debug("skipping unreadable document", zap.String("path", r.Path), zap.Error(r.Err))
			continue
		}
		result.CharsRead += utf8.RuneCountInString(r.Content)
		sample.WriteString(r.Content)
		result.ReadFiles = append(result.ReadFiles, insightFromDocument(markdown.Parse(r.Path, r.Content), env))
	}
	if len(result.ReadFiles) == 0 {
		return types.Failed[*types.DeepContentResult](fmt.Errorf("all %d reads failed", failed))
	}
	aggregate(result)
	if failed > 0 {
		return types.Degraded(result, fmt.Sprintf("%d of %d reads failed", failed, len(results)))
	}
	return types.Ok(result)
}

// viaListing classifies the representatives from their paths alone.
func (deepContentStage) viaListing(reps *representatives, listErr error, budget int) types.Outcome[*types.DeepContentResult] {
	if listErr != nil {
		return types.Failed[*types.DeepContentResult](listErr)
	}
	result := newDeepContentResult(reps, budget)
	for _, p := range reps.selected {
		result.ReadFiles = append(result.ReadFiles, types.DocumentInsight{
			Path:   p,
			Folder: path.Dir(p),
			Type:   classifyPath(p),
		})
	}
	aggregate(result)
	return types.Degraded(result, "content unavailable, classified by path")
}

// placeholder builds an empty result from the structure section.
func (deepContentStage) placeholder(state *types.AnalysisState, budget int) types.Outcome[*types.DeepContentResult] {
	result := &types.DeepContentResult{
		TotalFiles:       state.Structure.FileCount,
		FolderCount:      state.Structure.FolderCount,
		Representatives:  make(map[string][]string),
		CharBudget:       budget,
		DocumentTypes:    make(map[string]int),
		FolderCategories: make(map[string][]string),
	}
	return types.Degraded(result, "no listing available, structure only")
}

// selectRepresentatives lists content documents, groups them by folder and
// picks up to representativeCap files per folder, bounded overall by the
// profile's item budget.
func selectRepresentatives(ctx context.Context, env *pipeline.Env) (*representatives, error) {
	if env.Store.Lister == nil {
		return nil, types.Unavailable(store.CapList)
	}
	paths, err := env.Store.Lister.List(ctx, env.Config.Content.Pattern)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	reps := &representatives{total: len(paths), byFolder: make(map[string][]string)}
	grouped := make(map[string][]string)
	for _, p := range paths {
		dir := path.Dir(p)
		grouped[dir] = append(grouped[dir], p)
	}
	for dir := range grouped {
		reps.folders = append(reps.folders, dir)
	}
	sort.Strings(reps.folders)

	maxItems := itemBudget(env)
	for _, dir := range reps.folders {
		picked := pickRepresentatives(grouped[dir])
		if maxItems > 0 && len(reps.selected)+len(picked) > maxItems {
			picked = picked[:max(0, maxItems-len(reps.selected))]
		}
		if len(picked) == 0 {
			continue
		}
		reps.byFolder[dir] = picked
		reps.selected = append(reps.selected, picked...)
	}
	return reps, nil
}

// representativeCap scales the per-folder pick with folder size.
func representativeCap(folderSize int) int {
	switch {
	case folderSize <= 3:
		return 2
	case folderSize <= 10:
		return 3
	default:
		return 4
	}
}

// pickRepresentatives ranks index-like names first, then by descriptive score.
func pickRepresentatives(files []string) []string {
	ranked := append([]string(nil), files...)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := isPriorityName(ranked[i]), isPriorityName(ranked[j])
		if pi != pj {
			return pi
		}
		si, sj := descriptiveScore(ranked[i]), descriptiveScore(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	return truncateList(ranked, representativeCap(len(files)))
}

func baseName(p string) string {
	return strings.ToLower(strings.TrimSuffix(path.Base(p), path.Ext(p)))
}

func isPriorityName(p string) bool {
	name := baseName(p)
	for _, n := range priorityNames {
		if name == n || strings.HasPrefix(name, n+"-") || strings.HasPrefix(name, n+"_") || strings.HasPrefix(name, n+" ") {
			return true
		}
	}
	return false
}

// descriptiveScore rewards multi-word names and domain keywords.
func descriptiveScore(p string) int {
	name := baseName(p)
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == ' ' || r == '.' })
	score := min(len(words), 5)
	for _, kw := range descriptiveKeys {
		if strings.Contains(name, kw) {
			score += 3
		}
	}
	return score
}

func newDeepContentResult(reps *representatives, budget int) *types.DeepContentResult {
	return &types.DeepContentResult{
		TotalFiles:       reps.total,
		FolderCount:      len(reps.folders),
		Representatives:  reps.byFolder,
		CharBudget:       budget,
		DocumentTypes:    make(map[string]int),
		FolderCategories: make(map[string][]string),
	}
}

func insightFromDocument(doc markdown.Document, env *pipeline.Env) types.DocumentInsight {
	insight := types.DocumentInsight{
		Path:           doc.Path,
		Folder:         path.Dir(doc.Path),
		Type:           classifyDocument(doc),
		Length:         doc.Length,
		LengthTier:     lengthTier(doc.Length),
		Tags:           doc.Tags,
		MetadataFields: doc.MetadataFields,
		InternalLinks:  doc.InternalLinks,
		ExternalLinks:  len(doc.ExternalLinks),
		HasCode:        doc.CodeBlocks > 0,
		HasHeaders:     len(doc.Headings) > 0,
		HasTasks:       doc.Tasks > 0,
	}
	for _, h := range doc.Headings {
		insight.Headings = append(insight.Headings, h.Text)
	}
	if env.Options.IncludeContentPreviews {
		insight.Preview = strings.TrimSpace(store.Truncate(doc.Body, env.Config.Content.PreviewChars))
	}
	return insight
}

// classifyDocument assigns a type from content signals, falling back to the path.
func classifyDocument(doc markdown.Document) string {
	switch {
	case isPriorityName(doc.Path):
		return docIndex
	case doc.Tasks > 0:
		return docTaskList
	case doc.CodeBlocks > 0:
		return docTechnical
	case isJournalPath(doc.Path):
		return docJournal
	case len(doc.Headings) >= 3 && doc.Length >= 2000:
		return docReference
	case len(doc.InternalLinks)+len(doc.ExternalLinks) >= 5:
		return docHub
	}
	return classifyPath(doc.Path)
}

// classifyPath assigns a type from the path alone.
func classifyPath(p string) string {
	name := baseName(p)
	lower := strings.ToLower(p)
	switch {
	case isPriorityName(p):
		return docIndex
	case isJournalPath(p):
		return docJournal
	case strings.Contains(lower, "template"):
		return docTemplate
	case strings.Contains(name, "api") || strings.Contains(name, "reference") || strings.Contains(name, "spec"):
		return docReference
	case strings.Contains(name, "guide") || strings.Contains(name, "tutorial") || strings.Contains(name, "howto"):
		return docGuide
	}
	return docNote
}

func isJournalPath(p string) bool {
	lower := strings.ToLower(p)
	return datePattern.MatchString(p) || containsAny(lower, []string{"journal", "daily", "diary"})
}

func lengthTier(n int) string {
	switch {
	case n < 500:
		return "short"
	case n < 3000:
		return "medium"
	default:
		return "long"
	}
}

// aggregate fills the type histogram, per-folder categories and flags.
func aggregate(result *types.DeepContentResult) {
	for _, doc := range result.ReadFiles {
		result.DocumentTypes[doc.Type]++
		result.FolderCategories[doc.Folder] = appendUnique(result.FolderCategories[doc.Folder], doc.Type)

		f := &result.Flags
		if doc.Type == docIndex && !strings.Contains(doc.Folder, "/") {
			f.HasPrimaryDocumentation = true
		}
		f.HasCodeDocumentation = f.HasCodeDocumentation || doc.HasCode || doc.Type == docTechnical
		f.HasTaskLists = f.HasTaskLists || doc.HasTasks
		f.HasCrossLinks = f.HasCrossLinks || len(doc.InternalLinks) > 0
		f.HasExternalReferences = f.HasExternalReferences || doc.ExternalLinks > 0
	}
}

func itemBudget(env *pipeline.Env) int {
	if env.Profile.Budget.MaxItems > 0 {
		return env.Profile.Budget.MaxItems
	}
	return env.Options.MaxItems
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
