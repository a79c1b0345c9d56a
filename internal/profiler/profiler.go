// Package profiler scans a document store and scores the corpus's scale and
// organizational sophistication.
//
// Profiling never fails on missing signals. A capability the store lacks, or
// a read that fails, is recorded as a warning on the Profile and the signal
// defaults to zero, which can only lower the scores.
package profiler

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/markdown"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// sampleReadBudget is the character budget per sampled document.
const sampleReadBudget = 4000

// Folder-name fragments that indicate a deliberate organization scheme.
var (
	indexFolderHints     = []string{"index", "moc", "hub", "map"}
	permanentFolderHints = []string{"permanent", "zettel", "evergreen", "slipbox"}
	journalFolderHints   = []string{"journal", "daily", "diary"}
	templateFolderHints  = []string{"template"}
	projectFolderHints   = []string{"project"}
)

// Marker files checked by presence.
var (
	vcsMarkers    = []string{".git", ".hg", ".svn"}
	configMarkers = []string{".obsidian", ".curator/config.yaml", ".vscode", "package.json", "go.mod"}
	aiMarkers     = []string{"CLAUDE.md", "AGENTS.md", ".cursorrules", ".github/copilot-instructions.md"}
)

// Profiler produces a Profile from a document store.
type Profiler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a profiler using cfg's thresholds and budgets.
func New(cfg *config.Config, logger *zap.Logger) *Profiler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{cfg: cfg, logger: logger}
}

// Scan profiles the corpus behind caps. The only error it returns is context
// cancellation; every other problem degrades the profile instead.
func (p *Profiler) Scan(ctx context.Context, caps store.Capabilities, opts config.Options) (types.Profile, error) {
	profile := types.Profile{
		FileTypes: make(map[string]int),
		ScannedAt: time.Now(),
	}
	warn := func(signal string, err error) {
		perr := &types.ProfilingError{Signal: signal, Err: err}
		p.logger.Warn("profiling signal unavailable", zap.String("signal", signal), zap.Error(err))
		profile.Warnings = append(profile.Warnings, perr.Error())
	}

	folders, err := p.scanStructure(ctx, caps, &profile)
	if err != nil {
		if ctx.Err() != nil {
			return types.Profile{}, ctx.Err()
		}
		warn("structure", err)
	}
	profile.Signals = folderSignals(folders)

	if err := p.scanMarkers(ctx, caps, folders, &profile.Signals); err != nil {
		if ctx.Err() != nil {
			return types.Profile{}, ctx.Err()
		}
		warn("markers", err)
	}

	content, err := p.sampleContent(ctx, caps)
	if err != nil {
		if ctx.Err() != nil {
			return types.Profile{}, ctx.Err()
		}
		warn("content sample", err)
	}
	profile.Content = content

	th := p.cfg.Thresholds
	profile.ComplexityScore = ComplexityScore(th, profile.Scale, profile.Content)
	profile.Complexity = ClassifyComplexity(th, profile.ComplexityScore)
	if opts.ComplexityOverride.IsValid() {
		p.logger.Info("complexity overridden",
			zap.String("profiled", string(profile.Complexity)),
			zap.String("override", string(opts.ComplexityOverride)))
		profile.Complexity = opts.ComplexityOverride
	}
	profile.OrganizationScore = OrganizationScore(th, profile.Signals, profile.Content)
	profile.OrganizationLevel = ClassifyOrganization(th, profile.OrganizationScore)
	profile.Budget, profile.RecommendedStageCount = DeriveBudget(p.cfg, profile.Complexity, opts)

	p.logger.Debug("corpus profiled",
		zap.String("complexity", string(profile.Complexity)),
		zap.Int("complexity_score", profile.ComplexityScore),
		zap.String("organization", string(profile.OrganizationLevel)),
		zap.Int("organization_score", profile.OrganizationScore),
		zap.Int("files", profile.Scale.FileCount),
		zap.Int("folders", profile.Scale.FolderCount))
	return profile, nil
}

// scanStructure fills scale metrics and the file-type histogram, returning the
// folder paths seen. It walks the hierarchy when possible and otherwise
// reconstructs folders from a full listing.
func (p *Profiler) scanStructure(ctx context.Context, caps store.Capabilities, profile *types.Profile) ([]string, error) {
	perFolder := make(map[string]int)
	var folders []string

	addFile := func(relPath string, depth int) {
		profile.Scale.FileCount++
		if depth > profile.Scale.MaxDepth {
			profile.Scale.MaxDepth = depth
		}
		profile.FileTypes[fileType(relPath)]++
		perFolder[path.Dir(relPath)]++
	}

	switch {
	case caps.Walker != nil:
		err := caps.Walker.Walk(ctx, 0, func(e store.Entry) error {
			if e.IsDir {
				folders = append(folders, e.Path)
				if e.Depth > profile.Scale.MaxDepth {
					profile.Scale.MaxDepth = e.Depth
				}
				return nil
			}
			addFile(e.Path, e.Depth)
			return nil
		})
		if err != nil {
			return folders, err
		}
	case caps.Lister != nil:
		paths, err := caps.Lister.List(ctx, "*")
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		for _, rel := range paths {
			addFile(rel, strings.Count(rel, "/")+1)
			for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
				if seen[dir] {
					break
				}
				seen[dir] = true
				folders = append(folders, dir)
			}
		}
	default:
		return nil, types.Unavailable(store.CapWalk)
	}

	profile.Scale.FolderCount = len(folders)
	for folder, n := range perFolder {
		if n > profile.Scale.LargestFolderSize ||
			(n == profile.Scale.LargestFolderSize && folder < profile.Scale.LargestFolder) {
			profile.Scale.LargestFolderSize = n
			profile.Scale.LargestFolder = folder
		}
	}
	return folders, nil
}

// folderSignals matches folder base names case-insensitively against the hint lists.
func folderSignals(folders []string) types.OrganizationSignals {
	var s types.OrganizationSignals
	for _, f := range folders {
		name := strings.ToLower(path.Base(f))
		s.HasIndexFolders = s.HasIndexFolders || containsAny(name, indexFolderHints)
		s.HasPermanentNotes = s.HasPermanentNotes || containsAny(name, permanentFolderHints)
		s.HasJournal = s.HasJournal || containsAny(name, journalFolderHints)
		s.HasTemplates = s.HasTemplates || containsAny(name, templateFolderHints)
		s.HasProjects = s.HasProjects || containsAny(name, projectFolderHints)
	}
	return s
}

// scanMarkers checks for VCS, config and AI-instruction markers. Without a
// Stater only non-hidden top-level markers can be found, via the listing.
func (p *Profiler) scanMarkers(ctx context.Context, caps store.Capabilities, folders []string, s *types.OrganizationSignals) error {
	exists := func(marker string) (bool, error) {
		return caps.Stater.Exists(ctx, marker)
	}
	if caps.Stater == nil {
		visible := make(map[string]bool, len(folders))
		for _, f := range folders {
			visible[f] = true
		}
		if caps.Lister != nil {
			if files, err := caps.Lister.List(ctx, "*"); err == nil {
				for _, f := range files {
					visible[f] = true
				}
			}
		}
		exists = func(marker string) (bool, error) { return visible[marker], nil }
	}

	check := func(markers []string) (bool, error) {
		for _, m := range markers {
			ok, err := exists(m)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	var err error
	if s.HasVCS, err = check(vcsMarkers); err != nil {
		return err
	}
	if s.HasConfig, err = check(configMarkers); err != nil {
		return err
	}
	if s.HasAIInstructions, err = check(aiMarkers); err != nil {
		return err
	}

	if ok, _ := exists("go.mod"); ok && caps.Reader != nil {
		data, err := caps.Reader.Read(ctx, "go.mod")
		if err != nil {
			return err
		}
		s.ModulePath = modfile.ModulePath([]byte(data))
	}
	if caps.Stater == nil {
		return types.Unavailable(store.CapStat)
	}
	return nil
}

// sampleContent estimates metadata usage, tag diversity and link density from
// a bounded, evenly spread sample of content documents.
func (p *Profiler) sampleContent(ctx context.Context, caps store.Capabilities) (types.ContentMetrics, error) {
	var metrics types.ContentMetrics
	if caps.Lister == nil {
		return metrics, types.Unavailable(store.CapList)
	}
	if !caps.CanRead() {
		return metrics, types.Unavailable(store.CapRead)
	}

	paths, err := caps.Lister.List(ctx, p.cfg.Content.Pattern)
	if err != nil {
		return metrics, err
	}
	sample := store.Spread(paths, p.cfg.Content.ProfileSample)
	if len(sample) == 0 {
		return metrics, nil
	}

	results, err := store.ReadAll(ctx, caps, sample, sampleReadBudget*len(sample))
	if err != nil {
		return metrics, err
	}

	tags := make(map[string]bool)
	withMetadata, links := 0, 0
	for _, r := range results {
		if !r.Success {
			continue
		}
		metrics.SampledFiles++
		doc := markdown.Parse(r.Path, r.Content)
		if len(doc.MetadataFields) > 0 {
			withMetadata++
		}
		for _, t := range doc.Tags {
			tags[t] = true
		}
		links += len(doc.InternalLinks) + len(doc.ExternalLinks)
	}
	if metrics.SampledFiles == 0 {
		return metrics, nil
	}
	metrics.MetadataUsagePct = float64(withMetadata) / float64(metrics.SampledFiles) * 100
	metrics.TagDiversity = len(tags)
	metrics.LinkDensity = float64(links) / float64(metrics.SampledFiles)
	return metrics, nil
}

func fileType(relPath string) string {
	ext := strings.ToLower(path.Ext(relPath))
	if ext == "" {
		return "(none)"
	}
	return ext
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
