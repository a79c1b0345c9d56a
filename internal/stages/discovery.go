package stages

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// discoveryStage sketches the folder hierarchy and file-type histogram.
type discoveryStage struct{}

func (discoveryStage) ID() types.StageID { return types.StageDiscovery }

func (s discoveryStage) Execute(ctx context.Context, state *types.AnalysisState, env *pipeline.Env) (*pipeline.Result, error) {
	maxDepth := env.Profile.Budget.MaxDepth
	if maxDepth <= 0 {
		maxDepth = env.Options.MaxDepth
	}

	entries, err := s.entries(ctx, env, maxDepth)
	if err != nil {
		return nil, err
	}

	folders := make(map[string]int)
	rootFiles := 0
	st := &state.Structure
	for _, e := range entries {
		if e.Depth > st.MaxDepth {
			st.MaxDepth = e.Depth
		}
		if e.IsDir {
			if _, ok := folders[e.Path]; !ok {
				folders[e.Path] = 0
			}
			continue
		}
		st.FileCount++
		st.IncFileType(extension(e.Path), 1)
		if dir := path.Dir(e.Path); dir != "." {
			folders[dir]++
		} else {
			rootFiles++
		}
	}
	st.FolderCount = len(folders)

	for _, f := range folderSketch(folders, rootFiles, env.Options.MaxDirs) {
		st.AddFolder(f)
	}

	discoveries := []string{
		fmt.Sprintf("%d files in %d folders, max depth %d", st.FileCount, st.FolderCount, st.MaxDepth),
	}
	if exts := rankKeys(st.FileTypes); len(exts) > 0 {
		discoveries = append(discoveries, "most common file type: "+exts[0])
	}
	return &pipeline.Result{Discoveries: discoveries}, nil
}

// entries walks the store, or reconstructs entries from a flat listing when
// the store cannot walk.
func (discoveryStage) entries(ctx context.Context, env *pipeline.Env, maxDepth int) ([]store.Entry, error) {
	if env.Store.Walker != nil {
		var entries []store.Entry
		err := env.Store.Walker.Walk(ctx, maxDepth, func(e store.Entry) error {
			entries = append(entries, e)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking corpus: %w", err)
		}
		return entries, nil
	}

	if env.Store.Lister == nil {
		return nil, types.Unavailable(store.CapList)
	}
	paths, err := env.Store.Lister.List(ctx, "*")
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}
	seen := make(map[string]bool)
	var entries []store.Entry
	for _, p := range paths {
		depth := strings.Count(p, "/") + 1
		if maxDepth > 0 && depth > maxDepth {
			continue
		}
		for dir := path.Dir(p); dir != "." && !seen[dir]; dir = path.Dir(dir) {
			seen[dir] = true
			entries = append(entries, store.Entry{Path: dir, IsDir: true, Depth: strings.Count(dir, "/") + 1})
		}
		entries = append(entries, store.Entry{Path: p, Depth: depth})
	}
	return entries, nil
}

// folderSketch ranks folders by direct file count, then path, and keeps the
// first maxDirs. Root-level files appear under ".", the same key the profiler
// uses for its largest-folder signal.
func folderSketch(folders map[string]int, rootFiles, maxDirs int) []types.FolderSummary {
	sketch := make([]types.FolderSummary, 0, len(folders)+1)
	if rootFiles > 0 {
		sketch = append(sketch, types.FolderSummary{Path: ".", FileCount: rootFiles})
	}
	for name, n := range folders {
		sketch = append(sketch, types.FolderSummary{
			Path:      name,
			Depth:     strings.Count(name, "/") + 1,
			FileCount: n,
		})
	}
	sort.Slice(sketch, func(i, j int) bool {
		if sketch[i].FileCount != sketch[j].FileCount {
			return sketch[i].FileCount > sketch[j].FileCount
		}
		return sketch[i].Path < sketch[j].Path
	})
	if maxDirs > 0 && len(sketch) > maxDirs {
		sketch = sketch[:maxDirs]
	}
	return sketch
}

func extension(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return "(none)"
	}
	return ext
}
