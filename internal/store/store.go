// Package store defines the document store collaborator used by the analysis
// pipeline and a filesystem implementation of it.
//
// The store is described by small capability interfaces rather than one large
// interface. A store may implement any subset; stages detect the subset with
// CapabilitiesOf and pick a strategy that fits what is available.
package store

import (
	"context"
	"unicode/utf8"

	"github.com/steveyegge/curator/internal/markdown"
	"github.com/steveyegge/curator/internal/types"
)

// Capability names, used in CollaboratorUnavailableError and progress output.
const (
	CapWalk      = "walk"
	CapList      = "list"
	CapBatchRead = "batch_read"
	CapRead      = "read"
	CapAnalyze   = "analyze"
	CapStat      = "stat"
)

// Entry is one node seen while walking the document hierarchy.
// Path is slash-separated and relative to the store root; Depth is the number
// of path components (a top-level file has depth 1).
type Entry struct {
	Path  string
	IsDir bool
	Depth int
	Size  int64
}

// ReadResult is the outcome of reading one document in a batch.
type ReadResult struct {
	Path    string
	Content string
	Success bool
	Err     error
}

// Walker traverses the document hierarchy. maxDepth <= 0 means unlimited.
type Walker interface {
	Walk(ctx context.Context, maxDepth int, fn func(Entry) error) error
}

// Lister lists documents whose base name matches a glob pattern.
type Lister interface {
	List(ctx context.Context, pattern string) ([]string, error)
}

// BatchReader reads several documents under a total character budget.
// It is tolerant of per-item failure: failed items come back with Success=false.
type BatchReader interface {
	BatchRead(ctx context.Context, paths []string, budget int) ([]ReadResult, error)
}

// Reader reads a single document.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Analyzer reads and parses documents in one call. It is the preferred
// capability for content acquisition.
type Analyzer interface {
	Analyze(ctx context.Context, paths []string, budget int) ([]markdown.Document, error)
}

// Stater checks for the presence of marker files and folders, including
// hidden ones the walker skips.
type Stater interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Capabilities is the detected capability set of a document store.
// A nil field means the capability is unavailable.
type Capabilities struct {
	Walker      Walker
	Lister      Lister
	BatchReader BatchReader
	Reader      Reader
	Analyzer    Analyzer
	Stater      Stater
}

// CapabilitiesOf type-asserts every capability interface against s.
func CapabilitiesOf(s any) Capabilities {
	var c Capabilities
	if s == nil {
		return c
	}
	c.Walker, _ = s.(Walker)
	c.Lister, _ = s.(Lister)
	c.BatchReader, _ = s.(BatchReader)
	c.Reader, _ = s.(Reader)
	c.Analyzer, _ = s.(Analyzer)
	c.Stater, _ = s.(Stater)
	return c
}

// CanRead reports whether document content can be read at all.
func (c Capabilities) CanRead() bool {
	return c.BatchReader != nil || c.Reader != nil
}

// Available returns the names of the capabilities that are present.
func (c Capabilities) Available() []string {
	var names []string
	if c.Walker != nil {
		names = append(names, CapWalk)
	}
	if c.Lister != nil {
		names = append(names, CapList)
	}
	if c.BatchReader != nil {
		names = append(names, CapBatchRead)
	}
	if c.Reader != nil {
		names = append(names, CapRead)
	}
	if c.Analyzer != nil {
		names = append(names, CapAnalyze)
	}
	if c.Stater != nil {
		names = append(names, CapStat)
	}
	return names
}

// ReadAll reads paths under a global character budget, split evenly per file.
// It prefers the batch reader and falls back to single reads. Results from the
// collaborator are clipped to the per-file share, so the total content returned
// never exceeds budget characters.
func ReadAll(ctx context.Context, c Capabilities, paths []string, budget int) ([]ReadResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	share := PerFileShare(budget, len(paths))

	if c.BatchReader != nil {
		results, err := c.BatchReader.BatchRead(ctx, paths, budget)
		if err == nil {
			for i := range results {
				results[i].Content = Truncate(results[i].Content, share)
			}
			return results, nil
		}
		if c.Reader == nil {
			return nil, err
		}
	}
	if c.Reader == nil {
		return nil, types.Unavailable(CapRead)
	}

	results := make([]ReadResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		content, err := c.Reader.Read(ctx, p)
		if err != nil {
			results = append(results, ReadResult{Path: p, Err: err})
			continue
		}
		results = append(results, ReadResult{Path: p, Content: Truncate(content, share), Success: true})
	}
	return results, nil
}

// Spread picks up to n items evenly spaced across items.
func Spread(items []string, n int) []string {
	if n <= 0 || len(items) <= n {
		return items
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i*len(items)/n])
	}
	return out
}

// PerFileShare divides a character budget evenly between n files.
func PerFileShare(budget, n int) int {
	if n <= 0 || budget <= 0 {
		return 0
	}
	return budget / n
}

// Truncate clips s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
