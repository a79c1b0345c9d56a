package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/markdown"
)

// DefaultExcludes are skipped by every FS walk in addition to hidden entries.
var DefaultExcludes = []string{
	"vendor/",
	"node_modules/",
	".git/",
	".curator/",
}

// FS is a document store backed by a directory tree.
// It implements every capability interface in this package.
type FS struct {
	// Root directory of the corpus
	Root string

	// Paths to exclude (glob patterns, "dir/" for directories)
	ExcludePaths []string

	logger *zap.Logger
}

// NewFS creates a filesystem document store rooted at root.
func NewFS(root string, excludePaths []string, logger *zap.Logger) *FS {
	if excludePaths == nil {
		excludePaths = DefaultExcludes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FS{Root: root, ExcludePaths: excludePaths, logger: logger}
}

// Walk visits every non-excluded file and folder below the root in lexical order.
func (s *FS) Walk(ctx context.Context, maxDepth int, fn func(Entry) error) error {
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; an unreadable root is fatal.
			if p == s.Root {
				return err
			}
			s.logger.Debug("skipping unreadable path", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if s.shouldExclude(relPath, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		depth := strings.Count(relPath, "/") + 1
		if maxDepth > 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := Entry{Path: relPath, IsDir: d.IsDir(), Depth: depth}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		return fn(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", s.Root, err)
	}
	return nil
}

// List returns the relative paths of all files whose base name matches pattern.
func (s *FS) List(ctx context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, "x"); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var paths []string
	err := s.Walk(ctx, 0, func(e Entry) error {
		if e.IsDir {
			return nil
		}
		if ok, _ := path.Match(pattern, path.Base(e.Path)); ok {
			paths = append(paths, e.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the content of one document.
func (s *FS) Read(ctx context.Context, relPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", relPath, err)
	}
	return string(data), nil
}

// BatchRead reads documents with an even share of budget each.
func (s *FS) BatchRead(ctx context.Context, paths []string, budget int) ([]ReadResult, error) {
	share := PerFileShare(budget, len(paths))
	results := make([]ReadResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := s.Read(ctx, p)
		if err != nil {
			s.logger.Debug("batch read item failed", zap.String("path", p), zap.Error(err))
			results = append(results, ReadResult{Path: p, Err: err})
			continue
		}
		results = append(results, ReadResult{Path: p, Content: Truncate(content, share), Success: true})
	}
	return results, nil
}

// Analyze reads and parses documents in one pass.
func (s *FS) Analyze(ctx context.Context, paths []string, budget int) ([]markdown.Document, error) {
	results, err := s.BatchRead(ctx, paths, budget)
	if err != nil {
		return nil, err
	}
	docs := make([]markdown.Document, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		docs = append(docs, markdown.Parse(r.Path, r.Content))
	}
	return docs, nil
}

// Exists reports whether a file or folder exists below the root. Unlike Walk
// it does not apply exclusions.
func (s *FS) Exists(ctx context.Context, relPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(relPath)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// resolve maps a store-relative path to a filesystem path, refusing paths
// that escape the root.
func (s *FS) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(relPath))
	if clean == "/" {
		return "", fmt.Errorf("invalid document path %q", relPath)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// shouldExclude checks if a path should be excluded from the walk.
func (s *FS) shouldExclude(relPath string, d fs.DirEntry) bool {
	// Always exclude hidden files and directories
	if strings.HasPrefix(path.Base(relPath), ".") {
		return true
	}

	for _, pattern := range s.ExcludePaths {
		if matchesPattern(relPath, pattern, d.IsDir()) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a path matches an exclude pattern.
func matchesPattern(p, pattern string, isDir bool) bool {
	// Directory patterns (e.g., "vendor/")
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		if isDir && (p == dir || strings.HasSuffix(p, "/"+dir)) {
			return true
		}
		return strings.HasPrefix(p, pattern) || strings.Contains(p, "/"+pattern)
	}

	// Glob patterns (e.g., "*.tmp.md")
	if strings.Contains(pattern, "*") {
		matched, _ := path.Match(pattern, path.Base(p))
		return matched
	}

	// Exact match
	return p == pattern || strings.HasPrefix(p, pattern+"/")
}
