package store

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/steveyegge/curator/internal/markdown"
)

// Mem is an in-memory document store keyed by slash-separated relative paths.
// Hidden markers (".git", ".obsidian") can be registered with AddMarker; they
// are visible to Exists but not to Walk or List.
type Mem struct {
	mu      sync.RWMutex
	docs    map[string]string
	markers map[string]bool

	// ReadErr, when set, is consulted before every read. A non-nil error
	// fails that read.
	ReadErr func(path string) error
}

// NewMem creates an in-memory store from a path → content map.
func NewMem(docs map[string]string) *Mem {
	m := &Mem{docs: make(map[string]string, len(docs)), markers: make(map[string]bool)}
	for p, c := range docs {
		m.docs[path.Clean(p)] = c
	}
	return m
}

// Put adds or replaces a document.
func (m *Mem) Put(p, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path.Clean(p)] = content
}

// AddMarker registers a hidden marker path.
func (m *Mem) AddMarker(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[path.Clean(p)] = true
}

// Walk visits folders and documents in lexical order.
func (m *Mem) Walk(ctx context.Context, maxDepth int, fn func(Entry) error) error {
	m.mu.RLock()
	entries := make(map[string]Entry)
	for p, c := range m.docs {
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			dir := strings.Join(parts[:i], "/")
			entries[dir] = Entry{Path: dir, IsDir: true, Depth: i}
		}
		entries[p] = Entry{Path: p, Depth: len(parts), Size: int64(len(c))}
	}
	m.mu.RUnlock()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := entries[k]
		if maxDepth > 0 && e.Depth > maxDepth {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// List returns documents whose base name matches pattern.
func (m *Mem) List(ctx context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, "x"); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p := range m.docs {
		if ok, _ := path.Match(pattern, path.Base(p)); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Read returns one document.
func (m *Mem) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.ReadErr != nil {
		if err := m.ReadErr(p); err != nil {
			return "", err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.docs[path.Clean(p)]
	if !ok {
		return "", fmt.Errorf("document %s not found", p)
	}
	return c, nil
}

// BatchRead reads documents with an even share of budget each.
func (m *Mem) BatchRead(ctx context.Context, paths []string, budget int) ([]ReadResult, error) {
	share := PerFileShare(budget, len(paths))
	results := make([]ReadResult, 0, len(paths))
	for _, p := range paths {
		c, err := m.Read(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			results = append(results, ReadResult{Path: p, Err: err})
			continue
		}
		results = append(results, ReadResult{Path: p, Content: Truncate(c, share), Success: true})
	}
	return results, nil
}

// Analyze reads and parses documents in one call.
func (m *Mem) Analyze(ctx context.Context, paths []string, budget int) ([]markdown.Document, error) {
	results, err := m.BatchRead(ctx, paths, budget)
	if err != nil {
		return nil, err
	}
	var docs []markdown.Document
	for _, r := range results {
		if r.Success {
			docs = append(docs, markdown.Parse(r.Path, r.Content))
		}
	}
	return docs, nil
}

// Exists reports whether p is a document, a folder holding documents, or a marker.
func (m *Mem) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p = path.Clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.markers[p] {
		return true, nil
	}
	if _, ok := m.docs[p]; ok {
		return true, nil
	}
	for d := range m.docs {
		if strings.HasPrefix(d, p+"/") {
			return true, nil
		}
	}
	return false, nil
}
