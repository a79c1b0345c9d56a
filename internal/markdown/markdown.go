// Package markdown extracts structural facts from markdown documents:
// front-matter fields, headings, code blocks, task lists, links and tags.
package markdown

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Heading is a markdown heading.
type Heading struct {
	Level int
	Text  string
}

// Document is the parsed form of one markdown file.
type Document struct {
	Path           string
	Length         int // characters (runes), front matter included
	MetadataFields []string
	Headings       []Heading
	Tags           []string
	InternalLinks  []string
	ExternalLinks  []string
	CodeBlocks     int
	Tasks          int
	TasksDone      int
	Words          int
	Body           string
}

var (
	hashtagRe  = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|#]+)(?:#[^\[\]|]*)?(?:\|[^\[\]]*)?\]\]`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	parser     = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
)

// Parse extracts structure from a markdown document. It never fails: malformed
// front matter is treated as body text.
func Parse(path, content string) Document {
	doc := Document{
		Path:   path,
		Length: utf8.RuneCountInString(content),
	}

	meta, body := SplitFrontMatter(content)
	doc.Body = body
	tags := make(map[string]bool)
	for key, value := range meta {
		doc.MetadataFields = append(doc.MetadataFields, key)
		if strings.EqualFold(key, "tags") || strings.EqualFold(key, "tag") {
			for _, t := range frontMatterTags(value) {
				tags[normalizeTag(t)] = true
			}
		}
	}
	sort.Strings(doc.MetadataFields)

	src := []byte(body)
	root := parser.Parse(text.NewReader(src))
	masked := make([]byte, len(src))
	copy(masked, src)
	internal := make(map[string]bool)
	external := make(map[string]bool)

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			doc.Headings = append(doc.Headings, Heading{Level: node.Level, Text: nodeText(node, src)})
		case *ast.FencedCodeBlock:
			doc.CodeBlocks++
			maskLines(masked, node.Lines())
		case *ast.CodeBlock:
			doc.CodeBlocks++
			maskLines(masked, node.Lines())
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					maskSegment(masked, t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		case *east.TaskCheckBox:
			doc.Tasks++
			if node.IsChecked {
				doc.TasksDone++
			}
		case *ast.Link:
			classifyLink(string(node.Destination), internal, external)
		case *ast.AutoLink:
			classifyLink(string(node.URL(src)), internal, external)
		}
		return ast.WalkContinue, nil
	})

	for _, m := range hashtagRe.FindAllSubmatch(masked, -1) {
		tag := normalizeTag(string(m[1]))
		if tag != "" && !isNumeric(tag) {
			tags[tag] = true
		}
	}
	for _, m := range wikilinkRe.FindAllSubmatch(masked, -1) {
		target := strings.TrimSpace(string(m[1]))
		if target != "" {
			internal[target] = true
		}
	}

	doc.Tags = sortedKeys(tags)
	doc.InternalLinks = sortedKeys(internal)
	doc.ExternalLinks = sortedKeys(external)
	doc.Words = len(strings.Fields(string(masked)))
	return doc
}

// SplitFrontMatter separates a leading `---` YAML block from the body.
// Documents without (or with malformed) front matter return a nil map and the
// content unchanged.
func SplitFrontMatter(content string) (map[string]any, string) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return nil, content
	}
	rest := normalized[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, content
	}
	block := rest[:end]
	body := strings.TrimPrefix(rest[end+4:], "\n")

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, content
	}
	return meta, body
}

// HasFrontMatter reports whether content starts with a parseable metadata block.
func HasFrontMatter(content string) bool {
	meta, _ := SplitFrontMatter(content)
	return len(meta) > 0
}

func frontMatterTags(v any) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func classifyLink(dest string, internal, external map[string]bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") {
		return
	}
	if schemeRe.MatchString(dest) {
		external[dest] = true
		return
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	internal[strings.TrimSuffix(dest, ".md")] = true
}

func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func maskLines(buf []byte, lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		maskSegment(buf, lines.At(i))
	}
}

func maskSegment(buf []byte, seg text.Segment) {
	for i := seg.Start; i < seg.Stop && i < len(buf); i++ {
		if buf[i] != '\n' {
			buf[i] = ' '
		}
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(tag), "#/"))
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
