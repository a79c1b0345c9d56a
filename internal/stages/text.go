package stages

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = toSet([]string{
	"the", "and", "for", "with", "from", "this", "that", "into", "about", "your",
	"are", "was", "were", "has", "have", "not", "but", "all", "any", "can", "how",
	"what", "when", "where", "why", "who", "notes", "note", "todo", "misc", "other",
	"new", "old", "untitled", "draft", "index", "readme", "home", "page", "file",
	"files", "docs", "doc", "part", "section", "introduction", "intro", "summary",
})

// tokenize splits text into lowercase word tokens. Stopwords, tokens of two
// characters or fewer and purely numeric tokens are dropped.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := strings.Trim(current.String(), "-_")
		current.Reset()
		if len([]rune(word)) <= 2 || isNumericOnly(word) {
			return
		}
		if _, stop := stopwords[word]; stop {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsNumber(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// cooccurrence counts, per concept, the documents it appears in and the
// distinct concepts it appears with.
type cooccurrence struct {
	docs      int
	frequency map[string]int
	neighbors map[string]map[string]int
}

func newCooccurrence() *cooccurrence {
	return &cooccurrence{
		frequency: make(map[string]int),
		neighbors: make(map[string]map[string]int),
	}
}

// addDocument records every concept of one document as mutually connected.
func (c *cooccurrence) addDocument(concepts []string) {
	c.docs++
	unique := uniqueSorted(concepts)
	for _, t := range unique {
		c.frequency[t]++
	}
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			c.link(unique[i], unique[j])
			c.link(unique[j], unique[i])
		}
	}
}

func (c *cooccurrence) link(a, b string) {
	if c.neighbors[a] == nil {
		c.neighbors[a] = make(map[string]int)
	}
	c.neighbors[a][b]++
}

// connections returns a concept's distinct neighbors ordered by co-occurrence
// count, then name.
func (c *cooccurrence) connections(concept string) []string {
	return rankKeys(c.neighbors[concept])
}

// taxonomy maps category names to lowercase keywords.
type taxonomy struct {
	names      []string
	categories map[string][]string
}

func newTaxonomy(categories map[string][]string) *taxonomy {
	t := &taxonomy{categories: make(map[string][]string, len(categories))}
	for name, keywords := range categories {
		normalized := make([]string, len(keywords))
		for i, kw := range keywords {
			normalized[i] = strings.ToLower(kw)
		}
		t.categories[name] = normalized
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t
}

// match returns the categories whose keywords appear among tokens, with the
// keywords that matched.
func (t *taxonomy) match(tokens []string) map[string][]string {
	hits := make(map[string][]string)
	for _, name := range t.names {
		for _, kw := range t.categories[name] {
			for _, tok := range tokens {
				if tok == kw || strings.HasPrefix(tok, kw) {
					hits[name] = appendUnique(hits[name], kw)
					break
				}
			}
		}
	}
	return hits
}

// best returns the category with the most keyword hits, or "" if none matched.
func (t *taxonomy) best(tokens []string) string {
	hits := t.match(tokens)
	best, bestHits := "", 0
	for _, name := range t.names {
		n := len(hits[name])
		if n > bestHits {
			best, bestHits = name, n
		}
	}
	return best
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func uniqueSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}

// rankKeys orders map keys by descending count, ties by name.
func rankKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func truncateList(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
