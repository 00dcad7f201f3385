// Package hotindex keeps recently ingested decision letters searchable
// before they are sealed into encrypted batches. Everything lives in
// memory in plaintext; nothing here touches the password or the archive.
package hotindex

import (
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/planquery/appealvault/internal/archive/models"
)

// Index is the hot tier. Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	docs  []models.ArchivedDocument
	lower []string
}

func New() *Index {
	return &Index{}
}

// Add appends a document, replacing any existing one with the same ID.
func (x *Index) Add(doc models.ArchivedDocument) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, d := range x.docs {
		if d.ID == doc.ID {
			x.docs[i] = doc
			x.lower[i] = strings.ToLower(doc.Content)
			return
		}
	}
	x.docs = append(x.docs, doc)
	x.lower = append(x.lower, strings.ToLower(doc.Content))
}

// Remove drops the document with the given ID, typically after it has been
// sealed into a batch. Reports whether anything was removed.
func (x *Index) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, d := range x.docs {
		if d.ID == id {
			x.docs = append(x.docs[:i], x.docs[i+1:]...)
			x.lower = append(x.lower[:i], x.lower[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Search scans document content for the query terms, scoring by occurrence
// count the same way the cold tier does. When no content matches, it falls
// back to fuzzy matching on filenames so near-miss queries still surface
// recent documents. Results are sorted by descending score and truncated to
// limit when limit is positive.
func (x *Index) Search(query string, limit int) []models.SearchResult {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := x.contentMatches(terms)
	if len(results) == 0 {
		results = x.fuzzyFilenameMatches(query)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (x *Index) contentMatches(terms []string) []models.SearchResult {
	var results []models.SearchResult
	for i, doc := range x.docs {
		content := x.lower[i]

		score := 0
		firstTerm := ""
		for _, term := range terms {
			n := strings.Count(content, term)
			if n > 0 && firstTerm == "" {
				firstTerm = term
			}
			score += n
		}
		if score == 0 {
			continue
		}

		results = append(results, models.SearchResult{
			ID:       doc.ID,
			Filename: doc.Filename,
			Metadata: doc.Metadata,
			Snippet:  snippet(doc.Content, content, firstTerm),
			Score:    score,
			Tier:     models.TierHot,
			Archived: false,
		})
	}
	return results
}

// filenameSource adapts the document list for fuzzy matching.
type filenameSource []models.ArchivedDocument

func (s filenameSource) String(i int) string { return s[i].Filename }
func (s filenameSource) Len() int            { return len(s) }

func (x *Index) fuzzyFilenameMatches(query string) []models.SearchResult {
	matches := fuzzy.FindFrom(query, filenameSource(x.docs))

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		doc := x.docs[m.Index]
		score := m.Score
		if score < 1 {
			score = 1
		}
		results = append(results, models.SearchResult{
			ID:       doc.ID,
			Filename: doc.Filename,
			Metadata: doc.Metadata,
			Snippet:  snippet(doc.Content, x.lower[m.Index], ""),
			Score:    score,
			Tier:     models.TierHot,
			Archived: false,
		})
	}
	return results
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

const snippetWindow = 120

// snippet extracts a short window around the first occurrence of term, or
// the head of the content when term is empty or absent.
func snippet(content, lower, term string) string {
	idx := -1
	if term != "" {
		idx = strings.Index(lower, term)
	}
	if idx < 0 {
		if len(content) > snippetWindow*2 {
			return content[:snippetWindow*2] + "..."
		}
		return content
	}

	start := idx - snippetWindow/2
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + snippetWindow
	if end > len(content) {
		end = len(content)
	}
	for start > 0 && content[start]&0xC0 == 0x80 {
		start--
	}
	for end < len(content) && content[end]&0xC0 == 0x80 {
		end++
	}

	s := content[start:end]
	if start > 0 {
		s = "..." + s
	}
	if end < len(content) {
		s += "..."
	}
	return s
}
