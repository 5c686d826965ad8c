package sefaria

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	pkgstrings "github.com/Sefaria/sefaria-mcp/pkg/strings"
)

const (
	// DefaultSearchSize is the result count of text searches.
	DefaultSearchSize = 10
	// dictionarySearchSize is the result count of dictionary searches.
	dictionarySearchSize = 8

	maxSnippetRunes = 300

	filterCorrectionNote = "Removed filters due to no results"
)

// lexicons maps the search paths of the dictionaries to their names.
var lexicons = []struct {
	path string
	name string
}{
	{"Reference/Dictionary/Jastrow", "Jastrow Dictionary"},
	{"Reference/Dictionary/Klein Dictionary", "Klein Dictionary"},
	{"Reference/Dictionary/BDB", "BDB Dictionary"},
	{"Reference/Dictionary/BDB Aramaic", "BDB Aramaic Dictionary"},
	{"Reference/Encyclopedic Works/Kovetz Yesodot VaChakirot", "Kovetz Yesodot VaChakirot"},
}

// LexiconName returns the display name of the dictionary at path.
func LexiconName(path string) (string, bool) {
	for _, l := range lexicons {
		if l.path == path {
			return l.name, true
		}
	}
	return "", false
}

func lexiconPaths() []string {
	paths := make([]string, len(lexicons))
	for i, l := range lexicons {
		paths[i] = l.path
	}
	return paths
}

// searchRequest is the body of the es8 search wrapper.
type searchRequest struct {
	Aggs             []string      `json:"aggs"`
	Field            string        `json:"field"`
	FilterFields     []interface{} `json:"filter_fields"`
	Filters          []string      `json:"filters"`
	Query            string        `json:"query"`
	Size             int           `json:"size"`
	Slop             int           `json:"slop"`
	SortFields       []string      `json:"sort_fields"`
	SortMethod       string        `json:"sort_method"`
	SortReverse      bool          `json:"sort_reverse"`
	SortScoreMissing float64       `json:"sort_score_missing"`
	SourceProj       bool          `json:"source_proj"`
	Type             string        `json:"type"`
}

func newSearchRequest(query string, filters []string, size int) searchRequest {
	if filters == nil {
		filters = []string{}
	}
	return searchRequest{
		Aggs:             []string{},
		Field:            "naive_lemmatizer",
		FilterFields:     make([]interface{}, len(filters)),
		Filters:          filters,
		Query:            query,
		Size:             size,
		Slop:             10,
		SortFields:       []string{"pagesheetrank"},
		SortMethod:       "score",
		SortReverse:      false,
		SortScoreMissing: 0.04,
		SourceProj:       true,
		Type:             "text",
	}
}

// hit is one search hit as far as the tools need it.
type hit struct {
	source    map[string]interface{}
	highlight map[string]interface{}
}

// search runs a full-text search and returns its hits.
func (c *Client) search(ctx context.Context, log api.LogSink, query string, filters []string, size int) ([]hit, error) {
	rawURL := c.apiBase + "/api/search-wrapper/es8"
	data, err := c.postJSON(ctx, log, rawURL, newSearchRequest(query, filters, size))
	if err != nil {
		return nil, err
	}

	root, ok := data.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{URL: rawURL, Err: fmt.Errorf("expected an object, got %T", data)}
	}
	outer, _ := root["hits"].(map[string]interface{})
	list, _ := outer["hits"].([]interface{})

	hits := make([]hit, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		source, _ := m["_source"].(map[string]interface{})
		if source == nil {
			source = map[string]interface{}{}
		}
		highlight, _ := m["highlight"].(map[string]interface{})
		hits = append(hits, hit{source: source, highlight: highlight})
	}
	return hits, nil
}

// SearchResult is one passage found by a text search.
type SearchResult struct {
	Ref              string      `json:"ref"`
	Categories       interface{} `json:"categories"`
	OriginalFilter   []string    `json:"original_filter,omitempty"`
	FilterCorrection string      `json:"filter_correction,omitempty"`
	TextSnippet      string      `json:"text_snippet"`
}

// SearchTexts searches the library for query. filters are category or
// book paths limiting the scope. When a filtered search finds nothing the
// search is repeated without filters and every result records the filter
// that was dropped. No hits yield an empty, non-nil slice.
func (c *Client) SearchTexts(ctx context.Context, log api.LogSink, query string, filters []string, size int) ([]SearchResult, error) {
	if size <= 0 {
		size = DefaultSearchSize
	}

	hits, err := c.search(ctx, log, query, filters, size)
	if err != nil {
		return nil, err
	}

	corrected := false
	if len(hits) == 0 && len(filters) > 0 {
		log.Info("No results with filters %v, searching without filters", filters)
		hits, err = c.search(ctx, log, query, nil, size)
		if err != nil {
			return nil, err
		}
		corrected = true
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		r := SearchResult{
			Ref:         stringField(h.source, "ref"),
			Categories:  getOr(h.source, "categories", []interface{}{}),
			TextSnippet: snippet(h),
		}
		if corrected {
			r.OriginalFilter = filters
			r.FilterCorrection = filterCorrectionNote
		}
		results = append(results, r)
	}

	if len(results) == 0 {
		log.Debug("No results found for %q", query)
	}
	return results, nil
}

// snippet prefers the highlighted fragments of a hit and falls back to the
// start of its text.
func snippet(h hit) string {
	for _, field := range slices.Sorted(maps.Keys(h.highlight)) {
		list, ok := h.highlight[field].([]interface{})
		if !ok || len(list) == 0 {
			continue
		}
		parts := make([]string, 0, len(list))
		for _, f := range list {
			if s, ok := f.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " [...] ")
		}
	}

	for _, field := range []string{"naive_lemmatizer", "exact"} {
		if s := stringField(h.source, field); s != "" {
			return pkgstrings.Truncate(s, maxSnippetRunes)
		}
	}
	return ""
}

// SearchPathFilter converts a book name into the search filter path of that
// book. The answer is plain text; an empty string means the book is
// unknown.
func (c *Client) SearchPathFilter(ctx context.Context, log api.LogSink, bookName string) (string, error) {
	resp, err := c.get(ctx, log, c.apiURL("/api/search-path-filter/", bookName, nil))
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(resp.body))
	log.Debug("Search path filter for %q: %q", bookName, path)
	return path, nil
}

// NoFilterPathError is returned by SearchInBook when the book name does not
// resolve to a search path.
type NoFilterPathError struct {
	BookName string
}

func (e *NoFilterPathError) Error() string {
	return fmt.Sprintf("Could not find valid filter path for book '%s'", e.BookName)
}

// SearchInBook searches within a single book.
func (c *Client) SearchInBook(ctx context.Context, log api.LogSink, query, bookName string, size int) ([]SearchResult, error) {
	path, err := c.SearchPathFilter(ctx, log, bookName)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &NoFilterPathError{BookName: bookName}
	}
	return c.SearchTexts(ctx, log, query, []string{path}, size)
}

// DictionaryEntry is one dictionary hit.
type DictionaryEntry struct {
	Ref         string      `json:"ref"`
	Headword    string      `json:"headword"`
	LexiconName string      `json:"lexicon_name"`
	Text        interface{} `json:"text"`
}

// SearchDictionaries looks query up in the reference dictionaries. Hits
// outside the known dictionaries are skipped.
func (c *Client) SearchDictionaries(ctx context.Context, log api.LogSink, query string) ([]DictionaryEntry, error) {
	hits, err := c.search(ctx, log, query, lexiconPaths(), dictionarySearchSize)
	if err != nil {
		return nil, err
	}

	entries := make([]DictionaryEntry, 0, len(hits))
	for _, h := range hits {
		name, ok := LexiconName(stringField(h.source, "path"))
		if !ok {
			log.Warn("Skipping dictionary hit %q from unknown lexicon %q", stringField(h.source, "ref"), stringField(h.source, "path"))
			continue
		}
		headword := ""
		if variants, ok := h.source["titleVariants"].([]interface{}); ok && len(variants) > 0 {
			headword, _ = variants[0].(string)
		}
		entries = append(entries, DictionaryEntry{
			Ref:         stringField(h.source, "ref"),
			Headword:    headword,
			LexiconName: name,
			Text:        getOr(h.source, "exact", ""),
		})
	}

	log.Debug("Dictionary search results count: %d", len(entries))
	return entries, nil
}

// SemanticSearch runs a nearest-neighbour search over English embeddings
// on the AI service. filters is passed through unchanged.
func (c *Client) SemanticSearch(ctx context.Context, log api.LogSink, query string, filters map[string]interface{}) (interface{}, error) {
	payload := map[string]interface{}{"query": query}
	if len(filters) > 0 {
		payload["filters"] = filters
	}
	return c.postJSON(ctx, log, c.aiBase+"/api/knn-search", payload)
}
