package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// defaultSearchLimit caps result sets when the caller doesn't specify one.
const defaultSearchLimit = 100

// Hit represents a single search result.
type Hit struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
}

// Search executes a free-text query against title and author.
//
// The query is trimmed first; an empty query returns no hits without touching
// the index. Matching is case-insensitive substring against title OR author,
// with analyzed term matches layered on top for relevance ranking.
func (s *SearchIndex) Search(ctx context.Context, queryText string, limit int) ([]Hit, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildBookQuery(queryText)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	searchRequest.Fields = []string{"id", "title", "author"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			h.Author = a
		}
		hits = append(hits, h)
	}

	return hits, nil
}

// buildBookQuery constructs the Bleve query for a free-text search.
//
// The folded wildcard queries carry the substring contract: the folded
// fields hold the whole title/author as one lowercase term, so *query*
// matches anywhere in the string regardless of case. The plain match
// queries only add relevance boost for full-term matches.
func buildBookQuery(queryText string) query.Query {
	folded := escapeWildcard(strings.ToLower(queryText))

	titleSubstring := bleve.NewWildcardQuery("*" + folded + "*")
	titleSubstring.SetField("title_folded")

	authorSubstring := bleve.NewWildcardQuery("*" + folded + "*")
	authorSubstring.SetField("author_folded")

	titleMatch := bleve.NewMatchQuery(queryText)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(queryText)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	return bleve.NewDisjunctionQuery(titleSubstring, authorSubstring, titleMatch, authorMatch)
}

// escapeWildcard escapes characters that are special in Bleve wildcard
// syntax so user input is matched literally.
func escapeWildcard(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`*`, `\*`,
		`?`, `\?`,
	)
	return replacer.Replace(s)
}
