// Package catalog answers free-text product availability queries.
//
// Two engines implement the same contract: GormSearcher matches keywords
// against the products table and OpenSearchSearcher delegates relevance to an
// OpenSearch index.
package catalog

import (
	"errors"
	"strings"
)

// Engine names accepted by CATALOG_BACKEND.
const (
	BackendPostgres   = "postgres"
	BackendOpenSearch = "opensearch"
)

// DefaultPageSize is used when a query does not ask for a page size.
const DefaultPageSize = 5

// ErrSearchFailed wraps every engine failure.
var ErrSearchFailed = errors.New("catalog search failed")

// Item is one product in a search result.
type Item struct {
	SKU    string  `json:"sku"`
	Name   string  `json:"name"`
	Brand  string  `json:"brand"`
	Model  string  `json:"model"`
	Price  float64 `json:"price"`
	Stock  int     `json:"stock"`
	Active bool    `json:"active"`
}

// InStock reports whether at least one unit is available.
func (i Item) InStock() bool {
	return i.Stock > 0
}

// Query is a free-text search request.
type Query struct {
	Text       string
	ActiveOnly bool
	PageSize   int
}

func (q Query) size() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

// Result is one page of matches plus the total number of matches.
type Result struct {
	Total int    `json:"total"`
	Items []Item `json:"items"`
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// terms splits a query into lower-case keywords, dropping very short noise.
func terms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?¿¡"'()`)
		if len(f) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}
