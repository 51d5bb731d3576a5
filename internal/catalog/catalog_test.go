package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"brake", "pads", "corolla"}, terms("  Brake PADS, corolla! "))
	assert.Equal(t, []string{"10w-40", "oil"}, terms("10W-40 oil ?"))
	assert.Empty(t, terms("a ? !"))
	assert.Empty(t, terms(""))
}

func TestQuerySize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPageSize, Query{}.size())
	assert.Equal(t, 10, Query{PageSize: 10}.size())
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	q := buildQuery(Query{Text: "oil filter", ActiveOnly: true, PageSize: 3})

	assert.Equal(t, 3, q["size"])
	assert.Equal(t, true, q["track_total_hits"])

	boolQuery := q["query"].(map[string]any)["bool"].(map[string]any)
	assert.Contains(t, boolQuery, "filter")
	must := boolQuery["must"].([]any)[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "oil filter", must["query"])
	assert.Equal(t, searchFields, must["fields"])

	t.Run("no active filter", func(t *testing.T) {
		t.Parallel()
		q := buildQuery(Query{Text: "oil"})
		boolQuery := q["query"].(map[string]any)["bool"].(map[string]any)
		assert.NotContains(t, boolQuery, "filter")
	})
}
