package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// OpenSearchConfig configures the relevance engine.
type OpenSearchConfig struct {
	Addresses  []string `env:"OPENSEARCH_ADDRESSES" envSeparator:","`
	Username   string   `env:"OPENSEARCH_USERNAME"`
	Password   string   `env:"OPENSEARCH_PASSWORD"`
	Index      string   `env:"OPENSEARCH_INDEX" envDefault:"products"`
	MaxRetries int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
}

var (
	ErrOpenSearchConnection = errors.New("opensearch connection failed")
	ErrOpenSearchHealth     = errors.New("opensearch healthcheck failed")
	ErrIndexFailed          = errors.New("opensearch indexing failed")
)

// searchFields are boosted so name matches rank above brand and model matches.
var searchFields = []string{"name^3", "brand^2", "model", "sku"}

// OpenSearchSearcher is the relevance engine over an OpenSearch index.
type OpenSearchSearcher struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchClient creates a client and fails fast if the cluster is unreachable.
func NewOpenSearchClient(ctx context.Context, cfg OpenSearchConfig) (*opensearch.Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("%w: no addresses configured", ErrOpenSearchConnection)
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, errors.Join(ErrOpenSearchConnection, err)
	}
	if err := pingOpenSearch(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// NewOpenSearchSearcher creates a relevance searcher over index.
func NewOpenSearchSearcher(client *opensearch.Client, index string) *OpenSearchSearcher {
	if index == "" {
		index = "products"
	}
	return &OpenSearchSearcher{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Item `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a fuzzy multi-field match, optionally restricted to active products.
func (o *OpenSearchSearcher) Search(ctx context.Context, q Query) (Result, error) {
	if len(terms(q.Text)) == 0 {
		return Result{}, nil
	}

	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{o.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, res.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	items := make([]Item, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		items = append(items, h.Source)
	}
	return Result{Total: parsed.Hits.Total.Value, Items: items}, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  struct {
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Index upserts items into the index, using the SKU as document id.
func (o *OpenSearchSearcher) Index(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, item := range items {
		if err := enc.Encode(map[string]any{"index": map[string]any{"_id": item.SKU}}); err != nil {
			return fmt.Errorf("%w: encode action: %v", ErrIndexFailed, err)
		}
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("%w: encode document: %v", ErrIndexFailed, err)
		}
	}

	req := opensearchapi.BulkRequest{
		Index: o.index,
		Body:  &body,
	}
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrIndexFailed, res.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrIndexFailed, err)
	}
	if !parsed.Errors {
		return nil
	}
	failed, reason := 0, ""
	for _, entry := range parsed.Items {
		for _, r := range entry {
			if r.Status >= http.StatusBadRequest {
				failed++
				if reason == "" {
					reason = r.Error.Reason
				}
			}
		}
	}
	return fmt.Errorf("%w: %d of %d documents rejected: %s", ErrIndexFailed, failed, len(items), reason)
}

// Ping checks that the cluster answers.
func (o *OpenSearchSearcher) Ping(ctx context.Context) error {
	return pingOpenSearch(ctx, o.client)
}

func buildQuery(q Query) map[string]any {
	boolQuery := map[string]any{
		"must": []any{
			map[string]any{
				"multi_match": map[string]any{
					"query":     q.Text,
					"fields":    searchFields,
					"fuzziness": "AUTO",
					"operator":  "and",
				},
			},
		},
	}
	if q.ActiveOnly {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"active": true}},
		}
	}
	return map[string]any{
		"size":             q.size(),
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
	}
}

func pingOpenSearch(ctx context.Context, client *opensearch.Client) error {
	res, err := opensearchapi.InfoRequest{}.Do(ctx, client)
	if err != nil {
		return errors.Join(ErrOpenSearchHealth, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: status %d", ErrOpenSearchHealth, res.StatusCode)
	}
	return nil
}
