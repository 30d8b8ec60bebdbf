package retrieval

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchOptions configures the kNN index client.
type ElasticsearchOptions struct {
	Scheme      string
	Host        string
	Port        int
	Addresses   []string // overrides Scheme/Host/Port when set
	User        string
	Password    string
	VerifyCerts bool
	MaxRetries  int
	Timeout     time.Duration // per-request response header timeout; zero means none
	Index       string
}

// ElasticsearchIndex searches a dense_vector field with kNN.
type ElasticsearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchIndex(opts ElasticsearchOptions) (*ElasticsearchIndex, error) {
	addrs := opts.Addresses
	if len(addrs) == 0 {
		addrs = []string{fmt.Sprintf("%s://%s:%d", opts.Scheme, opts.Host, opts.Port)}
	}

	cfg := elasticsearch.Config{
		Addresses:  addrs,
		MaxRetries: opts.MaxRetries,
	}
	if opts.User != "" {
		cfg.Username = opts.User
		cfg.Password = opts.Password
	}
	if !opts.VerifyCerts || opts.Timeout > 0 {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = opts.Timeout
		if !opts.VerifyCerts {
			tr.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			}
		}
		cfg.Transport = tr
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &ElasticsearchIndex{client: client, index: opts.Index}, nil
}

// Ping checks the cluster is reachable.
func (e *ElasticsearchIndex) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

func (e *ElasticsearchIndex) Search(ctx context.Context, vec []float32, k int) ([]DocumentMatch, error) {
	if k <= 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"size": k,
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vec,
			"k":              k,
			"num_candidates": k * 10,
		},
		"_source": []string{"text", "source"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := decodeBody(res.Body, res.Status())
	if err != nil {
		return nil, err
	}
	return parseHits(raw), nil
}

// EnsureIndex creates the index with a cosine dense_vector mapping of dims
// dimensions when it does not exist yet.
func (e *ElasticsearchIndex) EnsureIndex(ctx context.Context, dims int) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping, err := json.Marshal(map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"text":   map[string]interface{}{"type": "text"},
				"source": map[string]interface{}{"type": "keyword"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	})
	if err != nil {
		return err
	}

	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, err = decodeBody(res.Body, res.Status())
	return err
}

// BulkIndex writes docs with a single _bulk request and refreshes the index.
func (e *ElasticsearchIndex) BulkIndex(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		if err := enc.Encode(map[string]interface{}{"index": map[string]interface{}{}}); err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}

	res, err := e.client.Bulk(
		&buf,
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(e.index),
		e.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := decodeBody(res.Body, res.Status())
	if err != nil {
		return err
	}
	if failed, _ := raw["errors"].(bool); failed {
		return fmt.Errorf("bulk index into %s reported item errors", e.index)
	}
	return nil
}

func decodeBody(r io.Reader, status string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5") {
		if errObj, ok := result["error"]; ok {
			return nil, fmt.Errorf("elasticsearch error [%s]: %v", status, errObj)
		}
		return nil, fmt.Errorf("elasticsearch error: %s", status)
	}
	return result, nil
}

func parseHits(raw map[string]interface{}) []DocumentMatch {
	hitsObj, ok := raw["hits"].(map[string]interface{})
	if !ok {
		return nil
	}
	hits, _ := hitsObj["hits"].([]interface{})

	matches := make([]DocumentMatch, 0, len(hits))
	for _, h := range hits {
		hm, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		src, _ := hm["_source"].(map[string]interface{})
		text, _ := src["text"].(string)
		if text == "" {
			continue
		}
		source, _ := src["source"].(string)
		score, _ := hm["_score"].(float64)
		matches = append(matches, DocumentMatch{Text: text, Source: source, Score: score})
	}
	return matches
}
