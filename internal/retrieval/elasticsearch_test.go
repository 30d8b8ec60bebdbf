package retrieval_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolioagent/portfolioagent/internal/retrieval"
)

func newESServer(t *testing.T, h http.HandlerFunc) *retrieval.ElasticsearchIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	idx, err := retrieval.NewElasticsearchIndex(retrieval.ElasticsearchOptions{
		Addresses:   []string{srv.URL},
		VerifyCerts: true,
		Index:       "portfolio-docs",
	})
	require.NoError(t, err)
	return idx
}

func TestElasticsearchSearch(t *testing.T) {
	var query map[string]any
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio-docs/_search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		w.Write([]byte(`{"took":3,"hits":{"total":{"value":2},"hits":[
			{"_score":0.92,"_source":{"text":"Built a chat agent","source":"text_data.json"}},
			{"_score":0.71,"_source":{"text":"Portfolio site","source":"about.md - part 1"}}
		]}}`))
	})

	got, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Built a chat agent", got[0].Text)
	assert.Equal(t, "about.md - part 1", got[1].Source)
	assert.InDelta(t, 0.92, got[0].Score, 1e-9)

	knn := query["knn"].(map[string]any)
	assert.Equal(t, "embedding", knn["field"])
	assert.Equal(t, float64(5), knn["k"])
	assert.Len(t, knn["query_vector"], 2)
}

func TestElasticsearchSearchError(t *testing.T) {
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := idx.Search(context.Background(), []float32{1}, 5)
	assert.ErrorContains(t, err, "index_not_found_exception")
}

func TestElasticsearchEnsureIndexCreatesMapping(t *testing.T) {
	var created map[string]any
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			assert.Equal(t, "/portfolio-docs", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{"acknowledged":true,"index":"portfolio-docs"}`))
		}
	})

	require.NoError(t, idx.EnsureIndex(context.Background(), 768))

	props := created["mappings"].(map[string]any)["properties"].(map[string]any)
	emb := props["embedding"].(map[string]any)
	assert.Equal(t, "dense_vector", emb["type"])
	assert.Equal(t, float64(768), emb["dims"])
	assert.Equal(t, "cosine", emb["similarity"])
}

func TestElasticsearchEnsureIndexExisting(t *testing.T) {
	puts := 0
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, idx.EnsureIndex(context.Background(), 3))
	assert.Zero(t, puts)
}

func TestElasticsearchBulkIndex(t *testing.T) {
	var lines []string
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio-docs/_bulk", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("refresh"))
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		w.Write([]byte(`{"took":1,"errors":false,"items":[]}`))
	})

	err := idx.BulkIndex(context.Background(), []retrieval.Document{
		{Text: "a", Source: "s", Embedding: []float32{1}},
		{Text: "b", Source: "s", Embedding: []float32{2}},
	})
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], `{"index"`))
	assert.Contains(t, lines[1], `"text":"a"`)
}

func TestElasticsearchBulkIndexItemErrors(t *testing.T) {
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"took":1,"errors":true,"items":[]}`))
	})

	err := idx.BulkIndex(context.Background(), []retrieval.Document{{Text: "a", Embedding: []float32{1}}})
	assert.Error(t, err)
}

func TestElasticsearchPing(t *testing.T) {
	idx := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	assert.NoError(t, idx.Ping(context.Background()))
}
