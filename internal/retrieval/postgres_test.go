package retrieval_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolioagent/portfolioagent/internal/retrieval"
)

// Runs only against a real database: POSTGRES_TEST_URL=postgres://...
func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := fmt.Sprintf("documents_test_%d", time.Now().UnixNano())
	require.NoError(t, retrieval.SavePostgres(ctx, url, table, []retrieval.Document{
		{Text: "go", Source: "a", Embedding: []float32{1, 0}},
		{Text: "python", Source: "b", Embedding: []float32{0, 1}},
	}))

	idx, err := retrieval.LoadPostgres(ctx, url, table)
	require.NoError(t, err)
	got, err := idx.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "python", got[0].Text)
}
