package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// MemoryIndex is a brute-force cosine index held in process memory. It is
// immutable after construction and safe for concurrent searches.
type MemoryIndex struct {
	docs []Document
}

func NewMemoryIndex(docs []Document) *MemoryIndex {
	kept := make([]Document, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) > 0 {
			kept = append(kept, d)
		}
	}
	return &MemoryIndex{docs: kept}
}

type indexFile struct {
	Model     string     `json:"model"`
	Documents []Document `json:"documents"`
}

// LoadMemoryIndex reads an index file written by SaveIndexFile.
func LoadMemoryIndex(path string) (*MemoryIndex, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var f indexFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return NewMemoryIndex(f.Documents), nil
}

func SaveIndexFile(path, model string, docs []Document) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	b, err := json.Marshal(indexFile{Model: model, Documents: docs})
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return os.Rename(tmp, path)
}

func (m *MemoryIndex) Len() int {
	return len(m.docs)
}

func (m *MemoryIndex) Search(ctx context.Context, vec []float32, k int) ([]DocumentMatch, error) {
	if k <= 0 || len(m.docs) == 0 {
		return nil, nil
	}

	matches := make([]DocumentMatch, 0, len(m.docs))
	for _, d := range m.docs {
		matches = append(matches, DocumentMatch{
			Text:   d.Text,
			Source: d.Source,
			Score:  cosineSimilarity(vec, d.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// cosineSimilarity is 0 for mismatched or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
