package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultChunkSize bounds the length of a text-file chunk in bytes.
const DefaultChunkSize = 1200

// Chunk is an unembedded piece of source text.
type Chunk struct {
	Text   string
	Source string
}

// ReadEntries loads a JSON array of portfolio entries. Each entry contributes
// its first non-empty "description", "content" or "details" field.
func ReadEntries(path string) ([]Chunk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse entries %s: %w", path, err)
	}

	source := filepath.Base(path)
	var chunks []Chunk
	for _, e := range entries {
		for _, key := range []string{"description", "content", "details"} {
			if s, ok := e[key].(string); ok && strings.TrimSpace(s) != "" {
				chunks = append(chunks, Chunk{Text: s, Source: source})
				break
			}
		}
	}
	return chunks, nil
}

// ReadTextDir chunks every .txt and .md file under dir.
func ReadTextDir(dir string, chunkSize int) ([]Chunk, error) {
	var chunks []Chunk
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		for i, text := range ChunkText(string(b), chunkSize) {
			chunks = append(chunks, Chunk{Text: text, Source: fmt.Sprintf("%s - part %d", rel, i+1)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	return chunks, nil
}

// ChunkText packs non-empty lines into chunks of at most maxLen bytes. A
// single line longer than maxLen becomes its own chunk.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	var chunks []string
	var buf strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(line)+1 > maxLen {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// EmbedChunks embeds chunks sequentially. Chunks that fail to embed are
// skipped and counted.
func EmbedChunks(ctx context.Context, embedder Embedder, chunks []Chunk) ([]Document, int) {
	docs := make([]Document, 0, len(chunks))
	failed := 0
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			failed += len(chunks) - len(docs) - failed
			break
		}
		vec, err := embedder.Embed(ctx, c.Text)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("source", c.Source).Msg("skipping chunk")
			continue
		}
		docs = append(docs, Document{Text: c.Text, Source: c.Source, Embedding: vec})
	}
	return docs, failed
}
