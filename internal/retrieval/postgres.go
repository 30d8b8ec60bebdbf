package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// LoadPostgres reads every row of table (columns text, source, embedding
// float4[]) into a MemoryIndex.
func LoadPostgres(ctx context.Context, url, table string) (*MemoryIndex, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	docs, err := queryDocuments(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	log.Info().Str("table", table).Int("documents", len(docs)).Msg("loaded documents from postgres")
	return NewMemoryIndex(docs), nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryDocuments(ctx context.Context, q rowQuerier, table string) ([]Document, error) {
	sql := fmt.Sprintf("SELECT text, COALESCE(source, ''), embedding FROM %s", pgx.Identifier{table}.Sanitize())
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var d Document
		err := row.Scan(&d.Text, &d.Source, &d.Embedding)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return docs, nil
}

// SavePostgres creates table if needed and inserts docs in one batch.
func SavePostgres(ctx context.Context, url, table string, docs []Document) error {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{table}.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	text TEXT NOT NULL,
	source TEXT,
	embedding REAL[] NOT NULL
)`, ident)
	if _, err := conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	batch := &pgx.Batch{}
	insert := fmt.Sprintf("INSERT INTO %s (text, source, embedding) VALUES ($1, $2, $3)", ident)
	for _, d := range docs {
		batch.Queue(insert, d.Text, d.Source, d.Embedding)
	}
	if err := conn.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}
