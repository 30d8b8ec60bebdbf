package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/portfolioagent/portfolioagent/internal/bootstrap"
	"github.com/portfolioagent/portfolioagent/internal/retrieval"
)

var (
	indexEntries       string
	indexTextDir       string
	indexChunkSize     int
	indexOut           string
	indexElasticsearch bool
	indexPostgres      bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the document index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed portfolio documents and write the index",
	Long: `Reads a JSON array of entries (description, content or details fields)
and/or a directory of .txt and .md files, embeds every chunk with the
configured embedding model and writes the index file. With --elasticsearch or
--postgres the documents are also loaded into that backend.`,
	RunE: runIndexBuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)

	indexBuildCmd.Flags().StringVar(&indexEntries, "entries", "", "JSON file with an array of portfolio entries")
	indexBuildCmd.Flags().StringVar(&indexTextDir, "text-dir", "", "Directory of .txt and .md documents")
	indexBuildCmd.Flags().IntVar(&indexChunkSize, "chunk-size", retrieval.DefaultChunkSize, "Maximum characters per text chunk")
	indexBuildCmd.Flags().StringVarP(&indexOut, "out", "o", "", "Index file to write (default: configured index path)")
	indexBuildCmd.Flags().BoolVar(&indexElasticsearch, "elasticsearch", false, "Also bulk-load the configured Elasticsearch index")
	indexBuildCmd.Flags().BoolVar(&indexPostgres, "postgres", false, "Also insert into the configured Postgres table")
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if indexEntries == "" && indexTextDir == "" {
		return errors.New("nothing to index: set --entries and/or --text-dir")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var chunks []retrieval.Chunk
	if indexEntries != "" {
		c, err := retrieval.ReadEntries(indexEntries)
		if err != nil {
			return err
		}
		chunks = append(chunks, c...)
	}
	if indexTextDir != "" {
		c, err := retrieval.ReadTextDir(indexTextDir, indexChunkSize)
		if err != nil {
			return err
		}
		chunks = append(chunks, c...)
	}
	if len(chunks) == 0 {
		return errors.New("no text found to index")
	}

	embedder, cache := bootstrap.NewEmbedder(ctx, cfg)
	if cache != nil {
		defer cache.Close()
	}

	docs, failed := retrieval.EmbedChunks(ctx, embedder, chunks)
	if len(docs) == 0 {
		return fmt.Errorf("embedding failed for all %d chunks", failed)
	}
	log.Info().Int("documents", len(docs)).Int("failed", failed).Msg("chunks embedded")

	out := indexOut
	if out == "" {
		out = cfg.IndexPath
	}
	if err := retrieval.SaveIndexFile(out, cfg.EmbedModel, docs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d documents to %s\n", len(docs), out)

	if indexElasticsearch {
		es, err := retrieval.NewElasticsearchIndex(bootstrap.ElasticsearchOptions(cfg))
		if err != nil {
			return err
		}
		if err := es.EnsureIndex(ctx, len(docs[0].Embedding)); err != nil {
			return err
		}
		if err := es.BulkIndex(ctx, docs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into Elasticsearch index %s\n", len(docs), cfg.ElasticsearchIndex)
	}

	if indexPostgres {
		if cfg.PostgresURL == "" {
			return errors.New("--postgres requires POSTGRES_URL")
		}
		if err := retrieval.SavePostgres(ctx, cfg.PostgresURL, cfg.PostgresTable, docs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d documents into Postgres table %s\n", len(docs), cfg.PostgresTable)
	}
	return nil
}
