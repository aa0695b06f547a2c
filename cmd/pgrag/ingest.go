package pgrag

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgeflare/pgrag/pkg/chunker"
	"github.com/edgeflare/pgrag/pkg/llm"
	"github.com/edgeflare/pgrag/pkg/loader"
	"github.com/edgeflare/pgrag/pkg/metrics"
	"github.com/edgeflare/pgrag/pkg/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	prometheusEnabled bool
	prometheusAddr    string
	resetBeforeIngest bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [sources...]",
	Short: "Load, chunk, embed and store documents",
	Long:  `Fetches each source, splits it into overlapping chunks, embeds them and appends the records to the vector store.`,
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.IntP("ingest.chunkSize", "s", 0, "Chunk size in characters")
	f.IntP("ingest.chunkOverlap", "o", 0, "Overlap between consecutive chunks in characters")
	f.BoolVar(&resetBeforeIngest, "reset", false, "Drop and recreate the store before ingesting")
	f.BoolVar(&prometheusEnabled, "prometheus", false, "Expose Prometheus metrics during ingest")
	f.StringVar(&prometheusAddr, "prometheus-addr", ":9100", "Prometheus metrics listen address")

	viper.BindPFlags(f)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	if prometheusEnabled {
		metrics.StartPrometheusServer(ctx, &wg, &metrics.PromServerOpts{Addr: prometheusAddr})
	}

	if v, _ := cmd.Flags().GetInt("ingest.chunkSize"); v > 0 {
		cfg.Ingest.ChunkSize = v
	}
	if v, _ := cmd.Flags().GetInt("ingest.chunkOverlap"); cmd.Flags().Changed("ingest.chunkOverlap") {
		cfg.Ingest.ChunkOverlap = v
	}

	sources := args
	if len(sources) == 0 {
		sources = cfg.Ingest.Sources
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources given: pass them as arguments or set ingest.sources")
	}

	batchID := uuid.NewString()
	logger.Info("starting ingest",
		zap.String("batch", batchID),
		zap.Int("sources", len(sources)),
		zap.Int("chunkSize", cfg.Ingest.ChunkSize),
		zap.Int("chunkOverlap", cfg.Ingest.ChunkOverlap))

	l := loader.NewLoader(loader.NewHTTPFetcher(logger), logger)
	docs, failed := l.Load(ctx, sources)
	for _, f := range failed {
		metrics.IngestFailures.WithLabelValues("fetch").Inc()
		logger.Warn("source failed", zap.String("batch", batchID), zap.Error(f))
	}
	if len(docs) == 0 {
		return fmt.Errorf("all %d sources failed", len(sources))
	}

	chunks, err := chunker.Split(docs, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return err
	}

	st, err := store.NewPostgres(ctx, cfg.Store.ConnString, store.Config{
		TableName:  cfg.Store.TableName,
		Dimensions: cfg.Store.Dimensions,
	}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if resetBeforeIngest {
		if err := st.ResetSchema(ctx); err != nil {
			return err
		}
	}

	embedder, _ := newProvider(logger)
	err = st.Add(ctx, chunks, func(ctx context.Context, text string) ([]float32, error) {
		return llm.EmbedOne(ctx, embedder, text)
	})
	if err != nil {
		return err
	}

	total, err := st.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d chunks from %d sources (%d failed); store now holds %d records\n",
		len(chunks), len(docs), len(failed), total)
	cancel()
	wg.Wait()
	return nil
}
