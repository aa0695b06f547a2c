package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgeflare/pgrag/pkg/chunker"
	"github.com/edgeflare/pgrag/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"
)

// Config holds the configuration for the Postgres store.
type Config struct {
	TableName  string
	Dimensions int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TableName:  "rag_chunks",
		Dimensions: 1024,
	}
}

// Postgres stores chunks and embeddings in a pgvector-enabled table.
//
// Writes (Add, ResetSchema) are serialized by a mutex so concurrent ingests
// cannot interleave partial batches. Reads go through the pool and run
// concurrently; Postgres MVCC gives each query a consistent snapshot, so a
// search never observes a half-written batch.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	cfg    Config
	mu     sync.Mutex
}

// NewPostgres connects a pool to connString and prepares it for vector use:
// the vector extension is created if missing and pgvector types are
// registered on every pooled connection.
func NewPostgres(ctx context.Context, connString string, cfg Config, loggers ...*zap.Logger) (*Postgres, error) {
	var logger *zap.Logger
	if len(loggers) > 0 && loggers[0] != nil {
		logger = loggers[0]
	} else {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	return &Postgres{pool: pool, cfg: cfg, logger: logger}, nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// Dimensions reports the store's configured embedding dimension.
func (s *Postgres) Dimensions() int {
	return s.cfg.Dimensions
}

// ResetSchema drops and recreates the chunk table.
func (s *Postgres) ResetSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.cfg.TableName)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGINT PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY,
			content TEXT NOT NULL,
			source VARCHAR(2048) NOT NULL,
			title VARCHAR(1024),
			embedding vector(%d) NOT NULL
		)`, s.cfg.TableName, s.cfg.Dimensions)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	s.logger.Info("schema reset", zap.String("table", s.cfg.TableName), zap.Int("dimensions", s.cfg.Dimensions))
	return nil
}

// Add embeds each chunk and inserts one row per chunk. Each row commits on
// its own, so a failure partway through leaves earlier rows in place; the
// error names the chunk that failed.
func (s *Postgres) Add(ctx context.Context, chunks []chunker.Chunk, embed EmbedFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(
		"INSERT INTO %s (content, source, title, embedding) VALUES ($1, $2, $3, $4)",
		s.cfg.TableName,
	)

	for i, chunk := range chunks {
		vec, err := embed(ctx, chunk.Text)
		if err != nil {
			metrics.IngestFailures.WithLabelValues("embed").Inc()
			return fmt.Errorf("failed to embed chunk %d (source %s): %w", i, chunk.Source, err)
		}
		if len(vec) != s.cfg.Dimensions {
			metrics.IngestFailures.WithLabelValues("embed").Inc()
			return fmt.Errorf("chunk %d (source %s): %w: got %d, want %d",
				i, chunk.Source, ErrDimensionMismatch, len(vec), s.cfg.Dimensions)
		}

		var title *string
		if chunk.Title != "" {
			title = &chunk.Title
		}

		if _, err := s.pool.Exec(ctx, query, chunk.Text, chunk.Source, title, pgvector.NewVector(vec)); err != nil {
			metrics.IngestFailures.WithLabelValues("insert").Inc()
			return fmt.Errorf("failed to insert chunk %d (source %s): %w", i, chunk.Source, err)
		}
		metrics.IngestedChunks.Inc()
	}

	s.logger.Info("chunks stored", zap.Int("count", len(chunks)), zap.String("table", s.cfg.TableName))
	return nil
}

// SimilaritySearch returns the k nearest records under Euclidean distance,
// closest first, ties broken by lower id.
func (s *Postgres) SimilaritySearch(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}
	if len(query) != s.cfg.Dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), s.cfg.Dimensions)
	}

	queryStr := fmt.Sprintf(`
		SELECT content, source, COALESCE(title, ''), embedding <-> $1
		FROM %s
		ORDER BY embedding <-> $1, id
		LIMIT $2`, s.cfg.TableName)

	rows, err := s.pool.Query(ctx, queryStr, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Content, &r.Source, &r.Title, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	metrics.RetrievedResults.Add(float64(len(results)))
	return results, nil
}

// Count reports the number of stored records.
func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.cfg.TableName)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}
