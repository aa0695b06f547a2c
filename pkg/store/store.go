// Package store persists chunk text with embedding vectors and serves
// nearest-neighbor similarity search under Euclidean distance.
package store

import (
	"context"
	"errors"

	"github.com/edgeflare/pgrag/pkg/chunker"
)

var (
	// ErrDimensionMismatch is returned when a vector's dimension differs from
	// the store's configured dimension. Enforced at ingest, not query time.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidTopK is returned for non-positive k.
	ErrInvalidTopK = errors.New("k must be positive")
)

// Result is a single similarity-search hit. Results are ephemeral: produced
// per query, never persisted.
type Result struct {
	Content  string
	Source   string
	Title    string
	Distance float64
}

// EmbedFunc computes the embedding vector for one chunk's text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Searcher is the read-side contract consumed by the query engine.
type Searcher interface {
	// SimilaritySearch returns the k stored records closest to query under
	// Euclidean distance, ascending, ties broken by insertion order. Fewer
	// than k results are returned if the store holds fewer records.
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]Result, error)
}

// Store is the full contract: batch ingest, reset, and search.
type Store interface {
	Searcher
	// ResetSchema drops and recreates the backing storage. Idempotent and
	// safe to call on a store that does not yet exist.
	ResetSchema(ctx context.Context) error
	// Add embeds each chunk via embed and appends a record. Rows commit
	// individually: a failed chunk aborts the batch but previously inserted
	// records remain (best-effort-partial, not all-or-nothing).
	Add(ctx context.Context, chunks []chunker.Chunk, embed EmbedFunc) error
	// Count reports the number of stored records.
	Count(ctx context.Context) (int64, error)
}
