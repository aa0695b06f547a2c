package store

import (
	"context"
	"testing"

	"github.com/edgeflare/pgrag/internal/testutil/pgtest"
	"github.com/edgeflare/pgrag/pkg/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	s, err := NewPostgres(ctx, pgtest.ConnString(t), Config{
		TableName:  "pgrag_test_chunks",
		Dimensions: 3,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.ResetSchema(ctx))
	return s
}

func TestPostgresResetSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Calling twice in a row leaves the store in the same empty state.
	require.NoError(t, s.ResetSchema(ctx))
	require.NoError(t, s.ResetSchema(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresSchemaColumns(t *testing.T) {
	ctx := context.Background()
	_ = newTestStore(t)

	conn := pgtest.Connect(ctx, t)
	for _, col := range []string{"id", "content", "source", "title", "embedding"} {
		var exists bool
		err := conn.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2)",
			"pgrag_test_chunks", col).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "column %s missing", col)
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chunks := []chunker.Chunk{
		{Text: "alpha", Source: "doc-a", Title: "A"},
		{Text: "beta", Source: "doc-b"},
	}
	embed := fixedEmbed(map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
	})
	require.NoError(t, s.Add(ctx, chunks, embed))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Content)
	assert.Equal(t, "doc-a", results[0].Source)
	assert.Equal(t, "A", results[0].Title)
	assert.Zero(t, results[0].Distance)

	// Nullable title scans as empty string.
	results, err = s.SimilaritySearch(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Title)
}

func TestPostgresOrderingAndBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chunks := []chunker.Chunk{
		{Text: "far", Source: "a"},
		{Text: "near", Source: "a"},
		{Text: "mid", Source: "a"},
	}
	embed := fixedEmbed(map[string][]float32{
		"far":  {10, 0, 0},
		"near": {1, 0, 0},
		"mid":  {5, 0, 0},
	})
	require.NoError(t, s.Add(ctx, chunks, embed))

	results, err := s.SimilaritySearch(ctx, []float32{0, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3, "k beyond record count returns all records")
	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, "mid", results[1].Content)
	assert.Equal(t, "far", results[2].Content)
}

func TestPostgresEmptyStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	results, err := s.SimilaritySearch(ctx, []float32{0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPostgresValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SimilaritySearch(ctx, []float32{0, 0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = s.SimilaritySearch(ctx, []float32{0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPostgresPartialBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chunks := []chunker.Chunk{
		{Text: "ok", Source: "a"},
		{Text: "boom", Source: "a"},
	}
	embed := fixedEmbed(map[string][]float32{"ok": {1, 0, 0}})

	err := s.Add(ctx, chunks, embed)
	require.Error(t, err)

	// The row inserted before the failure stays committed.
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
