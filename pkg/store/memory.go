package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/edgeflare/pgrag/pkg/chunker"
)

// Memory is an in-process Store with the same semantics as Postgres: exact
// Euclidean scan, ascending distance, ties broken by insertion order. Useful
// for tests and small corpora that don't warrant a database.
type Memory struct {
	mu     sync.RWMutex
	recs   []memRecord
	nextID int64
	dims   int
}

type memRecord struct {
	content string
	source  string
	title   string
	vec     []float32
	id      int64
}

// NewMemory returns an empty in-memory store for vectors of the given dimension.
func NewMemory(dimensions int) *Memory {
	return &Memory{dims: dimensions, nextID: 1}
}

// Dimensions reports the store's configured embedding dimension.
func (m *Memory) Dimensions() int { return m.dims }

// ResetSchema discards all records. Idempotent.
func (m *Memory) ResetSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = nil
	m.nextID = 1
	return nil
}

// Add embeds and appends each chunk. A failed chunk aborts the batch; prior
// records remain, matching the Postgres store's per-row commit behavior.
func (m *Memory) Add(ctx context.Context, chunks []chunker.Chunk, embed EmbedFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, chunk := range chunks {
		vec, err := embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d (source %s): %w", i, chunk.Source, err)
		}
		if len(vec) != m.dims {
			return fmt.Errorf("chunk %d (source %s): %w: got %d, want %d",
				i, chunk.Source, ErrDimensionMismatch, len(vec), m.dims)
		}
		m.recs = append(m.recs, memRecord{
			id:      m.nextID,
			content: chunk.Text,
			source:  chunk.Source,
			title:   chunk.Title,
			vec:     append([]float32(nil), vec...),
		})
		m.nextID++
	}
	return nil
}

// SimilaritySearch scans all records and returns the k nearest, closest first.
func (m *Memory) SimilaritySearch(_ context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}
	if len(query) != m.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), m.dims)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		rec  memRecord
		dist float64
	}
	scoredRecs := make([]scored, len(m.recs))
	for i, rec := range m.recs {
		scoredRecs[i] = scored{rec: rec, dist: euclidean(query, rec.vec)}
	}

	sort.Slice(scoredRecs, func(i, j int) bool {
		if scoredRecs[i].dist != scoredRecs[j].dist {
			return scoredRecs[i].dist < scoredRecs[j].dist
		}
		return scoredRecs[i].rec.id < scoredRecs[j].rec.id
	})

	if k > len(scoredRecs) {
		k = len(scoredRecs)
	}
	results := make([]Result, 0, k)
	for _, s := range scoredRecs[:k] {
		results = append(results, Result{
			Content:  s.rec.content,
			Source:   s.rec.source,
			Title:    s.rec.title,
			Distance: s.dist,
		})
	}
	return results, nil
}

// Count reports the number of stored records.
func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.recs)), nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
