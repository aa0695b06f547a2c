// Package llm defines the embedding and text-generation collaborators and
// ships two providers: an OpenAI-compatible HTTP client (works with ollama)
// and a hosted-OpenAI client.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmbedding marks a failure of the embedding service.
	ErrEmbedding = errors.New("embedding service error")
	// ErrGeneration marks a failure of the generation service.
	ErrGeneration = errors.New("generation service error")
)

// Embedder produces fixed-dimension float vectors for input texts.
// The same embedder must be used at ingest and query time; mixing models
// invalidates distance semantics.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Dimensions() int
}

// Generator performs a single-turn text-generation call. No memory is kept
// across calls.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedOne embeds a single text and returns its vector.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrEmbedding, len(vecs))
	}
	return vecs[0], nil
}
