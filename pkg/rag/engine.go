// Package rag answers natural-language questions by retrieving relevant
// chunks from a vector store and conditioning a text-generation call on them.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeflare/pgrag/pkg/llm"
	"github.com/edgeflare/pgrag/pkg/metrics"
	"github.com/edgeflare/pgrag/pkg/store"
	"go.uber.org/zap"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Answer is the result of a question: the generated text plus the chunks it
// was conditioned on, closest first.
type Answer struct {
	Text    string
	Sources []store.Result
}

// Engine wires a retriever, an embedder and a generator into the answer flow.
// The embedder must be the same one used at ingest time.
type Engine struct {
	retriever    store.Searcher
	embedder     llm.Embedder
	generator    llm.Generator
	logger       *zap.Logger
	topK         int
	shortCircuit bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets the number of chunks retrieved per question.
func WithTopK(k int) Option {
	return func(e *Engine) { e.topK = k }
}

// WithEmptyContextShortCircuit makes the engine return the fallback answer
// directly when retrieval yields nothing, instead of relying on the generator
// to honor the template instruction.
func WithEmptyContextShortCircuit() Option {
	return func(e *Engine) { e.shortCircuit = true }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine.
func New(retriever store.Searcher, embedder llm.Embedder, generator llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		embedder:  embedder,
		generator: generator,
		topK:      DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer embeds the question, retrieves the top-K nearest chunks, assembles
// the prompt and forwards it to the generator. When retrieval yields nothing
// the generator is still called with empty context (the template instructs
// the fallback), unless the short-circuit option is set.
func (e *Engine) Answer(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	vec, err := llm.EmbedOne(ctx, e.embedder, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := e.retriever.SimilaritySearch(ctx, vec, e.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	e.logger.Debug("retrieved context",
		zap.Int("results", len(results)),
		zap.Int("topK", e.topK))

	if len(results) == 0 && e.shortCircuit {
		return &Answer{Text: FallbackAnswer}, nil
	}

	text, err := e.generator.Generate(ctx, buildPrompt(results, question))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	return &Answer{Text: text, Sources: results}, nil
}
