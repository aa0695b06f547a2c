package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/edgeflare/pgrag/pkg/chunker"
	"github.com/edgeflare/pgrag/pkg/llm"
	"github.com/edgeflare/pgrag/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns canned vectors keyed by text; unknown texts embed to
// the zero vector.
type fakeEmbedder struct {
	vectors map[string][]float32
	dims    int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, input []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(input))
	for i, text := range input {
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = make([]float32, f.dims)
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func seededStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory(2)
	chunks := []chunker.Chunk{
		{Text: "widgets are blue", Source: "https://example.com/widgets", Title: "Widgets"},
		{Text: "gadgets are red", Source: "https://example.com/gadgets", Title: "Gadgets"},
	}
	err := m.Add(context.Background(), chunks, func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "widgets") {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	})
	require.NoError(t, err)
	return m
}

func TestAnswer(t *testing.T) {
	emb := &fakeEmbedder{
		dims:    2,
		vectors: map[string][]float32{"what color are widgets?": {1, 0}},
	}
	gen := &fakeGenerator{response: "Widgets are blue."}
	engine := New(seededStore(t), emb, gen)

	answer, err := engine.Answer(context.Background(), "what color are widgets?")
	require.NoError(t, err)

	assert.Equal(t, "Widgets are blue.", answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "https://example.com/widgets", answer.Sources[0].Source)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "widgets are blue", "prompt carries retrieved chunk text")
	assert.Contains(t, prompt, "Question: what color are widgets?", "prompt carries the verbatim question")
	assert.Contains(t, prompt, FallbackAnswer, "prompt instructs the fallback")
}

func TestAnswerTopK(t *testing.T) {
	emb := &fakeEmbedder{dims: 2, vectors: map[string][]float32{"q": {1, 0}}}
	gen := &fakeGenerator{response: "ok"}
	engine := New(seededStore(t), emb, gen, WithTopK(1))

	answer, err := engine.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 1)
}

func TestAnswerEmptyStoreCallsGenerator(t *testing.T) {
	emb := &fakeEmbedder{dims: 2}
	gen := &fakeGenerator{response: FallbackAnswer}
	engine := New(store.NewMemory(2), emb, gen)

	answer, err := engine.Answer(context.Background(), "anything")
	require.NoError(t, err)

	// Default behavior: the generator is still called with empty context and
	// the template's fallback instruction.
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, FallbackAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAnswerEmptyStoreShortCircuit(t *testing.T) {
	emb := &fakeEmbedder{dims: 2}
	gen := &fakeGenerator{response: "should not be used"}
	engine := New(store.NewMemory(2), emb, gen, WithEmptyContextShortCircuit())

	answer, err := engine.Answer(context.Background(), "anything")
	require.NoError(t, err)

	assert.Empty(t, gen.prompts, "short circuit skips the generator")
	assert.Equal(t, FallbackAnswer, answer.Text)
}

func TestAnswerEmbedderFailure(t *testing.T) {
	emb := &fakeEmbedder{dims: 2, err: llm.ErrEmbedding}
	gen := &fakeGenerator{}
	engine := New(seededStore(t), emb, gen)

	_, err := engine.Answer(context.Background(), "q")
	require.ErrorIs(t, err, llm.ErrEmbedding)
	assert.Empty(t, gen.prompts)
}

func TestAnswerGeneratorFailure(t *testing.T) {
	emb := &fakeEmbedder{dims: 2}
	gen := &fakeGenerator{err: llm.ErrGeneration}
	engine := New(seededStore(t), emb, gen)

	_, err := engine.Answer(context.Background(), "q")
	require.ErrorIs(t, err, llm.ErrGeneration)
}

func TestAnswerRetrieverFailure(t *testing.T) {
	emb := &fakeEmbedder{dims: 3} // mismatched with the 2-dim store
	gen := &fakeGenerator{}
	engine := New(seededStore(t), emb, gen)

	_, err := engine.Answer(context.Background(), "q")
	require.ErrorIs(t, err, store.ErrDimensionMismatch)
}

func TestBuildPromptSeparatesChunks(t *testing.T) {
	results := []store.Result{
		{Content: "first chunk"},
		{Content: "second chunk"},
	}
	prompt := buildPrompt(results, "the question")

	first := strings.Index(prompt, "first chunk")
	sep := strings.Index(prompt, chunkSeparator)
	second := strings.Index(prompt, "second chunk")
	require.Greater(t, first, -1)
	require.Greater(t, sep, first)
	require.Greater(t, second, sep)
}
