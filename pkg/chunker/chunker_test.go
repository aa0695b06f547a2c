package chunker

import (
	"strings"
	"testing"

	"github.com/edgeflare/pgrag/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(text string) []loader.RawDocument {
	return []loader.RawDocument{{Source: "https://example.com/a", Title: "A", Text: text}}
}

func TestSplitParameterValidation(t *testing.T) {
	testCases := []struct {
		wantErr error
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0, wantErr: ErrInvalidChunkSize},
		{name: "negative size", size: -1, overlap: 0, wantErr: ErrInvalidChunkSize},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: ErrInvalidOverlap},
		{name: "overlap equals size", size: 10, overlap: 10, wantErr: ErrInvalidOverlap},
		{name: "overlap exceeds size", size: 10, overlap: 11, wantErr: ErrInvalidOverlap},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split(docs("hello"), tc.size, tc.overlap)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSplitShortDocument(t *testing.T) {
	chunks, err := Split(docs("short text"), 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, "https://example.com/a", chunks[0].Source)
	assert.Equal(t, "A", chunks[0].Title)
	assert.Zero(t, chunks[0].Overlap)
}

func TestSplitDocumentEqualToChunkSize(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks, err := Split(docs(text), 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitOverlapLaw(t *testing.T) {
	// 5000 characters at size 2048, overlap 256 must yield exactly 3 chunks.
	text := strings.Repeat("abcdefghij", 500)
	chunks, err := Split(docs(text), 2048, 256)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 2048, "chunk %d too long", i)
	}
	assert.Zero(t, chunks[0].Overlap)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		o := chunks[i].Overlap
		assert.Equal(t, 256, o)
		assert.Equal(t, string(prev[len(prev)-o:]), string(cur[:o]),
			"suffix of chunk %d must equal prefix of chunk %d", i-1, i)
	}

	// Removing the overlap prefix of every chunk after the first must
	// reconstruct the original document.
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for _, c := range chunks[1:] {
		b.WriteString(string([]rune(c.Text)[c.Overlap:]))
	}
	assert.Equal(t, text, b.String())
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 300)
	a, err := Split(docs(text), 512, 64)
	require.NoError(t, err)
	b, err := Split(docs(text), 512, 64)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitZeroOverlap(t *testing.T) {
	text := strings.Repeat("z", 25)
	chunks, err := Split(docs(text), 10, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0].Text))
	assert.Equal(t, 10, len(chunks[1].Text))
	assert.Equal(t, 5, len(chunks[2].Text))
}

func TestSplitMultiByte(t *testing.T) {
	// Sizes are in runes, not bytes.
	text := strings.Repeat("日本語テキスト分割", 10)
	chunks, err := Split(docs(text), 30, 5)
	require.NoError(t, err)
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 30, "chunk %d too long", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		assert.Equal(t, string(prev[len(prev)-5:]), string(cur[:5]))
	}
}

func TestSplitMultipleDocuments(t *testing.T) {
	input := []loader.RawDocument{
		{Source: "a", Title: "A", Text: strings.Repeat("a", 30)},
		{Source: "b", Title: "B", Text: strings.Repeat("b", 5)},
	}
	chunks, err := Split(input, 20, 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "a", chunks[0].Source)
	assert.Equal(t, "a", chunks[1].Source)
	assert.Equal(t, "b", chunks[2].Source)
	// Overlap does not leak across document boundaries.
	assert.Zero(t, chunks[2].Overlap)
}
