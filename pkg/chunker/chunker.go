// Package chunker splits documents into overlapping fixed-size text segments,
// the unit of embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"

	"github.com/edgeflare/pgrag/pkg/loader"
)

var (
	// ErrInvalidChunkSize is returned when chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrInvalidOverlap is returned when overlap is negative or not smaller
	// than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must satisfy 0 <= overlap < chunk size")
)

// Chunk is a bounded-length segment of a source document. Overlap is the
// number of characters repeated from the end of the preceding chunk; it is
// zero for the first chunk of each document.
type Chunk struct {
	Text    string
	Source  string
	Title   string
	Overlap int
}

// Split chunks each document's text into consecutive segments of at most size
// runes, where each segment after the first repeats the final overlap runes of
// its predecessor. Splitting is deterministic: the same input always yields
// the same ordered sequence. A document shorter than size yields exactly one
// chunk equal to the whole document.
func Split(docs []loader.RawDocument, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidOverlap, size, overlap)
	}

	var chunks []Chunk
	for _, doc := range docs {
		for i, text := range splitText(doc.Text, size, overlap) {
			c := Chunk{
				Text:   text,
				Source: doc.Source,
				Title:  doc.Title,
			}
			if i > 0 {
				c.Overlap = min(overlap, len([]rune(text)))
			}
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// splitText walks the rune slice in steps of size-overlap so consecutive
// windows share exactly overlap runes at their boundary.
func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
