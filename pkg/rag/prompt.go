package rag

import (
	"fmt"
	"strings"

	"github.com/edgeflare/pgrag/pkg/store"
)

// FallbackAnswer is the answer the template instructs the generator to give
// when the context does not contain the information.
const FallbackAnswer = "The information is not available in the provided context."

// promptTemplate has exactly two placeholders: the concatenated retrieved
// chunk texts and the verbatim question.
const promptTemplate = `Answer the question using only the context below.
If the context does not contain the answer, reply exactly:
"%s"

Context:
%s

Question: %s`

const chunkSeparator = "\n\n---\n\n"

// buildPrompt assembles the bounded prompt from the retrieved chunks and the
// question.
func buildPrompt(results []store.Result, question string) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}
	return fmt.Sprintf(promptTemplate, FallbackAnswer, strings.Join(texts, chunkSeparator), question)
}
