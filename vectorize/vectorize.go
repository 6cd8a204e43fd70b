// Package vectorize provides embedding providers and decorators that
// turn text into float32 vectors for vector search.
package vectorize

import "context"

// Vectorizer converts text into embedding vectors. Implementations are
// safe for concurrent use.
type Vectorizer interface {
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions reports the vector width, or 0 when unknown.
	Dimensions() int
	// Model reports the model identifier.
	Model() string
}

var (
	_ Vectorizer = (*OpenAI)(nil)
	_ Vectorizer = (*Ollama)(nil)
	_ Vectorizer = (*Cached)(nil)
	_ Vectorizer = (*Instruction)(nil)
)

// batchify splits texts into chunks of at most size elements.
func batchify(texts []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var chunks [][]string
	for len(texts) > size {
		chunks = append(chunks, texts[:size])
		texts = texts[size:]
	}
	if len(texts) > 0 {
		chunks = append(chunks, texts)
	}
	return chunks
}
