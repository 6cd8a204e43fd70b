package vectorize

import "context"

// Instruction decorates a Vectorizer by prepending a fixed instruction
// prefix to every text, as asymmetric models (nomic, e5) expect
// ("search_query: ", "passage: "). Wrap outside any cache so the cache
// key includes the instruction.
type Instruction struct {
	inner  Vectorizer
	prefix string
}

// NewInstruction wraps a vectorizer with an instruction prefix.
func NewInstruction(inner Vectorizer, prefix string) *Instruction {
	return &Instruction{inner: inner, prefix: prefix}
}

// Embed implements Vectorizer.
func (i *Instruction) Embed(ctx context.Context, text string) ([]float32, error) {
	return i.inner.Embed(ctx, i.prefix+text)
}

// EmbedBatch implements Vectorizer.
func (i *Instruction) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	prefixed := make([]string, len(texts))
	for j, t := range texts {
		prefixed[j] = i.prefix + t
	}
	return i.inner.EmbedBatch(ctx, prefixed)
}

// Dimensions delegates to the inner vectorizer.
func (i *Instruction) Dimensions() int { return i.inner.Dimensions() }

// Model delegates to the inner vectorizer.
func (i *Instruction) Model() string { return i.inner.Model() }
