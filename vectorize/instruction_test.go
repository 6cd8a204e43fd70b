package vectorize

import (
	"context"
	"reflect"
	"testing"
)

func TestInstruction_Embed(t *testing.T) {
	inner := &stubVectorizer{}
	v := NewInstruction(inner, "search_query: ")

	vec, err := v.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vec, stubVector("search_query: hello")) {
		t.Error("prefix was not applied before embedding")
	}
}

func TestInstruction_EmbedBatch(t *testing.T) {
	inner := &stubVectorizer{}
	v := NewInstruction(inner, "passage: ")

	vecs, err := v.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float32{stubVector("passage: a"), stubVector("passage: b")}
	if !reflect.DeepEqual(vecs, want) {
		t.Error("prefix was not applied to every text")
	}
}

func TestInstruction_Delegates(t *testing.T) {
	v := NewInstruction(&stubVectorizer{}, "q: ")
	if v.Dimensions() != 4 {
		t.Errorf("Dimensions() = %d, want 4", v.Dimensions())
	}
	if v.Model() != "stub-model" {
		t.Errorf("Model() = %q, want stub-model", v.Model())
	}
}
