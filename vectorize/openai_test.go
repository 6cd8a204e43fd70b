package vectorize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

type embeddingsHandler struct {
	t       *testing.T
	status  int
	body    string
	vectors func(inputs []string) [][]float32
	reverse bool
	gotAuth string
	gotPath string
	calls   int
}

func (h *embeddingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.gotAuth = r.Header.Get("Authorization")
	h.gotPath = r.URL.Path

	if h.status != 0 {
		w.WriteHeader(h.status)
		_, _ = w.Write([]byte(h.body))
		return
	}

	var req struct {
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.t.Fatalf("decode request: %v", err)
	}

	vecs := h.vectors(req.Input)
	type datum struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}
	data := make([]datum, len(vecs))
	for i, v := range vecs {
		data[i] = datum{Index: i, Embedding: v}
	}
	if h.reverse {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  "test-model",
	})
}

func newOpenAITest(t *testing.T, h *embeddingsHandler) (*OpenAI, *embeddingsHandler) {
	t.Helper()
	if h == nil {
		h = &embeddingsHandler{}
	}
	h.t = t
	if h.vectors == nil {
		h.vectors = func(inputs []string) [][]float32 {
			out := make([][]float32, len(inputs))
			for i := range inputs {
				out[i] = stubVector(inputs[i])
			}
			return out
		}
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewOpenAI(&OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
	}), h
}

func TestOpenAI_Embed(t *testing.T) {
	v, h := newOpenAITest(t, nil)

	vec, err := v.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vec, stubVector("hello")) {
		t.Errorf("unexpected vector: %v", vec)
	}
	if h.gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q, want bearer token", h.gotAuth)
	}
	if h.gotPath != "/v1/embeddings" {
		t.Errorf("path = %q, want /v1/embeddings", h.gotPath)
	}
}

func TestOpenAI_EmbedBatch_RestoresOrder(t *testing.T) {
	v, _ := newOpenAITest(t, &embeddingsHandler{reverse: true})

	texts := []string{"a", "b", "c"}
	vecs, err := v.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, text := range texts {
		if !reflect.DeepEqual(vecs[i], stubVector(text)) {
			t.Errorf("vecs[%d] is not the embedding of %q", i, text)
		}
	}
}

func TestOpenAI_EmbedBatch_Chunks(t *testing.T) {
	h := &embeddingsHandler{}
	h.t = t
	h.vectors = func(inputs []string) [][]float32 {
		if len(inputs) > 2 {
			t.Errorf("chunk size %d exceeds batch size 2", len(inputs))
		}
		out := make([][]float32, len(inputs))
		for i := range inputs {
			out[i] = stubVector(inputs[i])
		}
		return out
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	v := NewOpenAI(&OpenAIConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL + "/v1",
		Model:     "test-model",
		BatchSize: 2,
	})

	vecs, err := v.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(vecs))
	}
	if h.calls != 3 {
		t.Errorf("request count = %d, want 3", h.calls)
	}
}

func TestOpenAI_APIError(t *testing.T) {
	v, _ := newOpenAITest(t, &embeddingsHandler{
		status: http.StatusTooManyRequests,
		body:   `{"detail": "rate limit exceeded"}`,
	})

	_, err := v.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q does not mention the status code", err)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error %q does not carry the detail", err)
	}
}

func TestOpenAI_EmbedBatch_Empty(t *testing.T) {
	v, h := newOpenAITest(t, nil)

	vecs, err := v.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil result, got %v", vecs)
	}
	if h.calls != 0 {
		t.Errorf("expected no requests, got %d", h.calls)
	}
}

func TestBatchify(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		size  int
		want  [][]string
	}{
		{"empty", nil, 3, nil},
		{"single chunk", []string{"a", "b"}, 3, [][]string{{"a", "b"}}},
		{"exact", []string{"a", "b"}, 2, [][]string{{"a", "b"}}},
		{"split", []string{"a", "b", "c"}, 2, [][]string{{"a", "b"}, {"c"}}},
		{"size floor", []string{"a", "b"}, 0, [][]string{{"a"}, {"b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := batchify(tt.texts, tt.size); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("batchify() = %v, want %v", got, tt.want)
			}
		})
	}
}
