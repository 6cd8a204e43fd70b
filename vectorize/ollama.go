package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama embeds text through a local Ollama instance.
type Ollama struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// OllamaConfig holds the provider settings.
type OllamaConfig struct {
	BaseURL string        // default http://localhost:11434
	Model   string        // default nomic-embed-text
	Timeout time.Duration // default 30s
}

// ollamaDimensions maps known embedding models to their vector width.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"bge-m3":            1024,
	"all-minilm":        384,
}

// NewOllama creates an Ollama embedding provider.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Ollama{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: ollamaDimensions[cfg.Model],
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements Vectorizer.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %v: %w", err, ErrProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s: %w",
			resp.StatusCode, string(respBody), ErrProviderError)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, ErrProviderError)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response: %w", ErrProviderError)
	}

	vec := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch implements Vectorizer. The Ollama embeddings endpoint is
// single-prompt, so texts are embedded one request at a time.
func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := o.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions reports the vector width for known models, 0 otherwise.
func (o *Ollama) Dimensions() int { return o.dimensions }

// Model reports the model identifier.
func (o *Ollama) Model() string { return o.model }
