package vectorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIBatchSize = 16

// OpenAI embeds text through an OpenAI-compatible embeddings API.
type OpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	batchSize  int
}

// OpenAIConfig holds the provider settings.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty for api.openai.com
	Model      string
	Dimensions int // 0 lets the model decide
	User       string
	BatchSize  int // texts per request in EmbedBatch, default 16
}

// NewOpenAI creates an OpenAI-compatible embedding provider.
func NewOpenAI(cfg *OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultOpenAIBatchSize
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		batchSize:  batchSize,
	}
}

// Embed implements Vectorizer.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.embedRequest(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Vectorizer. Texts are sent in chunks of the
// configured batch size.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, chunk := range batchify(texts, o.batchSize) {
		vecs, err := o.embedRequest(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Dimensions reports the configured vector width.
func (o *OpenAI) Dimensions() int { return o.dimensions }

// Model reports the model identifier.
func (o *OpenAI) Model() string { return string(o.model) }

func (o *OpenAI) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          o.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           o.user,
	}
	if o.dimensions > 0 {
		req.Dimensions = o.dimensions
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d texts: %w",
			len(resp.Data), len(texts), ErrProviderError)
	}

	// Порядок в ответе не гарантирован — восстанавливаем по Index.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// parseAPIError extracts a human-readable error from the API response,
// wrapping everything with ErrProviderError.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, ErrProviderError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, ErrProviderError)
	}

	return fmt.Errorf("embedding request failed: %v: %w", err, ErrProviderError)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
