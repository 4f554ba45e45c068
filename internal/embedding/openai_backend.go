package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIBatchMax bounds a single call to the remote embeddings endpoint.
const openAIBatchMax = 100

// OpenAIBackend embeds text through an OpenAI-compatible HTTP endpoint,
// used when an embedding base URL is configured instead of the local
// hugot model.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend returns an OpenAIBackend pointed at baseURL (which
// may be a self-hosted OpenAI-compatible server) using model for the
// embeddings request.
func NewOpenAIBackend(baseURL, apiKey, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Capacity returns the maximum number of texts per Embed call.
func (o *OpenAIBackend) Capacity() int { return openAIBatchMax }

// Embed generates embeddings for the given texts via the configured
// OpenAI-compatible endpoint.
func (o *OpenAIBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.model),
		Input: texts,
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// Close is a no-op: the HTTP client owns no resources that need
// explicit release.
func (o *OpenAIBackend) Close() error {
	return nil
}

var _ Backend = (*OpenAIBackend)(nil)
