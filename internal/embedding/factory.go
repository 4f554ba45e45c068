package embedding

import "github.com/lytics/dev-agent-sub000/internal/config"

// NewFromConfig builds the Embedder the rest of the module uses:
// an OpenAI-compatible remote backend when EmbeddingBaseURL is set,
// otherwise the local hugot-backed model (the default equivalent of
// all-MiniLM-L6-v2).
func NewFromConfig(cfg config.AppConfig) *Embedder {
	var backend Backend
	if cfg.EmbeddingBaseURL() != "" {
		backend = NewOpenAIBackend(cfg.EmbeddingBaseURL(), cfg.EmbeddingAPIKey(), cfg.EmbeddingModel())
	} else {
		backend = NewHugotBackend(cfg.EmbeddingModel(), cfg.EmbeddingCacheDir())
	}
	return New(backend, cfg.EmbeddingBatchSize())
}
