package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// hugotBatchMax bounds a single call into the shared hugot pipeline.
const hugotBatchMax = 32

// ortSingleton holds the process-wide hugot session (created with
// hugot.NewGoSession, hugot's pure-Go backend) and its pipeline. Every
// HugotBackend in the process shares it. The mutex serializes both
// initialization and inference.
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// HugotBackend embeds text locally via a hugot feature-extraction
// pipeline on hugot's pure-Go backend, the default backend when no
// remote embedding endpoint is configured.
type HugotBackend struct {
	modelName string
	cacheDir  string
}

// NewHugotBackend returns a HugotBackend that looks for the named
// model's files under cacheDir. The files must already be there; none
// are downloaded or extracted.
func NewHugotBackend(modelName, cacheDir string) *HugotBackend {
	return &HugotBackend{modelName: modelName, cacheDir: cacheDir}
}

// Capacity returns the maximum number of texts per Embed call.
func (h *HugotBackend) Capacity() int { return hugotBatchMax }

func (h *HugotBackend) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	modelPath, err := h.resolveModelPath()
	if err != nil {
		_ = session.Destroy()
		return err
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "devagent-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// resolveModelPath locates the model subdirectory on disk, identified
// by the presence of tokenizer.json inside a directory whose name
// matches the configured model (or, failing that, the first model
// directory found under cacheDir).
func (h *HugotBackend) resolveModelPath() (string, error) {
	entries, err := os.ReadDir(h.cacheDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", h.cacheDir, err)
	}

	var fallback string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.cacheDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr != nil {
			continue
		}
		if entry.Name() == h.modelName {
			return candidate, nil
		}
		if fallback == "" {
			fallback = candidate
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", h.cacheDir)
}

// Embed generates embeddings for the given texts using the local model.
func (h *HugotBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("initialize hugot: %w", err)
	}

	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	return result.Embeddings, nil
}

// Close is a no-op: the hugot session is process-global and
// cleaned up when the process exits.
func (h *HugotBackend) Close() error {
	return nil
}

var _ Backend = (*HugotBackend)(nil)
