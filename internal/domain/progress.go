package domain

// Phase names an indexing run's stage.
type Phase string

// Phase values.
const (
	PhaseDiscovery Phase = "discovery"
	PhaseScanning  Phase = "scanning"
	PhaseEmbedding Phase = "embedding"
	PhaseStoring   Phase = "storing"
	PhaseComplete  Phase = "complete"
)

// ProgressEvent reports indexing progress to a caller-supplied callback.
// Callbacks must observe monotonically non-decreasing FilesProcessed and
// strictly increasing PercentComplete across phases.
type ProgressEvent struct {
	Phase              Phase
	FilesProcessed     int
	Total              int
	DocumentsExtracted int
	PercentComplete    float64
}

// ProgressCallback receives ProgressEvent notifications during a run.
// A nil callback is always safe to invoke through Emit.
type ProgressCallback func(ProgressEvent)

// Emit calls cb if non-nil; it centralizes the nil-check so callers
// never need an `if cb != nil` guard at every emission site.
func Emit(cb ProgressCallback, ev ProgressEvent) {
	if cb != nil {
		cb(ev)
	}
}

// IndexingError records a single failure encountered during a batch
// pipeline run without aborting the whole run.
type IndexingError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (e IndexingError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return e.File + ": " + e.Message
}
