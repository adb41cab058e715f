package archive

import (
	"context"
	"path/filepath"

	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/state"
)

// Recorder adds preserved sessions to the index in their output directory.
type Recorder struct {
	baseDir string
}

// NewRecorder creates a Recorder. Relative output directories are resolved
// against baseDir.
func NewRecorder(baseDir string) *Recorder {
	return &Recorder{baseDir: baseDir}
}

// IndexPath returns the index location for an output directory.
func IndexPath(baseDir, outputDir string) string {
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(baseDir, outputDir)
	}
	return filepath.Join(outputDir, IndexFile)
}

// Archive records a completed preservation. Disabled preservations are not
// recorded, so nothing is created in the output directory.
func (r *Recorder) Archive(ctx context.Context, st *state.State, res artifact.Result) error {
	if res.Disabled() {
		return nil
	}

	idx, err := Open(IndexPath(r.baseDir, st.OutputDir))
	if err != nil {
		return err
	}
	defer idx.Close()

	m := res.Manifest
	return idx.Record(ctx, Entry{
		SessionID:              m.SessionID,
		Destination:            res.Destination,
		Iterations:             m.Iterations,
		DistillationIterations: m.DistillationIterations,
		Confidence:             m.Confidence.String(),
		Thesis:                 m.Thesis,
		Files:                  m.Files,
		PreservedAt:            m.PreservedAt,
	})
}
