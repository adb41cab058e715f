// Package artifact copies the session's working files out of the state
// directory before it is removed, and records what was kept in a manifest.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/state"
)

// ManifestFile is written into every preservation directory.
const ManifestFile = "manifest.json"

// Manifest describes one preserved session.
type Manifest struct {
	SessionID              string            `json:"session_id"`
	PreservedAt            time.Time         `json:"preserved_at"`
	Requested              []string          `json:"requested"`
	Files                  []string          `json:"files"`
	Iterations             int               `json:"iterations"`
	DistillationIterations int               `json:"distillation_iterations"`
	Confidence             *state.Confidence `json:"confidence,omitempty"`
	Thesis                 string            `json:"thesis,omitempty"`
}

// Result is what Preserve produced. A zero Result means preservation was
// disabled.
type Result struct {
	Destination string
	Manifest    Manifest
}

// Disabled reports whether nothing was preserved because keep_artifacts was
// "none".
func (r Result) Disabled() bool {
	return r.Destination == ""
}

// Preserver copies artifacts from a state directory into
// <output_dir>/<session_id>/.
type Preserver struct {
	stateDir string
	baseDir  string
	now      func() time.Time
	logger   *logging.Logger
}

// Option customizes a Preserver.
type Option func(*Preserver)

// WithClock overrides the manifest timestamp clock.
func WithClock(clock func() time.Time) Option {
	return func(p *Preserver) {
		p.now = clock
	}
}

// WithLogger overrides the logger used for skipped names.
func WithLogger(l *logging.Logger) Option {
	return func(p *Preserver) {
		p.logger = l
	}
}

// NewPreserver creates a Preserver reading from stateDir. Relative output
// directories are resolved against baseDir.
func NewPreserver(stateDir, baseDir string, opts ...Option) *Preserver {
	p := &Preserver{
		stateDir: stateDir,
		baseDir:  baseDir,
		now:      time.Now,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve expands a keep_artifacts set into known artifact names, in
// preservation order. Unknown names are returned separately.
func Resolve(set state.ArtifactSet) (names, unknown []string) {
	if set.IsNone() {
		return nil, nil
	}
	if set.IsAll() {
		return append([]string(nil), state.ArtifactNames...), nil
	}

	wanted := make(map[string]bool, len(set))
	for _, raw := range set {
		name := normalize(raw)
		if name == state.ArtifactsNone || name == "" {
			continue
		}
		if _, ok := state.ArtifactFile(name); !ok {
			unknown = append(unknown, raw)
			continue
		}
		wanted[name] = true
	}
	for _, name := range state.ArtifactNames {
		if wanted[name] {
			names = append(names, name)
		}
	}
	return names, unknown
}

// Destination returns where artifacts for st would be written.
func (p *Preserver) Destination(st *state.State) string {
	dir := st.OutputDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.baseDir, dir)
	}
	return filepath.Join(dir, sanitizeSessionID(st.SessionID))
}

// Preserve copies the requested artifacts that exist and writes the
// manifest. Missing artifact files are skipped. With keep_artifacts "none"
// nothing is touched and a zero Result is returned.
func (p *Preserver) Preserve(st *state.State) (Result, error) {
	if st.KeepArtifacts.IsNone() {
		p.logger.Info("artifact preservation disabled", "session", st.SessionID)
		return Result{}, nil
	}

	names, unknown := Resolve(st.KeepArtifacts)
	for _, name := range unknown {
		p.logger.Warn("skipping unknown artifact name", "name", name)
	}

	dest := p.Destination(st)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	manifest := Manifest{
		SessionID:              st.SessionID,
		PreservedAt:            p.now().UTC(),
		Requested:              names,
		Files:                  []string{},
		Iterations:             st.Iteration,
		DistillationIterations: st.DistillationIteration,
		Confidence:             st.Thesis.Confidence,
		Thesis:                 st.Thesis.Preview(),
	}
	if manifest.Requested == nil {
		manifest.Requested = []string{}
	}

	for _, name := range names {
		file, _ := state.ArtifactFile(name)
		copied, err := copyFile(filepath.Join(p.stateDir, file), filepath.Join(dest, file))
		if err != nil {
			return Result{}, fmt.Errorf("failed to preserve %s: %w", name, err)
		}
		if !copied {
			p.logger.Debug("artifact not present, skipping", "name", name)
			continue
		}
		manifest.Files = append(manifest.Files, file)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write manifest: %w", err)
	}

	p.logger.Info("artifacts preserved", "session", st.SessionID, "destination", dest, "files", len(manifest.Files))
	return Result{Destination: dest, Manifest: manifest}, nil
}

// ReadManifest loads the manifest from a preservation directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// copyFile copies src to dst. It reports false without error when src does
// not exist.
func copyFile(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, err
	}
	return true, out.Close()
}
