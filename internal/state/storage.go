package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thruflo/dialectic/internal/logging"
)

// File and directory names under the project root.
const (
	StateDirName = ".claude/dialectic"
	StateFile    = "state.json"
	PromptFile   = "prompt.md"
)

// Store handles the session state directory.
type Store struct {
	basePath string
	now      func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used when hydrating session ids.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore creates a Store rooted at the project directory. State lives in
// .claude/dialectic/ below it.
func NewStore(basePath string, opts ...StoreOption) *Store {
	s := &Store{basePath: basePath, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the session state directory.
func (s *Store) Dir() string {
	return filepath.Join(s.basePath, filepath.FromSlash(StateDirName))
}

// StatePath returns the path of state.json.
func (s *Store) StatePath() string {
	return filepath.Join(s.Dir(), StateFile)
}

// ArtifactPath returns the path of a logical artifact inside the state
// directory.
func (s *Store) ArtifactPath(name string) (string, bool) {
	file, ok := ArtifactFile(name)
	if !ok {
		return "", false
	}
	return filepath.Join(s.Dir(), file), true
}

// Exists reports whether a state file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.StatePath())
	return err == nil
}

// Load reads and hydrates state.json. A missing or unparseable file means no
// session is active and yields nil, nil.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	st, err := Decode(data)
	if err != nil {
		logging.Warn("ignoring unreadable state file", "path", s.StatePath(), "error", err)
		return nil, nil
	}

	st.Hydrate(s.now())
	return st, nil
}

// Save rewrites state.json in full.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(s.StatePath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Remove deletes the state directory and everything in it.
func (s *Store) Remove() error {
	if err := os.RemoveAll(s.Dir()); err != nil {
		return fmt.Errorf("failed to remove state directory: %w", err)
	}
	return nil
}
