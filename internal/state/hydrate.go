package state

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default values applied by Hydrate.
const (
	DefaultMinIterations         = 3
	DefaultMaxIterations         = 5
	DefaultDistillationIteration = 1
	DefaultDistillationMin       = 2
	DefaultDistillationMax       = 4
	DefaultOutputDir             = ".dialectic-output"
)

// DefaultKeepArtifacts returns the artifacts preserved when keep_artifacts is
// not set.
func DefaultKeepArtifacts() ArtifactSet {
	return ArtifactSet{"memo", "spine", "history"}
}

// NewSessionID returns a timestamp-based session identifier with a short
// random suffix, e.g. 20261018-164300-1f2e3d4c.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.UTC().Format("20060102-150405") + "-" + suffix
}

// Hydrate fills every default and normalizes every field so that the loop
// rules never need fallbacks of their own. It runs once, right after load.
// Zero or negative limits count as unset.
func (s *State) Hydrate(now time.Time) {
	s.Loop = ParseLoop(string(s.Loop))
	s.Decision = ParseDecision(string(s.Decision))

	if s.Iteration < 0 {
		s.Iteration = 0
	}
	if s.MinIterations <= 0 {
		s.MinIterations = DefaultMinIterations
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.MinIterations > s.MaxIterations {
		s.MinIterations = s.MaxIterations
	}

	if s.DistillationIteration < DefaultDistillationIteration {
		s.DistillationIteration = DefaultDistillationIteration
	}
	if s.DistillationMin <= 0 {
		s.DistillationMin = DefaultDistillationMin
	}
	if s.DistillationMax <= 0 {
		s.DistillationMax = DefaultDistillationMax
	}
	if s.DistillationMin > s.DistillationMax {
		s.DistillationMin = s.DistillationMax
	}

	entry, err := ParseEntryStrategy(string(s.DistillationEntry))
	if err != nil {
		entry = EntryAwait
	}
	s.DistillationEntry = entry

	if strings.TrimSpace(s.OutputDir) == "" {
		s.OutputDir = DefaultOutputDir
	}
	if len(s.KeepArtifacts) == 0 {
		s.KeepArtifacts = DefaultKeepArtifacts()
	}
	if strings.TrimSpace(s.SessionID) == "" {
		s.SessionID = NewSessionID(now)
	}
}
