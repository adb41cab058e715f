package config

import (
	"fmt"
	"strings"

	"github.com/thruflo/dialectic/internal/state"
	"gopkg.in/yaml.v3"
)

// Limits holds the iteration floors and ceilings for both loops.
type Limits struct {
	MinIterations   int `yaml:"min_iterations"`
	MaxIterations   int `yaml:"max_iterations"`
	DistillationMin int `yaml:"distillation_min"`
	DistillationMax int `yaml:"distillation_max"`
}

// Distillation configures the hand-over from reasoning to distillation.
type Distillation struct {
	Entry string `yaml:"entry"`
}

// Preservation configures where finished sessions are copied.
type Preservation struct {
	OutputDir     string       `yaml:"output_dir"`
	KeepArtifacts ArtifactList `yaml:"keep_artifacts"`
}

// Config represents the .claude/dialectic.yaml file.
type Config struct {
	Limits       Limits       `yaml:"limits"`
	Distillation Distillation `yaml:"distillation"`
	Preservation Preservation `yaml:"preservation"`
}

// EntryStrategy returns the configured strategy. The value is validated by
// LoadConfig, so an error here only happens for hand-built configs.
func (c *Config) EntryStrategy() (state.EntryStrategy, error) {
	return state.ParseEntryStrategy(c.Distillation.Entry)
}

// ArtifactList is keep_artifacts in YAML: either a list or a single
// comma-separated string such as "all" or "memo, spine".
type ArtifactList []string

// UnmarshalYAML accepts a scalar or a sequence.
func (a *ArtifactList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = ArtifactList(state.ParseArtifactSet(value.Value))
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*a = ArtifactList(list)
		return nil
	default:
		return fmt.Errorf("keep_artifacts must be a string or a list")
	}
}

// Set converts the list into a state.ArtifactSet.
func (a ArtifactList) Set() state.ArtifactSet {
	out := make(state.ArtifactSet, 0, len(a))
	for _, name := range a {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// HookCommand is one command entry in the Claude Code settings file.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// HookMatcher groups hook commands under an optional matcher.
type HookMatcher struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookCommand `json:"hooks"`
}
