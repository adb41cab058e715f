package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thruflo/dialectic/internal/state"
	"gopkg.in/yaml.v3"
)

// File locations relative to the project root.
const (
	ConfigPath   = ".claude/dialectic.yaml"
	SettingsPath = ".claude/settings.json"
)

// StopEvent is the settings key for hooks that run when the agent stops.
const StopEvent = "Stop"

// DefaultConfig returns a Config with the same values Hydrate would apply.
func DefaultConfig() Config {
	return Config{
		Limits: Limits{
			MinIterations:   state.DefaultMinIterations,
			MaxIterations:   state.DefaultMaxIterations,
			DistillationMin: state.DefaultDistillationMin,
			DistillationMax: state.DefaultDistillationMax,
		},
		Distillation: Distillation{Entry: string(state.EntryAwait)},
		Preservation: Preservation{
			OutputDir:     state.DefaultOutputDir,
			KeepArtifacts: ArtifactList(state.DefaultKeepArtifacts()),
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses .claude/dialectic.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, ConfigPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	l := cfg.Limits
	if l.MinIterations <= 0 {
		return ValidationError{Field: "limits.min_iterations", Message: "must be positive"}
	}
	if l.MaxIterations <= 0 {
		return ValidationError{Field: "limits.max_iterations", Message: "must be positive"}
	}
	if l.MinIterations > l.MaxIterations {
		return ValidationError{Field: "limits.min_iterations", Message: "must not exceed max_iterations"}
	}
	if l.DistillationMin <= 0 {
		return ValidationError{Field: "limits.distillation_min", Message: "must be positive"}
	}
	if l.DistillationMax <= 0 {
		return ValidationError{Field: "limits.distillation_max", Message: "must be positive"}
	}
	if l.DistillationMin > l.DistillationMax {
		return ValidationError{Field: "limits.distillation_min", Message: "must not exceed distillation_max"}
	}

	if _, err := cfg.EntryStrategy(); err != nil {
		return ValidationError{Field: "distillation.entry", Message: "must be await or direct"}
	}

	if cfg.Preservation.OutputDir == "" {
		return ValidationError{Field: "preservation.output_dir", Message: "required field is empty"}
	}
	for _, name := range cfg.Preservation.KeepArtifacts.Set() {
		if strings.EqualFold(name, state.ArtifactsAll) || strings.EqualFold(name, state.ArtifactsNone) {
			continue
		}
		if _, ok := state.ArtifactFile(name); !ok {
			return ValidationError{Field: "preservation.keep_artifacts", Message: fmt.Sprintf("unknown artifact %q", name)}
		}
	}

	return nil
}

// NewState seeds a reasoning-loop state from the config. The caller sets the
// thesis and then hydrates.
func (c *Config) NewState() *state.State {
	entry, _ := c.EntryStrategy()
	return &state.State{
		Loop:              state.LoopReasoning,
		MinIterations:     c.Limits.MinIterations,
		MaxIterations:     c.Limits.MaxIterations,
		DistillationMin:   c.Limits.DistillationMin,
		DistillationMax:   c.Limits.DistillationMax,
		DistillationEntry: entry,
		OutputDir:         c.Preservation.OutputDir,
		KeepArtifacts:     c.Preservation.KeepArtifacts.Set(),
	}
}

// InstallStopHook registers command as a Stop hook in .claude/settings.json,
// keeping every other setting and hook intact. It reports false when the command was
// already registered.
func InstallStopHook(basePath, command string) (bool, error) {
	settingsPath := filepath.Join(basePath, SettingsPath)

	settings := map[string]json.RawMessage{}
	data, err := os.ReadFile(settingsPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &settings); err != nil {
			return false, fmt.Errorf("failed to parse settings file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return false, fmt.Errorf("failed to read settings file: %w", err)
	}

	hooks := map[string]json.RawMessage{}
	if raw, ok := settings["hooks"]; ok {
		if err := json.Unmarshal(raw, &hooks); err != nil {
			return false, fmt.Errorf("failed to parse hooks in settings file: %w", err)
		}
	}

	// Existing entries are kept as raw JSON so fields this package does not
	// model survive the rewrite.
	var stop []json.RawMessage
	if raw, ok := hooks[StopEvent]; ok {
		if err := json.Unmarshal(raw, &stop); err != nil {
			return false, fmt.Errorf("failed to parse Stop hooks in settings file: %w", err)
		}
	}
	for _, raw := range stop {
		var m HookMatcher
		if err := json.Unmarshal(raw, &m); err != nil {
			return false, fmt.Errorf("failed to parse Stop hooks in settings file: %w", err)
		}
		for _, h := range m.Hooks {
			if h.Command == command {
				return false, nil
			}
		}
	}
	entry, err := json.Marshal(HookMatcher{Hooks: []HookCommand{{Type: "command", Command: command}}})
	if err != nil {
		return false, fmt.Errorf("failed to marshal Stop hook: %w", err)
	}
	stop = append(stop, entry)

	if hooks[StopEvent], err = json.Marshal(stop); err != nil {
		return false, fmt.Errorf("failed to marshal Stop hooks: %w", err)
	}
	if settings["hooks"], err = json.Marshal(hooks); err != nil {
		return false, fmt.Errorf("failed to marshal hooks: %w", err)
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(settingsPath, append(out, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("failed to write settings file: %w", err)
	}
	return true, nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
