package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/state"
	"gopkg.in/yaml.v3"
)

func TestArtifactList_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    ArtifactList
		wantErr bool
	}{
		{name: "list", input: "keep: [memo, spine]", want: ArtifactList{"memo", "spine"}},
		{name: "block list", input: "keep:\n  - memo\n  - draft\n", want: ArtifactList{"memo", "draft"}},
		{name: "all", input: "keep: all", want: ArtifactList{"all"}},
		{name: "comma string", input: `keep: "memo, history"`, want: ArtifactList{"memo", "history"}},
		{name: "mapping", input: "keep: {memo: true}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var doc struct {
				Keep ArtifactList `yaml:"keep"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Keep)
		})
	}
}

func TestArtifactList_Set(t *testing.T) {
	t.Parallel()

	assert.Equal(t, state.ArtifactSet{"memo", "spine"}, ArtifactList{" memo ", "", "spine"}.Set())
	assert.True(t, ArtifactList{"none"}.Set().IsNone())
}

func TestConfig_YAMLUnmarshal(t *testing.T) {
	t.Parallel()

	input := `limits:
  min_iterations: 2
  max_iterations: 7
  distillation_min: 1
  distillation_max: 3
distillation:
  entry: direct
preservation:
  output_dir: out
  keep_artifacts: all
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))

	assert.Equal(t, Config{
		Limits:       Limits{MinIterations: 2, MaxIterations: 7, DistillationMin: 1, DistillationMax: 3},
		Distillation: Distillation{Entry: "direct"},
		Preservation: Preservation{OutputDir: "out", KeepArtifacts: ArtifactList{"all"}},
	}, cfg)

	entry, err := cfg.EntryStrategy()
	require.NoError(t, err)
	assert.Equal(t, state.EntryDirect, entry)
}

func TestConfig_NewState(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Limits.MaxIterations = 8
	cfg.Distillation.Entry = "direct"
	cfg.Preservation.KeepArtifacts = ArtifactList{"memo"}

	st := cfg.NewState()
	assert.Equal(t, state.LoopReasoning, st.Loop)
	assert.Equal(t, state.DefaultMinIterations, st.MinIterations)
	assert.Equal(t, 8, st.MaxIterations)
	assert.Equal(t, state.EntryDirect, st.DistillationEntry)
	assert.Equal(t, state.ArtifactSet{"memo"}, st.KeepArtifacts)
	assert.Equal(t, state.DefaultOutputDir, st.OutputDir)
	assert.Zero(t, st.Iteration)
	assert.Empty(t, st.SessionID)
}
