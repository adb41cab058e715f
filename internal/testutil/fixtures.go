package testutil

import (
	"time"

	"github.com/thruflo/dialectic/internal/state"
)

// SampleThesis is a thesis long enough to exercise the preview cut-off.
const SampleThesis = "Regional housing prices are driven more by zoning constraints on supply " +
	"than by interest-rate movements, except in markets where construction is already unconstrained."

// SampleSessionID is the session id used by every fixture.
const SampleSessionID = "20261018-093000-0a1b2c3d"

// SampleTime is the clock used by fixtures.
func SampleTime() time.Time {
	return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
}

// SampleReasoningState returns a hydrated reasoning-loop state with
// structured confidence R=0.7 E=0.6 C=0.55.
func SampleReasoningState(iteration int, decision state.Decision) *state.State {
	st := &state.State{
		Loop:      state.LoopReasoning,
		Decision:  decision,
		Iteration: iteration,
		Thesis: state.Thesis{
			Current:    SampleThesis,
			Confidence: state.AxesConfidence(0.7, 0.6, 0.55),
		},
		SessionID: SampleSessionID,
	}
	st.Hydrate(SampleTime())
	return st
}

// SampleDistillationState returns a hydrated distillation-loop state after
// five reasoning iterations.
func SampleDistillationState(pass int, decision state.Decision) *state.State {
	st := SampleReasoningState(5, decision)
	st.Loop = state.LoopDistillation
	st.DistillationIteration = pass
	st.DistillationPhase = "spine_extraction"
	return st
}

// SampleAwaitingState returns a session parked between the two loops.
func SampleAwaitingState() *state.State {
	st := SampleReasoningState(5, state.DecisionNone)
	st.Loop = state.LoopAwaitingDistillation
	return st
}

// SampleArtifacts returns file contents keyed by logical artifact name.
// The state artifact is omitted because WriteState owns state.json.
func SampleArtifacts() map[string]string {
	return map[string]string{
		"memo":       "# Memo\n\nZoning, not rates.\n",
		"spine":      "1. Supply is constrained\n2. Rates move demand\n",
		"history":    "- v1: rates dominate\n- v2: zoning dominates\n",
		"prompt":     "# Dialectic instructions\n",
		"scratchpad": "notes\n",
		"draft":      "# Draft memo\n",
	}
}
