package loop

import (
	"fmt"
	"strings"

	"github.com/thruflo/dialectic/internal/state"
)

// Probes are the checks every distillation pass runs against the memo.
var Probes = []string{"Trace", "Tension", "Sufficiency", "Conviction-Ink", "Threads"}

// CompletionMarker is the token the agent emits once the memo is final.
const CompletionMarker = "DISTILLATION_COMPLETE"

// Phase labels set by the controller.
const (
	PhaseExpansion       = "expansion"
	PhaseSpineExtraction = "spine_extraction"
	PhaseRefinement      = "refinement"
)

var (
	statePath  = state.StateDirName + "/" + state.StateFile
	promptPath = state.StateDirName + "/" + state.PromptFile
	memoPath   = state.StateDirName + "/memo.md"
	spinePath  = state.StateDirName + "/spine.md"
)

func resources() string {
	return fmt.Sprintf("Read instructions from %s and state from %s.", promptPath, statePath)
}

func probeList() string {
	return strings.Join(Probes, ", ")
}

func continueDirective(st state.State) string {
	return fmt.Sprintf(
		"Continue the dialectic reasoning cycle. %s Proceed with iteration %d of %d (floor: %d).",
		resources(), st.Iteration, st.MaxIterations, st.MinIterations)
}

func elevateDirective(st state.State) string {
	return fmt.Sprintf(
		"ELEVATE accepted: the working thesis needs a fundamental reframe, not incremental refinement. "+
			"Adopt the reframed thesis as thesis.current in %s and restart the %s pass for iteration %d of %d. "+
			"Follow the expansion instructions in %s.",
		statePath, PhaseExpansion, st.Iteration, st.MaxIterations, promptPath)
}

func beginDistillationDirective(st state.State) string {
	return fmt.Sprintf(
		"Reasoning is complete. Begin the distillation loop: pass %d of %d, phase %s. "+
			"Extract the argument spine into %s, then draft the memo in %s. %s",
		st.DistillationIteration, st.DistillationMax, st.DistillationPhase,
		spinePath, memoPath, resources())
}

func adversarialDirective(st state.State) string {
	return fmt.Sprintf(
		"CONCLUDE rejected: distillation pass %d is below the floor of %d, and a first draft is never final. "+
			"Run an adversarial re-pass over %s: re-run all five probes skeptically (%s), "+
			"assume each one fails until the memo proves otherwise, and revise. %s",
		st.DistillationIteration, st.DistillationMin, memoPath, probeList(), resources())
}

func finalizeDirective(st state.State) string {
	return fmt.Sprintf(
		"Distillation ceiling reached (%d/%d). Finalize %s as-is: no further probes or restructuring. "+
			"When the memo is final, emit %s. State is in %s.",
		st.DistillationIteration, st.DistillationMax, memoPath, CompletionMarker, statePath)
}

func refineDirective(st state.State) string {
	phase := st.DistillationPhase
	if phase == "" {
		phase = PhaseRefinement
	}
	return fmt.Sprintf(
		"Continue distillation: pass %d of %d (floor: %d), phase %s. "+
			"Re-run all five probes (%s) plus the compression gate against %s, and revise on any failure. %s",
		st.DistillationIteration, st.DistillationMax, st.DistillationMin, phase,
		probeList(), memoPath, resources())
}
