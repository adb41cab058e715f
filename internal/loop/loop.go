package loop

import (
	"errors"
	"fmt"

	"github.com/thruflo/dialectic/internal/state"
)

// ErrNotAwaiting is returned when distillation is triggered for a session
// that is not waiting for it.
var ErrNotAwaiting = errors.New("session is not awaiting distillation")

// Gate thresholds on the confidence axes.
const (
	DefaultEvidenceGate  = 0.4
	DefaultAdvisoryFloor = 0.5
)

// Policy holds the thresholds the rules compare confidence against.
type Policy struct {
	// EvidenceGate is the minimum E an elevate request needs.
	EvidenceGate float64
	// AdvisoryFloor is the E/C level below which the ceiling summary adds a
	// note. It never blocks.
	AdvisoryFloor float64
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		EvidenceGate:  DefaultEvidenceGate,
		AdvisoryFloor: DefaultAdvisoryFloor,
	}
}

// Step applies one turn of the controller to a hydrated state. It performs
// no I/O: the returned Outcome says what the runner must write and what the
// host must be told.
func Step(st state.State, p Policy) (state.State, Outcome) {
	switch st.Loop {
	case state.LoopAwaitingDistillation:
		var out Outcome
		out.line("Reasoning complete; awaiting distillation.")
		out.line("Run `dialectic distill` to start the distillation loop.")
		return st, out
	case state.LoopDistillation:
		return stepDistillation(st)
	default:
		return stepReasoning(st, p)
	}
}

func stepReasoning(st state.State, p Policy) (state.State, Outcome) {
	var out Outcome

	switch st.Decision {
	case state.DecisionConclude:
		if st.Iteration < st.MinIterations {
			out.note(NoteFloorOverride, fmt.Sprintf(
				"CONCLUDE overridden: iteration %d < min_iterations %d, forcing CONTINUE",
				st.Iteration, st.MinIterations))
			st.Decision = state.DecisionContinue
			break
		}
		out.line(fmt.Sprintf("Dialectic reasoning concluded after %d iterations", st.Iteration))
		out.line("Final confidence: " + st.Thesis.Confidence.String())
		return enterDistillation(st, out)

	case state.DecisionElevate:
		e := st.Thesis.Confidence.Evidence()
		switch {
		// The ceiling outranks elevate so reasoning always ends at max_iterations.
		case st.Iteration >= st.MaxIterations:
			out.note(NoteCeilingRejected, fmt.Sprintf(
				"ELEVATE rejected: iteration ceiling %d reached", st.MaxIterations))
			st.Decision = state.DecisionContinue
		case e < p.EvidenceGate:
			out.note(NoteEvidenceGate, fmt.Sprintf(
				"ELEVATE downgraded to CONTINUE: evidence saturation E=%.2f < %.2f",
				e, p.EvidenceGate))
			st.Decision = state.DecisionContinue
		default:
			st.Iteration++
			st.Phase = PhaseExpansion
			st.Decision = state.DecisionNone
			out.line(fmt.Sprintf("Thesis ELEVATED (E=%.2f); restarting expansion", e))
			out.line(fmt.Sprintf("Dialectic iteration %d / %d (floor: %d)",
				st.Iteration, st.MaxIterations, st.MinIterations))
			out.block(DirectiveElevate, elevateDirective(st))
			return st, out
		}
	}

	if st.Iteration >= st.MaxIterations {
		out.line(fmt.Sprintf("Max iterations reached (%d/%d)", st.Iteration, st.MaxIterations))
		out.line("Final confidence: " + st.Thesis.Confidence.String())
		_, e, c := st.Thesis.Confidence.Axes()
		if e < p.AdvisoryFloor {
			out.note(NoteAdvisory, fmt.Sprintf(
				"Advisory: evidence saturation E=%.2f is below %.2f; the memo should flag thin evidence",
				e, p.AdvisoryFloor))
		}
		if c < p.AdvisoryFloor {
			out.note(NoteAdvisory, fmt.Sprintf(
				"Advisory: domain determinacy C=%.2f is below %.2f; the memo should flag open questions",
				c, p.AdvisoryFloor))
		}
		return enterDistillation(st, out)
	}

	previous := st.Decision
	st.Iteration++
	out.line(fmt.Sprintf("Dialectic iteration %d / %d (floor: %d)",
		st.Iteration, st.MaxIterations, st.MinIterations))
	out.line("Current confidence: " + st.Thesis.Confidence.String())
	out.line("Thesis: " + st.Thesis.Preview() + "...")
	out.line(fmt.Sprintf("Decision: %s -> continuing", previous))
	out.block(DirectiveContinue, continueDirective(st))
	return st, out
}

// enterDistillation hands a finished reasoning loop over to distillation
// using the session's entry strategy.
func enterDistillation(st state.State, out Outcome) (state.State, Outcome) {
	st.Decision = state.DecisionNone

	if st.DistillationEntry == state.EntryDirect {
		st.Loop = state.LoopDistillation
		return firstPass(st, out)
	}

	st.Loop = state.LoopAwaitingDistillation
	out.Verdict = VerdictAllow
	out.Effect = EffectPersist
	out.line("Awaiting distillation. Run `dialectic distill` to begin.")
	return st, out
}

// BeginDistillation moves an awaiting session into the first distillation
// pass. It backs the distill command.
func BeginDistillation(st state.State) (state.State, Outcome, error) {
	if st.Loop != state.LoopAwaitingDistillation {
		return st, Outcome{}, fmt.Errorf("%w (loop is %s)", ErrNotAwaiting, st.Loop)
	}
	st.Loop = state.LoopDistillation
	st.Decision = state.DecisionNone
	next, out := firstPass(st, Outcome{})
	return next, out, nil
}

func firstPass(st state.State, out Outcome) (state.State, Outcome) {
	st.DistillationIteration = 1
	st.DistillationPhase = PhaseSpineExtraction
	out.line(fmt.Sprintf("Entering distillation: pass 1 / %d", st.DistillationMax))
	out.block(DirectiveBeginDistillation, beginDistillationDirective(st))
	return st, out
}

func stepDistillation(st state.State) (state.State, Outcome) {
	var out Outcome

	if st.Decision == state.DecisionElevate {
		out.note(NoteInvalidDecision, "ELEVATE is not available during distillation; treating as CONTINUE")
		st.Decision = state.DecisionNone
	}

	if st.Decision == state.DecisionConclude {
		if st.DistillationIteration < st.DistillationMin {
			out.note(NoteFloorOverride, fmt.Sprintf(
				"CONCLUDE rejected: distillation pass %d < distillation_min %d, forcing adversarial re-pass",
				st.DistillationIteration, st.DistillationMin))
			st.Decision = state.DecisionNone
			st.DistillationIteration++
			out.block(DirectiveAdversarialPass, adversarialDirective(st))
			return st, out
		}

		out.line("Dialectic distillation complete!")
		out.line(fmt.Sprintf("Reasoning iterations: %d, distillation passes: %d",
			st.Iteration, st.DistillationIteration))
		out.line("Final confidence: " + st.Thesis.Confidence.String())
		out.Verdict = VerdictAllow
		out.Effect = EffectFinish
		return st, out
	}

	if st.DistillationIteration >= st.DistillationMax {
		st.Decision = state.DecisionConclude
		out.line(fmt.Sprintf("Max distillation passes reached (%d/%d), finalizing memo",
			st.DistillationIteration, st.DistillationMax))
		out.block(DirectiveFinalize, finalizeDirective(st))
		return st, out
	}

	st.DistillationIteration++
	st.Decision = state.DecisionNone
	out.line(fmt.Sprintf("Distillation pass %d / %d (floor: %d)",
		st.DistillationIteration, st.DistillationMax, st.DistillationMin))
	out.block(DirectiveRefine, refineDirective(st))
	return st, out
}
