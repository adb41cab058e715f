// Package testutil provides shared test helpers for dialectic.
//
// # Fixtures
//
// fixtures.go builds hydrated session states for each loop:
//
//   - SampleReasoningState(iteration, decision)
//   - SampleDistillationState(pass, decision)
//   - SampleAwaitingState()
//   - SampleArtifacts() - content for every artifact file
//
// # Environment
//
// env.go sets up a project directory with a state directory:
//
//   - SetupProject(t) - temp project root and a Store
//   - WriteState(t, store, st) / WriteRawState(t, store, json)
//   - WriteArtifacts(t, store, names...) - writes artifact files
//   - ContextWithTestDeadline(t, fallback)
//
// # Assertions
//
// assertions.go checks persisted state:
//
//   - AssertLoop, AssertDecision, AssertIteration
//   - AssertStateRemoved, AssertStatePresent
//
// Typical use:
//
//	func TestSomething(t *testing.T) {
//	    _, store := testutil.SetupProject(t)
//	    testutil.WriteState(t, store, testutil.SampleReasoningState(1, state.DecisionConclude))
//	    // ... run a turn ...
//	    testutil.AssertDecision(t, store, state.DecisionContinue)
//	}
package testutil
