// Package loop is the dialectic controller.
//
// Step is a pure transition over a hydrated state.State. It decides, for the
// reasoning loop and then the distillation loop, whether the agent may stop,
// must continue, must move to the next phase, or had its request rejected.
// The result is the next state plus an Outcome naming the verdict, the I/O
// effect and the directive for the agent's next turn.
//
// Runner wraps Step with the load, persist, preserve and remove steps a hook
// invocation needs. It is the only part of the package that touches disk.
package loop
