package loop

import (
	"context"
	"fmt"

	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/state"
)

// StateStore loads and persists the session record.
type StateStore interface {
	Load() (*state.State, error)
	Save(st *state.State) error
	Remove() error
}

// Preserver copies artifacts out of the state directory.
type Preserver interface {
	Preserve(st *state.State) (artifact.Result, error)
}

// Archiver records a finished preservation.
type Archiver interface {
	Archive(ctx context.Context, st *state.State, res artifact.Result) error
}

// Runner performs one controller turn against real storage.
type Runner struct {
	store     StateStore
	preserver Preserver
	archiver  Archiver
	policy    Policy
	logger    *logging.Logger
}

// RunnerOptions holds the dependencies of a Runner. Archiver and Logger are
// optional.
type RunnerOptions struct {
	Store     StateStore
	Preserver Preserver
	Archiver  Archiver
	Policy    Policy
	Logger    *logging.Logger
}

// NewRunner creates a Runner. A zero Policy is replaced by DefaultPolicy.
func NewRunner(opts RunnerOptions) *Runner {
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		store:     opts.Store,
		preserver: opts.Preserver,
		archiver:  opts.Archiver,
		policy:    policy,
		logger:    logger,
	}
}

// Run loads the state, applies Step and carries out its effect. A missing
// or unreadable state allows termination. Only write failures are returned
// as errors.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	st, err := r.store.Load()
	if err != nil {
		r.logger.Warn("state unreadable, treating session as inactive", "error", err)
		return Outcome{Verdict: VerdictAllow}, nil
	}
	if st == nil {
		r.logger.Debug("no active session")
		return Outcome{Verdict: VerdictAllow}, nil
	}

	log := r.logger.WithFields("session", st.SessionID, "loop", string(st.Loop))
	next, out := Step(*st, r.policy)

	for _, n := range out.Notes {
		if n.Kind == NoteAdvisory {
			log.Info(n.Message, "note", n.Kind.String())
		} else {
			log.Warn(n.Message, "note", n.Kind.String(), "decision", st.Decision.String())
		}
	}

	switch out.Effect {
	case EffectPersist:
		if err := r.store.Save(&next); err != nil {
			return out, err
		}
	case EffectFinish:
		dest, err := r.finish(ctx, &next)
		if err != nil {
			return out, err
		}
		out.Preserved = dest
		if dest != "" {
			out.line("Artifacts preserved to " + dest)
		} else {
			out.line("Artifact preservation disabled")
		}
	}

	log.Info("turn complete",
		"verdict", out.Verdict.String(),
		"effect", out.Effect.String(),
		"directive", out.Directive.Kind.String(),
		"iteration", next.Iteration,
		"distillation_iteration", next.DistillationIteration)
	return out, nil
}

// finish preserves artifacts, records them and then removes the state
// directory. Preservation always happens before removal.
func (r *Runner) finish(ctx context.Context, st *state.State) (string, error) {
	res, err := r.preserver.Preserve(st)
	if err != nil {
		return "", fmt.Errorf("failed to preserve artifacts: %w", err)
	}
	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, st, res); err != nil {
			return "", fmt.Errorf("failed to archive session: %w", err)
		}
	}
	if err := r.store.Remove(); err != nil {
		return "", err
	}
	return res.Destination, nil
}
