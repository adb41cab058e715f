package loop

// Verdict is the answer the controller gives the host for one turn.
type Verdict int

const (
	// VerdictAllow lets the session stop.
	VerdictAllow Verdict = iota
	// VerdictBlock keeps the session running and carries a directive.
	VerdictBlock
)

// Exit statuses understood by the hook host.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// String returns a human-readable name for the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ExitCode maps the verdict onto the hook exit status.
func (v Verdict) ExitCode() int {
	if v == VerdictBlock {
		return ExitBlock
	}
	return ExitAllow
}

// Effect is the I/O the runner performs after a transition.
type Effect int

const (
	// EffectNone leaves the state file untouched.
	EffectNone Effect = iota
	// EffectPersist rewrites the state file.
	EffectPersist
	// EffectFinish preserves artifacts and then removes the state directory.
	EffectFinish
)

// String returns a human-readable name for the effect.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectPersist:
		return "persist"
	case EffectFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// DirectiveKind names the rule that produced a directive.
type DirectiveKind int

const (
	DirectiveNone              DirectiveKind = iota
	DirectiveContinue                        // next reasoning iteration
	DirectiveElevate                         // adopt reframed thesis, restart expansion
	DirectiveBeginDistillation               // first distillation pass
	DirectiveAdversarialPass                 // conclude rejected below the distillation floor
	DirectiveFinalize                        // distillation ceiling reached
	DirectiveRefine                          // next distillation pass
)

// String returns a short name for the directive kind.
func (k DirectiveKind) String() string {
	switch k {
	case DirectiveContinue:
		return "continue"
	case DirectiveElevate:
		return "elevate"
	case DirectiveBeginDistillation:
		return "begin_distillation"
	case DirectiveAdversarialPass:
		return "adversarial_pass"
	case DirectiveFinalize:
		return "finalize"
	case DirectiveRefine:
		return "refine"
	default:
		return "none"
	}
}

// Directive is the instruction for the agent's next turn.
type Directive struct {
	Kind DirectiveKind
	Text string
}

// NoteKind classifies workflow irregularities resolved inside a turn.
type NoteKind int

const (
	NoteFloorOverride NoteKind = iota + 1
	NoteEvidenceGate
	NoteCeilingRejected
	NoteInvalidDecision
	NoteAdvisory
)

// String returns a short name for the note kind.
func (k NoteKind) String() string {
	switch k {
	case NoteFloorOverride:
		return "floor_override"
	case NoteEvidenceGate:
		return "evidence_gate"
	case NoteCeilingRejected:
		return "ceiling_rejected"
	case NoteInvalidDecision:
		return "invalid_decision"
	case NoteAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Note records a recoverable irregularity, such as a conclude below the
// floor or an elevate without enough evidence.
type Note struct {
	Kind    NoteKind
	Message string
}

// Outcome is everything a turn produces besides the new state.
type Outcome struct {
	Verdict   Verdict
	Effect    Effect
	Directive Directive
	Summary   []string
	Notes     []Note

	// Preserved is the artifact destination, set by the runner after
	// EffectFinish when preservation was enabled.
	Preserved string
}

func (o *Outcome) note(kind NoteKind, msg string) {
	o.Notes = append(o.Notes, Note{Kind: kind, Message: msg})
	o.Summary = append(o.Summary, msg)
}

func (o *Outcome) line(msg string) {
	o.Summary = append(o.Summary, msg)
}

func (o *Outcome) block(kind DirectiveKind, text string) {
	o.Verdict = VerdictBlock
	o.Effect = EffectPersist
	o.Directive = Directive{Kind: kind, Text: text}
}

// HasNote reports whether a note of the given kind was recorded.
func (o Outcome) HasNote(kind NoteKind) bool {
	for _, n := range o.Notes {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
