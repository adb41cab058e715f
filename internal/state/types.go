package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Loop identifies which phase group a session is in.
type Loop string

// Loop values. Anything else decodes as LoopReasoning.
const (
	LoopReasoning            Loop = "reasoning"
	LoopDistillation         Loop = "distillation"
	LoopAwaitingDistillation Loop = "awaiting_distillation"
)

// ParseLoop maps a raw loop label onto a Loop, falling back to LoopReasoning.
func ParseLoop(s string) Loop {
	switch Loop(strings.ToLower(strings.TrimSpace(s))) {
	case LoopDistillation:
		return LoopDistillation
	case LoopAwaitingDistillation:
		return LoopAwaitingDistillation
	default:
		return LoopReasoning
	}
}

// UnmarshalJSON accepts a string or null.
func (l *Loop) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		// A non-string loop is as good as a missing one.
		*l = LoopReasoning
		return nil
	}
	if s == nil {
		*l = LoopReasoning
		return nil
	}
	*l = ParseLoop(*s)
	return nil
}

// Decision is the action the agent requested for the current turn.
type Decision string

// Decision values. DecisionNone is persisted as JSON null.
const (
	DecisionNone     Decision = ""
	DecisionContinue Decision = "continue"
	DecisionConclude Decision = "conclude"
	DecisionElevate  Decision = "elevate"
)

// ParseDecision maps a raw decision label onto a Decision. Unknown labels
// become DecisionNone.
func ParseDecision(s string) Decision {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionContinue:
		return DecisionContinue
	case DecisionConclude:
		return DecisionConclude
	case DecisionElevate:
		return DecisionElevate
	default:
		return DecisionNone
	}
}

// String returns the decision label, or "none".
func (d Decision) String() string {
	if d == DecisionNone {
		return "none"
	}
	return string(d)
}

// MarshalJSON writes DecisionNone as null.
func (d Decision) MarshalJSON() ([]byte, error) {
	if d == DecisionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts a string or null.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil || s == nil {
		*d = DecisionNone
		return nil
	}
	*d = ParseDecision(*s)
	return nil
}

// EntryStrategy selects how a concluded reasoning loop hands over to
// distillation.
type EntryStrategy string

const (
	// EntryAwait parks the session in awaiting_distillation and lets the
	// caller trigger distillation separately.
	EntryAwait EntryStrategy = "await"
	// EntryDirect moves straight into the distillation loop and blocks.
	EntryDirect EntryStrategy = "direct"
)

// ParseEntryStrategy returns the strategy for s, or an error for unknown values.
func ParseEntryStrategy(s string) (EntryStrategy, error) {
	switch EntryStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case EntryAwait, "":
		return EntryAwait, nil
	case EntryDirect:
		return EntryDirect, nil
	default:
		return EntryAwait, fmt.Errorf("unknown distillation entry strategy %q", s)
	}
}

// DefaultAxis is the value of any confidence axis that was not reported.
const DefaultAxis = 0.5

// Confidence is either a legacy scalar or a structured {R, E, C} triple.
//
//	R: defensibility
//	E: evidence saturation
//	C: domain determinacy
type Confidence struct {
	Scalar *float64
	R      *float64
	E      *float64
	C      *float64
	Extra  map[string]json.RawMessage
}

// ScalarConfidence builds a legacy single-value confidence.
func ScalarConfidence(v float64) *Confidence {
	return &Confidence{Scalar: &v}
}

// AxesConfidence builds a structured confidence with all three axes set.
func AxesConfidence(r, e, c float64) *Confidence {
	return &Confidence{R: &r, E: &e, C: &c}
}

// Axes returns R, E and C. A legacy scalar applies to every axis; missing
// axes default to DefaultAxis. A nil Confidence reports all defaults.
func (c *Confidence) Axes() (r, e, cc float64) {
	if c == nil {
		return DefaultAxis, DefaultAxis, DefaultAxis
	}
	if c.Scalar != nil {
		return *c.Scalar, *c.Scalar, *c.Scalar
	}
	return axis(c.R), axis(c.E), axis(c.C)
}

// Evidence returns the E axis.
func (c *Confidence) Evidence() float64 {
	_, e, _ := c.Axes()
	return e
}

func axis(v *float64) float64 {
	if v == nil {
		return DefaultAxis
	}
	return *v
}

// String renders the confidence the way it appears in progress banners.
func (c *Confidence) String() string {
	if c == nil {
		return "n/a"
	}
	if c.Scalar != nil {
		return formatScore(*c.Scalar)
	}
	r, e, cc := c.Axes()
	return fmt.Sprintf("R=%.2f E=%.2f C=%.2f", r, e, cc)
}

func formatScore(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

type confidenceAxes struct {
	R *float64 `json:"R,omitempty"`
	E *float64 `json:"E,omitempty"`
	C *float64 `json:"C,omitempty"`
}

// MarshalJSON writes a number for scalar confidence and an object otherwise.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if c.Scalar != nil {
		return json.Marshal(*c.Scalar)
	}
	known, err := json.Marshal(confidenceAxes{R: c.R, E: c.E, C: c.C})
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, c.Extra)
}

// UnmarshalJSON accepts a number or an object with optional R, E, C keys.
// Numbers may be quoted; any other value counts as unreported.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = Confidence{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		c.Scalar = lenientNumber(data)
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to parse confidence axes: %w", err)
	}
	extra, err := splitExtra(data, "R", "E", "C")
	if err != nil {
		return err
	}
	c.R = lenientNumber(lookupFold(fields, "R"))
	c.E = lenientNumber(lookupFold(fields, "E"))
	c.C = lenientNumber(lookupFold(fields, "C"))
	c.Extra = extra
	return nil
}

// lookupFold finds key in fields, preferring an exact match and falling back
// to a case-insensitive one the way encoding/json does.
func lookupFold(fields map[string]json.RawMessage, key string) json.RawMessage {
	if v, ok := fields[key]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// lenientNumber decodes a JSON number or a quoted number. It returns nil for
// anything else.
func lenientNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			return &f
		}
	}
	return nil
}

// PreviewLength is how much of the thesis text the controller ever reads.
const PreviewLength = 100

// Thesis is the agent's working thesis. Only Current and Confidence are
// interpreted; everything else the agent writes is carried through untouched.
type Thesis struct {
	Current    string                     `json:"current"`
	Confidence *Confidence                `json:"confidence,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// Preview returns the first PreviewLength characters of the thesis.
func (t Thesis) Preview() string {
	if utf8.RuneCountInString(t.Current) <= PreviewLength {
		return t.Current
	}
	runes := []rune(t.Current)
	return string(runes[:PreviewLength])
}

// MarshalJSON merges unknown thesis fields back into the object.
func (t Thesis) MarshalJSON() ([]byte, error) {
	type plain Thesis
	known, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, t.Extra)
}

// UnmarshalJSON keeps unknown thesis fields in Extra.
func (t *Thesis) UnmarshalJSON(data []byte) error {
	type plain Thesis
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, jsonKeys(p)...)
	if err != nil {
		return err
	}
	p.Extra = extra
	*t = Thesis(p)
	return nil
}

// ArtifactSet lists the artifact names to preserve. The sentinels "all" and
// "none" may appear on their own.
type ArtifactSet []string

// Artifact set sentinels.
const (
	ArtifactsAll  = "all"
	ArtifactsNone = "none"
)

// IsNone reports whether preservation is disabled.
func (a ArtifactSet) IsNone() bool {
	if len(a) == 0 {
		return false
	}
	for _, name := range a {
		if normalizeName(name) != ArtifactsNone {
			return false
		}
	}
	return true
}

// IsAll reports whether every known artifact was requested.
func (a ArtifactSet) IsAll() bool {
	for _, name := range a {
		if normalizeName(name) == ArtifactsAll {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts a single string or a list of strings.
func (a *ArtifactSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = splitNames(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("keep_artifacts must be a string or a list: %w", err)
	}
	*a = ArtifactSet(list)
	return nil
}

// ParseArtifactSet splits a comma-separated list of artifact names.
func ParseArtifactSet(s string) ArtifactSet {
	return splitNames(s)
}

func splitNames(s string) ArtifactSet {
	var out ArtifactSet
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ArtifactNames lists the logical artifact names in preservation order.
var ArtifactNames = []string{"memo", "spine", "history", "prompt", "scratchpad", "draft", "state"}

var artifactFiles = map[string]string{
	"memo":       "memo.md",
	"spine":      "spine.md",
	"history":    "history.md",
	"prompt":     "prompt.md",
	"scratchpad": "scratchpad.md",
	"draft":      "draft.md",
	"state":      StateFile,
}

// ArtifactFile returns the file name for a logical artifact name.
func ArtifactFile(name string) (string, bool) {
	file, ok := artifactFiles[normalizeName(name)]
	return file, ok
}

// State is the session record persisted in state.json. It is the only
// source of truth between turns. Fields the controller does not know about
// are kept in Extra and written back unchanged.
type State struct {
	Loop                  Loop          `json:"loop"`
	Decision              Decision      `json:"decision"`
	Iteration             int           `json:"iteration"`
	MinIterations         int           `json:"min_iterations"`
	MaxIterations         int           `json:"max_iterations"`
	DistillationIteration int           `json:"distillation_iteration"`
	DistillationMin       int           `json:"distillation_min"`
	DistillationMax       int           `json:"distillation_max"`
	DistillationPhase     string        `json:"distillation_phase,omitempty"`
	DistillationEntry     EntryStrategy `json:"distillation_entry,omitempty"`
	Thesis                Thesis        `json:"thesis"`
	Phase                 string        `json:"phase,omitempty"`
	OutputDir             string        `json:"output_dir"`
	KeepArtifacts         ArtifactSet   `json:"keep_artifacts"`
	SessionID             string        `json:"session_id"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ErrNotObject is returned by Decode when the record is not a JSON object.
var ErrNotObject = errors.New("state record is not a JSON object")

// Decode parses a state record. The top level must be an object.
func Decode(data []byte) (*State, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, ErrNotObject
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MarshalJSON merges unknown fields back into the record.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	known, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, s.Extra)
}

// UnmarshalJSON keeps unknown fields in Extra.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, jsonKeys(p)...)
	if err != nil {
		return err
	}
	p.Extra = extra
	*s = State(p)
	return nil
}
