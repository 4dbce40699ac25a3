package shader

import (
	"fmt"
	"slices"

	"github.com/gogpu/glstate/device"
)

// State is the lifecycle state of a Linker.
type State uint8

// Linker states.
const (
	// StateEmpty means no stage is attached.
	StateEmpty State = iota

	// StateStagesAttached means at least one compiled stage is attached.
	StateStagesAttached

	// StateLinked means Link produced a program. Terminal.
	StateLinked

	// StateLinkFailed means Link failed. Terminal.
	StateLinkFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateStagesAttached:
		return "StagesAttached"
	case StateLinked:
		return "Linked"
	case StateLinkFailed:
		return "LinkFailed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateLinked || s == StateLinkFailed
}

// Linker compiles shader stages and links them into one Program.
type Linker struct {
	dev      device.Device
	state    State
	attached []*Stage
	closed   bool
}

// NewLinker creates an empty linker for dev.
func NewLinker(dev device.Device) (*Linker, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	return &Linker{dev: dev}, nil
}

// State returns the current lifecycle state.
func (l *Linker) State() State {
	return l.state
}

// Attached returns the number of attached stages that are still live.
func (l *Linker) Attached() int {
	return len(l.attached)
}

// AttachStage compiles source as a stage of the given kind and attaches it.
//
// On a compile failure a *StageCompileError is returned and the linker state
// is unchanged: previously attached stages stay attached and the caller may
// retry.
func (l *Linker) AttachStage(source string, kind device.StageKind) (*Stage, error) {
	if l.closed || l.state.Terminal() {
		return nil, ErrLinkerClosed
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStageKind, uint8(kind))
	}

	id, err := l.dev.CompileStage(source, kind)
	if err != nil {
		slogger().Warn("shader: stage compile failed", "kind", kind.String(), "err", err)
		return nil, &StageCompileError{Kind: kind, Diagnostic: diagnosticOf(err), Err: err}
	}

	s := &Stage{dev: l.dev, id: id, kind: kind, owner: l}
	l.attached = append(l.attached, s)
	l.state = StateStagesAttached
	slogger().Debug("shader: stage compiled", "stage", uint64(id), "kind", kind.String())
	return s, nil
}

// Link links stages into a program. With no arguments every attached live
// stage is linked.
//
// Ownership of each passed stage moves into Link at the call. Link releases
// each of them exactly once on every path: after a successful link, after a
// device link failure, and when the call is rejected early. Stages that
// were already linked or released are reported with ErrStageConsumed and
// not released again.
//
// On success the linker moves to StateLinked; on any failure after stages
// were consumed it moves to StateLinkFailed. Stages still attached but not
// passed to Link stay owned by the linker and are released by Close.
func (l *Linker) Link(stages ...*Stage) (*Program, error) {
	if len(stages) == 0 {
		stages = slices.Clone(l.attached)
	}
	if len(stages) == 0 {
		if l.closed || l.state.Terminal() {
			return nil, ErrLinkerClosed
		}
		return nil, ErrNoStages
	}

	claims := make([]stageClaim, 0, len(stages))
	var rejected error
	for _, s := range stages {
		if s == nil {
			rejected = ErrNilStage
			continue
		}
		c, ok := s.take()
		if !ok {
			rejected = fmt.Errorf("%w: %s stage %d", ErrStageConsumed, s.kind, uint64(s.id))
			continue
		}
		claims = append(claims, c)
		if c.dev != l.dev {
			rejected = fmt.Errorf("%w: %s stage %d", ErrForeignStage, c.kind, uint64(c.id))
		}
	}

	return l.link(claims, rejected)
}

// link finishes a Link call. claims holds every stage whose ownership moved
// into the call; all of them are released before link returns.
func (l *Linker) link(claims []stageClaim, rejected error) (*Program, error) {
	defer releaseClaims(claims)

	if l.closed || l.state.Terminal() {
		return nil, ErrLinkerClosed
	}
	if rejected != nil {
		l.state = StateLinkFailed
		return nil, rejected
	}

	ids := make([]device.StageID, len(claims))
	kinds := make([]device.StageKind, len(claims))
	for i, c := range claims {
		ids[i] = c.id
		kinds[i] = c.kind
	}

	id, err := l.dev.LinkProgram(ids)
	if err != nil {
		l.state = StateLinkFailed
		slogger().Warn("shader: program link failed", "stages", len(ids), "err", err)
		return nil, &LinkError{Diagnostic: diagnosticOf(err), Err: err}
	}

	l.state = StateLinked
	slogger().Debug("shader: program linked", "program", uint64(id), "stages", len(ids))
	return newProgram(l.dev, id, kinds), nil
}

// Close releases every stage still attached and moves the linker out of
// service. A program returned by Link is not affected. Close is idempotent.
func (l *Linker) Close() {
	for len(l.attached) > 0 {
		l.attached[0].Release()
	}
	l.closed = true
}

// detach removes s from the attached list.
func (l *Linker) detach(s *Stage) {
	if i := slices.Index(l.attached, s); i >= 0 {
		l.attached = slices.Delete(l.attached, i, i+1)
	}
	if len(l.attached) == 0 && l.state == StateStagesAttached {
		l.state = StateEmpty
	}
}
