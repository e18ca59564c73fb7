// arena/phase.go
package arena

import "errors"

// Phase is the match lifecycle state. The phase is the single source of truth
// for "is this arena starting/fighting/ending"; the end task handles exist
// only for cancellation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseFight
	PhaseEnding
	PhaseReset
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseFight:
		return "fight"
	case PhaseEnding:
		return "ending"
	case PhaseReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ErrTransitionNotAllowed is returned when a phase transition is not allowed.
var ErrTransitionNotAllowed = errors.New("phase transition not allowed")

// phaseTransitions lists the legal lifecycle edges. Ending and Reset may jump
// straight back to Idle on a force-reset.
var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:     {PhaseStarting},
	PhaseStarting: {PhaseFight, PhaseIdle},
	PhaseFight:    {PhaseEnding, PhaseReset},
	PhaseEnding:   {PhaseReset, PhaseIdle},
	PhaseReset:    {PhaseIdle},
}

func transitionAllowed(from, to Phase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
