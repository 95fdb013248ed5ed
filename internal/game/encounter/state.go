package encounter

import "fmt"

// StateKind is the tag of a machine State.
type StateKind int

const (
	AwakeUnaware StateKind = iota // created, map not known yet
	OffMap                        // player is on another map
	OnMap                         // on the encounter map, no phase running
	OnPhase                       // phase State.Phase is running
	FinishedPhase                 // phase State.Phase ended, waiting for the next start
	Finished                      // every phase is done
)

// String returns a human-readable state kind.
func (k StateKind) String() string {
	switch k {
	case AwakeUnaware:
		return "AWAKE_UNAWARE"
	case OffMap:
		return "OFF_MAP"
	case OnMap:
		return "ON_MAP"
	case OnPhase:
		return "ON_PHASE"
	case FinishedPhase:
		return "FINISHED_PHASE"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// State is the tagged state of an encounter machine.
// Phase is meaningful only for OnPhase and FinishedPhase.
type State struct {
	Kind  StateKind
	Phase int
}

// Convenience constructors.
var (
	StateAwakeUnaware = State{Kind: AwakeUnaware}
	StateOffMap       = State{Kind: OffMap}
	StateOnMap        = State{Kind: OnMap}
	StateFinished     = State{Kind: Finished}
)

// StateOnPhase returns OnPhase(p).
func StateOnPhase(p int) State { return State{Kind: OnPhase, Phase: p} }

// StateFinishedPhase returns FinishedPhase(p).
func StateFinishedPhase(p int) State { return State{Kind: FinishedPhase, Phase: p} }

// InProgress reports whether a phase is running or between phases.
func (s State) InProgress() bool {
	return s.Kind == OnPhase || s.Kind == FinishedPhase
}

func (s State) String() string {
	if s.InProgress() {
		return fmt.Sprintf("%s(%d)", s.Kind, s.Phase)
	}
	return s.Kind.String()
}

// Transition describes one state change of a machine.
type Transition struct {
	Encounter string
	MapID     uint32
	From      State
	To        State
	// Reset is true when the transition was caused by a reset trigger,
	// reset action or reset request.
	Reset bool
}
