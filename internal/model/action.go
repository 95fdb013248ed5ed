package model

import (
	"time"

	"github.com/udisondev/raidtimers/internal/game/trigger"
)

// ActionKind selects what a phase action does when its trigger fires.
type ActionKind int

const (
	// ActionFinishPhase ends the current phase as if its finish trigger fired.
	ActionFinishPhase ActionKind = iota
	// ActionReset resets the encounter as if its reset trigger fired.
	ActionReset
	// ActionBanner shows a banner alert with Text for Duration.
	ActionBanner
)

// String returns the document spelling of the kind.
func (k ActionKind) String() string {
	switch k {
	case ActionFinishPhase:
		return "finish"
	case ActionReset:
		return "reset"
	case ActionBanner:
		return "banner"
	default:
		return "unknown"
	}
}

// Action is a trigger-driven side effect evaluated while its phase runs.
// It fires at most once per visit of the phase.
type Action struct {
	Kind     ActionKind
	Trigger  trigger.Trigger
	Text     string
	Duration time.Duration
}
