package model

import "github.com/udisondev/raidtimers/internal/game/trigger"

// TimerFile is one loaded encounter timer definition.
// Immutable after load; every state machine for its map shares the same
// instance read-only.
type TimerFile struct {
	ID          string
	Name        string
	Category    string
	Description string
	Author      string
	Icon        string
	MapID       uint32

	// Reset returns the encounter to its map-idle state while a phase is
	// running or finished.
	Reset trigger.Trigger

	Phases []TimerPhase

	// Source is the path the definition was loaded from.
	Source string
}

// Phase returns the phase at index p, or nil when out of range.
func (f *TimerFile) Phase(p int) *TimerPhase {
	if p < 0 || p >= len(f.Phases) {
		return nil
	}
	return &f.Phases[p]
}

// LastPhase returns the index of the final phase.
func (f *TimerFile) LastPhase() int {
	return len(f.Phases) - 1
}

// TimerPhase is one ordered segment of an encounter.
// Phases are entered strictly in order; a phase without Finish only ends
// through a reset or a FinishPhase action.
type TimerPhase struct {
	Name    string
	Start   trigger.Trigger
	Finish  *trigger.Trigger
	Alerts  []AlertDefinition
	Actions []Action
}

// ScheduledAlerts expands every alert definition of the phase.
func (p *TimerPhase) ScheduledAlerts() []ScheduledAlert {
	var out []ScheduledAlert
	for i := range p.Alerts {
		out = append(out, p.Alerts[i].Expand()...)
	}
	return out
}
