// Package alert schedules encounter notifications: mutually exclusive banner
// alerts shown one at a time process-wide, and per-phase progress-bar
// batches that presentation consumers render on their own clock.
package alert

import (
	"time"

	"github.com/udisondev/raidtimers/internal/model"
)

// EventKind identifies a presentation event.
type EventKind int

const (
	AlertStart EventKind = iota // a banner became visible
	AlertEnd                    // the visible banner was hidden
	PhaseFeed                   // a phase started; Batch carries its alerts
	PhaseReset                  // clear every progress bar of the encounter
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case AlertStart:
		return "alert_start"
	case AlertEnd:
		return "alert_end"
	case PhaseFeed:
		return "phase_feed"
	case PhaseReset:
		return "phase_reset"
	default:
		return "unknown"
	}
}

// Banner is one banner alert request.
type Banner struct {
	Encounter string
	Text      string
	Color     *model.Color
	// Wait is slept before competing for the banner slot.
	Wait time.Duration
	// Display is how long the banner stays visible once shown.
	Display time.Duration
}

// Batch is the progress-bar feed of one phase. Consumers derive each bar's
// completion from StartedAt with Progress.
type Batch struct {
	Encounter string
	Phase     int
	PhaseName string
	StartedAt time.Time
	Alerts    []model.ScheduledAlert
}

// Event is a message to the presentation layer.
// Banner is set for AlertStart/AlertEnd, Batch for PhaseFeed.
type Event struct {
	Kind      EventKind
	Encounter string
	At        time.Time
	Banner    *Banner
	Batch     *Batch
}

// Progress returns the completion fraction (0..1) of a scheduled alert:
// elapsed = now - (startedAt + Timestamp - Duration), divided by Duration.
// A zero-duration alert jumps from 0 to 1 at its timestamp.
func Progress(now, startedAt time.Time, a model.ScheduledAlert) float64 {
	opens := startedAt.Add(a.Timestamp - a.Duration)
	elapsed := now.Sub(opens)
	if a.Duration <= 0 {
		if elapsed >= 0 {
			return 1
		}
		return 0
	}
	frac := float64(elapsed) / float64(a.Duration)
	return min(max(frac, 0), 1)
}
