// Package encounter runs encounter timers: one phase state machine per
// loaded encounter of the current map, driven by a single tick loop.
package encounter

import (
	"log/slog"
	"time"

	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
	"github.com/udisondev/raidtimers/internal/model"
)

// DefaultResetAck is how long the reset acknowledgement banner is shown.
const DefaultResetAck = time.Second

// Machine is the phase state machine of one encounter.
//
// It is not safe for concurrent use: only the tick loop goroutine may call
// its methods. The banner tasks it spawns live in a group owned by the
// current state and are cancelled on every transition. Reset
// acknowledgements live in their own group and survive the transitions
// that follow the reset.
type Machine struct {
	file  *model.TimerFile
	sched *alert.Scheduler

	state  State
	combat trigger.CombatState
	keys   trigger.KeySet

	group     *alert.Group
	ack       *alert.Group
	startedAt time.Time // start of the running phase
	fired     []bool    // actions of the running phase that already fired

	resetAck  time.Duration
	now       func() time.Time
	observers []func(Transition)
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the clock used for phase start instants.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithResetAck sets the reset acknowledgement banner duration.
func WithResetAck(d time.Duration) Option {
	return func(m *Machine) { m.resetAck = d }
}

// WithPlayerState seeds the combat state and pressed keys the player
// already has when the machine is created.
func WithPlayerState(combat trigger.CombatState, keys trigger.KeySet) Option {
	return func(m *Machine) {
		m.combat = combat
		m.keys = keys
	}
}

// WithObserver registers fn to be called after every transition.
func WithObserver(fn func(Transition)) Option {
	return func(m *Machine) { m.observers = append(m.observers, fn) }
}

// NewMachine creates a machine in AwakeUnaware for file.
func NewMachine(file *model.TimerFile, sched *alert.Scheduler, opts ...Option) *Machine {
	m := &Machine{
		file:     file,
		sched:    sched,
		state:    StateAwakeUnaware,
		resetAck: DefaultResetAck,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.group = sched.NewGroup()
	m.ack = sched.NewGroup()
	return m
}

// ID returns the encounter id.
func (m *Machine) ID() string { return m.file.ID }

// File returns the encounter definition.
func (m *Machine) File() *model.TimerFile { return m.file }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Combat returns the tracked combat state.
func (m *Machine) Combat() trigger.CombatState { return m.combat }

// Keys returns the tracked pressed keys.
func (m *Machine) Keys() trigger.KeySet { return m.keys }

// PhaseStartedAt returns the start instant of the running phase.
func (m *Machine) PhaseStartedAt() time.Time { return m.startedAt }

// PendingAlerts returns the number of unfinished banner tasks.
func (m *Machine) PendingAlerts() int { return m.group.Pending() + m.ack.Pending() }

// MapChanged moves the machine to OnMap when mapID is the encounter map and
// to OffMap otherwise.
func (m *Machine) MapChanged(mapID uint32) {
	target := StateOffMap
	if mapID == m.file.MapID {
		target = StateOnMap
	}
	if m.state == target {
		return
	}
	m.transition(target, false)
}

// SetCombat records a combat transition event.
func (m *Machine) SetCombat(c trigger.CombatState) { m.combat = c }

// KeyPressed records a key press; it is evaluated on the next tick.
func (m *Machine) KeyPressed(k int) { m.keys.Press(k) }

// KeyReleased records a key release.
func (m *Machine) KeyReleased(k int) { m.keys.Release(k) }

// RequestReset resets a running or finished encounter back to OnMap.
// It has no effect in AwakeUnaware, OffMap or OnMap.
func (m *Machine) RequestReset() {
	if m.state.InProgress() || m.state.Kind == Finished {
		m.reset("request")
	}
}

// Stop cancels every banner task and clears the encounter's progress bars.
// The machine must not be used afterwards.
func (m *Machine) Stop() {
	m.group.Cancel()
	m.ack.Cancel()
	m.sched.Publish(alert.Event{Kind: alert.PhaseReset, Encounter: m.file.ID})
}

// Tick evaluates the machine against the current position.
// The reset check runs first and ends the tick when it fires.
func (m *Machine) Tick(pos zone.Position) {
	if m.state.InProgress() && m.file.Reset.Check(pos, m.combat, m.keys) {
		m.reset("trigger")
		return
	}

	switch m.state.Kind {
	case OnMap:
		if first := m.file.Phase(0); first != nil && first.Start.Check(pos, m.combat, m.keys) {
			m.enterPhase(0)
		}

	case OnPhase:
		p := m.state.Phase
		phase := m.file.Phase(p)
		if phase.Finish != nil && phase.Finish.Check(pos, m.combat, m.keys) {
			m.finishPhase(p)
			return
		}
		m.runActions(pos, phase)

	case FinishedPhase:
		next := m.file.Phase(m.state.Phase + 1)
		if next != nil && next.Start.Check(pos, m.combat, m.keys) {
			m.enterPhase(m.state.Phase + 1)
		}
	}
}

// finishPhase ends phase p. Finishing the last phase goes straight to
// Finished: FinishedPhase(last) is never entered, so nothing can observe it.
func (m *Machine) finishPhase(p int) {
	if p >= m.file.LastPhase() {
		m.transition(StateFinished, false)
		slog.Info("encounter finished", "encounter", m.file.ID, "phases", len(m.file.Phases))
		return
	}
	m.transition(StateFinishedPhase(p), false)
}

func (m *Machine) enterPhase(p int) {
	m.transition(StateOnPhase(p), false)

	phase := m.file.Phase(p)
	m.startedAt = m.now()
	m.fired = make([]bool, len(phase.Actions))

	alerts := phase.ScheduledAlerts()
	m.sched.Publish(alert.Event{
		Kind:      alert.PhaseFeed,
		Encounter: m.file.ID,
		Batch: &alert.Batch{
			Encounter: m.file.ID,
			Phase:     p,
			PhaseName: phase.Name,
			StartedAt: m.startedAt,
			Alerts:    alerts,
		},
	})

	scheduled := 0
	for _, a := range alerts {
		if a.Duration <= 0 {
			continue
		}
		m.group.Schedule(alert.Banner{
			Encounter: m.file.ID,
			Text:      a.Text,
			Color:     a.Color,
			Wait:      a.Opens(),
			Display:   a.Duration,
		})
		scheduled++
	}

	slog.Info("encounter phase started",
		"encounter", m.file.ID,
		"phase", p,
		"name", phase.Name,
		"alerts", len(alerts),
		"banners", scheduled)
}

func (m *Machine) runActions(pos zone.Position, phase *model.TimerPhase) {
	for i := range phase.Actions {
		if m.fired[i] {
			continue
		}
		a := &phase.Actions[i]
		if !a.Trigger.Check(pos, m.combat, m.keys) {
			continue
		}
		m.fired[i] = true

		switch a.Kind {
		case model.ActionFinishPhase:
			m.finishPhase(m.state.Phase)
			return
		case model.ActionReset:
			m.reset("action")
			return
		case model.ActionBanner:
			m.group.Schedule(alert.Banner{
				Encounter: m.file.ID,
				Text:      a.Text,
				Display:   a.Duration,
			})
		}
	}
}

func (m *Machine) reset(cause string) {
	from := m.state
	m.transition(StateOnMap, true)
	m.ack.Schedule(alert.Banner{
		Encounter: m.file.ID,
		Text:      m.file.Name + " reset",
		Display:   m.resetAck,
	})
	slog.Info("encounter reset", "encounter", m.file.ID, "from", from, "cause", cause)
}

// transition runs the per-transition side effects exactly once: the banner
// tasks of the state being left are cancelled and a single clear is
// published for the encounter's progress bars.
func (m *Machine) transition(to State, reset bool) {
	from := m.state

	m.group.Cancel()
	m.sched.Publish(alert.Event{Kind: alert.PhaseReset, Encounter: m.file.ID})
	m.group = m.sched.NewGroup()

	m.state = to
	m.fired = nil
	if !to.InProgress() {
		m.startedAt = time.Time{}
	}

	if IsDebugEnabled() {
		slog.Debug("encounter transition",
			"encounter", m.file.ID,
			"from", from,
			"to", to,
			"reset", reset)
	}

	t := Transition{Encounter: m.file.ID, MapID: m.file.MapID, From: from, To: to, Reset: reset}
	for _, fn := range m.observers {
		fn(t)
	}
}
