package encounter

import (
	"github.com/udisondev/raidtimers/internal/data"
	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
)

// Input is an event delivered to the manager loop.
// Inputs are applied on the loop goroutine in arrival order.
type Input interface {
	apply(m *Manager)
}

// PositionInput updates the player position used by the next tick.
type PositionInput struct {
	Position zone.Position
}

// MapInput announces the current map.
type MapInput struct {
	MapID uint32
}

// CombatInput is a combat transition event.
type CombatInput struct {
	InCombat bool
}

// KeyInput is a trigger key press or release.
type KeyInput struct {
	Key     int
	Pressed bool
}

// ResetInput requests a reset of one encounter, or of every running
// encounter when Encounter is empty.
type ResetInput struct {
	Encounter string
}

// EnableInput enables or disables an encounter.
type EnableInput struct {
	Encounter string
	Enabled   bool
}

// ReloadInput replaces the encounter catalog.
type ReloadInput struct {
	Catalog *data.Catalog
}

type snapshotInput struct {
	reply chan []Status
}

func (in PositionInput) apply(m *Manager) { m.pos = in.Position }
func (in MapInput) apply(m *Manager)      { m.changeMap(in.MapID) }
func (in ResetInput) apply(m *Manager)    { m.requestReset(in.Encounter) }
func (in EnableInput) apply(m *Manager)   { m.setEnabled(in.Encounter, in.Enabled) }
func (in ReloadInput) apply(m *Manager)   { m.reload(in.Catalog) }
func (in snapshotInput) apply(m *Manager) { in.reply <- m.snapshot() }

func (in CombatInput) apply(m *Manager) {
	c := trigger.Exited
	if in.InCombat {
		c = trigger.Entered
	}
	m.combat = c
	for _, mc := range m.machines {
		mc.SetCombat(c)
	}
}

func (in KeyInput) apply(m *Manager) {
	if in.Pressed {
		m.keys.Press(in.Key)
	} else {
		m.keys.Release(in.Key)
	}
	for _, mc := range m.machines {
		if in.Pressed {
			mc.KeyPressed(in.Key)
		} else {
			mc.KeyReleased(in.Key)
		}
	}
}
