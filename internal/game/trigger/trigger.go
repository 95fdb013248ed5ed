// Package trigger evaluates encounter triggers: declarative spatial, combat
// and key conditions attached to phase boundaries and encounter resets.
package trigger

import (
	"github.com/udisondev/raidtimers/internal/game/zone"
)

// Kind selects how a trigger is evaluated.
type Kind int

const (
	KindLocation Kind = iota
	KindKey
)

// String returns the document spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocation:
		return "location"
	case KindKey:
		return "key"
	default:
		return "unknown"
	}
}

// Trigger is a spatial + combat + key condition.
// Position, Antipode and Radius are optional; a trigger without a derivable
// region is non-spatial, which is valid (e.g. reset by key or by combat exit).
type Trigger struct {
	Kind     Kind
	KeyBind  *string
	Position zone.Position
	Antipode zone.Position
	Radius   *float64

	RequireCombat      bool
	RequireOutOfCombat bool
	RequireEntry       bool
	RequireDeparture   bool

	// key is the resolved KeyBind index, set by Validate.
	key      int
	resolved bool
}

// Region derives the polytope of the trigger.
// Position+Radius yields a sphere, Position+Antipode a cuboid; radius wins
// when both are present.
func (t *Trigger) Region() (zone.Polytope, bool) {
	if t.Position == nil {
		return nil, false
	}
	if t.Radius != nil {
		return zone.Sphere{Center: t.Position, Radius: *t.Radius}, true
	}
	if t.Antipode != nil {
		return zone.Cuboid{Pode: t.Position, Antipode: t.Antipode}, true
	}
	return nil, false
}

// Key returns the resolved key index of a validated key trigger.
func (t *Trigger) Key() (int, bool) {
	return t.key, t.resolved
}

// Check evaluates the trigger against the current player context.
// Key triggers that were never validated never fire.
func (t *Trigger) Check(pos zone.Position, combat CombatState, keys KeySet) bool {
	return t.spatialGate(pos) && t.combatGate(combat) && t.keyGate(keys)
}

func (t *Trigger) spatialGate(pos zone.Position) bool {
	if !t.RequireEntry && !t.RequireDeparture {
		return true
	}
	region, ok := t.Region()
	if !ok || pos == nil {
		return false
	}
	inside := region.Contains(pos)
	if t.RequireEntry && !inside {
		return false
	}
	if t.RequireDeparture && inside {
		return false
	}
	return true
}

func (t *Trigger) combatGate(combat CombatState) bool {
	if t.RequireCombat && combat != Entered {
		return false
	}
	if t.RequireOutOfCombat && combat != Exited {
		return false
	}
	return true
}

func (t *Trigger) keyGate(keys KeySet) bool {
	if t.Kind != KindKey {
		return true
	}
	if !t.resolved {
		return false
	}
	return keys.Has(t.key)
}
