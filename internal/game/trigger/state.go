package trigger

import "fmt"

// CombatState is the edge-triggered view of fight participation.
// It changes only on a combat transition event and holds until the next one.
type CombatState int

const (
	Outside CombatState = iota // no transition seen yet
	Entered
	Exited
)

// String returns a human-readable combat state name.
func (c CombatState) String() string {
	switch c {
	case Outside:
		return "OUTSIDE"
	case Entered:
		return "ENTERED"
	case Exited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// MaxKeys is the number of bindable trigger keys (ids 0..MaxKeys-1).
const MaxKeys = 5

// KeySet is a fixed-size bitset of currently pressed trigger keys.
type KeySet uint8

// Press marks key k as pressed. Out-of-range keys are ignored.
func (s *KeySet) Press(k int) {
	if k < 0 || k >= MaxKeys {
		return
	}
	*s |= 1 << uint(k)
}

// Release marks key k as released.
func (s *KeySet) Release(k int) {
	if k < 0 || k >= MaxKeys {
		return
	}
	*s &^= 1 << uint(k)
}

// Has reports whether key k is pressed.
func (s KeySet) Has(k int) bool {
	if k < 0 || k >= MaxKeys {
		return false
	}
	return s&(1<<uint(k)) != 0
}

func (s KeySet) String() string {
	return fmt.Sprintf("%05b", uint8(s))
}
