package trigger

import (
	"fmt"
	"strconv"
	"strings"
)

// Warning is a non-fatal validation finding.
type Warning string

const (
	WarnUnsatisfiableSpatial Warning = "requireEntry and requireDeparture are both set; trigger can never fire"
	WarnUnsatisfiableCombat  Warning = "requireCombat and requireOutOfCombat are both set; trigger can never fire"
	WarnSpatialWithoutRegion Warning = "requireEntry/requireDeparture set but no region is defined; trigger can never fire"
)

// Validate checks the trigger definition and resolves the key binding.
// Errors wrap ErrMalformedTrigger; warnings describe triggers that are
// well-formed but can never be satisfied.
func (t *Trigger) Validate() ([]Warning, error) {
	switch t.Kind {
	case KindLocation, KindKey:
	default:
		return nil, fmt.Errorf("%w: %w %d", ErrMalformedTrigger, ErrUnknownKind, t.Kind)
	}

	if t.Kind == KindKey {
		if t.KeyBind == nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedTrigger, ErrMissingKeyBind)
		}
		k, err := strconv.Atoi(strings.TrimSpace(*t.KeyBind))
		if err != nil || k < 0 || k >= MaxKeys {
			return nil, fmt.Errorf("%w: %w %q", ErrMalformedTrigger, ErrBadKeyBind, *t.KeyBind)
		}
		t.key = k
		t.resolved = true
	}

	if t.Radius != nil && *t.Radius < 0 {
		return nil, fmt.Errorf("%w: %w %g", ErrMalformedTrigger, ErrNegativeRadius, *t.Radius)
	}
	if t.Position != nil && t.Antipode != nil && t.Position.Dims() != t.Antipode.Dims() {
		return nil, fmt.Errorf("%w: %w (%d vs %d)", ErrMalformedTrigger, ErrShapeMismatch,
			t.Position.Dims(), t.Antipode.Dims())
	}

	var warnings []Warning
	if t.RequireEntry && t.RequireDeparture {
		warnings = append(warnings, WarnUnsatisfiableSpatial)
	}
	if t.RequireCombat && t.RequireOutOfCombat {
		warnings = append(warnings, WarnUnsatisfiableCombat)
	}
	if t.RequireEntry || t.RequireDeparture {
		if _, ok := t.Region(); !ok {
			warnings = append(warnings, WarnSpatialWithoutRegion)
		}
	}
	return warnings, nil
}
