package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
	"github.com/udisondev/raidtimers/internal/model"
)

// encounterDoc is the on-disk form of one encounter timer definition.
// JSON documents decode through the YAML decoder as well.
type encounterDoc struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Category    string      `yaml:"category"`
	Description string      `yaml:"description"`
	Author      string      `yaml:"author"`
	Icon        string      `yaml:"icon"`
	Map         uint32      `yaml:"map"`
	Reset       *triggerDoc `yaml:"reset"`
	Phases      []phaseDoc  `yaml:"phases"`
}

type phaseDoc struct {
	Name    string      `yaml:"name"`
	Start   *triggerDoc `yaml:"start"`
	Finish  *triggerDoc `yaml:"finish"`
	Alerts  []alertDoc  `yaml:"alerts"`
	Actions []actionDoc `yaml:"actions"`
}

type triggerDoc struct {
	Type               string    `yaml:"type"`
	KeyBind            *string   `yaml:"keyBind"`
	Position           []float64 `yaml:"position"`
	Antipode           []float64 `yaml:"antipode"`
	Radius             *float64  `yaml:"radius"`
	RequireCombat      bool      `yaml:"requireCombat"`
	RequireOutOfCombat bool      `yaml:"requireOutOfCombat"`
	RequireEntry       bool      `yaml:"requireEntry"`
	RequireDeparture   bool      `yaml:"requireDeparture"`
}

type alertDoc struct {
	WarningDuration *float64  `yaml:"warningDuration"`
	AlertDuration   *float64  `yaml:"alertDuration"`
	Warning         *string   `yaml:"warning"`
	WarningColor    []int     `yaml:"warningColor"`
	Alert           *string   `yaml:"alert"`
	AlertColor      []int     `yaml:"alertColor"`
	Icon            string    `yaml:"icon"`
	FillColor       []int     `yaml:"fillColor"`
	Timestamps      []float64 `yaml:"timestamps"`
}

type actionDoc struct {
	Type     string      `yaml:"type"`
	Trigger  *triggerDoc `yaml:"trigger"`
	Text     string      `yaml:"text"`
	Duration float64     `yaml:"duration"`
}

// toModel converts and validates the document.
// Warnings are prefixed with the location of the offending trigger.
func (d *encounterDoc) toModel() (*model.TimerFile, []string, error) {
	if strings.TrimSpace(d.ID) == "" {
		return nil, nil, ErrMissingID
	}
	if len(d.Phases) == 0 {
		return nil, nil, ErrNoPhases
	}
	if d.Reset == nil {
		return nil, nil, ErrMissingReset
	}

	var warnings []string
	collect := func(where string, ws []trigger.Warning) {
		for _, w := range ws {
			warnings = append(warnings, where+": "+string(w))
		}
	}

	reset, ws, err := d.Reset.toTrigger()
	if err != nil {
		return nil, nil, fmt.Errorf("reset: %w", err)
	}
	collect("reset", ws)

	f := &model.TimerFile{
		ID:          d.ID,
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Author:      d.Author,
		Icon:        d.Icon,
		MapID:       d.Map,
		Reset:       reset,
		Phases:      make([]model.TimerPhase, 0, len(d.Phases)),
	}

	for i := range d.Phases {
		pd := &d.Phases[i]
		where := fmt.Sprintf("phase %d (%s)", i, pd.Name)

		if pd.Start == nil {
			return nil, nil, fmt.Errorf("%s: %w", where, ErrMissingStart)
		}
		start, ws, err := pd.Start.toTrigger()
		if err != nil {
			return nil, nil, fmt.Errorf("%s start: %w", where, err)
		}
		collect(where+" start", ws)

		phase := model.TimerPhase{Name: pd.Name, Start: start}

		if pd.Finish != nil {
			finish, ws, err := pd.Finish.toTrigger()
			if err != nil {
				return nil, nil, fmt.Errorf("%s finish: %w", where, err)
			}
			collect(where+" finish", ws)
			phase.Finish = &finish
		}

		for j := range pd.Alerts {
			alert, ws, err := pd.Alerts[j].toModel()
			if err != nil {
				return nil, nil, fmt.Errorf("%s alert %d: %w", where, j, err)
			}
			for _, w := range ws {
				warnings = append(warnings, fmt.Sprintf("%s alert %d: %s", where, j, w))
			}
			phase.Alerts = append(phase.Alerts, alert)
		}

		for j := range pd.Actions {
			action, ws, err := pd.Actions[j].toModel()
			if err != nil {
				return nil, nil, fmt.Errorf("%s action %d: %w", where, j, err)
			}
			collect(fmt.Sprintf("%s action %d", where, j), ws)
			phase.Actions = append(phase.Actions, action)
		}

		f.Phases = append(f.Phases, phase)
	}

	return f, warnings, nil
}

func (t *triggerDoc) toTrigger() (trigger.Trigger, []trigger.Warning, error) {
	out := trigger.Trigger{
		KeyBind:            t.KeyBind,
		Radius:             t.Radius,
		RequireCombat:      t.RequireCombat,
		RequireOutOfCombat: t.RequireOutOfCombat,
		RequireEntry:       t.RequireEntry,
		RequireDeparture:   t.RequireDeparture,
	}

	switch strings.ToLower(strings.TrimSpace(t.Type)) {
	case "location", "":
		out.Kind = trigger.KindLocation
	case "key":
		out.Kind = trigger.KindKey
	default:
		return out, nil, fmt.Errorf("%w: %w %q", trigger.ErrMalformedTrigger, trigger.ErrUnknownKind, t.Type)
	}

	if t.Position != nil {
		p, err := zone.ParsePosition(t.Position)
		if err != nil {
			return out, nil, fmt.Errorf("%w: position: %w", trigger.ErrMalformedTrigger, err)
		}
		out.Position = p
	}
	if t.Antipode != nil {
		p, err := zone.ParsePosition(t.Antipode)
		if err != nil {
			return out, nil, fmt.Errorf("%w: antipode: %w", trigger.ErrMalformedTrigger, err)
		}
		out.Antipode = p
	}

	ws, err := out.Validate()
	if err != nil {
		return out, nil, err
	}
	return out, ws, nil
}

// Alert texts without a positive duration are listed in the phase feed
// but never shown as a banner.
const (
	warnWarningNoDuration = "warning text has no positive warningDuration; it will never be shown as a banner"
	warnAlertNoDuration   = "alert text has no positive alertDuration; it will never be shown as a banner"
)

func (a *alertDoc) toModel() (model.AlertDefinition, []string, error) {
	out := model.AlertDefinition{
		WarningDuration: a.WarningDuration,
		AlertDuration:   a.AlertDuration,
		Warning:         a.Warning,
		Alert:           a.Alert,
		Icon:            a.Icon,
		Timestamps:      a.Timestamps,
	}

	var err error
	if out.WarningColor, err = parseOptionalColor(a.WarningColor); err != nil {
		return out, nil, fmt.Errorf("warningColor: %w", err)
	}
	if out.AlertColor, err = parseOptionalColor(a.AlertColor); err != nil {
		return out, nil, fmt.Errorf("alertColor: %w", err)
	}
	if out.FillColor, err = parseOptionalColor(a.FillColor); err != nil {
		return out, nil, fmt.Errorf("fillColor: %w", err)
	}

	var warnings []string
	if a.Warning != nil && !positive(a.WarningDuration) {
		warnings = append(warnings, warnWarningNoDuration)
	}
	if a.Alert != nil && !positive(a.AlertDuration) {
		warnings = append(warnings, warnAlertNoDuration)
	}
	return out, warnings, nil
}

func positive(v *float64) bool { return v != nil && *v > 0 }

func (a *actionDoc) toModel() (model.Action, []trigger.Warning, error) {
	out := model.Action{
		Text:     a.Text,
		Duration: time.Duration(a.Duration * float64(time.Second)),
	}

	switch strings.ToLower(strings.TrimSpace(a.Type)) {
	case "finish":
		out.Kind = model.ActionFinishPhase
	case "reset":
		out.Kind = model.ActionReset
	case "banner":
		out.Kind = model.ActionBanner
	default:
		return out, nil, fmt.Errorf("%w %q", ErrUnknownActionType, a.Type)
	}

	if a.Trigger == nil {
		return out, nil, nil
	}
	trg, ws, err := a.Trigger.toTrigger()
	if err != nil {
		return out, nil, fmt.Errorf("trigger: %w", err)
	}
	out.Trigger = trg
	return out, ws, nil
}

func parseOptionalColor(c []int) (*model.Color, error) {
	if c == nil {
		return nil, nil
	}
	col, err := model.ParseColor(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadColor, err)
	}
	return &col, nil
}
