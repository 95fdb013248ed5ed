package model

import (
	"fmt"
	"time"
)

// Color is an RGBA color of an alert bar or text.
type Color struct {
	R, G, B, A uint8
}

// ParseColor builds a Color from a 3- or 4-component list of 0..255 values.
// Alpha defaults to 255.
func ParseColor(c []int) (Color, error) {
	if len(c) != 3 && len(c) != 4 {
		return Color{}, fmt.Errorf("color must have 3 or 4 components, got %d", len(c))
	}
	for _, v := range c {
		if v < 0 || v > 255 {
			return Color{}, fmt.Errorf("color component %d out of range 0..255", v)
		}
	}
	col := Color{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255}
	if len(c) == 4 {
		col.A = uint8(c[3])
	}
	return col, nil
}

// AlertDefinition describes warnings/alerts repeated at phase timestamps.
// Durations and timestamps are seconds since the phase started.
type AlertDefinition struct {
	WarningDuration *float64
	AlertDuration   *float64
	Warning         *string
	Alert           *string
	WarningColor    *Color
	AlertColor      *Color
	FillColor       *Color
	Icon            string
	Timestamps      []float64
}

// AlertKind distinguishes the two halves of an expanded alert.
type AlertKind int

const (
	AlertWarning AlertKind = iota
	AlertMain
)

// String returns a human-readable alert kind.
func (k AlertKind) String() string {
	if k == AlertWarning {
		return "warning"
	}
	return "alert"
}

// ScheduledAlert is one concrete alert anchored to a phase start.
// Its progress window is [Timestamp-Duration, Timestamp].
type ScheduledAlert struct {
	Kind      AlertKind
	Text      string
	Timestamp time.Duration
	Duration  time.Duration
	Color     *Color
	FillColor *Color
	Icon      string
}

// Opens returns the offset at which the alert window opens, never negative.
func (a ScheduledAlert) Opens() time.Duration {
	return max(a.Timestamp-a.Duration, 0)
}

// Expand flattens every timestamp into zero, one or two scheduled alerts.
// The warning counts down to the timestamp; the alert runs from the
// timestamp for AlertDuration.
func (d *AlertDefinition) Expand() []ScheduledAlert {
	warnDur := seconds(d.WarningDuration)
	alertDur := seconds(d.AlertDuration)

	out := make([]ScheduledAlert, 0, 2*len(d.Timestamps))
	for _, ts := range d.Timestamps {
		at := secondsOf(ts)
		if d.Warning != nil {
			out = append(out, ScheduledAlert{
				Kind:      AlertWarning,
				Text:      *d.Warning,
				Timestamp: at,
				Duration:  warnDur,
				Color:     d.WarningColor,
				FillColor: d.FillColor,
				Icon:      d.Icon,
			})
		}
		if d.Alert != nil {
			out = append(out, ScheduledAlert{
				Kind:      AlertMain,
				Text:      *d.Alert,
				Timestamp: at + alertDur,
				Duration:  alertDur,
				Color:     d.AlertColor,
				FillColor: d.FillColor,
				Icon:      d.Icon,
			})
		}
	}
	return out
}

func seconds(v *float64) time.Duration {
	if v == nil {
		return 0
	}
	return secondsOf(*v)
}

func secondsOf(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
