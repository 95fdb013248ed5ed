package overlay

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/encounter"
	"github.com/udisondev/raidtimers/internal/game/zone"
	"github.com/udisondev/raidtimers/internal/model"
)

// Outbound messages. Times are unix milliseconds, durations milliseconds.

type eventMsg struct {
	Type      string     `json:"type"`
	Encounter string     `json:"encounter"`
	At        int64      `json:"at"`
	Banner    *bannerMsg `json:"banner,omitempty"`
	Batch     *batchMsg  `json:"batch,omitempty"`
}

type bannerMsg struct {
	Text       string `json:"text"`
	Color      []int  `json:"color,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type batchMsg struct {
	Phase     int        `json:"phase"`
	PhaseName string     `json:"phaseName,omitempty"`
	StartedAt int64      `json:"startedAt"`
	Alerts    []alertMsg `json:"alerts"`
}

type alertMsg struct {
	Kind        string `json:"kind"`
	Text        string `json:"text"`
	TimestampMs int64  `json:"timestampMs"`
	DurationMs  int64  `json:"durationMs"`
	Color       []int  `json:"color,omitempty"`
	FillColor   []int  `json:"fillColor,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// encodeEvent renders ev as one JSON text frame.
func encodeEvent(ev alert.Event) ([]byte, error) {
	msg := eventMsg{
		Type:      ev.Kind.String(),
		Encounter: ev.Encounter,
		At:        ev.At.UnixMilli(),
	}
	if b := ev.Banner; b != nil {
		msg.Banner = &bannerMsg{
			Text:       b.Text,
			Color:      colorList(b.Color),
			DurationMs: b.Display.Milliseconds(),
		}
	}
	if b := ev.Batch; b != nil {
		msg.Batch = &batchMsg{
			Phase:     b.Phase,
			PhaseName: b.PhaseName,
			StartedAt: b.StartedAt.UnixMilli(),
			Alerts:    make([]alertMsg, 0, len(b.Alerts)),
		}
		for _, a := range b.Alerts {
			msg.Batch.Alerts = append(msg.Batch.Alerts, alertMsg{
				Kind:        a.Kind.String(),
				Text:        a.Text,
				TimestampMs: a.Timestamp.Milliseconds(),
				DurationMs:  a.Duration.Milliseconds(),
				Color:       colorList(a.Color),
				FillColor:   colorList(a.FillColor),
				Icon:        a.Icon,
			})
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	return data, nil
}

func colorList(c *model.Color) []int {
	if c == nil {
		return nil
	}
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

// inboundMsg is the flat union of every input message.
type inboundMsg struct {
	Type      string    `json:"type"`
	Position  []float64 `json:"position"`
	Map       *uint32   `json:"map"`
	InCombat  *bool     `json:"inCombat"`
	Key       *int      `json:"key"`
	Pressed   *bool     `json:"pressed"`
	Encounter string    `json:"encounter"`
	Enabled   *bool     `json:"enabled"`
}

// decodeInput turns one inbound text frame into a manager input.
func decodeInput(data []byte) (encounter.Input, error) {
	var msg inboundMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}

	switch msg.Type {
	case "position":
		pos, err := zone.ParsePosition(msg.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: position: %w", ErrBadMessage, err)
		}
		return encounter.PositionInput{Position: pos}, nil

	case "map":
		if msg.Map == nil {
			return nil, fmt.Errorf("%w: map without id", ErrBadMessage)
		}
		return encounter.MapInput{MapID: *msg.Map}, nil

	case "combat":
		if msg.InCombat == nil {
			return nil, fmt.Errorf("%w: combat without inCombat", ErrBadMessage)
		}
		return encounter.CombatInput{InCombat: *msg.InCombat}, nil

	case "key":
		if msg.Key == nil || msg.Pressed == nil {
			return nil, fmt.Errorf("%w: key needs key and pressed", ErrBadMessage)
		}
		return encounter.KeyInput{Key: *msg.Key, Pressed: *msg.Pressed}, nil

	case "reset":
		return encounter.ResetInput{Encounter: msg.Encounter}, nil

	case "enable":
		if msg.Encounter == "" || msg.Enabled == nil {
			return nil, fmt.Errorf("%w: enable needs encounter and enabled", ErrBadMessage)
		}
		return encounter.EnableInput{Encounter: msg.Encounter, Enabled: *msg.Enabled}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMessage, msg.Type)
	}
}

