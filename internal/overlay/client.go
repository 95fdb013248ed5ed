package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/raidtimers/internal/game/encounter"
)

const (
	maxInboundSize = 4096

	// submitTimeout bounds how long a reader waits for room in the input
	// queue before dropping an event input.
	submitTimeout = 250 * time.Millisecond
)

// client is one overlay connection: a reader feeding the input poster and
// a writer draining the send queue.
type client struct {
	id     uint64
	remote string
	conn   *websocket.Conn
	send   chan []byte
}

// readLoop decodes inbound frames until the connection fails.
func (c *client) readLoop(inputs InputPoster) {
	c.conn.SetReadLimit(maxInboundSize)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("overlay read failed", "client", c.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		in, err := decodeInput(data)
		if err != nil {
			slog.Warn("invalid overlay message", "client", c.id, "error", err)
			continue
		}
		if inputs != nil {
			c.forward(inputs, in)
		}
	}
}

// forward posts position updates without blocking, since the next update
// supersedes a dropped one. Every other input is a one-off event and waits
// briefly for room in the queue.
func (c *client) forward(inputs InputPoster, in encounter.Input) {
	if _, ok := in.(encounter.PositionInput); ok {
		inputs.Post(in)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	if err := inputs.Submit(ctx, in); err != nil {
		slog.Warn("overlay input dropped", "client", c.id, "input", fmt.Sprintf("%T", in), "error", err)
	}
}

// writeLoop sends queued frames until the queue is closed or a write fails.
func (c *client) writeLoop(writeTimeout time.Duration) {
	defer c.conn.Close()

	for data := range c.send {
		if writeTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				slog.Debug("overlay write failed", "client", c.id, "error", err)
			}
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
