package overlay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtimers/internal/config"
	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/encounter"
)

// recordingPoster records inputs. When full is set Post drops everything,
// as a saturated manager queue would.
type recordingPoster struct {
	mu     sync.Mutex
	full   bool
	inputs []encounter.Input
}

func (p *recordingPoster) Post(in encounter.Input) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full {
		return false
	}
	p.inputs = append(p.inputs, in)
	return true
}

func (p *recordingPoster) Submit(_ context.Context, in encounter.Input) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, in)
	return nil
}

func (p *recordingPoster) setFull(full bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.full = full
}

func (p *recordingPoster) received() []encounter.Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]encounter.Input(nil), p.inputs...)
}

func newTestServer(t *testing.T) (*Hub, *recordingPoster, *httptest.Server) {
	t.Helper()

	hub := NewHub(8)
	poster := &recordingPoster{}
	srv := NewServer(config.Overlay{WriteTimeout: time.Second}, hub, poster)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.closeAll()
		ts.Close()
	})
	return hub, poster, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_Healthz(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_BroadcastsEvents(t *testing.T) {
	hub, _, ts := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, time.Millisecond)

	hub.Publish(alert.Event{
		Kind:      alert.AlertStart,
		Encounter: "vg",
		At:        time.Now(),
		Banner:    &alert.Banner{Encounter: "vg", Text: "Seekers", Display: 3 * time.Second},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type   string `json:"type"`
			Banner struct {
				Text       string `json:"text"`
				DurationMs int64  `json:"durationMs"`
			} `json:"banner"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "alert_start", msg.Type)
		assert.Equal(t, "Seekers", msg.Banner.Text)
		assert.Equal(t, int64(3000), msg.Banner.DurationMs)
	}
}

func TestServer_ForwardsInputs(t *testing.T) {
	hub, poster, ts := newTestServer(t)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	for _, raw := range []string{
		`{"type":"map","map":5}`,
		`{"type":"bogus"}`,
		`{"type":"combat","inCombat":true}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	require.Eventually(t, func() bool { return len(poster.received()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []encounter.Input{
		encounter.MapInput{MapID: 5},
		encounter.CombatInput{InCombat: true},
	}, poster.received())
}

func TestServer_EventInputsSurviveFullQueue(t *testing.T) {
	hub, poster, ts := newTestServer(t)
	poster.setFull(true)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	for _, raw := range []string{
		`{"type":"position","position":[1,2,3]}`,
		`{"type":"combat","inCombat":true}`,
		`{"type":"position","position":[4,5,6]}`,
		`{"type":"key","key":2,"pressed":true}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	require.Eventually(t, func() bool { return len(poster.received()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []encounter.Input{
		encounter.CombatInput{InCombat: true},
		encounter.KeyInput{Key: 2, Pressed: true},
	}, poster.received())
}

func TestServer_UnregistersOnClose(t *testing.T) {
	hub, _, ts := newTestServer(t)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestHub_FullQueueDrops(t *testing.T) {
	hub := NewHub(1)
	c := &client{id: 1, send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	ev := alert.Event{Kind: alert.PhaseReset, Encounter: "vg"}
	hub.Publish(ev)
	hub.Publish(ev)
	hub.Publish(ev)

	assert.Len(t, c.send, 1)
	assert.Equal(t, uint64(2), hub.Dropped())
	assert.Equal(t, uint64(3), hub.Published())
}
