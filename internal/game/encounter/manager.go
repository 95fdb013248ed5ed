package encounter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/raidtimers/internal/data"
	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
)

// ErrManagerStopped is returned by Submit and Snapshot after the loop exited.
var ErrManagerStopped = errors.New("encounter manager stopped")

// ManagerConfig tunes the manager loop.
type ManagerConfig struct {
	TickInterval time.Duration
	QueueSize    int
	ResetAck     time.Duration
	Disabled     []string
}

// DefaultManagerConfig returns the defaults used when a field is zero.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TickInterval: 100 * time.Millisecond,
		QueueSize:    256,
		ResetAck:     DefaultResetAck,
	}
}

// Status is a point-in-time view of one machine.
type Status struct {
	Encounter      string
	Name           string
	MapID          uint32
	State          State
	Combat         trigger.CombatState
	PhaseStartedAt time.Time
	PendingAlerts  int
}

// Manager owns the machines of the current map and drives them from a
// single goroutine: a fixed-period tick plus a bounded input queue.
type Manager struct {
	cfg    ManagerConfig
	sched  *alert.Scheduler
	inputs chan Input
	done   chan struct{}
	stopCh chan struct{}
	stop   sync.Once

	machineCount atomic.Int32
	dropped      atomic.Uint64

	onTransition []func(Transition)
	onDestroy    []func(*Machine)

	// Loop-owned.
	catalog  *data.Catalog
	disabled map[string]bool
	machines []*Machine
	mapID    uint32
	mapKnown bool
	pos      zone.Position
	combat   trigger.CombatState
	keys     trigger.KeySet
	now      func() time.Time
}

// NewManager creates a manager over catalog. Zero config fields take
// their DefaultManagerConfig value.
func NewManager(catalog *data.Catalog, sched *alert.Scheduler, cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.ResetAck <= 0 {
		cfg.ResetAck = def.ResetAck
	}
	if catalog == nil {
		catalog = data.NewCatalog()
	}

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, id := range cfg.Disabled {
		disabled[id] = true
	}

	return &Manager{
		cfg:      cfg,
		sched:    sched,
		inputs:   make(chan Input, cfg.QueueSize),
		done:     make(chan struct{}),
		stopCh:   make(chan struct{}),
		catalog:  catalog,
		disabled: disabled,
		now:      time.Now,
	}
}

// OnTransition registers fn for every transition of every machine.
// Must be called before Start.
func (m *Manager) OnTransition(fn func(Transition)) {
	m.onTransition = append(m.onTransition, fn)
}

// OnDestroy registers fn for every machine torn down by the manager.
// Must be called before Start.
func (m *Manager) OnDestroy(fn func(*Machine)) {
	m.onDestroy = append(m.onDestroy, fn)
}

// Post enqueues in without blocking. It reports false when the queue is
// full and the input was dropped.
func (m *Manager) Post(in Input) bool {
	select {
	case m.inputs <- in:
		return true
	default:
		n := m.dropped.Add(1)
		slog.Warn("encounter input dropped, queue full", "dropped_total", n)
		return false
	}
}

// Submit enqueues in, waiting for room in the queue.
func (m *Manager) Submit(ctx context.Context, in Input) error {
	select {
	case m.inputs <- in:
		return nil
	case <-m.done:
		return ErrManagerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the status of every live machine, in load order.
func (m *Manager) Snapshot(ctx context.Context) ([]Status, error) {
	reply := make(chan []Status, 1)
	if err := m.Submit(ctx, snapshotInput{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-m.done:
		return nil, ErrManagerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Count returns the number of live machines.
func (m *Manager) Count() int {
	return int(m.machineCount.Load())
}

// Dropped returns the number of inputs dropped by Post.
func (m *Manager) Dropped() uint64 {
	return m.dropped.Load()
}

// Start runs the loop until ctx is cancelled or Stop is called. All
// machines are stopped before it returns.
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	defer close(m.done)
	defer m.destroyAll()

	slog.Info("encounter manager started",
		"interval", m.cfg.TickInterval,
		"encounters", m.catalog.Count(),
		"maps", m.catalog.MapCount())

	for {
		select {
		case <-ctx.Done():
			slog.Info("encounter manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("encounter manager stopped")
			return nil

		case in := <-m.inputs:
			in.apply(m)

		case <-ticker.C:
			m.tickAll()
		}
	}
}

// Stop stops the loop. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stop.Do(func() { close(m.stopCh) })
}

func (m *Manager) tickAll() {
	if m.pos == nil {
		return
	}
	for _, mc := range m.machines {
		mc.Tick(m.pos)
	}
	if len(m.machines) > 0 && IsDebugEnabled() {
		slog.Debug("encounter tick completed", "machines", len(m.machines), "position", m.pos)
	}
}

// changeMap tears down every machine and creates the enabled encounters
// of mapID. Re-announcing the current map is a no-op. A new map starts
// outside combat with no keys held.
func (m *Manager) changeMap(mapID uint32) {
	if m.mapKnown && m.mapID == mapID {
		return
	}
	m.destroyAll()
	m.mapID, m.mapKnown = mapID, true
	m.combat, m.keys = trigger.Outside, 0
	m.buildMachines()

	slog.Info("map changed", "map", mapID, "encounters", len(m.machines))
}

func (m *Manager) buildMachines() {
	if !m.mapKnown {
		return
	}
	for _, f := range m.catalog.ForMap(m.mapID) {
		if m.disabled[f.ID] {
			continue
		}
		m.create(f.ID)
	}
}

func (m *Manager) create(id string) {
	f := m.catalog.Get(id)
	if f == nil {
		return
	}
	mc := NewMachine(f, m.sched,
		WithClock(m.now),
		WithResetAck(m.cfg.ResetAck),
		WithPlayerState(m.combat, m.keys),
		WithObserver(m.notify))
	m.machines = append(m.machines, mc)
	m.machineCount.Add(1)
	mc.MapChanged(m.mapID)
}

func (m *Manager) notify(t Transition) {
	for _, fn := range m.onTransition {
		fn(t)
	}
}

func (m *Manager) destroy(i int) {
	mc := m.machines[i]
	m.machines = append(m.machines[:i], m.machines[i+1:]...)
	m.machineCount.Add(-1)
	mc.Stop()
	for _, fn := range m.onDestroy {
		fn(mc)
	}
}

func (m *Manager) destroyAll() {
	for len(m.machines) > 0 {
		m.destroy(len(m.machines) - 1)
	}
}

func (m *Manager) find(id string) int {
	for i, mc := range m.machines {
		if mc.ID() == id {
			return i
		}
	}
	return -1
}

func (m *Manager) requestReset(id string) {
	for _, mc := range m.machines {
		if id == "" || mc.ID() == id {
			mc.RequestReset()
		}
	}
}

func (m *Manager) setEnabled(id string, enabled bool) {
	if m.catalog.Get(id) == nil {
		slog.Warn("enable request for unknown encounter", "encounter", id)
		return
	}
	if enabled {
		delete(m.disabled, id)
	} else {
		m.disabled[id] = true
	}

	i := m.find(id)
	switch {
	case !enabled && i >= 0:
		m.destroy(i)
	case enabled && i < 0 && m.mapKnown && m.catalog.Get(id).MapID == m.mapID:
		m.create(id)
	}
	slog.Info("encounter toggled", "encounter", id, "enabled", enabled)
}

// reload swaps the catalog and rebuilds the machines of the current map.
// Running encounters restart from OnMap.
func (m *Manager) reload(c *data.Catalog) {
	if c == nil {
		return
	}
	m.destroyAll()
	m.catalog = c
	m.buildMachines()
	slog.Info("encounter catalog reloaded", "encounters", c.Count(), "active", len(m.machines))
}

func (m *Manager) snapshot() []Status {
	out := make([]Status, 0, len(m.machines))
	for _, mc := range m.machines {
		out = append(out, Status{
			Encounter:      mc.ID(),
			Name:           mc.File().Name,
			MapID:          mc.File().MapID,
			State:          mc.State(),
			Combat:         mc.Combat(),
			PhaseStartedAt: mc.PhaseStartedAt(),
			PendingAlerts:  mc.PendingAlerts(),
		})
	}
	return out
}
