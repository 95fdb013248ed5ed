package alert

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Scheduler owns the single banner slot shared by every encounter and the
// sink presentation events go to.
//
// The slot is a weighted semaphore of size one: there is no timeout and
// no FIFO guarantee between competing encounters, only exclusivity. A task
// that never finishes starves every other banner.
type Scheduler struct {
	sink    Sink
	slot    *semaphore.Weighted
	showing atomic.Bool
	now     func() time.Time
}

// NewScheduler creates a scheduler publishing to sink (nil means NopSink).
func NewScheduler(sink Sink) *Scheduler {
	if sink == nil {
		sink = NopSink
	}
	return &Scheduler{
		sink: sink,
		slot: semaphore.NewWeighted(1),
		now:  time.Now,
	}
}

// Publish sends ev to the sink, stamping At when unset.
// A panicking sink is logged and swallowed.
func (s *Scheduler) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("presentation sink failed", "event", ev.Kind, "encounter", ev.Encounter, "panic", r)
		}
	}()
	s.sink.Publish(ev)
}

// Showing reports whether a banner is currently visible.
func (s *Scheduler) Showing() bool {
	return s.showing.Load()
}

// NewGroup creates an empty task group bound to this scheduler.
func (s *Scheduler) NewGroup() *Group {
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{s: s, ctx: ctx, cancel: cancel}
}

// Group is the set of banner tasks owned by one encounter phase.
// Cancel aborts all of them; a group is not reused after Cancel.
type Group struct {
	s      *Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	tasks  atomic.Int32
}

// Schedule starts one banner task.
func (g *Group) Schedule(b Banner) {
	if g.ctx.Err() != nil {
		return
	}
	g.wg.Add(1)
	g.tasks.Add(1)
	go g.run(b)
}

// Pending returns the number of tasks that have not finished yet.
func (g *Group) Pending() int {
	return int(g.tasks.Load())
}

// Cancel aborts every task of the group and waits until they exit.
// Tasks holding the banner slot publish AlertEnd and release it on the way out.
func (g *Group) Cancel() {
	g.cancel()
	g.wg.Wait()
}

func (g *Group) run(b Banner) {
	defer g.wg.Done()
	defer g.tasks.Add(-1)

	if !sleep(g.ctx, b.Wait) {
		return
	}
	if err := g.s.slot.Acquire(g.ctx, 1); err != nil {
		return
	}
	defer g.s.slot.Release(1)
	if g.ctx.Err() != nil {
		return
	}

	g.s.showing.Store(true)
	g.s.Publish(Event{Kind: AlertStart, Encounter: b.Encounter, Banner: &b})
	defer func() {
		g.s.showing.Store(false)
		g.s.Publish(Event{Kind: AlertEnd, Encounter: b.Encounter, Banner: &b})
	}()

	sleep(g.ctx, b.Display)
}

// sleep waits for d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
