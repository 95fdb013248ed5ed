package encounter

import (
	"sync"
	"time"

	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
	"github.com/udisondev/raidtimers/internal/model"
)

func ptr[T any](v T) *T { return &v }

// enterSphere is a location trigger satisfied inside a sphere.
func enterSphere(x, y, z, r float64) trigger.Trigger {
	return trigger.Trigger{
		Kind:         trigger.KindLocation,
		Position:     zone.Vec3{X: x, Y: y, Z: z},
		Radius:       ptr(r),
		RequireEntry: true,
	}
}

func keyTrigger(k string) trigger.Trigger {
	t := trigger.Trigger{Kind: trigger.KindKey, KeyBind: ptr(k)}
	if _, err := t.Validate(); err != nil {
		panic(err)
	}
	return t
}

// scenarioFile builds the reference encounter: map 5, phase 0 starts inside
// a radius-5 sphere at the origin, reset inside a radius-1 sphere at 100.
// Phase p (p>0) starts at (p*20, 0, 0); every phase finishes at (p*20+10, 0, 0).
func scenarioFile(phases int) *model.TimerFile {
	f := &model.TimerFile{
		ID:    "vale-guardian",
		Name:  "Vale Guardian",
		MapID: 5,
		Reset: enterSphere(100, 100, 100, 1),
	}
	for p := range phases {
		finish := enterSphere(float64(p*20+10), 0, 0, 2)
		f.Phases = append(f.Phases, model.TimerPhase{
			Name:   "phase",
			Start:  enterSphere(float64(p*20), 0, 0, 5),
			Finish: &finish,
		})
	}
	return f
}

func startOf(p int) zone.Position  { return zone.Vec3{X: float64(p * 20)} }
func finishOf(p int) zone.Position { return zone.Vec3{X: float64(p*20 + 10)} }

var resetSpot = zone.Vec3{X: 100, Y: 100, Z: 100}
var nowhere = zone.Vec3{X: -1000, Y: -1000, Z: -1000}

// recordingSink records presentation events.
type recordingSink struct {
	mu     sync.Mutex
	events []alert.Event
}

func (r *recordingSink) Publish(ev alert.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) count(kind alert.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingSink) bannerTexts(kind alert.EventKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Kind == kind && ev.Banner != nil {
			out = append(out, ev.Banner.Text)
		}
	}
	return out
}

func (r *recordingSink) batches() []*alert.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*alert.Batch
	for _, ev := range r.events {
		if ev.Kind == alert.PhaseFeed {
			out = append(out, ev.Batch)
		}
	}
	return out
}

// transitionLog collects transitions from a machine observer.
type transitionLog struct {
	mu  sync.Mutex
	all []Transition
}

func (l *transitionLog) observe(t Transition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, t)
}

func (l *transitionLog) states() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]State, len(l.all))
	for i, t := range l.all {
		out[i] = t.To
	}
	return out
}

func (l *transitionLog) last() Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.all[len(l.all)-1]
}

var fixedNow = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestMachine(f *model.TimerFile) (*Machine, *recordingSink, *transitionLog) {
	sink := &recordingSink{}
	log := &transitionLog{}
	m := NewMachine(f, alert.NewScheduler(sink),
		WithClock(fixedClock),
		WithResetAck(5*time.Millisecond),
		WithObserver(log.observe))
	return m, sink, log
}

func newQuietScheduler() *alert.Scheduler { return alert.NewScheduler(nil) }
