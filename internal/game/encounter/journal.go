package encounter

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Outcome is how an encounter run ended.
type Outcome string

const (
	OutcomeFinished  Outcome = "finished"
	OutcomeReset     Outcome = "reset"
	OutcomeAbandoned Outcome = "abandoned" // machine destroyed mid-run
)

// Run is one attempt at an encounter, from entering the first phase until
// it finishes, resets or is abandoned.
type Run struct {
	Encounter     string
	MapID         uint32
	StartedAt     time.Time
	EndedAt       time.Time
	Outcome       Outcome
	PhasesReached int
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// RunStore persists completed runs.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error
}

const (
	defaultJournalQueue = 64
	flushTimeout        = 2 * time.Second
)

// Journal turns machine transitions into runs and hands them to a RunStore
// on its own goroutine.
//
// Observe and Abandon are called from the manager loop only. A full queue
// drops the run; the store is never allowed to stall the loop.
type Journal struct {
	store   RunStore
	queue   chan Run
	open    map[string]*Run
	dropped atomic.Uint64
	now     func() time.Time
}

// NewJournal creates a journal writing to store.
func NewJournal(store RunStore, queueSize int) *Journal {
	if queueSize <= 0 {
		queueSize = defaultJournalQueue
	}
	return &Journal{
		store: store,
		queue: make(chan Run, queueSize),
		open:  make(map[string]*Run),
		now:   time.Now,
	}
}

// Observe records one transition. It is shaped to be passed to
// Manager.OnTransition.
func (j *Journal) Observe(t Transition) {
	run := j.open[t.Encounter]

	switch {
	case t.To.Kind == OnPhase:
		if run == nil {
			run = &Run{Encounter: t.Encounter, MapID: t.MapID, StartedAt: j.now()}
			j.open[t.Encounter] = run
		}
		run.PhasesReached = max(run.PhasesReached, t.To.Phase+1)

	case run == nil:
		return

	case t.Reset:
		j.close(t.Encounter, OutcomeReset)

	case t.To.Kind == Finished:
		j.close(t.Encounter, OutcomeFinished)

	case !t.To.InProgress():
		j.close(t.Encounter, OutcomeAbandoned)
	}
}

// Abandon closes the open run of a destroyed machine. It is shaped to be
// passed to Manager.OnDestroy.
func (j *Journal) Abandon(m *Machine) {
	if _, ok := j.open[m.ID()]; ok {
		j.close(m.ID(), OutcomeAbandoned)
	}
}

// Dropped returns the number of runs lost to a full queue.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

func (j *Journal) close(id string, outcome Outcome) {
	run := j.open[id]
	delete(j.open, id)

	run.EndedAt = j.now()
	run.Outcome = outcome

	select {
	case j.queue <- *run:
	default:
		n := j.dropped.Add(1)
		slog.Warn("encounter run dropped, journal queue full",
			"encounter", id,
			"outcome", outcome,
			"dropped_total", n)
	}
}

// Run saves queued runs until ctx is cancelled, then flushes what is
// left with a short deadline.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return nil
		case run := <-j.queue:
			j.save(ctx, run)
		}
	}
}

func (j *Journal) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case run := <-j.queue:
			j.save(ctx, run)
		default:
			return
		}
	}
}

func (j *Journal) save(ctx context.Context, run Run) {
	if err := j.store.SaveRun(ctx, run); err != nil {
		slog.Error("failed to save encounter run",
			"encounter", run.Encounter,
			"outcome", run.Outcome,
			"error", err)
		return
	}
	slog.Debug("encounter run saved",
		"encounter", run.Encounter,
		"outcome", run.Outcome,
		"phases", run.PhasesReached,
		"duration", run.Duration())
}
