package encounter

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/trigger"
	"github.com/udisondev/raidtimers/internal/game/zone"
	"github.com/udisondev/raidtimers/internal/model"
)

func TestMachine_ReferenceScenario(t *testing.T) {
	m, sink, log := newTestMachine(scenarioFile(1))
	defer m.Stop()

	assert.Equal(t, StateAwakeUnaware, m.State())

	m.Tick(zone.Vec3{X: 10, Y: 10, Z: 10})
	m.MapChanged(5)
	m.Tick(zone.Vec3{X: 10, Y: 10, Z: 10})
	assert.Equal(t, StateOnMap, m.State())
	assert.Equal(t, 0, sink.count(alert.PhaseFeed))

	m.Tick(zone.Vec3{X: 0, Y: 0, Z: 0})
	assert.Equal(t, StateOnPhase(0), m.State())
	assert.Equal(t, 1, sink.count(alert.PhaseFeed))

	onPhase := 0
	for _, s := range log.states() {
		if s == StateOnPhase(0) {
			onPhase++
		}
	}
	assert.Equal(t, 1, onPhase)

	// Staying inside the start region does not restart the phase.
	m.Tick(zone.Vec3{X: 0, Y: 0, Z: 0})
	assert.Equal(t, 1, sink.count(alert.PhaseFeed))
	assert.Equal(t, fixedNow, m.PhaseStartedAt())
}

func TestMachine_OffMap(t *testing.T) {
	m, sink, _ := newTestMachine(scenarioFile(1))
	defer m.Stop()

	m.MapChanged(6)
	assert.Equal(t, StateOffMap, m.State())

	m.Tick(startOf(0))
	assert.Equal(t, StateOffMap, m.State())
	assert.Equal(t, 0, sink.count(alert.PhaseFeed))

	m.MapChanged(5)
	assert.Equal(t, StateOnMap, m.State())
}

func TestMachine_RunsAllPhasesToFinished(t *testing.T) {
	const n = 4
	m, sink, log := newTestMachine(scenarioFile(n))
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	for p := range n {
		require.Equal(t, StateOnPhase(p), m.State())
		m.Tick(finishOf(p))
		if p < n-1 {
			require.Equal(t, StateFinishedPhase(p), m.State())
			m.Tick(startOf(p + 1))
		}
	}
	assert.Equal(t, StateFinished, m.State())

	phaseToPhase := 0
	var prev State
	for _, s := range log.states() {
		assert.NotEqual(t, StateFinishedPhase(n-1), s, "last FinishedPhase must never be observed")
		if s.Kind == OnPhase && prev.Kind == FinishedPhase {
			phaseToPhase++
		}
		prev = s
	}
	assert.Equal(t, n-1, phaseToPhase)
	assert.Equal(t, n, sink.count(alert.PhaseFeed))

	// Finished is terminal for ticks, reset trigger included.
	m.Tick(resetSpot)
	m.Tick(startOf(0))
	assert.Equal(t, StateFinished, m.State())
}

func TestMachine_PhasesAreSequential(t *testing.T) {
	m, _, _ := newTestMachine(scenarioFile(3))
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(2))
	assert.Equal(t, StateOnMap, m.State(), "later phases cannot be entered from OnMap")

	m.Tick(startOf(0))
	m.Tick(finishOf(0))
	m.Tick(startOf(2))
	assert.Equal(t, StateFinishedPhase(0), m.State(), "phase 2 cannot be reached before phase 1")
}

func TestMachine_ResetCancelsPhaseAlerts(t *testing.T) {
	f := scenarioFile(2)
	f.Phases[1].Alerts = []model.AlertDefinition{{
		Warning:         ptr("Bombs soon"),
		WarningDuration: ptr(0.05),
		Timestamps:      []float64{0.1},
	}}
	m, sink, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	m.Tick(finishOf(0))
	m.Tick(startOf(1))
	require.Equal(t, StateOnPhase(1), m.State())
	require.Equal(t, 1, m.PendingAlerts())

	clearsBefore := sink.count(alert.PhaseReset)
	m.Tick(resetSpot)
	assert.Equal(t, StateOnMap, m.State())
	assert.Equal(t, clearsBefore+1, sink.count(alert.PhaseReset), "one clear per transition")

	time.Sleep(150 * time.Millisecond)
	assert.NotContains(t, sink.bannerTexts(alert.AlertStart), "Bombs soon")
	assert.Contains(t, sink.bannerTexts(alert.AlertStart), "Vale Guardian reset")
}

func TestMachine_ResetAckSurvivesImmediateRestart(t *testing.T) {
	m, sink, _ := newTestMachine(scenarioFile(2))
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	m.Tick(resetSpot)
	require.Equal(t, StateOnMap, m.State())

	m.Tick(startOf(0))
	require.Equal(t, StateOnPhase(0), m.State())

	require.Eventually(t, func() bool {
		return slices.Contains(sink.bannerTexts(alert.AlertEnd), "Vale Guardian reset")
	}, time.Second, time.Millisecond)
	assert.Contains(t, sink.bannerTexts(alert.AlertStart), "Vale Guardian reset")
}

func TestMachine_PlayerStateSeed(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Start = keyTrigger("1")
	f.Phases[0].Start.RequireCombat = true

	var keys trigger.KeySet
	keys.Press(1)
	m := NewMachine(f, newQuietScheduler(), WithPlayerState(trigger.Entered, keys))
	defer m.Stop()

	assert.Equal(t, trigger.Entered, m.Combat())
	assert.True(t, m.Keys().Has(1))

	m.MapChanged(5)
	m.Tick(nowhere)
	assert.Equal(t, StateOnPhase(0), m.State())
}

func TestMachine_ResetImmuneOutsidePhases(t *testing.T) {
	m, _, log := newTestMachine(scenarioFile(1))
	defer m.Stop()

	m.Tick(resetSpot)
	assert.Equal(t, StateAwakeUnaware, m.State())

	m.MapChanged(5)
	m.Tick(resetSpot)
	assert.Equal(t, StateOnMap, m.State())
	assert.Len(t, log.states(), 1, "reset must not fire in OnMap")
}

func TestMachine_ResetFromFinishedPhase(t *testing.T) {
	m, _, log := newTestMachine(scenarioFile(2))
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	m.Tick(finishOf(0))
	require.Equal(t, StateFinishedPhase(0), m.State())

	m.Tick(resetSpot)
	assert.Equal(t, StateOnMap, m.State())

	last := log.last()
	assert.True(t, last.Reset)
	assert.Equal(t, StateFinishedPhase(0), last.From)
}

func TestMachine_ResetEndsTick(t *testing.T) {
	f := scenarioFile(1)
	// Phase 0 start and the reset overlap.
	f.Phases[0].Start = trigger.Trigger{Kind: trigger.KindLocation}
	m, _, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(nowhere)
	require.Equal(t, StateOnPhase(0), m.State())

	m.Tick(resetSpot)
	assert.Equal(t, StateOnMap, m.State(), "phase must not restart in the resetting tick")

	m.Tick(resetSpot)
	assert.Equal(t, StateOnPhase(0), m.State())
}

func TestMachine_KeyEvaluatedOnNextTick(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Start = keyTrigger("3")
	m, _, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.KeyPressed(3)
	assert.Equal(t, StateOnMap, m.State(), "key press alone does not transition")

	m.Tick(nowhere)
	assert.Equal(t, StateOnPhase(0), m.State())

	m.KeyReleased(3)
	assert.False(t, m.Keys().Has(3))
}

func TestMachine_CombatGatedStart(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Start = trigger.Trigger{Kind: trigger.KindLocation, RequireCombat: true}
	f.Reset = trigger.Trigger{Kind: trigger.KindLocation, RequireOutOfCombat: true}
	m, _, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(nowhere)
	assert.Equal(t, StateOnMap, m.State())

	m.SetCombat(trigger.Entered)
	m.Tick(nowhere)
	assert.Equal(t, StateOnPhase(0), m.State())

	m.SetCombat(trigger.Exited)
	m.Tick(nowhere)
	assert.Equal(t, StateOnMap, m.State(), "leaving combat resets")
	assert.Equal(t, trigger.Exited, m.Combat())
}

func TestMachine_PhaseWithoutFinish(t *testing.T) {
	f := scenarioFile(2)
	f.Phases[0].Finish = nil
	m, _, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	for _, p := range []zone.Position{finishOf(0), startOf(1), finishOf(1), nowhere} {
		m.Tick(p)
	}
	assert.Equal(t, StateOnPhase(0), m.State())
}

func TestMachine_ActionsFireOncePerVisit(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Finish = nil
	f.Phases[0].Actions = []model.Action{
		{Kind: model.ActionBanner, Trigger: enterSphere(50, 0, 0, 3), Text: "Push!", Duration: time.Millisecond},
		{Kind: model.ActionFinishPhase, Trigger: keyTrigger("1")},
	}
	m, sink, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	m.Tick(zone.Vec3{X: 50})
	m.Tick(zone.Vec3{X: 50})
	m.Tick(zone.Vec3{X: 50})

	require.Eventually(t, func() bool {
		return len(sink.bannerTexts(alert.AlertEnd)) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"Push!"}, sink.bannerTexts(alert.AlertStart))

	m.KeyPressed(1)
	m.Tick(nowhere)
	assert.Equal(t, StateFinished, m.State(), "finish action on the last phase collapses to Finished")
}

func TestMachine_ResetAction(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Actions = []model.Action{{Kind: model.ActionReset, Trigger: keyTrigger("0")}}
	m, _, log := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))
	m.KeyPressed(0)
	m.Tick(nowhere)

	assert.Equal(t, StateOnMap, m.State())
	assert.True(t, log.last().Reset)
}

func TestMachine_RequestReset(t *testing.T) {
	m, _, _ := newTestMachine(scenarioFile(1))
	defer m.Stop()

	m.RequestReset()
	assert.Equal(t, StateAwakeUnaware, m.State())

	m.MapChanged(5)
	m.RequestReset()
	assert.Equal(t, StateOnMap, m.State())

	m.Tick(startOf(0))
	m.Tick(finishOf(0))
	require.Equal(t, StateFinished, m.State())

	m.RequestReset()
	assert.Equal(t, StateOnMap, m.State())
}

func TestMachine_PhaseFeedBatch(t *testing.T) {
	f := scenarioFile(1)
	f.Phases[0].Name = "Split"
	f.Phases[0].Alerts = []model.AlertDefinition{{
		Warning:         ptr("w"),
		Alert:           ptr("a"),
		WarningDuration: ptr(5.0),
		AlertDuration:   ptr(2.0),
		Timestamps:      []float64{60, 120},
	}}
	m, sink, _ := newTestMachine(f)
	defer m.Stop()

	m.MapChanged(5)
	m.Tick(startOf(0))

	batches := sink.batches()
	require.Len(t, batches, 1)
	b := batches[0]
	assert.Equal(t, "vale-guardian", b.Encounter)
	assert.Equal(t, 0, b.Phase)
	assert.Equal(t, "Split", b.PhaseName)
	assert.Equal(t, fixedNow, b.StartedAt)
	assert.Len(t, b.Alerts, 4)
	assert.Equal(t, 4, m.PendingAlerts())

	m.Stop()
	assert.Equal(t, 0, m.PendingAlerts())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ON_PHASE(2)", StateOnPhase(2).String())
	assert.Equal(t, "FINISHED", StateFinished.String())
	assert.True(t, StateFinishedPhase(0).InProgress())
	assert.False(t, StateOnMap.InProgress())
}
