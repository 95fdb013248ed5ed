package main

import (
	"context"
	"log/slog"

	"github.com/udisondev/raidtimers/internal/db"
	"github.com/udisondev/raidtimers/internal/game/encounter"
)

// runStoreAdapter adapts db.RunRepository to encounter.RunStore.
type runStoreAdapter struct {
	repo *db.RunRepository
}

func (a *runStoreAdapter) SaveRun(ctx context.Context, run encounter.Run) error {
	_, err := a.repo.InsertRun(ctx, toRunRow(run))
	return err
}

func toRunRow(run encounter.Run) db.RunRow {
	return db.RunRow{
		Encounter:     run.Encounter,
		MapID:         run.MapID,
		StartedAt:     run.StartedAt,
		EndedAt:       run.EndedAt,
		Outcome:       string(run.Outcome),
		PhasesReached: run.PhasesReached,
	}
}

// logRunStore records runs in the log only.
type logRunStore struct{}

func (logRunStore) SaveRun(_ context.Context, run encounter.Run) error {
	slog.Info("encounter run",
		"encounter", run.Encounter,
		"outcome", run.Outcome,
		"phases", run.PhasesReached,
		"duration", run.Duration())
	return nil
}
