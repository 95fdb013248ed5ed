package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRow represents a row from encounter_runs.
type RunRow struct {
	ID            int64
	Encounter     string
	MapID         uint32
	StartedAt     time.Time
	EndedAt       time.Time
	Outcome       string // finished, reset, abandoned
	PhasesReached int
}

// RunRepository stores encounter run history.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// InsertRun stores one run and returns its id.
func (r *RunRepository) InsertRun(ctx context.Context, row RunRow) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO encounter_runs (encounter, map_id, started_at, ended_at, outcome, phases_reached)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		row.Encounter, int64(row.MapID), row.StartedAt, row.EndedAt, row.Outcome, row.PhasesReached,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert encounter run %q: %w", row.Encounter, err)
	}
	return id, nil
}

// RecentRuns returns the latest runs of an encounter, newest first.
func (r *RunRepository) RecentRuns(ctx context.Context, encounter string, limit int) ([]RunRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, encounter, map_id, started_at, ended_at, outcome, phases_reached
		 FROM encounter_runs
		 WHERE encounter = $1
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2`, encounter, limit)
	if err != nil {
		return nil, fmt.Errorf("query encounter_runs: %w", err)
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var row RunRow
		var mapID int64
		if err := rows.Scan(&row.ID, &row.Encounter, &mapID, &row.StartedAt, &row.EndedAt, &row.Outcome, &row.PhasesReached); err != nil {
			return nil, fmt.Errorf("scan encounter_runs: %w", err)
		}
		row.MapID = uint32(mapID)
		result = append(result, row)
	}
	return result, rows.Err()
}

// BestClear returns the fastest finished run of an encounter.
// ok is false when the encounter was never finished.
func (r *RunRepository) BestClear(ctx context.Context, encounter string) (best time.Duration, ok bool, err error) {
	var seconds *float64
	err = r.pool.QueryRow(ctx,
		`SELECT EXTRACT(EPOCH FROM MIN(ended_at - started_at))::float8
		 FROM encounter_runs
		 WHERE encounter = $1 AND outcome = 'finished'`, encounter,
	).Scan(&seconds)
	if err != nil {
		return 0, false, fmt.Errorf("query best clear %q: %w", encounter, err)
	}
	if seconds == nil {
		return 0, false, nil
	}
	return time.Duration(*seconds * float64(time.Second)), true, nil
}

// OutcomeCounts returns how many runs of an encounter ended with each outcome.
func (r *RunRepository) OutcomeCounts(ctx context.Context, encounter string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT outcome, COUNT(*) FROM encounter_runs WHERE encounter = $1 GROUP BY outcome`, encounter)
	if err != nil {
		return nil, fmt.Errorf("query outcome counts %q: %w", encounter, err)
	}
	defer rows.Close()

	counts := make(map[string]int, 3)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome counts: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// DeleteRunsBefore removes runs that started before cutoff.
func (r *RunRepository) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM encounter_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete encounter runs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}
