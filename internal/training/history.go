package training

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stop reasons recorded against a run.
const (
	StopReasonEarlyStop = "early_stop"
	StopReasonCompleted = "completed"
)

// RunHistory persists training runs and their per-epoch validation scores.
// It is an optional collaborator of the Stopper; the guard works without it.
type RunHistory struct {
	db  *sql.DB
	log zerolog.Logger
}

// Run is one training run's summary row.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      *time.Time
	StopReason      *string
	Patience        int
	MinDelta        float64
	CumulativeDelta bool
}

// EpochRecord is one evaluation epoch's record.
type EpochRecord struct {
	RunID      string
	Epoch      int
	Score      float64
	Improved   bool
	Counter    int
	RecordedAt time.Time
}

// NewRunHistory creates a run history repository over an open training
// database connection.
func NewRunHistory(db *sql.DB, log zerolog.Logger) *RunHistory {
	return &RunHistory{
		db:  db,
		log: log.With().Str("component", "run_history").Logger(),
	}
}

// StartRun registers a new training run and returns its ID.
func (h *RunHistory) StartRun(cfg StopperConfig) (string, error) {
	runID := uuid.New().String()

	query := `INSERT INTO training_runs (id, started_at, patience, min_delta, cumulative_delta)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := h.db.Exec(query, runID, time.Now().UTC().Unix(), cfg.Patience, cfg.MinDelta, cfg.CumulativeDelta)
	if err != nil {
		return "", fmt.Errorf("failed to insert training run: %w", err)
	}

	h.log.Info().
		Str("run_id", runID).
		Int("patience", cfg.Patience).
		Float64("min_delta", cfg.MinDelta).
		Bool("cumulative_delta", cfg.CumulativeDelta).
		Msg("Training run started")

	return runID, nil
}

// RecordEpoch stores one evaluation epoch's score.
func (h *RunHistory) RecordEpoch(runID string, epoch int, score float64, improved bool, counter int) error {
	query := `INSERT INTO training_epochs (run_id, epoch, score, improved, counter, recorded_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err := h.db.Exec(query, runID, epoch, score, improved, counter, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert epoch record: %w", err)
	}
	return nil
}

// FinishRun marks a run as finished with the given stop reason.
func (h *RunHistory) FinishRun(runID, reason string) error {
	query := `UPDATE training_runs SET finished_at = ?, stop_reason = ? WHERE id = ?`
	res, err := h.db.Exec(query, time.Now().UTC().Unix(), reason, runID)
	if err != nil {
		return fmt.Errorf("failed to finish training run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("training run %s not found", runID)
	}

	h.log.Info().Str("run_id", runID).Str("reason", reason).Msg("Training run finished")
	return nil
}

// GetRun returns one run's summary.
func (h *RunHistory) GetRun(runID string) (*Run, error) {
	query := `SELECT id, started_at, finished_at, stop_reason, patience, min_delta, cumulative_delta
	          FROM training_runs WHERE id = ?`

	var run Run
	var startedAt int64
	var finishedAt sql.NullInt64
	var stopReason sql.NullString

	err := h.db.QueryRow(query, runID).Scan(
		&run.ID, &startedAt, &finishedAt, &stopReason,
		&run.Patience, &run.MinDelta, &run.CumulativeDelta,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("training run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query training run: %w", err)
	}

	run.StartedAt = time.Unix(startedAt, 0).UTC()
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		run.FinishedAt = &t
	}
	if stopReason.Valid {
		run.StopReason = &stopReason.String
	}

	return &run, nil
}

// GetEpochs returns a run's epoch records in epoch order.
func (h *RunHistory) GetEpochs(runID string) ([]EpochRecord, error) {
	query := `SELECT run_id, epoch, score, improved, counter, recorded_at
	          FROM training_epochs WHERE run_id = ? ORDER BY epoch ASC`

	rows, err := h.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query epoch records: %w", err)
	}
	defer rows.Close()

	var records []EpochRecord
	for rows.Next() {
		var rec EpochRecord
		var recordedAt int64
		if err := rows.Scan(&rec.RunID, &rec.Epoch, &rec.Score, &rec.Improved, &rec.Counter, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan epoch record: %w", err)
		}
		rec.RecordedAt = time.Unix(recordedAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate epoch records: %w", err)
	}

	return records, nil
}

// BestEpoch returns the epoch with the highest recorded score for a run.
func (h *RunHistory) BestEpoch(runID string) (*EpochRecord, error) {
	query := `SELECT run_id, epoch, score, improved, counter, recorded_at
	          FROM training_epochs WHERE run_id = ?
	          ORDER BY score DESC, epoch ASC LIMIT 1`

	var rec EpochRecord
	var recordedAt int64
	err := h.db.QueryRow(query, runID).Scan(&rec.RunID, &rec.Epoch, &rec.Score, &rec.Improved, &rec.Counter, &recordedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no epochs recorded for run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query best epoch: %w", err)
	}
	rec.RecordedAt = time.Unix(recordedAt, 0).UTC()

	return &rec, nil
}
