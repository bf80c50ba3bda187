package training

import (
	"fmt"

	"github.com/rs/zerolog"
)

// StopperConfig holds the early-stopping parameters.
type StopperConfig struct {
	// Patience is the number of consecutive non-improving evaluations
	// tolerated before stopping. Must be at least 1.
	Patience int
	// MinDelta is the minimum margin a score must exceed the best score by
	// to count as improvement. A score within MinDelta of the best (or
	// exactly MinDelta above it) does not reset the patience counter.
	MinDelta float64
	// CumulativeDelta, when true, measures the improvement margin against
	// the best score at the last counter reset rather than raising the best
	// score on every new high.
	CumulativeDelta bool
}

// Stopper is an early-stopping guard for a training loop. The loop calls
// CheckScore once per evaluation epoch; the guard tracks the best validation
// score seen, saves a model checkpoint on every improvement, and reports
// when training should halt.
//
// Scores are higher-is-better. Negate a loss before passing it in.
//
// A Stopper is owned by a single training loop; it is not safe for
// concurrent use.
type Stopper struct {
	patience        int
	minDelta        float64
	cumulativeDelta bool

	counter   int
	bestScore *float64
	epoch     int

	checkpointer *Checkpointer
	history      *RunHistory // optional
	runID        string
	log          zerolog.Logger
}

// NewStopper creates an early-stopping guard. Construction fails if patience
// is below 1 or minDelta is negative.
func NewStopper(cfg StopperConfig, checkpointer *Checkpointer, log zerolog.Logger) (*Stopper, error) {
	if cfg.Patience < 1 {
		return nil, fmt.Errorf("patience must be a positive integer, got %d", cfg.Patience)
	}
	if cfg.MinDelta < 0 {
		return nil, fmt.Errorf("min_delta must not be negative, got %g", cfg.MinDelta)
	}
	if checkpointer == nil {
		return nil, fmt.Errorf("checkpointer is required")
	}

	return &Stopper{
		patience:        cfg.Patience,
		minDelta:        cfg.MinDelta,
		cumulativeDelta: cfg.CumulativeDelta,
		checkpointer:    checkpointer,
		log:             log.With().Str("component", "early_stopper").Logger(),
	}, nil
}

// AttachHistory wires an optional run-history store. Every CheckScore call
// after attachment is recorded under the returned run ID.
func (s *Stopper) AttachHistory(history *RunHistory) error {
	runID, err := history.StartRun(StopperConfig{
		Patience:        s.patience,
		MinDelta:        s.minDelta,
		CumulativeDelta: s.cumulativeDelta,
	})
	if err != nil {
		return fmt.Errorf("failed to start history run: %w", err)
	}
	s.history = history
	s.runID = runID
	return nil
}

// RunID returns the history run ID, or "" when no history is attached.
func (s *Stopper) RunID() string {
	return s.runID
}

// Counter returns the current count of consecutive non-improving epochs.
func (s *Stopper) Counter() int {
	return s.counter
}

// BestScore returns the best score seen and whether any score has been seen.
func (s *Stopper) BestScore() (float64, bool) {
	if s.bestScore == nil {
		return 0, false
	}
	return *s.bestScore, true
}

// CheckScore evaluates one epoch's validation score. It returns true while
// training should continue and false once patience is exhausted.
//
// The first call always saves a checkpoint and records the score as best.
// A score more than MinDelta above the best saves a checkpoint, updates the
// best and resets the counter. Any other score increments the counter; when
// CumulativeDelta is false a new high still raises the best score even
// though it did not reset the counter.
//
// Checkpoint write failures propagate; the guard's state is not advanced on
// a failed save.
func (s *Stopper) CheckScore(model Checkpointable, score float64) (bool, error) {
	s.epoch++

	switch {
	case s.bestScore == nil:
		if err := s.checkpointer.Save(model, score); err != nil {
			s.epoch--
			return false, err
		}
		best := score
		s.bestScore = &best
		s.record(score, true)
		s.log.Debug().Float64("score", score).Msg("Initial best score recorded")

	case score <= *s.bestScore+s.minDelta:
		if !s.cumulativeDelta && score > *s.bestScore {
			*s.bestScore = score
		}
		s.counter++
		s.record(score, false)
		s.log.Debug().
			Int("counter", s.counter).
			Int("patience", s.patience).
			Float64("score", score).
			Float64("best_score", *s.bestScore).
			Msg("No sufficient improvement")
		if s.counter >= s.patience {
			s.finish(StopReasonEarlyStop)
			s.log.Info().
				Int("epochs", s.epoch).
				Float64("best_score", *s.bestScore).
				Msg("Patience exhausted, stopping training")
			return false, nil
		}

	default:
		if err := s.checkpointer.Save(model, score); err != nil {
			s.epoch--
			return false, err
		}
		s.log.Debug().
			Float64("score", score).
			Float64("previous_best", *s.bestScore).
			Msg("Score improved, counter reset")
		*s.bestScore = score
		s.counter = 0
		s.record(score, true)
	}

	return true, nil
}

// Finish marks an attached history run as completed. Call it when the
// training loop ends for a reason other than early stopping.
func (s *Stopper) Finish() {
	s.finish(StopReasonCompleted)
}

// record writes one epoch to the history store when attached. History write
// failures are logged, not propagated; metric bookkeeping must never abort
// a training run.
func (s *Stopper) record(score float64, improved bool) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordEpoch(s.runID, s.epoch, score, improved, s.counter); err != nil {
		s.log.Warn().Err(err).Int("epoch", s.epoch).Msg("Failed to record epoch")
	}
}

func (s *Stopper) finish(reason string) {
	if s.history == nil {
		return
	}
	if err := s.history.FinishRun(s.runID, reason); err != nil {
		s.log.Warn().Err(err).Str("reason", reason).Msg("Failed to finish history run")
	}
}
