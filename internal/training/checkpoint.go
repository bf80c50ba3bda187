// Package training provides the guards and persistence helpers used by the
// external training loop: an early-stopping guard, msgpack model
// checkpointing, and a sqlite-backed run history.
//
// The guard follows a higher-is-better score convention. Callers minimizing
// a loss must negate it before calling CheckScore.
package training

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Checkpointable is implemented by models that can export their parameters
// as a state dictionary of named tensors. The dictionary contents are opaque
// to this package.
type Checkpointable interface {
	StateDict() map[string][]float64
}

// Checkpoint is the on-disk envelope around a model state dictionary.
type Checkpoint struct {
	SavedAt time.Time            `msgpack:"saved_at"`
	Score   float64              `msgpack:"score"`
	State   map[string][]float64 `msgpack:"state"`
}

// Checkpointer persists model state to a fixed path, overwriting in place on
// every save. No versioning, no rotation; the file always holds the best
// model seen so far.
type Checkpointer struct {
	path string
	log  zerolog.Logger
}

// NewCheckpointer creates a checkpointer writing to the given path. The
// parent directory is created if needed.
func NewCheckpointer(path string, log zerolog.Logger) (*Checkpointer, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	return &Checkpointer{
		path: path,
		log:  log.With().Str("component", "checkpointer").Logger(),
	}, nil
}

// Path returns the fixed checkpoint path.
func (c *Checkpointer) Path() string {
	return c.path
}

// Save writes the model's state dictionary to the checkpoint path. The write
// is synchronous and fsynced; it blocks until durable. I/O failures
// propagate to the caller.
func (c *Checkpointer) Save(model Checkpointable, score float64) error {
	cp := Checkpoint{
		SavedAt: time.Now().UTC(),
		Score:   score,
		State:   model.StateDict(),
	}

	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	c.log.Debug().
		Str("path", c.path).
		Float64("score", score).
		Int("params", len(cp.State)).
		Msg("Checkpoint saved")

	return nil
}

// Load reads a checkpoint back from disk.
func (c *Checkpointer) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	return &cp, nil
}
