package training

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/riverwatch/floodcast/internal/config"
	"github.com/riverwatch/floodcast/internal/database"
	"github.com/riverwatch/floodcast/pkg/logger"
)

// Session wires the training-support components from application
// configuration: the shared logger, the checkpointer at the configured path,
// and the run-history store over the configured database. The external
// training loop builds one Session per process and derives its guards from
// it.
type Session struct {
	Log          zerolog.Logger
	Checkpointer *Checkpointer
	History      *RunHistory

	db *database.DB
}

// NewSession builds the training-support components from configuration.
func NewSession(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	cp, err := NewCheckpointer(cfg.CheckpointPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpointer: %w", err)
	}

	db, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath,
		Profile: database.ProfileStandard,
		Name:    "training",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Session{
		Log:          log,
		Checkpointer: cp,
		History:      NewRunHistory(db.Conn(), log),
		db:           db,
	}, nil
}

// NewStopper creates an early-stopping guard bound to the session's
// checkpointer, with its run registered in the history store.
func (s *Session) NewStopper(cfg StopperConfig) (*Stopper, error) {
	stopper, err := NewStopper(cfg, s.Checkpointer, s.Log)
	if err != nil {
		return nil, err
	}
	if err := stopper.AttachHistory(s.History); err != nil {
		return nil, err
	}
	return stopper, nil
}

// Close releases the session's database connection.
func (s *Session) Close() error {
	return s.db.Close()
}
