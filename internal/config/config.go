// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for checkpoints and databases (always absolute)
	CheckpointPath string // Fixed path the best-model checkpoint is overwritten at
	HistoryDBPath  string // Path of the training run history database
	LogLevel       string
	DevMode        bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. FLOODCAST_DATA_DIR environment variable
	// 2. fallback to ./data
	// Always resolved to an absolute path and created if missing.
	dataDir := getEnv("FLOODCAST_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		CheckpointPath: getEnv("FLOODCAST_CHECKPOINT_PATH", filepath.Join(absDataDir, "checkpoint.bin")),
		HistoryDBPath:  getEnv("FLOODCAST_HISTORY_DB", filepath.Join(absDataDir, "training.db")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint path must not be empty")
	}
	if c.HistoryDBPath == "" {
		return fmt.Errorf("history database path must not be empty")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
