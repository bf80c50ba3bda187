package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockModel implements Checkpointable for testing
type mockModel struct {
	weights map[string][]float64
}

func (m *mockModel) StateDict() map[string][]float64 {
	return m.weights
}

func newTestModel() *mockModel {
	return &mockModel{weights: map[string][]float64{
		"encoder.weight": {0.1, 0.2, 0.3},
		"encoder.bias":   {0.01},
	}}
}

func newTestStopper(t *testing.T, cfg StopperConfig) (*Stopper, *Checkpointer) {
	t.Helper()
	cp, err := NewCheckpointer(filepath.Join(t.TempDir(), "checkpoint.bin"), zerolog.Nop())
	require.NoError(t, err)
	s, err := NewStopper(cfg, cp, zerolog.Nop())
	require.NoError(t, err)
	return s, cp
}

func TestNewStopper_InvalidPatience(t *testing.T) {
	cp, err := NewCheckpointer(filepath.Join(t.TempDir(), "checkpoint.bin"), zerolog.Nop())
	require.NoError(t, err)

	_, err = NewStopper(StopperConfig{Patience: 0}, cp, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewStopper(StopperConfig{Patience: -3}, cp, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewStopper_NegativeMinDelta(t *testing.T) {
	cp, err := NewCheckpointer(filepath.Join(t.TempDir(), "checkpoint.bin"), zerolog.Nop())
	require.NoError(t, err)

	_, err = NewStopper(StopperConfig{Patience: 1, MinDelta: -0.01}, cp, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewStopper_NilCheckpointer(t *testing.T) {
	_, err := NewStopper(StopperConfig{Patience: 1}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestStopper_FirstCallSavesCheckpoint(t *testing.T) {
	s, cp := newTestStopper(t, StopperConfig{Patience: 2})
	model := newTestModel()

	cont, err := s.CheckScore(model, 0.5)
	require.NoError(t, err)
	assert.True(t, cont)

	best, ok := s.BestScore()
	require.True(t, ok)
	assert.Equal(t, 0.5, best)

	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, loaded.Score)
	assert.Equal(t, model.StateDict(), loaded.State)
}

func TestStopper_PatienceBoundary(t *testing.T) {
	const patience = 3
	s, _ := newTestStopper(t, StopperConfig{Patience: patience})
	model := newTestModel()

	cont, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)
	require.True(t, cont)

	// P-1 non-improving calls keep going, the P-th stops.
	for i := 1; i < patience; i++ {
		cont, err = s.CheckScore(model, 0.9)
		require.NoError(t, err)
		assert.True(t, cont, "call %d of %d should continue", i, patience)
		assert.Equal(t, i, s.Counter())
	}

	cont, err = s.CheckScore(model, 0.9)
	require.NoError(t, err)
	assert.False(t, cont, "patience exhausted on the %dth non-improving call", patience)
}

func TestStopper_MinDeltaBoundary(t *testing.T) {
	s, _ := newTestStopper(t, StopperConfig{Patience: 5, MinDelta: 0.1})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	// Exactly best+min_delta is not an improvement (inclusive boundary),
	// but still raises the tracked best without resetting the counter.
	cont, err := s.CheckScore(model, 1.1)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 1, s.Counter())
	best, _ := s.BestScore()
	assert.Equal(t, 1.1, best)

	// More than min_delta above the best resets the counter.
	cont, err = s.CheckScore(model, 1.25)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 0, s.Counter())
	best, _ = s.BestScore()
	assert.Equal(t, 1.25, best)
}

func TestStopper_ImprovementSavesCheckpoint(t *testing.T) {
	s, cp := newTestStopper(t, StopperConfig{Patience: 2})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	model.weights["encoder.bias"] = []float64{0.42}
	_, err = s.CheckScore(model, 2.0)
	require.NoError(t, err)

	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Score)
	assert.Equal(t, []float64{0.42}, loaded.State["encoder.bias"])
}

func TestStopper_NoCheckpointOnNonImprovingBest(t *testing.T) {
	s, cp := newTestStopper(t, StopperConfig{Patience: 5, MinDelta: 0.5})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	// Within min_delta: best is raised but no checkpoint is written.
	_, err = s.CheckScore(model, 1.2)
	require.NoError(t, err)

	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Score, "checkpoint must still hold the first save")
}

func TestStopper_CumulativeDeltaFreezesBest(t *testing.T) {
	s, _ := newTestStopper(t, StopperConfig{Patience: 5, MinDelta: 0.5, CumulativeDelta: true})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	_, err = s.CheckScore(model, 1.2)
	require.NoError(t, err)

	best, _ := s.BestScore()
	assert.Equal(t, 1.0, best, "cumulative_delta must measure against the reset point")
	assert.Equal(t, 1, s.Counter())
}

func TestStopper_NonCumulativeRaisesBest(t *testing.T) {
	s, _ := newTestStopper(t, StopperConfig{Patience: 5, MinDelta: 0.5})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	_, err = s.CheckScore(model, 1.2)
	require.NoError(t, err)

	best, _ := s.BestScore()
	assert.Equal(t, 1.2, best)
	assert.Equal(t, 1, s.Counter(), "raised best must not reset the counter")
}

func TestStopper_ImprovementResetsAfterStall(t *testing.T) {
	s, _ := newTestStopper(t, StopperConfig{Patience: 3})
	model := newTestModel()

	_, err := s.CheckScore(model, 1.0)
	require.NoError(t, err)

	cont, err := s.CheckScore(model, 0.8)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, 1, s.Counter())

	cont, err = s.CheckScore(model, 1.5)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 0, s.Counter())
}

func TestStopper_CheckpointFailurePropagates(t *testing.T) {
	// A directory at the checkpoint path makes the open fail.
	path := filepath.Join(t.TempDir(), "checkpoint.bin")
	require.NoError(t, os.MkdirAll(path, 0755))

	cp, err := NewCheckpointer(path, zerolog.Nop())
	require.NoError(t, err)
	s, err := NewStopper(StopperConfig{Patience: 2}, cp, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.CheckScore(newTestModel(), 1.0)
	require.Error(t, err)

	_, ok := s.BestScore()
	assert.False(t, ok, "state must not advance on a failed save")
}
