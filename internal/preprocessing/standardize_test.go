package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverwatch/floodcast/internal/timeseries"
)

func TestStandardize_MeanZeroStdOne(t *testing.T) {
	f := newFrame(t, "level", []float64{2, 4, 6, 8})

	out, params, err := Standardize(f, []string{"level"})
	require.NoError(t, err)

	p := params["level"]
	assert.InDelta(t, 5.0, p.Mean, 1e-12)

	col, _ := out.Column("level")
	var sum float64
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 1e-9, "standardized values must be centered")
}

func TestStandardize_InverseRoundTrip(t *testing.T) {
	orig := []float64{1.5, 2.25, 9.0, 4.75}
	f := newFrame(t, "level", orig)

	out, params, err := Standardize(f, []string{"level"})
	require.NoError(t, err)

	col, _ := out.Column("level")
	p := params["level"]
	for i, v := range col {
		assert.InDelta(t, orig[i], p.Inverse(v), 1e-9)
	}
}

func TestStandardize_MissingValuesPreserved(t *testing.T) {
	nan := timeseries.Missing()
	f := newFrame(t, "level", []float64{2, nan, 6, 8})

	out, _, err := Standardize(f, []string{"level"})
	require.NoError(t, err)

	col, _ := out.Column("level")
	assert.True(t, timeseries.IsMissing(col[1]), "missing values must stay missing")
	assert.False(t, timeseries.IsMissing(col[0]))
}

func TestStandardize_ZeroVariance(t *testing.T) {
	f := newFrame(t, "level", []float64{3, 3, 3})

	_, _, err := Standardize(f, []string{"level"})
	assert.Error(t, err)
}

func TestStandardize_TooFewObserved(t *testing.T) {
	nan := timeseries.Missing()
	f := newFrame(t, "level", []float64{3, nan, nan})

	_, _, err := Standardize(f, []string{"level"})
	assert.Error(t, err)
}

func TestStandardize_UnknownColumn(t *testing.T) {
	f := newFrame(t, "level", []float64{1, 2})

	_, _, err := Standardize(f, []string{"nope"})
	assert.Error(t, err)
}
