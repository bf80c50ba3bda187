// Package preprocessing provides the feature-engineering transformations
// applied to raw gauge and weather series before training: gap filling,
// cyclical temporal encoding, standardization and rolling-window features.
// All transformations are pure with respect to their inputs; they return a
// new frame and are safe to run concurrently on independent frames.
package preprocessing

import (
	"fmt"

	"github.com/riverwatch/floodcast/internal/timeseries"
)

// FillMissing fills gaps in the named columns using forward fill first, then
// backward fill for any gap remaining at the start of the series. Row count
// and ordering are preserved; columns not named are untouched. A frame with
// no missing values in the named columns comes back value-identical.
func FillMissing(frame *timeseries.Frame, columns []string) (*timeseries.Frame, error) {
	for _, name := range columns {
		if !frame.HasColumn(name) {
			return nil, fmt.Errorf("column %q does not exist", name)
		}
	}

	out := frame.Clone()
	for _, name := range columns {
		col, _ := out.Column(name)
		filled := fillForwardBackward(col)
		if err := out.SetColumn(name, filled); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// fillForwardBackward applies forward fill, then resolves leading gaps with
// backward fill. A column that is entirely missing stays entirely missing.
func fillForwardBackward(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	// Forward pass: carry the last observed value into gaps.
	lastSeen := timeseries.Missing()
	for i, v := range out {
		if timeseries.IsMissing(v) {
			out[i] = lastSeen
		} else {
			lastSeen = v
		}
	}

	// Backward pass: only leading gaps can still be missing.
	nextSeen := timeseries.Missing()
	for i := len(out) - 1; i >= 0; i-- {
		if timeseries.IsMissing(out[i]) {
			out[i] = nextSeen
		} else {
			nextSeen = out[i]
		}
	}

	return out
}
