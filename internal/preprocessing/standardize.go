package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/riverwatch/floodcast/internal/timeseries"
)

// ScaleParams holds the per-column standardization parameters so predictions
// can be mapped back to physical units.
type ScaleParams struct {
	Mean   float64
	StdDev float64
}

// Inverse maps a standardized value back to the original scale.
func (p ScaleParams) Inverse(v float64) float64 {
	return v*p.StdDev + p.Mean
}

// Standardize z-scores the named columns: (x - mean) / stddev, using the
// sample standard deviation. Missing values are excluded from the statistics
// and stay missing in the output. Returns the parameters used per column.
//
// A column whose observed values have zero variance cannot be standardized
// and fails the call.
func Standardize(frame *timeseries.Frame, columns []string) (*timeseries.Frame, map[string]ScaleParams, error) {
	for _, name := range columns {
		if !frame.HasColumn(name) {
			return nil, nil, fmt.Errorf("column %q does not exist", name)
		}
	}

	out := frame.Clone()
	params := make(map[string]ScaleParams, len(columns))

	for _, name := range columns {
		col, _ := out.Column(name)

		observed := make([]float64, 0, len(col))
		for _, v := range col {
			if !timeseries.IsMissing(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) < 2 {
			return nil, nil, fmt.Errorf("column %q has %d observed values, need at least 2", name, len(observed))
		}

		mean, std := stat.MeanStdDev(observed, nil)
		if std == 0 {
			return nil, nil, fmt.Errorf("column %q has zero variance", name)
		}

		scaled := make([]float64, len(col))
		for i, v := range col {
			if timeseries.IsMissing(v) {
				scaled[i] = timeseries.Missing()
				continue
			}
			scaled[i] = (v - mean) / std
		}
		if err := out.SetColumn(name, scaled); err != nil {
			return nil, nil, err
		}

		params[name] = ScaleParams{Mean: mean, StdDev: std}
	}

	return out, params, nil
}
