package preprocessing

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/riverwatch/floodcast/internal/timeseries"
)

// RollingFeatures appends simple and exponential moving-average columns for
// the named column, one pair per window: sma_<w>_<column> and
// ema_<w>_<column>. Rows before the first full window are set to the missing
// marker. The source column must be gap-free; run FillMissing first.
//
// Windows must be at least 2 and no longer than the series.
func RollingFeatures(frame *timeseries.Frame, column string, windows []int) (*timeseries.Frame, error) {
	col, ok := frame.Column(column)
	if !ok {
		return nil, fmt.Errorf("column %q does not exist", column)
	}
	for i, v := range col {
		if timeseries.IsMissing(v) {
			return nil, fmt.Errorf("column %q has a missing value at row %d, fill gaps first", column, i)
		}
	}
	for _, w := range windows {
		if w < 2 {
			return nil, fmt.Errorf("window %d is too small, need at least 2", w)
		}
		if w > len(col) {
			return nil, fmt.Errorf("window %d exceeds series length %d", w, len(col))
		}
	}

	out := frame.Clone()
	for _, w := range windows {
		sma := talib.Sma(col, w)
		ema := talib.Ema(col, w)

		// talib zero-pads the warm-up region; mark it missing instead so it
		// cannot be mistaken for a real level.
		for i := 0; i < w-1; i++ {
			sma[i] = timeseries.Missing()
			ema[i] = timeseries.Missing()
		}

		if err := out.AddColumn(fmt.Sprintf("sma_%d_%s", w, column), sma); err != nil {
			return nil, err
		}
		if err := out.AddColumn(fmt.Sprintf("ema_%d_%s", w, column), ema); err != nil {
			return nil, err
		}
	}

	return out, nil
}
