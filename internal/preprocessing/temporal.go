package preprocessing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/riverwatch/floodcast/internal/timeseries"
)

// Encoding selects how a temporal unit is represented as feature columns.
type Encoding string

const (
	// EncodingCyclical maps the unit onto the unit circle, producing
	// sin_<unit> and cos_<unit> columns. Avoids the discontinuity at the
	// cycle boundary (hour 23 is adjacent to hour 0).
	EncodingCyclical Encoding = "cyclical"
	// EncodingNumerical appends the raw unit value as a single <unit> column.
	EncodingNumerical Encoding = "numerical"
)

// unitPeriods maps each supported temporal unit to its natural cycle length.
// "day" is day-of-month, "weekday" is day-of-week.
var unitPeriods = map[string]float64{
	"second":  60,
	"minute":  60,
	"hour":    24,
	"weekday": 7,
	"day":     31,
	"month":   12,
}

// unitValue extracts the numeric value of a temporal unit from a timestamp.
func unitValue(unit string, t time.Time) float64 {
	switch unit {
	case "second":
		return float64(t.Second())
	case "minute":
		return float64(t.Minute())
	case "hour":
		return float64(t.Hour())
	case "weekday":
		return float64(t.Weekday())
	case "day":
		return float64(t.Day())
	case "month":
		return float64(t.Month())
	}
	// Unreachable: callers validate the unit against unitPeriods first.
	return 0
}

// EncodeTemporal derives feature columns from the frame's time column
// according to spec, a mapping from unit name ("hour", "weekday", "month",
// "day", "minute", "second") to encoding kind. Cyclical encoding appends
// sin_<unit> and cos_<unit> computed as sin/cos(2π·value/period); numerical
// encoding appends the raw value as <unit>.
//
// An unrecognized unit or encoding kind, or a time column value that cannot
// be parsed as a timestamp, fails the whole call.
func EncodeTemporal(spec map[string]Encoding, timeColumn string, frame *timeseries.Frame) (*timeseries.Frame, error) {
	if timeColumn != frame.TimeColumn() {
		return nil, fmt.Errorf("frame time column is %q, not %q", frame.TimeColumn(), timeColumn)
	}

	for unit, kind := range spec {
		if _, ok := unitPeriods[unit]; !ok {
			return nil, fmt.Errorf("unrecognized temporal unit %q", unit)
		}
		if kind != EncodingCyclical && kind != EncodingNumerical {
			return nil, fmt.Errorf("unrecognized encoding %q for unit %q", kind, unit)
		}
	}

	times, err := frame.ParseTimes()
	if err != nil {
		return nil, err
	}

	// Map iteration order is random; sort the units so the appended column
	// order is stable across runs.
	units := make([]string, 0, len(spec))
	for unit := range spec {
		units = append(units, unit)
	}
	sort.Strings(units)

	out := frame.Clone()
	for _, unit := range units {
		kind := spec[unit]
		values := make([]float64, len(times))
		for i, t := range times {
			values[i] = unitValue(unit, t)
		}

		switch kind {
		case EncodingCyclical:
			period := unitPeriods[unit]
			sinCol := make([]float64, len(values))
			cosCol := make([]float64, len(values))
			for i, v := range values {
				angle := 2 * math.Pi * v / period
				sinCol[i] = math.Sin(angle)
				cosCol[i] = math.Cos(angle)
			}
			if err := out.AddColumn("sin_"+unit, sinCol); err != nil {
				return nil, err
			}
			if err := out.AddColumn("cos_"+unit, cosCol); err != nil {
				return nil, err
			}

		case EncodingNumerical:
			if err := out.AddColumn(unit, values); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
