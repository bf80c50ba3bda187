package timeseries

import (
	"fmt"
	"time"
)

// timestampLayouts are the accepted raw time column formats, tried in order.
// The upstream loaders emit either ISO 8601 or space-separated datetimes,
// with or without seconds.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a single raw time column value.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", raw)
}

// ParseTimes parses the frame's entire time column. A single unparseable
// value fails the whole call; partial parses would silently misalign rows.
func (f *Frame) ParseTimes() ([]time.Time, error) {
	out := make([]time.Time, len(f.times))
	for i, raw := range f.times {
		t, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d of column %q: %w", i, f.timeColumn, err)
		}
		out[i] = t
	}
	return out, nil
}
