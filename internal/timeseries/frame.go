// Package timeseries provides the column-oriented table that the
// preprocessing stages operate on. A Frame holds a named time column of raw
// timestamp strings plus any number of named float64 value columns; missing
// values are represented as NaN, matching the upstream data loader's output.
package timeseries

import (
	"fmt"
	"math"
)

// Frame is a column-oriented time-series table. All columns share the same
// row count and ordering; row identity never changes after construction.
type Frame struct {
	timeColumn string
	times      []string
	order      []string
	columns    map[string][]float64
}

// New creates a Frame from a time column name and its raw values.
// The time values are kept verbatim; parsing happens lazily in the
// transformations that need real timestamps.
func New(timeColumn string, times []string) (*Frame, error) {
	if timeColumn == "" {
		return nil, fmt.Errorf("time column name must not be empty")
	}

	f := &Frame{
		timeColumn: timeColumn,
		times:      make([]string, len(times)),
		columns:    make(map[string][]float64),
	}
	copy(f.times, times)

	return f, nil
}

// AddColumn appends a named value column. The column length must match the
// frame's row count and the name must not collide with an existing column or
// the time column.
func (f *Frame) AddColumn(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if name == f.timeColumn {
		return fmt.Errorf("column %q collides with the time column", name)
	}
	if _, exists := f.columns[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(f.times) {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), len(f.times))
	}

	col := make([]float64, len(values))
	copy(col, values)
	f.columns[name] = col
	f.order = append(f.order, name)

	return nil
}

// Column returns the values of a named column. The returned slice is the
// frame's backing storage; callers that need to mutate it should Clone first.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// HasColumn reports whether a value column with the given name exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Columns returns the value column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// TimeColumn returns the name of the time column.
func (f *Frame) TimeColumn() string {
	return f.timeColumn
}

// Times returns the raw time column values.
func (f *Frame) Times() []string {
	out := make([]string, len(f.times))
	copy(out, f.times)
	return out
}

// Len returns the row count.
func (f *Frame) Len() int {
	return len(f.times)
}

// Clone returns a deep copy of the frame. Transformations return clones so
// the caller's input is never mutated.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		timeColumn: f.timeColumn,
		times:      make([]string, len(f.times)),
		order:      make([]string, len(f.order)),
		columns:    make(map[string][]float64, len(f.columns)),
	}
	copy(clone.times, f.times)
	copy(clone.order, f.order)
	for name, col := range f.columns {
		dup := make([]float64, len(col))
		copy(dup, col)
		clone.columns[name] = dup
	}
	return clone
}

// setColumn replaces an existing column's values in place. Used by
// transformations operating on a clone.
func (f *Frame) setColumn(name string, values []float64) error {
	if _, exists := f.columns[name]; !exists {
		return fmt.Errorf("column %q does not exist", name)
	}
	if len(values) != len(f.times) {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), len(f.times))
	}
	f.columns[name] = values
	return nil
}

// SetColumn replaces an existing column's values. The slice is copied.
func (f *Frame) SetColumn(name string, values []float64) error {
	dup := make([]float64, len(values))
	copy(dup, values)
	return f.setColumn(name, dup)
}

// IsMissing reports whether a value is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Missing returns the missing marker.
func Missing() float64 {
	return math.NaN()
}
