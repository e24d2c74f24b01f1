// Package weights holds per-vertex attribute fields: one fixed-length
// vector of influence values per vertex. The package enforces shape
// contracts but deliberately not row-sum normalization; whether rows
// sum to 1 is a caller convention.
package weights

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DimensionError reports a shape mismatch between a field and the data
// it is being combined with.
type DimensionError struct {
	Want, Got int
	What      string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("weights: %s length %d, want %d", e.What, e.Got, e.Want)
}

// Field is a dense vertices × channels matrix of influence values.
type Field struct {
	data     *mat.Dense
	channels int
}

// NewField returns a zero field with the given shape. Channels must be
// at least 1; vertices may be zero, yielding an empty field.
func NewField(vertices, channels int) *Field {
	if channels < 1 {
		panic(fmt.Sprintf("weights: channels must be >= 1, got %d", channels))
	}
	if vertices == 0 {
		return &Field{channels: channels}
	}
	return &Field{data: mat.NewDense(vertices, channels, nil), channels: channels}
}

// NewFieldFrom builds a field from per-vertex rows. All rows must have
// the same length.
func NewFieldFrom(rows [][]float64) (*Field, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("weights: no rows")
	}
	channels := len(rows[0])
	if channels < 1 {
		return nil, fmt.Errorf("weights: rows must have at least one channel")
	}
	f := NewField(len(rows), channels)
	for i, r := range rows {
		if len(r) != channels {
			return nil, &DimensionError{Want: channels, Got: len(r), What: fmt.Sprintf("row %d", i)}
		}
		f.data.SetRow(i, r)
	}
	return f, nil
}

// Len returns the number of vertices.
func (f *Field) Len() int {
	if f.data == nil {
		return 0
	}
	r, _ := f.data.Dims()
	return r
}

// Channels returns the number of channels per vertex.
func (f *Field) Channels() int {
	return f.channels
}

// Row returns the backing slice for vertex i. Mutating it mutates the
// field.
func (f *Field) Row(i int) []float64 {
	return f.data.RawRowView(i)
}

// SetRow copies v into vertex i's row.
func (f *Field) SetRow(i int, v []float64) {
	if len(v) != f.channels {
		panic((&DimensionError{Want: f.channels, Got: len(v), What: "row"}).Error())
	}
	f.data.SetRow(i, v)
}

// At returns the value for vertex i, channel c.
func (f *Field) At(i, c int) float64 {
	return f.data.At(i, c)
}

// Set stores the value for vertex i, channel c.
func (f *Field) Set(i, c int, v float64) {
	f.data.Set(i, c, v)
}

// Clone returns an independent copy of the field.
func (f *Field) Clone() *Field {
	if f.data == nil {
		return &Field{channels: f.channels}
	}
	return &Field{data: mat.DenseCopyOf(f.data), channels: f.channels}
}

// Column extracts channel c as a new slice of length Len.
func (f *Field) Column(c int) []float64 {
	if f.data == nil {
		return nil
	}
	return mat.Col(nil, c, f.data)
}

// SetColumn stores a full channel. The slice length must equal Len.
func (f *Field) SetColumn(c int, v []float64) {
	if len(v) != f.Len() {
		panic((&DimensionError{Want: f.Len(), Got: len(v), What: "column"}).Error())
	}
	for i, x := range v {
		f.data.Set(i, c, x)
	}
}
