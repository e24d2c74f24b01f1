package weights_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermis3d/dermis/pkg/weights"
)

func TestNewFieldShape(t *testing.T) {
	f := weights.NewField(4, 3)
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 3, f.Channels())
	for i := 0; i < 4; i++ {
		for c := 0; c < 3; c++ {
			assert.Zero(t, f.At(i, c))
		}
	}
	assert.Panics(t, func() { weights.NewField(4, 0) })
}

func TestNewFieldZeroVertices(t *testing.T) {
	f := weights.NewField(0, 2)
	assert.Zero(t, f.Len())
	assert.Equal(t, 2, f.Channels())
	assert.Empty(t, f.Column(0))

	c := f.Clone()
	assert.Zero(t, c.Len())
	assert.Equal(t, 2, c.Channels())
}

func TestNewFieldFrom(t *testing.T) {
	f, err := weights.NewFieldFrom([][]float64{{0.3, 0.7}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []float64{0.3, 0.7}, f.Row(0))

	_, err = weights.NewFieldFrom(nil)
	assert.Error(t, err)

	_, err = weights.NewFieldFrom([][]float64{{1, 0}, {1}})
	var dim *weights.DimensionError
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 2, dim.Want)
	assert.Equal(t, 1, dim.Got)
}

func TestRowAliasesStorage(t *testing.T) {
	f := weights.NewField(2, 2)
	f.Row(1)[0] = 0.5
	assert.Equal(t, 0.5, f.At(1, 0))
}

func TestSetRowPanicsOnMismatch(t *testing.T) {
	f := weights.NewField(2, 2)
	assert.Panics(t, func() { f.SetRow(0, []float64{1}) })
	f.SetRow(0, []float64{0.25, 0.75})
	assert.Equal(t, []float64{0.25, 0.75}, f.Row(0))
}

func TestCloneIsIndependent(t *testing.T) {
	f := weights.NewField(2, 2)
	f.SetRow(0, []float64{0.3, 0.7})
	c := f.Clone()
	c.Set(0, 0, 99)
	assert.Equal(t, 0.3, f.At(0, 0))
	assert.Equal(t, 99.0, c.At(0, 0))
	assert.Equal(t, f.Row(1), c.Row(1))
}

func TestColumnRoundTrip(t *testing.T) {
	f := weights.NewField(3, 2)
	f.SetColumn(1, []float64{0.1, 0.2, 0.3})
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, f.Column(1))
	assert.Equal(t, []float64{0, 0, 0}, f.Column(0))
	assert.Panics(t, func() { f.SetColumn(0, []float64{1}) })
}
