package smooth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/smooth"
	"github.com/dermis3d/dermis/pkg/weights"
)

// grid builds a planar triangle grid in the XZ plane with nx by nz
// vertices and the given spacing.
func grid(nx, nz int, spacing float64) *mesh.Mesh {
	m := &mesh.Mesh{}
	for j := 0; j < nz; j++ {
		for i := 0; i < nx; i++ {
			m.Vertices = append(m.Vertices, r3.Vec{X: float64(i) * spacing, Z: float64(j) * spacing})
		}
	}
	at := func(i, j int) int { return j*nx + i }
	for j := 0; j < nz-1; j++ {
		for i := 0; i < nx-1; i++ {
			m.Faces = append(m.Faces,
				[3]int{at(i, j), at(i+1, j+1), at(i+1, j)},
				[3]int{at(i, j), at(i, j+1), at(i+1, j+1)},
			)
		}
	}
	m.ComputePerVertexNormals()
	return m
}

func TestSmoothZeroIterationsIsIdentity(t *testing.T) {
	m := grid(3, 3, 1)
	n := m.VertexCount()
	w := weights.NewField(n, 2)
	for i := 0; i < n; i++ {
		w.SetRow(i, []float64{float64(i), float64(n - i)})
	}
	matched := make([]bool, n)
	matched[0] = true

	out, mask, err := smooth.Smooth(m, w, matched, smooth.Options{Distance: 10, Iterations: 0, Alpha: 0.2})
	require.NoError(t, err)
	require.Len(t, mask, n)
	for i := 0; i < n; i++ {
		assert.False(t, mask[i], "vertex %d in mask", i)
		assert.Equal(t, w.Row(i), out.Row(i), "vertex %d changed", i)
	}
}

func TestSmoothSingleIterationJacobi(t *testing.T) {
	// One triangle, one round by hand. All three vertices land in the
	// band: 1 and 2 are unmatched near the matched 0, and 0 is matched
	// adjacent to unmatched. Every update must read the pre-round
	// values; an in-place sweep would produce different numbers.
	m := &mesh.Mesh{
		Vertices: []r3.Vec{{}, {X: 1}, {Z: 1}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	m.ComputePerVertexNormals()
	w, err := weights.NewFieldFrom([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)
	matched := []bool{true, false, false}

	out, mask, err := smooth.Smooth(m, w, matched, smooth.Options{Distance: 5, Iterations: 1, Alpha: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, mask)
	assert.InDelta(t, 0.75, out.At(0, 0), 1e-15) // 0.5*0 + 0.5*(1+2)/2
	assert.InDelta(t, 1.0, out.At(1, 0), 1e-15)  // 0.5*1 + 0.5*(0+2)/2
	assert.InDelta(t, 1.25, out.At(2, 0), 1e-15) // 0.5*2 + 0.5*(0+1)/2
}

func TestSmoothBandMembership(t *testing.T) {
	// Columns 0 and 1 matched. With radius 1.2 the band is column 2
	// (unmatched, distance 1 from column 1) plus column 1 (matched,
	// adjacent to column 2). Columns 0, 3 and 4 stay out.
	m := grid(5, 2, 1)
	n := m.VertexCount()
	matched := make([]bool, n)
	for i := 0; i < n; i++ {
		if i%5 <= 1 {
			matched[i] = true
		}
	}
	w := weights.NewField(n, 1)

	_, mask, err := smooth.Smooth(m, w, matched, smooth.Options{Distance: 1.2, Iterations: 3, Alpha: 0.2})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		want := i%5 == 1 || i%5 == 2
		assert.Equal(t, want, mask[i], "vertex %d", i)
	}
}

func TestSmoothMaskIgnoresWeightValues(t *testing.T) {
	m := grid(4, 3, 1)
	n := m.VertexCount()
	matched := make([]bool, n)
	for i := 0; i < n; i++ {
		matched[i] = i%4 < 2
	}
	opts := smooth.Options{Distance: 1.5, Iterations: 2, Alpha: 0.3}

	a := weights.NewField(n, 1)
	b := weights.NewField(n, 1)
	for i := 0; i < n; i++ {
		b.Set(i, 0, float64(i*i))
	}

	_, maskA, err := smooth.Smooth(m, a, matched, opts)
	require.NoError(t, err)
	_, maskB, err := smooth.Smooth(m, b, matched, opts)
	require.NoError(t, err)
	assert.Equal(t, maskA, maskB)
}

func TestSmoothOutsideBandUntouched(t *testing.T) {
	m := grid(6, 2, 1)
	n := m.VertexCount()
	matched := make([]bool, n)
	for i := 0; i < n; i++ {
		matched[i] = i%6 == 0
	}
	w := weights.NewField(n, 2)
	for i := 0; i < n; i++ {
		w.SetRow(i, []float64{1.0 / float64(i+1), float64(i) / 3})
	}

	out, mask, err := smooth.Smooth(m, w, matched, smooth.Options{Distance: 1.1, Iterations: 4, Alpha: 0.2})
	require.NoError(t, err)
	touched := 0
	for i := 0; i < n; i++ {
		if mask[i] {
			touched++
			continue
		}
		assert.Equal(t, w.Row(i), out.Row(i), "vertex %d outside band changed", i)
	}
	require.NotZero(t, touched, "band unexpectedly empty")
}

func TestSmoothShapeContracts(t *testing.T) {
	m := grid(2, 2, 1)
	var dim *weights.DimensionError

	_, _, err := smooth.Smooth(m, weights.NewField(7, 1), make([]bool, 4), smooth.Options{Iterations: 1})
	require.ErrorAs(t, err, &dim)

	_, _, err = smooth.Smooth(m, weights.NewField(4, 1), make([]bool, 5), smooth.Options{Iterations: 1})
	require.ErrorAs(t, err, &dim)
}
