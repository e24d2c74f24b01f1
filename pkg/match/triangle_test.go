package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestClosestPointOnTriangle(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 2}
	c := r3.Vec{Y: 2}

	t.Run("InteriorProjection", func(t *testing.T) {
		p := r3.Vec{X: 0.5, Y: 0.5, Z: 3}
		q, bary := closestPointOnTriangle(p, a, b, c)
		assert.InDelta(t, 0.5, q.X, 1e-12)
		assert.InDelta(t, 0.5, q.Y, 1e-12)
		assert.InDelta(t, 0, q.Z, 1e-12)
		assert.InDelta(t, 1, bary[0]+bary[1]+bary[2], 1e-12)
	})

	t.Run("VertexRegion", func(t *testing.T) {
		p := r3.Vec{X: -1, Y: -1, Z: 1}
		q, bary := closestPointOnTriangle(p, a, b, c)
		assert.Equal(t, a, q)
		assert.Equal(t, [3]float64{1, 0, 0}, bary)
	})

	t.Run("EdgeRegion", func(t *testing.T) {
		p := r3.Vec{X: 1, Y: -5}
		q, bary := closestPointOnTriangle(p, a, b, c)
		assert.InDelta(t, 1, q.X, 1e-12)
		assert.InDelta(t, 0, q.Y, 1e-12)
		assert.InDelta(t, 0.5, bary[0], 1e-12)
		assert.InDelta(t, 0.5, bary[1], 1e-12)
		assert.InDelta(t, 0, bary[2], 1e-12)
	})

	t.Run("BaryReconstructsPoint", func(t *testing.T) {
		p := r3.Vec{X: 0.3, Y: 0.4, Z: -2}
		q, bary := closestPointOnTriangle(p, a, b, c)
		rec := r3.Add(r3.Scale(bary[0], a), r3.Add(r3.Scale(bary[1], b), r3.Scale(bary[2], c)))
		assert.InDelta(t, 0, r3.Norm(r3.Sub(q, rec)), 1e-12)
	})
}

func TestClosestPointOnDegenerateTriangle(t *testing.T) {
	t.Run("Collinear", func(t *testing.T) {
		a := r3.Vec{}
		b := r3.Vec{X: 1}
		c := r3.Vec{X: 2} // zero area
		p := r3.Vec{X: 1.5, Y: 1}
		q, bary := closestPointOnTriangle(p, a, b, c)
		require.False(t, math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z))
		for _, w := range bary {
			require.False(t, math.IsNaN(w))
			assert.GreaterOrEqual(t, w, 0.0)
		}
		assert.InDelta(t, 1.5, q.X, 1e-12)
		assert.InDelta(t, 0, q.Y, 1e-12)
	})

	t.Run("AllSamePoint", func(t *testing.T) {
		v := r3.Vec{X: 1, Y: 1, Z: 1}
		p := r3.Vec{X: 5, Y: 5, Z: 5}
		q, bary := closestPointOnTriangle(p, v, v, v)
		require.False(t, math.IsNaN(bary[0]+bary[1]+bary[2]))
		assert.Equal(t, v, q)
	})
}

func TestClosestPointOnSegment(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 2}

	q, s := closestPointOnSegment(r3.Vec{X: 1, Y: 4}, a, b)
	assert.InDelta(t, 0.5, s, 1e-12)
	assert.InDelta(t, 1, q.X, 1e-12)

	q, s = closestPointOnSegment(r3.Vec{X: -3}, a, b)
	assert.Equal(t, 0.0, s)
	assert.Equal(t, a, q)

	// Zero-length segment.
	q, s = closestPointOnSegment(r3.Vec{X: 9}, a, a)
	assert.Equal(t, 0.0, s)
	assert.Equal(t, a, q)
}
