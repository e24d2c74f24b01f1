// Package smooth relaxes the weight field around the matched/inpainted
// seam with banded Jacobi iterations, removing discontinuities without
// touching vertices far from the boundary.
package smooth

import (
	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/weights"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Options controls the extent and strength of seam relaxation.
type Options struct {
	// Distance is the Euclidean radius around matched vertices within
	// which unmatched vertices join the smoothing band.
	Distance float64
	// Iterations is the number of Jacobi rounds; zero or negative
	// leaves the field untouched and the mask empty.
	Iterations int
	// Alpha in (0,1] is the relaxation strength per round.
	Alpha float64
}

// Smooth relaxes weights inside the seam band and returns the smoothed
// field together with the band mask. Band membership depends only on
// topology, positions and the matched flags, never on weight values.
// Vertices outside the band are returned bit-identical.
func Smooth(m *mesh.Mesh, w *weights.Field, matched []bool, opts Options) (*weights.Field, []bool, error) {
	n := m.VertexCount()
	if w.Len() != n {
		return nil, nil, &weights.DimensionError{Want: n, Got: w.Len(), What: "weights"}
	}
	if len(matched) != n {
		return nil, nil, &weights.DimensionError{Want: n, Got: len(matched), What: "matched flags"}
	}

	out := w.Clone()
	mask := make([]bool, n)
	if opts.Iterations <= 0 {
		return out, mask, nil
	}

	band := seamBand(m, matched, opts.Distance, mask)
	if len(band) == 0 {
		return out, mask, nil
	}

	adj := m.VertexAdjacency()
	channels := w.Channels()

	// Jacobi: every round reads the previous round's complete state.
	// The double buffer is what makes the result order-independent.
	prev := out
	next := out.Clone()
	for it := 0; it < opts.Iterations; it++ {
		for _, v := range band {
			nb := adj[v]
			if len(nb) == 0 {
				continue
			}
			dst := next.Row(v)
			src := prev.Row(v)
			inv := 1.0 / float64(len(nb))
			for c := 0; c < channels; c++ {
				mean := 0.0
				for _, u := range nb {
					mean += prev.At(u, c)
				}
				mean *= inv
				dst[c] = (1-opts.Alpha)*src[c] + opts.Alpha*mean
			}
		}
		prev, next = next, prev
	}
	return prev, mask, nil
}

// seamBand collects the vertices to relax: unmatched vertices within
// distance of some matched vertex, plus matched vertices directly
// adjacent to an unmatched one. The mask slice is filled in place.
func seamBand(m *mesh.Mesh, matched []bool, distance float64, mask []bool) []int {
	var pts kdtree.Points
	for i, ok := range matched {
		if ok {
			v := m.Vertices[i]
			pts = append(pts, kdtree.Point{v.X, v.Y, v.Z})
		}
	}

	var band []int
	if len(pts) > 0 && distance > 0 {
		tree := kdtree.New(pts, false)
		limit := distance * distance
		for i, ok := range matched {
			if ok {
				continue
			}
			v := m.Vertices[i]
			_, d2 := tree.Nearest(kdtree.Point{v.X, v.Y, v.Z})
			if d2 <= limit {
				mask[i] = true
				band = append(band, i)
			}
		}
	}

	for _, f := range m.Faces {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			if matched[a] && !matched[b] && !mask[a] {
				mask[a] = true
				band = append(band, a)
			}
			if matched[b] && !matched[a] && !mask[b] {
				mask[b] = true
				band = append(band, b)
			}
		}
	}
	return band
}
