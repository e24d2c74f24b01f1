// Package match finds, for every target vertex, the closest point on a
// source surface, gates the correspondence on distance and normal
// agreement, and interpolates the source weight field at accepted
// matches.
package match

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/weights"
)

// Options controls correspondence gating and query parallelism.
type Options struct {
	// MaxSquaredDistance is the squared distance gate: a target vertex
	// farther than sqrt of this from the source surface is unmatched.
	MaxSquaredDistance float64
	// MaxNormalAngleDeg is the angle gate in degrees between the target
	// vertex normal and the interpolated source normal at the closest
	// point. Both gates must pass for a match.
	MaxNormalAngleDeg float64
	// Workers bounds query parallelism. Zero or negative means one
	// worker per CPU.
	Workers int
}

// Result is the per-target-vertex outcome of matching. Weight rows for
// unmatched vertices are zero and must not be read before inpainting.
type Result struct {
	Matched []bool
	Weights *weights.Field
}

// MatchedCount returns how many target vertices were matched.
func (r *Result) MatchedCount() int {
	n := 0
	for _, ok := range r.Matched {
		if ok {
			n++
		}
	}
	return n
}

// Match runs the closest-point correspondence search from every vertex
// of dst against the surface of src. Both meshes need per-vertex
// normals; srcWeights must have one row per source vertex. Shape
// violations are errors, geometric edge cases are not.
func Match(src *mesh.Mesh, srcWeights *weights.Field, dst *mesh.Mesh, opts Options) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("match: source: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return nil, fmt.Errorf("match: target: %w", err)
	}
	if len(src.Normals) != len(src.Vertices) {
		return nil, fmt.Errorf("match: source mesh has no per-vertex normals")
	}
	if len(dst.Normals) != len(dst.Vertices) {
		return nil, fmt.Errorf("match: target mesh has no per-vertex normals")
	}
	if srcWeights.Len() != src.VertexCount() {
		return nil, &weights.DimensionError{Want: src.VertexCount(), Got: srcWeights.Len(), What: "source weights"}
	}

	n := dst.VertexCount()
	res := &Result{
		Matched: make([]bool, n),
		Weights: weights.NewField(n, srcWeights.Channels()),
	}
	if n == 0 {
		return res, nil
	}

	idx := NewIndex(src)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	// Each worker owns a contiguous range of output slots; no
	// synchronization is needed beyond the final Wait.
	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			matchRange(idx, srcWeights, dst, opts, res, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func matchRange(idx *Index, srcWeights *weights.Field, dst *mesh.Mesh, opts Options, res *Result, start, end int) {
	channels := srcWeights.Channels()
	row := make([]float64, channels)
	for vi := start; vi < end; vi++ {
		corr := idx.Closest(dst.Vertices[vi])
		if corr.Triangle < 0 {
			continue
		}
		if corr.Dist2 > opts.MaxSquaredDistance {
			continue
		}
		if angleDeg(dst.Normals[vi], corr.Normal) > opts.MaxNormalAngleDeg {
			continue
		}
		f := idx.m.Faces[corr.Triangle]
		for c := 0; c < channels; c++ {
			row[c] = corr.Bary[0]*srcWeights.At(f[0], c) +
				corr.Bary[1]*srcWeights.At(f[1], c) +
				corr.Bary[2]*srcWeights.At(f[2], c)
		}
		res.Weights.SetRow(vi, row)
		res.Matched[vi] = true
	}
}

// angleDeg returns the angle between two unit vectors in degrees. A
// zero vector yields 90 degrees, failing any angle gate below that.
func angleDeg(a, b r3.Vec) float64 {
	d := r3.Dot(a, b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d) * 180 / math.Pi
}
