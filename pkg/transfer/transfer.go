// Package transfer wires the three pipeline stages together: closest
// point matching, diffusion inpainting and seam smoothing. Data flows
// strictly one way through the stages; the inputs are never mutated.
package transfer

import (
	"fmt"

	"github.com/dermis3d/dermis/pkg/inpaint"
	"github.com/dermis3d/dermis/pkg/match"
	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/smooth"
	"github.com/dermis3d/dermis/pkg/weights"
)

// Options carries every tunable of the pipeline.
type Options struct {
	// MaxSquaredDistance and MaxNormalAngleDeg gate the matcher.
	MaxSquaredDistance float64
	MaxNormalAngleDeg  float64
	// SmoothDistance is the (unsquared) seam band radius;
	// SmoothIterations and SmoothAlpha control the relaxation.
	SmoothDistance   float64
	SmoothIterations int
	SmoothAlpha      float64
	// Workers bounds matcher parallelism; zero means one per CPU.
	Workers int
	// Weighting and Solver configure the inpainter.
	Weighting inpaint.Weighting
	Solver    inpaint.Solver
}

// DefaultOptions derives thresholds from the target mesh the same way
// the reference pipeline does: the distance gate is 5% of the target
// bounding box diagonal, the angle gate 30 degrees, smoothing runs 10
// rounds at alpha 0.2 over the same 5% band radius.
func DefaultOptions(target *mesh.Mesh) Options {
	d := 0.05 * target.BoundingBoxDiagonal()
	return Options{
		MaxSquaredDistance: d * d,
		MaxNormalAngleDeg:  30,
		SmoothDistance:     d,
		SmoothIterations:   10,
		SmoothAlpha:        0.2,
	}
}

// Result is the pipeline output for the target mesh.
type Result struct {
	// Weights is the final field after inpainting and smoothing.
	Weights *weights.Field
	// Matched flags which target vertices had a valid source
	// correspondence.
	Matched []bool
	// SmoothedMask flags the seam band touched by the smoother.
	SmoothedMask []bool
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

// Transfer moves the source weight field onto the target mesh. Both
// meshes need per-vertex normals. Inpainter failures (unanchored
// component, non-convergence) come back as typed errors the caller can
// inspect; the process is never terminated from here.
func Transfer(src *mesh.Mesh, srcWeights *weights.Field, dst *mesh.Mesh, opts Options) (*Result, error) {
	matched, err := match.Match(src, srcWeights, dst, match.Options{
		MaxSquaredDistance: opts.MaxSquaredDistance,
		MaxNormalAngleDeg:  opts.MaxNormalAngleDeg,
		Workers:            opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	filled, err := inpaint.Inpaint(dst, matched.Weights, matched.Matched, inpaint.Options{
		Weighting: opts.Weighting,
		Solver:    opts.Solver,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	smoothed, mask, err := smooth.Smooth(dst, filled, matched.Matched, smooth.Options{
		Distance:   opts.SmoothDistance,
		Iterations: opts.SmoothIterations,
		Alpha:      opts.SmoothAlpha,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	return &Result{
		Weights:      smoothed,
		Matched:      matched.Matched,
		SmoothedMask: mask,
	}, nil
}
