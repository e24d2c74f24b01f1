// Package inpaint fills the weight field at unmatched vertices by
// solving a harmonic diffusion system over the mesh connectivity graph,
// with matched vertices acting as fixed Dirichlet boundary values.
package inpaint

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/weights"
)

// UnanchoredComponentError reports a connected component of the target
// mesh with no matched vertex: nothing anchors the diffusion there and
// the system is singular. The caller decides whether to abort or retry
// with relaxed thresholds.
type UnanchoredComponentError struct {
	Component int // component id per mesh.ConnectedComponents
	Vertices  int // vertex count of the component
}

func (e *UnanchoredComponentError) Error() string {
	return fmt.Sprintf("inpaint: connected component %d (%d vertices) has no matched vertex", e.Component, e.Vertices)
}

// NonConvergenceError reports a solver that exhausted its iteration or
// tolerance budget.
type NonConvergenceError struct {
	Channel    int
	Iterations int
	Residual   float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("inpaint: channel %d did not converge after %d iterations (residual %g)", e.Channel, e.Iterations, e.Residual)
}

// Options selects the discretization and solver backend.
type Options struct {
	Weighting Weighting
	// Solver defaults to CGSolver{} when nil.
	Solver Solver
}

// Inpaint solves for weights at unmatched vertices so the field is
// harmonic over the mesh graph, leaving matched rows bit-identical to
// their provisional values. On an all-matched input it returns a clone
// of provisional. Failure states are typed errors, never panics; only
// shape contract violations are plain errors.
func Inpaint(m *mesh.Mesh, provisional *weights.Field, matched []bool, opts Options) (*weights.Field, error) {
	n := m.VertexCount()
	if provisional.Len() != n {
		return nil, &weights.DimensionError{Want: n, Got: provisional.Len(), What: "provisional weights"}
	}
	if len(matched) != n {
		return nil, &weights.DimensionError{Want: n, Got: len(matched), What: "matched flags"}
	}

	out := provisional.Clone()
	allMatched := true
	for _, ok := range matched {
		if !ok {
			allMatched = false
			break
		}
	}
	if allMatched {
		return out, nil
	}

	// Every component needs at least one anchor or its block of the
	// system is singular.
	comps := m.ConnectedComponents()
	if err := checkAnchors(comps, matched); err != nil {
		return nil, err
	}

	solver := opts.Solver
	if solver == nil {
		solver = CGSolver{}
	}

	w := edgeWeights(m, opts.Weighting)
	sys, rhs, unknowns := assemble(m, w, matched, provisional)

	// Channels are independent systems; solve them concurrently.
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	solutions := make([][]float64, len(rhs))
	for c := range rhs {
		g.Go(func() error {
			x, err := solver.Solve(sys, rhs[c])
			if err != nil {
				var nc *NonConvergenceError
				if errors.As(err, &nc) {
					nc.Channel = c
				}
				return err
			}
			solutions[c] = x
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for c, x := range solutions {
		for u, i := range unknowns {
			out.Set(i, c, x[u])
		}
	}
	return out, nil
}

func checkAnchors(comps []int, matched []bool) error {
	nComps := 0
	for _, c := range comps {
		if c+1 > nComps {
			nComps = c + 1
		}
	}
	anchored := make([]bool, nComps)
	size := make([]int, nComps)
	for i, c := range comps {
		size[c]++
		if matched[i] {
			anchored[c] = true
		}
	}
	for c, ok := range anchored {
		if !ok {
			return &UnanchoredComponentError{Component: c, Vertices: size[c]}
		}
	}
	return nil
}
