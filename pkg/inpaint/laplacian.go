package inpaint

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dermis3d/dermis/pkg/mesh"
)

// Weighting selects the Laplacian discretization.
type Weighting int

const (
	// WeightingCotangent uses cotangent edge weights, the standard
	// discretization for harmonic interpolation on triangle meshes.
	WeightingCotangent Weighting = iota
	// WeightingUniform weights every mesh edge equally.
	WeightingUniform
)

// edgeWeights accumulates symmetric edge weights over the mesh. The
// return value maps, for each vertex, neighbor index to weight.
func edgeWeights(m *mesh.Mesh, scheme Weighting) []map[int]float64 {
	w := make([]map[int]float64, len(m.Vertices))
	add := func(a, b int, v float64) {
		if w[a] == nil {
			w[a] = make(map[int]float64, 6)
		}
		w[a][b] += v
	}
	set := func(a, b int, v float64) {
		if w[a] == nil {
			w[a] = make(map[int]float64, 6)
		}
		w[a][b] = v
	}
	for _, f := range m.Faces {
		for corner := 0; corner < 3; corner++ {
			i, j, k := f[corner], f[(corner+1)%3], f[(corner+2)%3]
			switch scheme {
			case WeightingUniform:
				set(i, j, 1)
				set(j, i, 1)
			default:
				// Cotangent of the angle at k weights edge (i,j).
				u := r3.Sub(m.Vertices[i], m.Vertices[k])
				v := r3.Sub(m.Vertices[j], m.Vertices[k])
				cross := r3.Norm(r3.Cross(u, v))
				if cross < 1e-12 {
					// Degenerate corner contributes nothing.
					continue
				}
				cot := r3.Dot(u, v) / cross
				add(i, j, 0.5*cot)
				add(j, i, 0.5*cot)
			}
		}
	}
	return w
}

// System is the unknown-block of the Laplacian in compressed sparse row
// form: rows and columns are indexed by unknown (unmatched) vertices
// only. It is symmetric; Diag is kept separately for Jacobi
// preconditioning.
type System struct {
	N      int
	RowPtr []int
	ColInd []int
	Vals   []float64
	Diag   []float64
}

// MulVec computes y = A x.
func (s *System) MulVec(x, y []float64) {
	for i := 0; i < s.N; i++ {
		sum := 0.0
		for k := s.RowPtr[i]; k < s.RowPtr[i+1]; k++ {
			sum += s.Vals[k] * x[s.ColInd[k]]
		}
		y[i] = sum
	}
}

// assemble builds the unknown-unknown system L_uu and the per-channel
// right-hand sides -L_um w_m. unknownOf maps full vertex index to
// compact unknown index (-1 for matched vertices); unknowns is the
// inverse map.
func assemble(m *mesh.Mesh, w []map[int]float64, matched []bool, provisional rowReader) (*System, [][]float64, []int) {
	var unknowns []int
	unknownOf := make([]int, len(m.Vertices))
	for i := range unknownOf {
		if matched[i] {
			unknownOf[i] = -1
		} else {
			unknownOf[i] = len(unknowns)
			unknowns = append(unknowns, i)
		}
	}

	channels := provisional.Channels()
	sys := &System{N: len(unknowns)}
	sys.RowPtr = make([]int, 1, len(unknowns)+1)
	sys.Diag = make([]float64, len(unknowns))
	rhs := make([][]float64, channels)
	for c := range rhs {
		rhs[c] = make([]float64, len(unknowns))
	}

	adj := m.VertexAdjacency()
	for u, i := range unknowns {
		diag := 0.0
		for _, j := range adj[i] {
			wij := w[i][j]
			diag += wij
			if uj := unknownOf[j]; uj >= 0 {
				sys.ColInd = append(sys.ColInd, uj)
				sys.Vals = append(sys.Vals, -wij)
			} else {
				row := provisional.Row(j)
				for c := 0; c < channels; c++ {
					rhs[c][u] += wij * row[c]
				}
			}
		}
		// The diagonal entry closes the row; with sorted adjacency the
		// off-diagonals are already in column order except for this
		// final entry, which MulVec does not care about.
		sys.ColInd = append(sys.ColInd, u)
		sys.Vals = append(sys.Vals, diag)
		sys.Diag[u] = diag
		sys.RowPtr = append(sys.RowPtr, len(sys.ColInd))
	}
	return sys, rhs, unknowns
}

// rowReader is the slice of the weight field the assembler needs.
type rowReader interface {
	Row(i int) []float64
	Channels() int
}
