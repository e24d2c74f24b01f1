package inpaint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solver solves one channel of the assembled system. Implementations
// are swappable; the assembly does not depend on the backend.
type Solver interface {
	Name() string
	Solve(sys *System, rhs []float64) ([]float64, error)
}

// DenseSolver solves by Cholesky factorization of the densified
// system. Robust for small and medium meshes; memory grows
// quadratically with the number of unmatched vertices.
type DenseSolver struct{}

// Name implements Solver.
func (DenseSolver) Name() string { return "dense-cholesky" }

// Solve implements Solver.
func (DenseSolver) Solve(sys *System, rhs []float64) ([]float64, error) {
	n := sys.N
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for k := sys.RowPtr[i]; k < sys.RowPtr[i+1]; k++ {
			if j := sys.ColInd[k]; j >= i {
				sym.SetSym(i, j, sys.Vals[k])
			}
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, &NonConvergenceError{Channel: -1, Iterations: 0, Residual: math.NaN()}
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, rhs)); err != nil {
		return nil, fmt.Errorf("inpaint: cholesky solve: %w", err)
	}
	out := make([]float64, n)
	copy(out, x.RawVector().Data)
	return out, nil
}

// CGSolver solves iteratively with Jacobi-preconditioned conjugate
// gradients. It scales to large meshes and carries the iteration and
// tolerance budget the pipeline's failure contract refers to.
type CGSolver struct {
	// MaxIterations bounds the solve; zero means 10n+100.
	MaxIterations int
	// Tolerance is the relative residual target; zero means 1e-10.
	Tolerance float64
}

// Name implements Solver.
func (CGSolver) Name() string { return "jacobi-cg" }

// Solve implements Solver.
func (s CGSolver) Solve(sys *System, rhs []float64) ([]float64, error) {
	n := sys.N
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 10*n + 100
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = 1e-10
	}

	bNorm := norm(rhs)
	if bNorm == 0 {
		return make([]float64, n), nil
	}
	target := tol * bNorm

	x := make([]float64, n)
	r := make([]float64, n)
	copy(r, rhs)
	z := make([]float64, n)
	p := make([]float64, n)
	ap := make([]float64, n)

	precond := func(dst, src []float64) {
		for i := range src {
			if d := sys.Diag[i]; d > 0 {
				dst[i] = src[i] / d
			} else {
				dst[i] = src[i]
			}
		}
	}

	precond(z, r)
	copy(p, z)
	rz := dot(r, z)

	for it := 0; it < maxIter; it++ {
		if norm(r) <= target {
			return x, nil
		}
		sys.MulVec(p, ap)
		pap := dot(p, ap)
		if pap <= 0 {
			// Lost positive-definiteness numerically.
			return nil, &NonConvergenceError{Channel: -1, Iterations: it, Residual: norm(r)}
		}
		alpha := rz / pap
		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		precond(z, r)
		rzNext := dot(r, z)
		beta := rzNext / rz
		rz = rzNext
		for i := range p {
			p[i] = z[i] + beta*p[i]
		}
	}
	if norm(r) <= target {
		return x, nil
	}
	return nil, &NonConvergenceError{Channel: -1, Iterations: maxIter, Residual: norm(r)}
}

func dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

func norm(a []float64) float64 {
	return floats.Norm(a, 2)
}
