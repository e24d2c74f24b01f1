package match

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dermis3d/dermis/pkg/mesh"
)

// Correspondence is the result of one closest-point query against the
// source surface.
type Correspondence struct {
	Point    r3.Vec     // nearest point on the source surface
	Bary     [3]float64 // barycentric coordinates on the winning triangle
	Triangle int        // winning triangle index, -1 if the source has no faces
	Dist2    float64    // squared distance from the query to Point
	Normal   r3.Vec     // source normal at Point, barycentric-interpolated
}

// Index is an immutable closest-point acceleration structure over a
// source mesh: a kd-tree of triangle centroids with exact
// point-to-triangle refinement. Build once, query many times;
// concurrent queries are safe.
type Index struct {
	m    *mesh.Mesh
	tree *kdtree.Tree
	// maxRadius is the largest centroid-to-vertex distance over all
	// triangles. Any triangle whose surface comes within d of a query
	// has its centroid within d+maxRadius, which bounds the candidate
	// radius during refinement.
	maxRadius float64
}

// NewIndex builds the acceleration structure for m. The mesh must not
// be mutated while the index is in use.
func NewIndex(m *mesh.Mesh) *Index {
	idx := &Index{m: m}
	if len(m.Faces) == 0 {
		return idx
	}
	nodes := make(centroids, len(m.Faces))
	for fi, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		cen := r3.Scale(1.0/3.0, r3.Add(r3.Add(a, b), c))
		nodes[fi] = centroidNode{c: cen, tri: fi}
		for _, v := range []r3.Vec{a, b, c} {
			if r := r3.Norm(r3.Sub(v, cen)); r > idx.maxRadius {
				idx.maxRadius = r
			}
		}
	}
	idx.tree = kdtree.New(nodes, false)
	return idx
}

// Closest returns the nearest point on the indexed surface to p. The
// result is identical to ClosestLinear.
func (idx *Index) Closest(p r3.Vec) Correspondence {
	if idx.tree == nil {
		return Correspondence{Triangle: -1, Dist2: math.Inf(1)}
	}
	q := pointQuery{p}

	// The nearest centroid's triangle gives an exact upper bound.
	nearest, _ := idx.tree.Nearest(q)
	best := idx.refine(p, nearest.(centroidNode).tri, Correspondence{Triangle: -1, Dist2: math.Inf(1)})

	// Every triangle that could beat the bound has its centroid within
	// sqrt(best)+maxRadius of p.
	r := math.Sqrt(best.Dist2) + idx.maxRadius
	keeper := kdtree.NewDistKeeper(r * r)
	idx.tree.NearestSet(keeper, q)
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		best = idx.refine(p, cd.Comparable.(centroidNode).tri, best)
	}
	return best
}

// ClosestLinear scans every triangle. It is the reference
// implementation for Closest and the fallback for unindexed use.
func (idx *Index) ClosestLinear(p r3.Vec) Correspondence {
	best := Correspondence{Triangle: -1, Dist2: math.Inf(1)}
	for fi := range idx.m.Faces {
		best = idx.refine(p, fi, best)
	}
	return best
}

// refine computes the exact closest point on triangle fi and returns
// whichever of it and best is nearer. Ties keep the lower triangle
// index, matching the linear scan's first-encountered rule.
func (idx *Index) refine(p r3.Vec, fi int, best Correspondence) Correspondence {
	f := idx.m.Faces[fi]
	q, bary := closestPointOnTriangle(p, idx.m.Vertices[f[0]], idx.m.Vertices[f[1]], idx.m.Vertices[f[2]])
	d2 := r3.Norm2(r3.Sub(p, q))
	if d2 < best.Dist2 || (d2 == best.Dist2 && best.Triangle >= 0 && fi < best.Triangle) {
		return Correspondence{
			Point:    q,
			Bary:     bary,
			Triangle: fi,
			Dist2:    d2,
			Normal:   idx.interpolatedNormal(fi, bary),
		}
	}
	return best
}

// interpolatedNormal blends the triangle's vertex normals with the
// given barycentric weights and renormalizes. Opposed normals that
// cancel out yield a zero vector, which downstream gating treats as
// maximally misaligned.
func (idx *Index) interpolatedNormal(fi int, bary [3]float64) r3.Vec {
	if len(idx.m.Normals) != len(idx.m.Vertices) {
		return r3.Vec{}
	}
	f := idx.m.Faces[fi]
	n := r3.Scale(bary[0], idx.m.Normals[f[0]])
	n = r3.Add(n, r3.Scale(bary[1], idx.m.Normals[f[1]]))
	n = r3.Add(n, r3.Scale(bary[2], idx.m.Normals[f[2]]))
	if r3.Norm(n) < 1e-12 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// ---------------------------------------------------------------------------
// kd-tree plumbing
// ---------------------------------------------------------------------------

// pointLike lets queries and tree nodes share coordinate access.
type pointLike interface {
	vec() r3.Vec
}

func coord(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// centroidNode is a triangle centroid stored in the kd-tree.
type centroidNode struct {
	c   r3.Vec
	tri int
}

func (n centroidNode) vec() r3.Vec { return n.c }
func (n centroidNode) Dims() int   { return 3 }

func (n centroidNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(n.c, d) - coord(c.(pointLike).vec(), d)
}

func (n centroidNode) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(n.c, c.(pointLike).vec()))
}

// pointQuery is a bare query point.
type pointQuery struct {
	p r3.Vec
}

func (q pointQuery) vec() r3.Vec { return q.p }
func (q pointQuery) Dims() int   { return 3 }

func (q pointQuery) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(q.p, d) - coord(c.(pointLike).vec(), d)
}

func (q pointQuery) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(q.p, c.(pointLike).vec()))
}

// centroids implements kdtree.Interface over centroidNode values.
type centroids []centroidNode

func (c centroids) Index(i int) kdtree.Comparable        { return c[i] }
func (c centroids) Len() int                             { return len(c) }
func (c centroids) Slice(start, end int) kdtree.Interface { return c[start:end] }

func (c centroids) Pivot(d kdtree.Dim) int {
	return centroidPlane{Dim: d, centroids: c}.Pivot()
}

// centroidPlane sorts centroids along a dimension for tree construction.
type centroidPlane struct {
	kdtree.Dim
	centroids
}

func (p centroidPlane) Less(i, j int) bool {
	return coord(p.centroids[i].c, p.Dim) < coord(p.centroids[j].c, p.Dim)
}

func (p centroidPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	p.centroids = p.centroids[start:end]
	return p
}

func (p centroidPlane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}
