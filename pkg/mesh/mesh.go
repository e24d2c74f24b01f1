// Package mesh defines the triangle mesh data model shared by the
// weight transfer pipeline. Meshes are plain vertex/face/normal arrays;
// topology helpers (adjacency, connected components) are derived on
// demand and never cached on the mesh itself.
package mesh

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle mesh. Faces index into Vertices; Normals, when
// present, holds one unit vector per vertex with consistent outward
// orientation.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
	Normals  []r3.Vec
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Validate checks the structural contracts: every face index in bounds
// and, when normals are present, one normal per vertex. It does not
// inspect topology beyond that.
func (m *Mesh) Validate() error {
	for fi, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d, mesh has %d vertices", fi, vi, len(m.Vertices))
			}
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("mesh has %d normals for %d vertices", len(m.Normals), len(m.Vertices))
	}
	return nil
}

// ComputePerVertexNormals derives per-vertex normals by accumulating
// area-weighted face normals and normalizing. Degenerate faces
// contribute nothing. Vertices touched by no face get a zero normal.
func (m *Mesh) ComputePerVertexNormals() {
	acc := make([]r3.Vec, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// Cross product length is twice the face area, so this is
		// area weighting for free.
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, vi := range f {
			acc[vi] = r3.Add(acc[vi], n)
		}
	}
	m.Normals = make([]r3.Vec, len(m.Vertices))
	for i, n := range acc {
		if r3.Norm(n) > 1e-12 {
			m.Normals[i] = r3.Unit(n)
		}
	}
}

// VertexAdjacency returns, for each vertex, the sorted list of vertices
// sharing a face edge with it.
func (m *Mesh) VertexAdjacency() [][]int {
	sets := make([]map[int]struct{}, len(m.Vertices))
	link := func(a, b int) {
		if sets[a] == nil {
			sets[a] = make(map[int]struct{}, 6)
		}
		sets[a][b] = struct{}{}
	}
	for _, f := range m.Faces {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			link(a, b)
			link(b, a)
		}
	}
	adj := make([][]int, len(m.Vertices))
	for i, s := range sets {
		if len(s) == 0 {
			continue
		}
		nb := make([]int, 0, len(s))
		for v := range s {
			nb = append(nb, v)
		}
		sort.Ints(nb)
		adj[i] = nb
	}
	return adj
}

// ConnectedComponents labels every vertex with a component id,
// numbering components in order of their lowest vertex index.
func (m *Mesh) ConnectedComponents() []int {
	adj := m.VertexAdjacency()
	comp := make([]int, len(m.Vertices))
	for i := range comp {
		comp[i] = -1
	}
	next := 0
	var queue []int
	for start := range m.Vertices {
		if comp[start] != -1 {
			continue
		}
		comp[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, nb := range adj[v] {
				if comp[nb] == -1 {
					comp[nb] = next
					queue = append(queue, nb)
				}
			}
		}
		next++
	}
	return comp
}

// BoundingBoxDiagonal returns the length of the axis-aligned bounding
// box diagonal, or 0 for an empty mesh.
func (m *Mesh) BoundingBoxDiagonal() float64 {
	if len(m.Vertices) == 0 {
		return 0
	}
	min := m.Vertices[0]
	max := m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return r3.Norm(r3.Sub(max, min))
}

// RemoveUnreferenced drops vertices referenced by no face, remapping
// face indices, and reports how many were removed. Normals are remapped
// alongside when present.
func (m *Mesh) RemoveUnreferenced() int {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, vi := range f {
			used[vi] = true
		}
	}
	remap := make([]int, len(m.Vertices))
	kept := 0
	for i, u := range used {
		if u {
			remap[i] = kept
			kept++
		} else {
			remap[i] = -1
		}
	}
	removed := len(m.Vertices) - kept
	if removed == 0 {
		return 0
	}
	verts := make([]r3.Vec, 0, kept)
	var normals []r3.Vec
	if len(m.Normals) == len(m.Vertices) {
		normals = make([]r3.Vec, 0, kept)
	}
	for i, u := range used {
		if !u {
			continue
		}
		verts = append(verts, m.Vertices[i])
		if normals != nil {
			normals = append(normals, m.Normals[i])
		}
	}
	for fi := range m.Faces {
		for e := 0; e < 3; e++ {
			m.Faces[fi][e] = remap[m.Faces[fi][e]]
		}
	}
	m.Vertices = verts
	m.Normals = normals
	return removed
}
