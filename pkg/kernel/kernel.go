// Package kernel defines the abstract solid-geometry interface used to
// generate demo and test meshes procedurally. Implementations provide
// primitives and transforms behind this interface so the mesh source
// can be swapped without touching the transfer pipeline.
package kernel

import "github.com/dermis3d/dermis/pkg/mesh"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid

	// Booleans
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// ToMesh tessellates the solid at the given resolution into a
	// welded triangle mesh with shared vertices and per-vertex
	// normals, ready for the transfer pipeline.
	ToMesh(s Solid, cells int) (*mesh.Mesh, error)
}
