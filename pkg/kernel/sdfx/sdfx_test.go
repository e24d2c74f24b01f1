package sdfx_test

import (
	"math"
	"testing"

	"github.com/dermis3d/dermis/pkg/kernel/sdfx"
)

func TestBoxToMeshIsWelded(t *testing.T) {
	k := sdfx.New()
	m, err := k.ToMesh(k.Box(1, 1, 1), 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	// Exploded marching-cubes output has 3 vertices per triangle;
	// welding must share them.
	if m.VertexCount() >= 3*m.TriangleCount() {
		t.Fatalf("mesh not welded: %d vertices for %d triangles", m.VertexCount(), m.TriangleCount())
	}
	comps := m.ConnectedComponents()
	for _, c := range comps {
		if c != 0 {
			t.Fatal("box surface split into multiple components")
		}
	}
	if d := m.BoundingBoxDiagonal(); math.Abs(d-math.Sqrt(3)) > 0.3 {
		t.Fatalf("bounding box diagonal %g, want about %g", d, math.Sqrt(3))
	}
}

func TestSphereNormalsPointOutward(t *testing.T) {
	k := sdfx.New()
	m, err := k.ToMesh(k.Sphere(1), 16)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range m.Normals {
		v := m.Vertices[i]
		dot := n.X*v.X + n.Y*v.Y + n.Z*v.Z
		if dot <= 0 {
			t.Fatalf("vertex %d: normal %v does not point away from center (position %v)", i, n, v)
		}
	}
}

func TestTranslateShiftsBoundingBox(t *testing.T) {
	k := sdfx.New()
	s := k.Translate(k.Box(1, 1, 1), 2, 0, 0)
	min, max := s.BoundingBox()
	if min[0] < 1 || max[0] > 3.5 {
		t.Fatalf("x range [%g, %g] not shifted to around 2", min[0], max[0])
	}
}

func TestRotateCylinder(t *testing.T) {
	k := sdfx.New()
	upright := k.Cylinder(2, 0.5)
	min, max := upright.BoundingBox()
	if max[2]-min[2] < max[0]-min[0] {
		t.Fatalf("upright cylinder not tallest in z: %v %v", min, max)
	}

	// 90 degrees about x swaps the long axis into y.
	rotated := k.Rotate(upright, 90, 0, 0)
	rmin, rmax := rotated.BoundingBox()
	if rmax[1]-rmin[1] < rmax[2]-rmin[2] {
		t.Fatalf("rotated cylinder not tallest in y: %v %v", rmin, rmax)
	}
}

func TestBooleans(t *testing.T) {
	k := sdfx.New()
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 1, 0, 0)

	umin, umax := k.Union(a, b).BoundingBox()
	if umax[0]-umin[0] < 1.9 {
		t.Fatalf("union x extent %g, want about 2", umax[0]-umin[0])
	}

	imin, imax := k.Intersection(a, b).BoundingBox()
	if imax[0]-imin[0] > 1.1 {
		t.Fatalf("intersection x extent %g, want well under the union's", imax[0]-imin[0])
	}

	// A bored box meshes to a single welded surface with more
	// triangles than the plain box at the same resolution.
	plain, err := k.ToMesh(a, 16)
	if err != nil {
		t.Fatal(err)
	}
	bored, err := k.ToMesh(k.Difference(a, k.Cylinder(1.5, 0.25)), 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := bored.Validate(); err != nil {
		t.Fatal(err)
	}
	if bored.TriangleCount() <= plain.TriangleCount() {
		t.Fatalf("bore added no geometry: %d <= %d triangles", bored.TriangleCount(), plain.TriangleCount())
	}
}

func TestToMeshRejectsBadResolution(t *testing.T) {
	k := sdfx.New()
	if _, err := k.ToMesh(k.Box(1, 1, 1), 1); err == nil {
		t.Fatal("expected error for too-coarse resolution")
	}
}
