// Package meshio loads meshes and writes transfer results. It is a
// host-side collaborator: the pipeline core only ever sees the clean
// in-memory arrays produced here.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dermis3d/dermis/pkg/mesh"
)

// ReadOBJ parses the v/vn/f subset of Wavefront OBJ. Faces with more
// than three vertices are fan-triangulated. Unreferenced vertices are
// removed and per-vertex normals recomputed, so the returned mesh is
// ready for the pipeline.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, fld := range fields[1:] {
				vi, err := parseFaceIndex(fld, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				idx = append(idx, vi)
			}
			for i := 1; i < len(idx)-1; i++ {
				m.Faces = append(m.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		default:
			// vn, vt, usemtl, o, g, s: normals are recomputed below and
			// the rest carries no geometry.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	m.RemoveUnreferenced()
	m.ComputePerVertexNormals()
	return m, nil
}

// LoadOBJ reads an OBJ mesh from a file.
func LoadOBJ(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseVec(fields []string) (r3.Vec, error) {
	if len(fields) < 3 {
		return r3.Vec{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("bad coordinate %q", fields[i])
		}
		out[i] = v
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// parseFaceIndex handles the "v", "v/vt", "v//vn" and "v/vt/vn" forms.
// OBJ indices are 1-based; negative indices count back from the end.
func parseFaceIndex(field string, nVerts int) (int, error) {
	if cut := strings.IndexByte(field, '/'); cut >= 0 {
		field = field[:cut]
	}
	vi, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", field)
	}
	switch {
	case vi > 0:
		vi--
	case vi < 0:
		vi = nVerts + vi
	default:
		return 0, fmt.Errorf("face index 0 is not valid")
	}
	if vi < 0 || vi >= nVerts {
		return 0, fmt.Errorf("face index %q out of range (%d vertices)", field, nVerts)
	}
	return vi, nil
}
