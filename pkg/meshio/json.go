package meshio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/weights"
)

// Output is the serialized form of a transfer run: the target mesh
// geometry plus the final weight field and the diagnostic masks.
type Output struct {
	Vertices     [][3]float64 `json:"vertices"`
	Faces        [][3]int     `json:"faces"`
	Normals      [][3]float64 `json:"normals"`
	Weights      [][]float64  `json:"weights"`
	Matched      []bool       `json:"matched"`
	SmoothedMask []bool       `json:"smoothedMask"`
}

// WriteJSON serializes the target mesh and its transferred weights.
func WriteJSON(path string, m *mesh.Mesh, w *weights.Field, matched, smoothedMask []bool) error {
	out := Output{
		Vertices:     make([][3]float64, len(m.Vertices)),
		Faces:        make([][3]int, len(m.Faces)),
		Normals:      make([][3]float64, len(m.Normals)),
		Weights:      make([][]float64, w.Len()),
		Matched:      matched,
		SmoothedMask: smoothedMask,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}
	copy(out.Faces, m.Faces)
	for i, n := range m.Normals {
		out.Normals[i] = [3]float64{n.X, n.Y, n.Z}
	}
	for i := range out.Weights {
		row := make([]float64, w.Channels())
		copy(row, w.Row(i))
		out.Weights[i] = row
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(&out); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	// Close reports deferred write failures (full disk).
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadWeightsJSON loads a weight field stored as a JSON array of
// per-vertex rows.
func ReadWeightsJSON(path string) (*weights.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f, err := weights.NewFieldFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
