package loaders

import (
	"fmt"
	"io"
	stdmath "math"
	"os"

	"github.com/mokiat/go-data-front/decoder/obj"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// ModelLoader reads Wavefront OBJ files into a flat, non indexed triangle
// list. Every object and mesh of the file ends up in the same vertex list.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vertices, err := DecodeOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vertices, nil
}

// DecodeOBJ decodes an OBJ stream. Polygons are split into triangle fans.
// The vertex colour is the normal; faces without normals get their flat
// face normal.
func DecodeOBJ(r io.Reader) ([]metadata.Vertex, error) {
	decoder := obj.NewDecoder(obj.DefaultLimits())
	model, err := decoder.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode obj: %w", err)
	}

	vertices := []metadata.Vertex{}
	for _, object := range model.Objects {
		for _, mesh := range object.Meshes {
			for _, face := range mesh.Faces {
				refs := face.References
				if len(refs) < 3 {
					continue
				}
				for i := 1; i+1 < len(refs); i++ {
					tri := [3]obj.Reference{refs[0], refs[i], refs[i+1]}
					vertices = append(vertices, triangle(model, tri)...)
				}
			}
		}
	}

	if len(vertices) == 0 {
		return nil, fmt.Errorf("obj has no faces")
	}
	return vertices, nil
}

func triangle(model *obj.Model, refs [3]obj.Reference) []metadata.Vertex {
	out := make([]metadata.Vertex, 3)
	for i, ref := range refs {
		v := model.GetVertexFromReference(ref)
		out[i].Position = linmath.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
	}

	flat := faceNormal(out[0].Position, out[1].Position, out[2].Position)
	for i, ref := range refs {
		normal := flat
		if ref.HasNormal() {
			n := model.GetNormalFromReference(ref)
			normal = linmath.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
		}
		out[i].Normal = normal
		out[i].Color = normal
	}
	return out
}

func faceNormal(a, b, c linmath.Vec3) linmath.Vec3 {
	u := linmath.Vec3{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := linmath.Vec3{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := linmath.Vec3{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := float32(stdmath.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if l == 0 {
		return n
	}
	return linmath.Vec3{n[0] / l, n[1] / l, n[2] / l}
}
