package metadata

import (
	"unsafe"

	"github.com/google/uuid"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/unsafer"
)

/**
 * @brief Represents a single vertex in 3D space. Laid out exactly as the
 * vertex shader reads it from binding 0.
 */
type Vertex struct {
	/** @brief The position of the vertex, location 0. */
	Position linmath.Vec3
	/** @brief The normal of the vertex, location 1. */
	Normal linmath.Vec3
	/** @brief The colour of the vertex, location 2. */
	Color linmath.Vec3
}

// VertexStride is the byte distance between two consecutive vertices.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// VertexAttribute describes one vec3 float attribute of Vertex.
type VertexAttribute struct {
	Location uint32
	Offset   uint32
}

// VertexAttributes returns the per-vertex input description: position, normal
// and colour at locations 0, 1 and 2.
func VertexAttributes() []VertexAttribute {
	return []VertexAttribute{
		{Location: 0, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
		{Location: 2, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	}
}

type Mesh struct {
	ID       uuid.UUID
	Name     string
	Vertices []Vertex
	// VertexBuffer is the device buffer holding Vertices once uploaded.
	VertexBuffer GPUHandle
}

func (m *Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}

// Bytes exposes the vertex data in its upload layout
func (m *Mesh) Bytes() []byte {
	return unsafer.SliceToBytes(m.Vertices)
}
