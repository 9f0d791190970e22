package metadata

import (
	"unsafe"

	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/unsafer"
)

// GPUCameraData is the per-frame camera uniform block (set 0, binding 0).
type GPUCameraData struct {
	View     linmath.Mat4x4
	Proj     linmath.Mat4x4
	ViewProj linmath.Mat4x4
}

// GPUSceneData is the scene uniform block bound with a dynamic offset
// (set 0, binding 1). One padded copy per frame slot lives in a shared buffer.
type GPUSceneData struct {
	FogColor          linmath.Vec4
	FogDistances      linmath.Vec4
	AmbientColor      linmath.Vec4
	SunlightDirection linmath.Vec4
	SunlightColor     linmath.Vec4
}

// GPUObjectData is one element of the object storage buffer (set 1, binding 0).
type GPUObjectData struct {
	ModelMatrix linmath.Mat4x4
}

// MeshPushConstants is the vertex stage push constant block.
type MeshPushConstants struct {
	Data         linmath.Vec4
	RenderMatrix linmath.Mat4x4
}

const (
	GPUCameraDataSize     = uint64(unsafe.Sizeof(GPUCameraData{}))
	GPUSceneDataSize      = uint64(unsafe.Sizeof(GPUSceneData{}))
	GPUObjectDataSize     = uint64(unsafe.Sizeof(GPUObjectData{}))
	MeshPushConstantsSize = uint32(unsafe.Sizeof(MeshPushConstants{}))
)

func (c *GPUCameraData) Bytes() []byte {
	return unsafer.StructToBytes(c)
}

func (s *GPUSceneData) Bytes() []byte {
	return unsafer.StructToBytes(s)
}

func (p *MeshPushConstants) Bytes() []byte {
	return unsafer.StructToBytes(p)
}

type FaceCullMode uint8

const (
	FaceCullModeNone FaceCullMode = iota
	FaceCullModeFront
	FaceCullModeBack
	FaceCullModeFrontAndBack
)

type PolygonMode uint8

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
)

type PrimitiveTopology uint8

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyLineList
)

// CompareOp is the depth comparison a fragment must pass. The zero value is
// less-or-equal.
type CompareOp uint8

const (
	CompareOpLessOrEqual CompareOp = iota
	CompareOpLess
	CompareOpEqual
	CompareOpGreater
	CompareOpGreaterOrEqual
	CompareOpNotEqual
	CompareOpAlways
	CompareOpNever
)

/**
 * @brief Everything a pipeline factory needs to build a graphics pipeline
 * for the shared descriptor layout.
 */
type PipelineConfig struct {
	/** @brief SPIR-V words of the vertex stage. */
	VertexShader []uint32
	/** @brief SPIR-V words of the fragment stage. */
	FragmentShader []uint32
	Topology       PrimitiveTopology
	PolygonMode    PolygonMode
	CullMode       FaceCullMode
	DepthTest      bool
	DepthWrite     bool
	/** @brief Only used when DepthTest is set. */
	DepthCompare CompareOp
	/** @brief Push constant range is only declared for InlinePushed. */
	Delivery ObjectTransformDelivery
}

// NewDefaultPipelineConfig is a depth tested, filled triangle list pipeline
func NewDefaultPipelineConfig(vertex, fragment []uint32, delivery ObjectTransformDelivery) *PipelineConfig {
	return &PipelineConfig{
		VertexShader:   vertex,
		FragmentShader: fragment,
		Topology:       PrimitiveTopologyTriangleList,
		PolygonMode:    PolygonModeFill,
		CullMode:       FaceCullModeNone,
		DepthTest:      true,
		DepthWrite:     true,
		DepthCompare:   CompareOpLessOrEqual,
		Delivery:       delivery,
	}
}
