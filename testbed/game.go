package testbed

import (
	stdmath "math"

	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/math"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

const (
	// Materials, one per object transform delivery.
	MaterialPushed  = "defaultmesh"
	MaterialStorage = "storagemesh"

	MeshTriangle = "triangle"
	MeshCube     = "cube"

	gridHalfExtent = 20
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine
	// Seconds since the first frame, drives the ambient colour.
	elapsed float64
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("initializing testbed...")
	state := g.State.(*gameState)
	state.engine = e

	fragment, err := e.Assets().LoadShader("mesh.frag")
	if err != nil {
		return err
	}
	pushedVertex, err := e.Assets().LoadShader("mesh_push.vert")
	if err != nil {
		return err
	}
	storageVertex, err := e.Assets().LoadShader("mesh_storage.vert")
	if err != nil {
		return err
	}

	r := e.Renderer()
	pushed, err := r.CreateMaterial(MaterialPushed,
		metadata.NewDefaultPipelineConfig(pushedVertex, fragment, metadata.ObjectTransformInlinePushed))
	if err != nil {
		return err
	}
	storage, err := r.CreateMaterial(MaterialStorage,
		metadata.NewDefaultPipelineConfig(storageVertex, fragment, metadata.ObjectTransformIndexedStorage))
	if err != nil {
		return err
	}

	triangle, err := r.UploadMesh(MeshTriangle, TriangleMesh())
	if err != nil {
		return err
	}
	cubeData, err := e.Assets().LoadModel(MeshCube)
	if err != nil {
		return err
	}
	cube, err := r.UploadMesh(MeshCube, cubeData)
	if err != nil {
		return err
	}

	// The grid follows the configured delivery, the cube uses the other one so
	// both pipelines run every frame.
	gridMaterial, cubeMaterial := storage, pushed
	if g.ApplicationConfig.Renderer.TransformDelivery == metadata.ObjectTransformInlinePushed {
		gridMaterial, cubeMaterial = pushed, storage
	}
	return BuildScene(e.Scene(), cube, cubeMaterial, triangle, gridMaterial)
}

// BuildScene places a cube at the origin and a grid of small triangles
// around it. Objects are appended grouped by material then mesh.
func BuildScene(scene *engine.Scene, cube *metadata.Mesh, cubeMaterial *metadata.Material, triangle *metadata.Mesh, gridMaterial *metadata.Material) error {
	if err := scene.Add(cube, cubeMaterial, math.TransformCreate().Matrix()); err != nil {
		return err
	}
	for x := -gridHalfExtent; x <= gridHalfExtent; x++ {
		for z := -gridHalfExtent; z <= gridHalfExtent; z++ {
			t := math.TransformFromPositionScale(linmath.Vec3{float32(x), 0, float32(z)}, 0.2)
			if err := scene.Add(triangle, gridMaterial, t.Matrix()); err != nil {
				return err
			}
		}
	}
	return nil
}

// TriangleMesh is a single green triangle facing +Z.
func TriangleMesh() *metadata.Mesh {
	normal := linmath.Vec3{0, 0, 1}
	green := linmath.Vec3{0, 1, 0}
	return &metadata.Mesh{
		Vertices: []metadata.Vertex{
			{Position: linmath.Vec3{1, 1, 0}, Normal: normal, Color: green},
			{Position: linmath.Vec3{-1, 1, 0}, Normal: normal, Color: green},
			{Position: linmath.Vec3{0, -1, 0}, Normal: normal, Color: green},
		},
	}
}

func (g *TestGame) Update(deltaTime float64) error {
	g.State.(*gameState).elapsed += deltaTime
	return nil
}

// Render cycles the ambient colour.
func (g *TestGame) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	t := g.State.(*gameState).elapsed
	packet.Scene.AmbientColor = linmath.Vec4{
		float32(stdmath.Sin(t)),
		0,
		float32(stdmath.Cos(t)),
		1,
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed...")
	return nil
}
