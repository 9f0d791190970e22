package engine

import (
	"fmt"

	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

/**
 * @brief The objects drawn every frame. Objects are appended while the game
 * sets up, after Seal the list is read only and handed to the renderer as is.
 */
type Scene struct {
	objects []metadata.RenderObject
	sealed  bool
	// Data is copied into each frame's scene uniform.
	Data metadata.GPUSceneData
}

func NewScene() *Scene {
	return &Scene{
		Data: metadata.GPUSceneData{
			AmbientColor:      linmath.Vec4{0.1, 0.1, 0.1, 1},
			SunlightDirection: linmath.Vec4{0, -1, -1, 0},
			SunlightColor:     linmath.Vec4{1, 1, 1, 1},
		},
	}
}

// Add appends an object drawing mesh with material at transform.
func (s *Scene) Add(mesh *metadata.Mesh, material *metadata.Material, transform linmath.Mat4x4) error {
	if s.sealed {
		return fmt.Errorf("scene is sealed")
	}
	if mesh == nil || material == nil {
		return core.ErrInvalidRenderObject
	}
	s.objects = append(s.objects, metadata.RenderObject{
		Mesh:      mesh,
		Material:  material,
		Transform: transform,
	})
	return nil
}

func (s *Scene) Seal() {
	s.sealed = true
}

func (s *Scene) Sealed() bool {
	return s.sealed
}

func (s *Scene) Len() int {
	return len(s.objects)
}

// Objects returns the render list. Callers must not modify it.
func (s *Scene) Objects() []metadata.RenderObject {
	return s.objects
}
