package engine

import (
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// Game is the application plugged into the engine. Only FnInitialize is
// required.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnShutdown        Shutdown
}

// Initialize uploads meshes, creates materials and fills the scene. It runs
// once the renderer is up and before the scene is sealed.
type Initialize func(e *Engine) error

// Update runs once per frame after the camera moved.
type Update func(deltaTime float64) error

// Render may adjust the packet before it is drawn.
type Render func(packet *metadata.RenderPacket, deltaTime float64) error
type Shutdown func() error
