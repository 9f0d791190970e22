package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/vkframes/engine/assets"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/platform"
	"github.com/spaghettifunk/vkframes/engine/renderer"
	"github.com/spaghettifunk/vkframes/engine/renderer/components"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
	"github.com/spaghettifunk/vkframes/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shut down"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig

	events       *core.EventBus
	input        *core.InputState
	bindings     core.KeyBindings
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	camera       *components.FirstPersonCamera
	scene        *Scene

	clock         *core.Clock
	fps           *core.FPSCounter
	lastTime      float64
	quitRequested atomic.Bool
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.FnInitialize == nil {
		return nil, fmt.Errorf("game must provide an initialize function")
	}
	config := g.ApplicationConfig
	if config == nil {
		config = DefaultApplicationConfig()
		g.ApplicationConfig = config
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(config.Logging.Level); err != nil {
		return nil, err
	}

	events := core.NewEventBus()
	input := core.NewInputState(events)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		events:       events,
		input:        input,
		bindings:     core.DefaultKeyBindings(),
		platform:     platform.New(input, events),
		assetManager: assets.NewAssetManager(),
		scene:        NewScene(),
		clock:        core.NewClock(),
		fps:          core.NewFPSCounter(core.DefaultFPSInterval),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Scene() *Scene {
	return e.scene
}

func (e *Engine) Camera() *components.FirstPersonCamera {
	return e.camera
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

// RequestQuit stops the run loop before its next frame. Safe from any goroutine.
func (e *Engine) RequestQuit() {
	e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

// Initialize opens the window, indexes the assets, boots the renderer and
// lets the game build its scene.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("cannot initialize engine in stage %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	app := e.config.Application
	if err := e.platform.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.Watch); err != nil {
		return err
	}

	backend := vulkan.New(e.platform, e.config.Renderer.Validation)
	r, err := renderer.New(backend, e.config.Renderer)
	if err != nil {
		return err
	}
	// Owned from here on so Shutdown releases a partially booted device.
	e.renderer = r
	width, height := e.platform.FramebufferSize()
	if err := r.Initialize(app.Name, width, height); err != nil {
		return err
	}

	e.camera = components.NewFirstPersonCamera(e.config.Camera)
	mx, my := e.input.MousePosition()
	e.camera.ResetMouse(mx, my)

	if err := e.gameInstance.FnInitialize(e); err != nil {
		return fmt.Errorf("game initialization: %w", err)
	}
	e.scene.Seal()

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized with %d render objects.", e.scene.Len())
	return nil
}

// Run drives frames until the window closes or a quit is requested. A frame
// error ends the loop and is returned; the caller still has to Shutdown.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("cannot run engine in stage %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.lastTime = e.clock.Elapsed()

	for !e.quitRequested.Load() {
		if !e.platform.PumpMessages() {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if err := e.frame(delta); err != nil {
			return err
		}

		if e.fps.Tick(delta, true) {
			stats := e.renderer.LastFrameStats()
			core.LogDebug("FPS: %.1f (%.2f ms), %d draws, %d pipeline binds", e.fps.FPS(), e.fps.FrameTimeMS(), stats.Draws, stats.PipelineBinds)
		}
		e.drainAssetChanges()
		e.input.Update()
	}
	core.LogInfo("Run loop finished after %d frames.", e.renderer.FrameNumber())
	return nil
}

func (e *Engine) frame(delta float64) error {
	e.camera.Update(delta, e.input.Snapshot(e.bindings))

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}

	width, height := e.platform.FramebufferSize()
	aspect := float32(1)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	packet := &metadata.RenderPacket{
		DeltaTime: delta,
		Camera:    e.camera.Snapshot(aspect),
		Scene:     e.scene.Data,
		Objects:   e.scene.Objects(),
	}

	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(packet, delta); err != nil {
			return fmt.Errorf("game render: %w", err)
		}
	}
	return e.renderer.DrawFrame(packet)
}

func (e *Engine) drainAssetChanges() {
	for {
		select {
		case change, ok := <-e.assetManager.Changes():
			if !ok {
				return
			}
			core.LogInfo("Asset %s changed (%s), restart to pick it up.", change.Path, change.Type)
		default:
			return
		}
	}
}

// Shutdown releases the renderer, the assets and the window, in that order.
// It is safe to call after a failed Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if e.gameInstance.FnShutdown != nil {
		keep(e.gameInstance.FnShutdown())
	}
	if e.renderer != nil {
		keep(e.renderer.Shutdown())
	}
	keep(e.assetManager.Shutdown())
	keep(e.platform.Shutdown())
	e.events.Shutdown()

	e.currentStage = EngineStageShutdown
	core.LogInfo("Engine shut down.")
	return firstErr
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.quitRequested.Store(true)
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if core.KeyCode(data.Data.U16[0]) == core.KEY_ESCAPE {
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogWarn("Framebuffer resized to %dx%d, the swapchain keeps its size.", data.Data.U16[0], data.Data.U16[1])
	return false
}
