/*
Renders the testbed scene: a cube from the assets directory and a grid of
triangles, with frames in flight and a free flying camera (WASD, Q/E, shift,
left mouse button to look, escape to quit).
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkframes/engine"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/testbed"
)

const defaultConfigPath = "config.toml"

func main() {
	configPath := os.Getenv("VKFRAMES_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := engine.LoadApplicationConfig(configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}

	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("failed to create engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		if shutdownErr := e.Shutdown(); shutdownErr != nil {
			core.LogError("shutdown after failed initialization: %s", shutdownErr)
		}
		core.LogFatal("failed to initialize engine: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		sig := <-sigCh
		core.LogInfo("received %s", sig)
		e.RequestQuit()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("frame failed: %s", runErr)
	}
}
