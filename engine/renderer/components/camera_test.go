package components

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/core"
)

const eps = 1e-4

func TestCameraStartsLookingAtTarget(t *testing.T) {
	cam := NewFirstPersonCamera(DefaultCameraConfig())

	yaw, pitch := cam.Angles()
	assert.InDelta(t, 0, yaw, eps)
	assert.InDelta(t, -stdmath.Pi/4, pitch, eps)

	snap := cam.Snapshot(16.0 / 9.0)
	assert.Equal(t, linmath.Vec3{0, 10, 10}, snap.Position)

	// The origin lands straight ahead of the camera in view space.
	origin := snap.View[3]
	assert.InDelta(t, 0, origin[0], eps)
	assert.InDelta(t, 0, origin[1], eps)
	assert.InDelta(t, -stdmath.Sqrt(200), origin[2], eps)
}

func TestCameraProjectionFlipsY(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.FOVDegrees = 90
	cam := NewFirstPersonCamera(cfg)

	snap := cam.Snapshot(2)
	assert.InDelta(t, -1, snap.Projection[1][1], eps)
	assert.InDelta(t, 0.5, snap.Projection[0][0], eps)
	assert.InDelta(t, -1, snap.Projection[2][3], eps)
}

func TestCameraSpeedIsCapped(t *testing.T) {
	cfg := DefaultCameraConfig()
	cam := NewFirstPersonCamera(cfg)

	input := core.InputSnapshot{Forward: true, Right: true}
	for i := 0; i < 60; i++ {
		cam.Update(1.0/60.0, input)
	}
	assert.InDelta(t, cfg.MaxSpeed, length(cam.Velocity()), eps)

	input.Fast = true
	for i := 0; i < 120; i++ {
		cam.Update(1.0/60.0, input)
	}
	assert.InDelta(t, cfg.MaxSpeed*cfg.FastCoef, length(cam.Velocity()), eps)
}

func TestCameraCoastsToStop(t *testing.T) {
	cam := NewFirstPersonCamera(DefaultCameraConfig())
	cam.Update(0.1, core.InputSnapshot{Up: true})
	require.Greater(t, cam.Velocity()[1], float32(0))

	before := cam.Velocity()[1]
	cam.Update(0.05, core.InputSnapshot{})
	assert.InDelta(t, before*0.75, cam.Velocity()[1], eps)

	// A step longer than the damping time stops the camera outright.
	cam.Update(0.5, core.InputSnapshot{})
	assert.Equal(t, linmath.Vec3{}, cam.Velocity())
}

func TestCameraMovesAlongForward(t *testing.T) {
	cam := NewFirstPersonCamera(DefaultCameraConfig())
	start := cam.Position()

	cam.Update(0.01, core.InputSnapshot{Forward: true})
	pos := cam.Position()

	assert.InDelta(t, start[0], pos[0], eps)
	assert.Less(t, pos[1], start[1])
	assert.Less(t, pos[2], start[2])
}

func TestCameraMouseLookNeedsButton(t *testing.T) {
	cam := NewFirstPersonCamera(DefaultCameraConfig())
	cam.ResetMouse(0.5, 0.5)

	cam.Update(0.016, core.InputSnapshot{MouseX: 0.6, MouseY: 0.5})
	yaw, _ := cam.Angles()
	assert.InDelta(t, 0, yaw, eps)

	cam.Update(0.016, core.InputSnapshot{MouseX: 0.7, MouseY: 0.5, MousePressed: true})
	yaw, _ = cam.Angles()
	assert.InDelta(t, 0.4, yaw, eps)

	cam.Update(0.016, core.InputSnapshot{MouseX: 0.7, MouseY: -10, MousePressed: true})
	_, pitch := cam.Angles()
	assert.InDelta(t, maxPitch, pitch, eps)
}
