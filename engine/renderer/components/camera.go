package components

import (
	stdmath "math"

	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/math"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// pitch stops just short of straight up or down so LookAt never degenerates.
const maxPitch = float32(89.0 * stdmath.Pi / 180.0)

/**
 * @brief Tuning of the first person camera. Speeds are in world units per
 * second, angles in degrees.
 */
type CameraConfig struct {
	/** @brief Radians of rotation per unit of normalised mouse travel. */
	MouseSpeed   float32 `toml:"mouse_speed"`
	Acceleration float32 `toml:"acceleration"`
	/** @brief Seconds it takes the camera to stop once no key is held. */
	Damping  float32 `toml:"damping"`
	MaxSpeed float32 `toml:"max_speed"`
	/** @brief Multiplies MaxSpeed while the fast key is held. */
	FastCoef   float32      `toml:"fast_coef"`
	FOVDegrees float32      `toml:"fov_degrees"`
	Near       float32      `toml:"near"`
	Far        float32      `toml:"far"`
	Position   linmath.Vec3 `toml:"position"`
	Target     linmath.Vec3 `toml:"target"`
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		MouseSpeed:   4.0,
		Acceleration: 150.0,
		Damping:      0.2,
		MaxSpeed:     10.0,
		FastCoef:     10.0,
		FOVDegrees:   70.0,
		Near:         0.1,
		Far:          200.0,
		Position:     linmath.Vec3{0, 10, 10},
		Target:       linmath.Vec3{0, 0, 0},
	}
}

/**
 * @brief A free flying camera driven by an InputSnapshot. Movement keys
 * accelerate it, releasing them lets it coast to a stop, holding the look
 * button turns mouse travel into yaw and pitch.
 */
type FirstPersonCamera struct {
	config CameraConfig

	position linmath.Vec3
	velocity linmath.Vec3
	// Radians. Yaw 0 looks down -Z.
	yaw   float32
	pitch float32

	lastMouseX float32
	lastMouseY float32
	worldUp    linmath.Vec3
}

func NewFirstPersonCamera(config CameraConfig) *FirstPersonCamera {
	c := &FirstPersonCamera{
		config:   config,
		position: config.Position,
		worldUp:  linmath.Vec3{0, 1, 0},
	}
	c.LookAt(config.Target)
	return c
}

// LookAt turns the camera toward target without moving it.
func (c *FirstPersonCamera) LookAt(target linmath.Vec3) {
	dx := target[0] - c.position[0]
	dy := target[1] - c.position[1]
	dz := target[2] - c.position[2]
	horizontal := float32(stdmath.Sqrt(float64(dx*dx + dz*dz)))
	if horizontal == 0 && dy == 0 {
		return
	}
	c.yaw = float32(stdmath.Atan2(float64(dx), float64(-dz)))
	c.pitch = math.Clamp(float32(stdmath.Atan2(float64(dy), float64(horizontal))), -maxPitch, maxPitch)
}

// ResetMouse sets the reference point of the next mouse delta.
func (c *FirstPersonCamera) ResetMouse(x, y float32) {
	c.lastMouseX = x
	c.lastMouseY = y
}

func (c *FirstPersonCamera) Position() linmath.Vec3 {
	return c.position
}

func (c *FirstPersonCamera) Velocity() linmath.Vec3 {
	return c.velocity
}

// Angles returns yaw and pitch in radians.
func (c *FirstPersonCamera) Angles() (float32, float32) {
	return c.yaw, c.pitch
}

// Forward is the unit view direction.
func (c *FirstPersonCamera) Forward() linmath.Vec3 {
	cp := float32(stdmath.Cos(float64(c.pitch)))
	return linmath.Vec3{
		cp * float32(stdmath.Sin(float64(c.yaw))),
		float32(stdmath.Sin(float64(c.pitch))),
		-cp * float32(stdmath.Cos(float64(c.yaw))),
	}
}

// Right is horizontal, so strafing never changes height.
func (c *FirstPersonCamera) Right() linmath.Vec3 {
	return linmath.Vec3{
		float32(stdmath.Cos(float64(c.yaw))),
		0,
		float32(stdmath.Sin(float64(c.yaw))),
	}
}

// Update integrates one step of deltaSeconds.
func (c *FirstPersonCamera) Update(deltaSeconds float64, input core.InputSnapshot) {
	dt := float32(deltaSeconds)

	if input.MousePressed {
		c.yaw += c.config.MouseSpeed * (input.MouseX - c.lastMouseX)
		c.pitch -= c.config.MouseSpeed * (input.MouseY - c.lastMouseY)
		c.pitch = math.Clamp(c.pitch, -maxPitch, maxPitch)
	}
	c.lastMouseX = input.MouseX
	c.lastMouseY = input.MouseY

	forward := c.Forward()
	right := c.Right()
	up := c.worldUp

	var accel linmath.Vec3
	addScaled := func(v linmath.Vec3, s float32) {
		accel[0] += v[0] * s
		accel[1] += v[1] * s
		accel[2] += v[2] * s
	}
	if input.Forward {
		addScaled(forward, 1)
	}
	if input.Back {
		addScaled(forward, -1)
	}
	if input.Left {
		addScaled(right, -1)
	}
	if input.Right {
		addScaled(right, 1)
	}
	if input.Up {
		addScaled(up, 1)
	}
	if input.Down {
		addScaled(up, -1)
	}

	if accel == (linmath.Vec3{}) {
		decay := float32(1)
		if c.config.Damping > 0 {
			decay = math.Clamp(dt/c.config.Damping, 0, 1)
		}
		for i := range c.velocity {
			c.velocity[i] -= c.velocity[i] * decay
		}
	} else {
		for i := range c.velocity {
			c.velocity[i] += accel[i] * c.config.Acceleration * dt
		}
		maxSpeed := c.config.MaxSpeed
		if input.Fast {
			maxSpeed *= c.config.FastCoef
		}
		if speed := length(c.velocity); speed > maxSpeed {
			for i := range c.velocity {
				c.velocity[i] *= maxSpeed / speed
			}
		}
	}

	for i := range c.position {
		c.position[i] += c.velocity[i] * dt
	}
}

// Snapshot builds the view and projection for a viewport of the given
// aspect ratio. Y is flipped in the projection for Vulkan clip space.
func (c *FirstPersonCamera) Snapshot(aspect float32) metadata.CameraSnapshot {
	forward := c.Forward()
	center := linmath.Vec3{
		c.position[0] + forward[0],
		c.position[1] + forward[1],
		c.position[2] + forward[2],
	}
	eye := c.position
	up := c.worldUp

	snapshot := metadata.CameraSnapshot{Position: c.position}
	snapshot.View.LookAt(&eye, &center, &up)
	snapshot.Projection.Perspective(math.DegToRad(c.config.FOVDegrees), aspect, c.config.Near, c.config.Far)
	snapshot.Projection[1][1] *= -1
	return snapshot
}

func length(v linmath.Vec3) float32 {
	return float32(stdmath.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}
