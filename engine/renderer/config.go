package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

const (
	DefaultFramesInFlight uint32 = 2
	DefaultMaxObjects     uint32 = 10000
	DefaultFenceTimeoutMS uint32 = 1000
)

type Config struct {
	// FramesInFlight is the number of frame slots the CPU may run ahead with.
	FramesInFlight uint32 `toml:"frames_in_flight"`
	// MaxObjects is the capacity of each slot's object storage buffer.
	MaxObjects uint32 `toml:"max_objects"`
	// FenceTimeoutMS bounds the wait on a slot fence before the GPU is
	// considered hung.
	FenceTimeoutMS uint32 `toml:"fence_timeout_ms"`
	// TransformDelivery is the default delivery for materials built by the
	// application.
	TransformDelivery metadata.ObjectTransformDelivery `toml:"transform_delivery"`
	// GroupObjects regroups render objects by material then mesh before
	// drawing instead of trusting the caller's order.
	GroupObjects bool       `toml:"group_objects"`
	ClearColor   [4]float32 `toml:"clear_color"`
	Validation   bool       `toml:"validation"`
}

func DefaultConfig() Config {
	return Config{
		FramesInFlight:    DefaultFramesInFlight,
		MaxObjects:        DefaultMaxObjects,
		FenceTimeoutMS:    DefaultFenceTimeoutMS,
		TransformDelivery: metadata.ObjectTransformIndexedStorage,
		GroupObjects:      false,
		ClearColor:        [4]float32{0.0, 0.0, 0.2, 1.0},
		Validation:        false,
	}
}

func (c Config) FenceTimeout() time.Duration {
	return time.Duration(c.FenceTimeoutMS) * time.Millisecond
}

func (c Config) Validate() error {
	if c.FramesInFlight < 2 || c.FramesInFlight > 3 {
		return fmt.Errorf("frames_in_flight must be 2 or 3, got %d", c.FramesInFlight)
	}
	if c.MaxObjects == 0 {
		return fmt.Errorf("max_objects must be greater than zero")
	}
	if c.FenceTimeoutMS == 0 {
		return fmt.Errorf("fence_timeout_ms must be greater than zero")
	}
	return nil
}
