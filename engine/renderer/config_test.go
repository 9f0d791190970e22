package renderer

import (
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "triple buffering", mutate: func(c *Config) { c.FramesInFlight = 3 }},
		{name: "single frame", mutate: func(c *Config) { c.FramesInFlight = 1 }, wantErr: true},
		{name: "four frames", mutate: func(c *Config) { c.FramesInFlight = 4 }, wantErr: true},
		{name: "no objects", mutate: func(c *Config) { c.MaxObjects = 0 }, wantErr: true},
		{name: "no timeout", mutate: func(c *Config) { c.FenceTimeoutMS = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFromTOML(t *testing.T) {
	doc := `
frames_in_flight = 3
max_objects = 500
fence_timeout_ms = 250
transform_delivery = "push"
group_objects = true
clear_color = [0.1, 0.2, 0.3, 1.0]
`
	c := DefaultConfig()
	require.NoError(t, toml.Unmarshal([]byte(doc), &c))

	assert.Equal(t, uint32(3), c.FramesInFlight)
	assert.Equal(t, uint32(500), c.MaxObjects)
	assert.Equal(t, 250*time.Millisecond, c.FenceTimeout())
	assert.Equal(t, metadata.ObjectTransformInlinePushed, c.TransformDelivery)
	assert.True(t, c.GroupObjects)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, c.ClearColor)
	assert.False(t, c.Validation)

	err := toml.Unmarshal([]byte(`transform_delivery = "carrier pigeon"`), &c)
	assert.Error(t, err)
}
