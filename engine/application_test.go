package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/renderer"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadApplicationConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig(), config)
	assert.Equal(t, renderer.DefaultFramesInFlight, config.Renderer.FramesInFlight)
}

func TestLoadApplicationConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[application]
name = "demo"
width = 800

[renderer]
frames_in_flight = 3
transform_delivery = "push"
group_objects = true
clear_color = [0.1, 0.2, 0.3, 1.0]

[camera]
max_speed = 4.0
position = [1.0, 2.0, 3.0]

[logging]
level = "debug"
`)
	config, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", config.Application.Name)
	assert.Equal(t, uint32(800), config.Application.StartWidth)
	assert.Equal(t, uint32(720), config.Application.StartHeight)
	assert.Equal(t, uint32(3), config.Renderer.FramesInFlight)
	assert.Equal(t, renderer.DefaultMaxObjects, config.Renderer.MaxObjects)
	assert.Equal(t, metadata.ObjectTransformInlinePushed, config.Renderer.TransformDelivery)
	assert.True(t, config.Renderer.GroupObjects)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, config.Renderer.ClearColor)
	assert.Equal(t, float32(4), config.Camera.MaxSpeed)
	assert.Equal(t, float32(150), config.Camera.Acceleration)
	assert.Equal(t, linmath.Vec3{1, 2, 3}, config.Camera.Position)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadApplicationConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"frames":   "[renderer]\nframes_in_flight = 5\n",
		"delivery": "[renderer]\ntransform_delivery = \"carrier pigeon\"\n",
		"level":    "[logging]\nlevel = \"loud\"\n",
		"size":     "[application]\nwidth = 0\n",
		"planes":   "[camera]\nnear = 10.0\nfar = 1.0\n",
		"syntax":   "[renderer\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadApplicationConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
