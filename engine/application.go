package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer"
	"github.com/spaghettifunk/vkframes/engine/renderer/components"
)

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"height"`
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

/**
 * @brief The configuration of the whole application, as read from the TOML
 * configuration file. Sections missing from the file keep their defaults.
 */
type ApplicationConfig struct {
	Application WindowConfig            `toml:"application"`
	Renderer    renderer.Config         `toml:"renderer"`
	Camera      components.CameraConfig `toml:"camera"`
	Logging     LoggingConfig           `toml:"logging"`
	Assets      AssetsConfig            `toml:"assets"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Application: WindowConfig{
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			Name:        "vkframes",
		},
		Renderer: renderer.DefaultConfig(),
		Camera:   components.DefaultCameraConfig(),
		Logging:  LoggingConfig{Level: "info"},
		Assets:   AssetsConfig{Dir: "assets", Watch: false},
	}
}

// LoadApplicationConfig reads the configuration at path over the defaults. A
// missing file is not an error, the defaults are used as they are.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("configuration file %s not found, using defaults", path)
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("assets dir must be set")
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip planes must satisfy 0 < near < far, got %g and %g", c.Camera.Near, c.Camera.Far)
	}
	return c.Renderer.Validate()
}
