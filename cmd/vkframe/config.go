package main

import (
	"bytes"
	"os"

	"github.com/andewx/vkframe/logx"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type hostConfig struct {
	Window windowConfig `toml:"window"`
	Vulkan vulkanConfig `toml:"vulkan"`
	Log    logConfig    `toml:"log"`
}

type windowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

type vulkanConfig struct {
	// Library is an explicit path to the Vulkan loader. Empty uses GLFW's.
	Library    string `toml:"library"`
	Diagnostic bool   `toml:"diagnostic"`
}

type logConfig struct {
	Sink     string `toml:"sink"`
	Level    string `toml:"level"`
	RingSize int    `toml:"ring_size"`
}

func defaultConfig() hostConfig {
	return hostConfig{
		Window: windowConfig{Width: 1024, Height: 768, Title: "vkframe", Resizable: true},
		Log:    logConfig{Sink: logx.SinkStdout, Level: "general", RingSize: logx.DefaultRingSize},
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected so
// typos do not pass silently. An empty path yields the defaults.
func loadConfig(path string) (hostConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, cfg.validate()
}

func (c hostConfig) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := logx.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.RingSize < 0 {
		return errors.Errorf("log ring_size %d is negative", c.Log.RingSize)
	}
	return nil
}
