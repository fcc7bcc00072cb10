package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andewx/vkframe/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vkframe.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 800
height = 600

[vulkan]
library = "/usr/lib/libvulkan.so.1"
diagnostic = true

[log]
sink = "ring"
level = "general,vulkan"
ring_size = 16
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "vkframe", cfg.Window.Title, "unset keys keep their default")
	assert.True(t, cfg.Window.Resizable)
	assert.Equal(t, "/usr/lib/libvulkan.so.1", cfg.Vulkan.Library)
	assert.True(t, cfg.Vulkan.Diagnostic)
	assert.Equal(t, logx.SinkRing, cfg.Log.Sink)
	assert.Equal(t, 16, cfg.Log.RingSize)

	level, err := logx.ParseLevel(cfg.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, logx.All, level)
}

func TestLoadConfigErrors(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":   "[window]\ndepth = 3\n",
		"bad syntax":    "[window\nwidth = 1\n",
		"zero width":    "[window]\nwidth = 0\n",
		"bad level":     "[log]\nlevel = \"verbose\"\n",
		"negative ring": "[log]\nring_size = -1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
