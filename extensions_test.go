package vkframe

import (
	"bytes"
	"testing"

	"github.com/andewx/vkframe/logx"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestMissingExtensions(t *testing.T) {
	have := []string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_report"}

	assert.Empty(t, missing([]string{"VK_KHR_surface\x00", "VK_EXT_debug_report"}, have))
	assert.Equal(t, []string{"VK_KHR_wayland_surface"},
		missing([]string{"VK_KHR_surface", "VK_KHR_wayland_surface\x00"}, have))
	assert.Equal(t, []string{"VK_KHR_swapchain"}, missing([]string{"VK_KHR_swapchain"}, nil))
}

func TestContains(t *testing.T) {
	list := []string{"VK_KHR_swapchain\x00", "VK_KHR_portability_subset"}
	assert.True(t, contains(list, "VK_KHR_swapchain"))
	assert.True(t, contains(list, portabilitySubsetExtension))
	assert.False(t, contains(list, "VK_KHR_maintenance1"))
}

func TestDebugReportFallsBackToWarning(t *testing.T) {
	var buf bytes.Buffer
	log := logx.New(&buf, logx.General)

	assert.False(t, debugReportAvailable([]string{"VK_KHR_surface"}, log))
	assert.Contains(t, buf.String(), "callback disabled")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	assert.True(t, debugReportAvailable([]string{"VK_KHR_surface", vk.ExtDebugReportExtensionName}, log))
	assert.Empty(t, buf.String())
}
