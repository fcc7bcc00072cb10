package vkframe

import (
	"unsafe"

	"github.com/andewx/vkframe/logx"
	vk "github.com/vulkan-go/vulkan"
)

var (
	DefaultAppName    = "vkframe"
	DefaultAppVersion = vk.MakeVersion(1, 0, 0)
	DefaultAPIVersion = vk.MakeVersion(1, 0, 0)
)

// ValidationLayer is enabled in diagnostic mode when the loader offers it.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// Config describes how a GraphicsContext talks to the driver.
type Config struct {
	// AppName is reported to the driver in the application info.
	AppName string
	// LibraryPath loads the Vulkan loader from an explicit file. Empty uses
	// the default search.
	LibraryPath string
	// ProcAddr is a vkGetInstanceProcAddr supplied by the host, for example
	// glfw.GetVulkanGetInstanceProcAddress(). It wins over LibraryPath.
	ProcAddr unsafe.Pointer
	// Diagnostic enables the validation layer and the debug report callback.
	Diagnostic bool
	// DeviceExtensions are required in addition to VK_KHR_swapchain.
	DeviceExtensions []string
	// Logger receives engine and driver messages. Nil drops them.
	Logger *logx.Logger
}

func (c Config) withDefaults() Config {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.Logger == nil {
		c.Logger = logx.Nop()
	}
	return c
}

// requiredDeviceExtensions always starts with the swapchain extension.
func (c Config) requiredDeviceExtensions() []string {
	return distinct(append([]string{vk.KhrSwapchainExtensionName}, c.DeviceExtensions...)...)
}
