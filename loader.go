package vkframe

import (
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var loaderMu sync.Mutex

// loadVulkan binds vkGetInstanceProcAddr and initializes the global entry
// points. The host-supplied pointer wins, then the explicit library path,
// then the default loader search.
func loadVulkan(cfg Config) error {
	loaderMu.Lock()
	defer loaderMu.Unlock()

	switch {
	case cfg.ProcAddr != nil:
		vk.SetGetInstanceProcAddr(cfg.ProcAddr)
	case cfg.LibraryPath != "":
		if err := loadLibrary(cfg.LibraryPath); err != nil {
			return err
		}
	default:
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return errors.Wrap(err, "locate default Vulkan loader")
		}
	}
	return errors.Wrap(vk.Init(), "initialize Vulkan entry points")
}
