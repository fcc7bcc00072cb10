//go:build (linux && cgo) || (darwin && cgo) || (freebsd && cgo)

package vkframe

// #cgo linux freebsd LDFLAGS: -ldl
// #include <stdlib.h>
// #include <dlfcn.h>
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// loadLibrary opens the Vulkan loader at path and binds its
// vkGetInstanceProcAddr. The library stays loaded for the process lifetime.
func loadLibrary(path string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return errors.Errorf("open Vulkan library %s: %s", path, C.GoString(C.dlerror()))
	}
	csym := C.CString("vkGetInstanceProcAddr")
	defer C.free(unsafe.Pointer(csym))
	addr := C.dlsym(handle, csym)
	if addr == nil {
		C.dlclose(handle)
		return errors.Errorf("Vulkan library %s has no vkGetInstanceProcAddr", path)
	}
	vk.SetGetInstanceProcAddr(addr)
	return nil
}
