//go:build !((linux && cgo) || (darwin && cgo) || (freebsd && cgo))

package vkframe

import (
	"runtime"

	"github.com/pkg/errors"
)

func loadLibrary(path string) error {
	return errors.Errorf("loading Vulkan from %s is not supported on %s", path, runtime.GOOS)
}
