package vkframe

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Window is the host's native window: the display/window handle pair and the
// framebuffer size in pixels. The engine never owns the window.
type Window struct {
	// Display is the window system connection. Zero when the window system
	// library keeps the connection itself, as GLFW does.
	Display uintptr
	Handle  uintptr
	Width   uint32
	Height  uint32
}

func (w Window) validate() error {
	if w.Handle == 0 {
		return errors.Wrap(ErrInvalidWindow, "null native window handle")
	}
	if w.Width == 0 || w.Height == 0 {
		return errors.Wrapf(ErrInvalidWindow, "window size %dx%d", w.Width, w.Height)
	}
	return nil
}

// SurfaceFactory creates presentable surfaces for a window system.
type SurfaceFactory interface {
	// InstanceExtensions are the instance extensions the surface needs.
	InstanceExtensions() []string
	// CreateSurface creates a surface for win. A handle pair the factory
	// cannot create a surface for is rejected with ErrInvalidWindow.
	CreateSurface(instance vk.Instance, win Window) (vk.Surface, error)
}

// sameWindow checks that win names the window identified by own.
func sameWindow(own, win Window) error {
	if win.Handle != own.Handle || win.Display != own.Display {
		return errors.Wrapf(ErrInvalidWindow, "handle pair {%#x, %#x} is not this window {%#x, %#x}",
			win.Display, win.Handle, own.Display, own.Handle)
	}
	return nil
}

// GLFWSurface creates surfaces for a GLFW window. GLFW must be initialized
// and the window created with the NoAPI client hint.
type GLFWSurface struct {
	window *glfw.Window
}

func NewGLFWSurface(window *glfw.Window) *GLFWSurface {
	return &GLFWSurface{window: window}
}

// Window reports the native handle and the current framebuffer size.
func (s *GLFWSurface) Window() Window {
	width, height := s.window.GetFramebufferSize()
	return Window{
		Handle: uintptr(s.window.Handle()),
		Width:  uint32(max(width, 0)),
		Height: uint32(max(height, 0)),
	}
}

func (s *GLFWSurface) InstanceExtensions() []string {
	return s.window.GetRequiredInstanceExtensions()
}

func (s *GLFWSurface) CreateSurface(instance vk.Instance, win Window) (vk.Surface, error) {
	if err := sameWindow(s.Window(), win); err != nil {
		return vk.NullSurface, err
	}
	ptr, err := s.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfwCreateWindowSurface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// display binds a surface to the instance and remembers the window size used
// when the surface leaves the extent to the application.
type display struct {
	instance vk.Instance
	surface  vk.Surface
	width    uint32
	height   uint32
}

func bindSurface(instance vk.Instance, win Window, factory SurfaceFactory) (*display, error) {
	if err := win.validate(); err != nil {
		return nil, err
	}
	surface, err := factory.CreateSurface(instance, win)
	if err != nil {
		return nil, err
	}
	if surface == vk.NullSurface {
		return nil, errors.Wrap(ErrInvalidWindow, "window system returned a null surface")
	}
	return &display{
		instance: instance,
		surface:  surface,
		width:    win.Width,
		height:   win.Height,
	}, nil
}

func (d *display) resize(width, height uint32) {
	d.width, d.height = width, height
}

func (d *display) size() vk.Extent2D {
	return vk.Extent2D{Width: d.width, Height: d.height}
}

func (d *display) destroy() {
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
}
