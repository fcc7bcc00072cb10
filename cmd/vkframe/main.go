// Command vkframe opens a window and draws the vkframe triangle until the
// window is closed.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/andewx/vkframe"
	"github.com/andewx/vkframe/logx"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

func init() {
	// GLFW calls must happen on the main thread.
	runtime.LockOSThread()
}

var args struct {
	config   string
	width    int
	height   int
	debug    bool
	library  string
	logSink  string
	logLevel string
}

func main() {
	flag.StringVar(&args.config, "config", "", "TOML config file")
	flag.IntVar(&args.width, "width", 0, "window width in pixels")
	flag.IntVar(&args.height, "height", 0, "window height in pixels")
	flag.BoolVar(&args.debug, "debug", false, "enable the validation layer and debug report callback")
	flag.StringVar(&args.library, "library", "", "path to the Vulkan loader library")
	flag.StringVar(&args.logSink, "log", "", `log sink: "stdout", "ring" or a file path`)
	flag.StringVar(&args.logLevel, "log-level", "", `log categories: "general", "vulkan", "all" or "none"`)
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vkframe: %+v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides file values with the flags given on the command line.
func applyFlags(cfg *hostConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = args.width
		case "height":
			cfg.Window.Height = args.height
		case "debug":
			cfg.Vulkan.Diagnostic = args.debug
		case "library":
			cfg.Vulkan.Library = args.library
		case "log":
			cfg.Log.Sink = args.logSink
		case "log-level":
			cfg.Log.Level = args.logLevel
		}
	})
}

func run() error {
	cfg, err := loadConfig(args.config)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.validate(); err != nil {
		return err
	}

	level, _ := logx.ParseLevel(cfg.Log.Level)
	log, ring, err := logx.Open(cfg.Log.Sink, level, cfg.Log.RingSize)
	if err != nil {
		return err
	}
	defer log.Close()
	if ring != nil {
		defer drain(ring)
	}

	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "glfw init")
	}
	defer glfw.Terminate()
	if !glfw.VulkanSupported() {
		return errors.New("glfw: Vulkan is not supported")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if cfg.Window.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	surfaces := vkframe.NewGLFWSurface(window)
	engine := vkframe.Config{
		AppName:     cfg.Window.Title,
		LibraryPath: cfg.Vulkan.Library,
		Diagnostic:  cfg.Vulkan.Diagnostic,
		Logger:      log,
	}
	if engine.LibraryPath == "" {
		engine.ProcAddr = glfw.GetVulkanGetInstanceProcAddress()
	}

	ctx, err := vkframe.NewGraphicsContext(engine, surfaces.Window(), surfaces)
	if err != nil {
		return err
	}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		ctx.Resize(uint32(max(width, 0)), uint32(max(height, 0)))
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := ctx.DrawFrame(); err != nil {
			ctx.Destroy()
			return err
		}
	}
	log.Info(logx.General, "window closed", "frames", ctx.FramesPresented())
	return ctx.Destroy()
}

// drain copies whatever is left in the ring to stderr.
func drain(ring *logx.Ring) {
	for ring.Len() > 0 {
		msg, _ := ring.Pop()
		os.Stderr.Write(msg)
	}
}
