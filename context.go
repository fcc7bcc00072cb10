package vkframe

import (
	"math"

	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// GraphicsContext owns every GPU object needed to draw the triangle into one
// window. Calls must be serialized by the host; the context does no
// internal locking.
type GraphicsContext struct {
	cfg Config
	log *logx.Logger

	instance  *instance
	display   *display
	gpu       *physicalDevice
	device    *logicalDevice
	swapchain *swapchain
	pipeline  *graphicsPipeline
	commands  *commandContext
	sync      *frameSync

	loop      frameLoop
	res       releaser
	failed    error
	destroyed bool
}

// NewGraphicsContext builds the instance, surface, device, swapchain,
// pipeline, command buffers and synchronization objects in that order. When
// a step fails everything built before it is released in reverse order and
// no context is returned.
func NewGraphicsContext(cfg Config, win Window, surfaces SurfaceFactory) (*GraphicsContext, error) {
	cfg = cfg.withDefaults()
	if err := win.validate(); err != nil {
		return nil, constructErr("validate window", err)
	}
	if surfaces == nil {
		return nil, constructErr("bind surface", errors.Wrap(ErrInvalidWindow, "no surface factory"))
	}
	if err := loadVulkan(cfg); err != nil {
		return nil, constructErr("load vulkan", err)
	}

	c := &GraphicsContext{cfg: cfg, log: cfg.Logger}
	c.res.log = cfg.Logger
	c.loop.dev = c
	if err := c.construct(win, surfaces); err != nil {
		c.log.Error(logx.General, "graphics context construction failed", "err", err)
		c.res.release()
		return nil, err
	}
	c.log.Info(logx.General, "graphics context ready",
		"device", c.gpu.name,
		"swapchain", c.swapchain.state,
		"images", c.swapchain.imageCount())
	return c, nil
}

func (c *GraphicsContext) construct(win Window, surfaces SurfaceFactory) error {
	inst, err := newInstance(c.cfg, surfaces.InstanceExtensions())
	if err != nil {
		return constructErr("create instance", err)
	}
	c.instance = inst
	c.res.push("instance", inst.destroy)

	disp, err := bindSurface(inst.handle, win, surfaces)
	if err != nil {
		return constructErr("create surface", err)
	}
	c.display = disp
	c.res.push("surface", disp.destroy)

	required := c.cfg.requiredDeviceExtensions()
	gpu, err := selectPhysicalDevice(inst.handle, disp.surface, required, c.log)
	if err != nil {
		if errors.Is(err, ErrNoSuitableDevice) {
			return err
		}
		return constructErr("select physical device", err)
	}
	c.gpu = gpu

	device, err := newLogicalDevice(gpu, required, c.log)
	if err != nil {
		return constructErr("create logical device", err)
	}
	c.device = device
	c.res.push("device", device.destroy)

	sc, err := newSwapchain(device.handle, gpu.handle, disp, device.families, c.log)
	if err != nil {
		return constructErr("create swapchain", err)
	}
	c.swapchain = sc
	c.res.push("swapchain", sc.destroy)

	program, err := loadShaderProgram(device.handle)
	if err != nil {
		return constructErr("load shaders", err)
	}
	pipeline, err := newPipelineBuilder().build(device.handle, sc.renderPass, program)
	if err != nil {
		return constructErr("create pipeline", err)
	}
	c.pipeline = pipeline
	c.res.push("pipeline", pipeline.destroy)

	commands, err := newCommandContext(device.handle, device.families.Graphics)
	if err != nil {
		return constructErr("create command buffers", err)
	}
	c.commands = commands
	c.res.push("command pool", commands.destroy)

	sync, err := newFrameSync(deviceAllocator{device: device.handle}, len(sc.images))
	if err != nil {
		return constructErr("create sync objects", err)
	}
	c.sync = sync
	c.res.push("sync objects", sync.destroy)
	return nil
}

// DrawFrame renders and presents one frame. Swapchain staleness is handled
// internally; any other failure is an ErrRuntime and leaves the context
// unusable for drawing.
func (c *GraphicsContext) DrawFrame() error {
	if c.destroyed {
		return errors.WithStack(ErrDestroyed)
	}
	if c.failed != nil {
		return runtimeErr("draw frame after failure", c.failed)
	}
	if err := c.loop.drawFrame(); err != nil {
		c.failed = err
		c.log.Error(logx.General, "draw frame failed", "err", err)
		return err
	}
	return nil
}

// Resize records the new window size and marks the swapchain stale. The
// next DrawFrame rebuilds it.
func (c *GraphicsContext) Resize(width, height uint32) {
	if c.destroyed {
		return
	}
	c.display.resize(width, height)
	c.swapchain.markStale()
	c.log.Debug(logx.General, "window resized", "width", width, "height", height)
}

// CurrentFrame is the frame slot the next DrawFrame uses.
func (c *GraphicsContext) CurrentFrame() int {
	return c.loop.current
}

// FramesPresented counts frames handed to the presentation engine.
func (c *GraphicsContext) FramesPresented() uint64 {
	return c.loop.frames
}

func (c *GraphicsContext) SwapchainState() SwapchainState {
	if c.swapchain == nil {
		return SwapchainUninitialized
	}
	return c.swapchain.state
}

// DeviceName is the name of the selected physical device.
func (c *GraphicsContext) DeviceName() string {
	return c.gpu.name
}

// Destroy waits for the device to go idle and releases every object in
// reverse creation order. Using the context afterwards returns ErrDestroyed.
func (c *GraphicsContext) Destroy() error {
	if c.destroyed {
		return errors.WithStack(ErrDestroyed)
	}
	var err error
	if werr := c.device.waitIdle(); werr != nil {
		err = runtimeErr("wait idle before destroy", werr)
		c.log.Warn(logx.General, "device did not go idle, releasing anyway", "err", werr)
	}
	c.res.release()
	c.destroyed = true
	c.log.Info(logx.General, "graphics context destroyed", "frames", c.loop.frames)
	return err
}

func (c *GraphicsContext) swapchainReady() bool {
	return c.swapchain.ready()
}

func (c *GraphicsContext) waitForFrame(slot int) error {
	fences := []vk.Fence{c.sync.inFlight[slot]}
	return NewError(vk.WaitForFences(c.device.handle, 1, fences, vk.True, math.MaxUint64))
}

func (c *GraphicsContext) resetFrame(slot int) error {
	return NewError(vk.ResetFences(c.device.handle, 1, []vk.Fence{c.sync.inFlight[slot]}))
}

func (c *GraphicsContext) acquireImage(slot int) (uint32, vk.Result) {
	var image uint32
	ret := vk.AcquireNextImage(c.device.handle, c.swapchain.handle, math.MaxUint64,
		c.sync.imageAvailable[slot], vk.NullFence, &image)
	return image, ret
}

func (c *GraphicsContext) recordFrame(slot int, image uint32) error {
	return c.commands.record(slot, renderTarget{
		pass:        c.swapchain.renderPass,
		framebuffer: c.swapchain.framebuffers[image],
		extent:      c.swapchain.config.extent,
		pipeline:    c.pipeline.pipeline,
	})
}

// submitFrame signals the render-finished semaphore of the image, not of the
// slot, so a semaphore is never reused while its image is still queued.
func (c *GraphicsContext) submitFrame(slot int, image uint32) error {
	ret := vk.QueueSubmit(c.device.graphics, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.sync.imageAvailable[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.commands.buffers[slot]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{c.sync.renderFinished[image]},
	}}, c.sync.inFlight[slot])
	return NewError(ret)
}

func (c *GraphicsContext) presentFrame(image uint32) vk.Result {
	return vk.QueuePresent(c.device.present, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.sync.renderFinished[image]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.swapchain.handle},
		PImageIndices:      []uint32{image},
	})
}

func (c *GraphicsContext) recreateSwapchain() error {
	return rebuildSwapchain(c.device.waitIdle, c.swapchain, c.sync)
}
