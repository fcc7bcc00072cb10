package vkframe

import (
	"math"

	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainState tracks the swapchain lifecycle. Stale swapchains are rebuilt
// by the next frame; Destroyed is terminal.
type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainReady
	SwapchainStale
	SwapchainDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "uninitialized"
	case SwapchainReady:
		return "ready"
	case SwapchainStale:
		return "stale"
	case SwapchainDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// surfaceSupport is what a physical device offers for one surface.
type surfaceSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (s surfaceSupport) adequate() bool {
	return len(s.formats) > 0 && len(s.presentModes) > 0
}

func querySurfaceSupport(gpu vk.PhysicalDevice, surface vk.Surface) (surfaceSupport, error) {
	var support surfaceSupport

	var caps vk.SurfaceCapabilities
	if err := NewError(vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)); err != nil {
		return support, errors.Wrap(err, "surface capabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	support.capabilities = caps

	var formatCount uint32
	if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)); err != nil {
		return support, errors.Wrap(err, "count surface formats")
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, formats)); err != nil {
			return support, errors.Wrap(err, "surface formats")
		}
		for i := range formats[:formatCount] {
			formats[i].Deref()
		}
		support.formats = formats[:formatCount]
	}

	var modeCount uint32
	if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, nil)); err != nil {
		return support, errors.Wrap(err, "count present modes")
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, modes)); err != nil {
			return support, errors.Wrap(err, "present modes")
		}
		support.presentModes = modes[:modeCount]
	}
	return support, nil
}

// chooseSurfaceFormat prefers 8-bit BGRA sRGB in the nonlinear sRGB color
// space wherever it appears in the list, else takes the first entry.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface extent unless the surface leaves it to the
// application, in which case the window size is clamped to the allowed range.
func chooseExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for two images above the minimum. A zero maximum
// means unlimited.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 2
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func sharingMode(families QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if distinctFamilies := families.Distinct(); len(distinctFamilies) > 1 {
		return vk.SharingModeConcurrent, distinctFamilies
	}
	return vk.SharingModeExclusive, nil
}

func choosePreTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

// chooseCompositeAlpha returns the first supported mode. One of them is
// guaranteed to be set.
func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, mode := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(mode) != 0 {
			return mode
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// swapchainConfig is everything chosen before vkCreateSwapchainKHR.
type swapchainConfig struct {
	format         vk.SurfaceFormat
	presentMode    vk.PresentMode
	extent         vk.Extent2D
	imageCount     uint32
	sharing        vk.SharingMode
	families       []uint32
	preTransform   vk.SurfaceTransformFlagBits
	compositeAlpha vk.CompositeAlphaFlagBits
}

func chooseSwapchainConfig(support surfaceSupport, window vk.Extent2D, families QueueFamilyIndices) swapchainConfig {
	sharing, shared := sharingMode(families)
	return swapchainConfig{
		format:         chooseSurfaceFormat(support.formats),
		presentMode:    choosePresentMode(support.presentModes),
		extent:         chooseExtent(support.capabilities, window),
		imageCount:     chooseImageCount(support.capabilities),
		sharing:        sharing,
		families:       shared,
		preTransform:   choosePreTransform(support.capabilities),
		compositeAlpha: chooseCompositeAlpha(support.capabilities),
	}
}

func (c swapchainConfig) zeroExtent() bool {
	return c.extent.Width == 0 || c.extent.Height == 0
}

// swapchain owns the presentable images, their views and framebuffers, and
// the render pass they are built against. The render pass outlives
// recreations.
type swapchain struct {
	device   vk.Device
	gpu      vk.PhysicalDevice
	display  *display
	families QueueFamilyIndices
	log      *logx.Logger

	handle       vk.Swapchain
	renderPass   vk.RenderPass
	config       swapchainConfig
	images       []vk.Image
	views        []vk.ImageView
	framebuffers []vk.Framebuffer
	state        SwapchainState
}

func newSwapchain(device vk.Device, gpu vk.PhysicalDevice, disp *display, families QueueFamilyIndices, log *logx.Logger) (*swapchain, error) {
	sc := &swapchain{
		device:   device,
		gpu:      gpu,
		display:  disp,
		families: families,
		log:      log,
		state:    SwapchainUninitialized,
	}
	support, err := querySurfaceSupport(gpu, disp.surface)
	if err != nil {
		return nil, err
	}
	if !support.adequate() {
		return nil, errors.New("surface offers no formats or present modes")
	}
	config := chooseSwapchainConfig(support, disp.size(), families)

	if sc.renderPass, err = newRenderPass(device, config.format.Format); err != nil {
		return nil, err
	}
	if err := sc.build(config); err != nil {
		sc.destroy()
		return nil, err
	}
	return sc, nil
}

// build creates the swapchain and its per-image objects for config. A zero
// extent leaves the swapchain Stale with no images.
func (sc *swapchain) build(config swapchainConfig) error {
	sc.config = config
	if config.zeroExtent() {
		sc.state = SwapchainStale
		sc.log.Debug(logx.General, "surface has zero extent, deferring swapchain")
		return nil
	}

	var handle vk.Swapchain
	ret := vk.CreateSwapchain(sc.device, &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               sc.display.surface,
		MinImageCount:         config.imageCount,
		ImageFormat:           config.format.Format,
		ImageColorSpace:       config.format.ColorSpace,
		ImageExtent:           config.extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      config.sharing,
		QueueFamilyIndexCount: uint32(len(config.families)),
		PQueueFamilyIndices:   config.families,
		PreTransform:          config.preTransform,
		CompositeAlpha:        config.compositeAlpha,
		PresentMode:           config.presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}, nil, &handle)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkCreateSwapchainKHR")
	}
	sc.handle = handle

	var count uint32
	if err := NewError(vk.GetSwapchainImages(sc.device, handle, &count, nil)); err != nil {
		return errors.Wrap(err, "count swapchain images")
	}
	images := make([]vk.Image, count)
	if err := NewError(vk.GetSwapchainImages(sc.device, handle, &count, images)); err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	sc.images = images[:count]

	for i, image := range sc.images {
		view, err := sc.createImageView(image)
		if err != nil {
			return errors.Wrapf(err, "image view %d", i)
		}
		sc.views = append(sc.views, view)
	}
	for i, view := range sc.views {
		fb, err := sc.createFramebuffer(view)
		if err != nil {
			return errors.Wrapf(err, "framebuffer %d", i)
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	sc.state = SwapchainReady
	sc.log.Info(logx.General, "swapchain built",
		"width", config.extent.Width,
		"height", config.extent.Height,
		"images", len(sc.images),
		"present_mode", config.presentMode,
		"format", config.format.Format)
	return nil
}

func (sc *swapchain) createImageView(image vk.Image) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(sc.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   sc.config.format.Format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	return view, NewError(ret)
}

func (sc *swapchain) createFramebuffer(view vk.ImageView) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(sc.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      sc.renderPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           sc.config.extent.Width,
		Height:          sc.config.extent.Height,
		Layers:          1,
	}, nil, &fb)
	return fb, NewError(ret)
}

func (sc *swapchain) imageCount() int {
	return len(sc.images)
}

func (sc *swapchain) ready() bool {
	return sc.state == SwapchainReady
}

func (sc *swapchain) markStale() {
	if sc.state == SwapchainReady {
		sc.state = SwapchainStale
	}
}

// recreate rebuilds the swapchain against the current surface. The caller
// must have waited for the device to go idle.
func (sc *swapchain) recreate() error {
	if sc.state == SwapchainDestroyed {
		return ErrDestroyed
	}
	sc.release()
	sc.state = SwapchainStale

	support, err := querySurfaceSupport(sc.gpu, sc.display.surface)
	if err != nil {
		return err
	}
	if !support.adequate() {
		return errors.New("surface offers no formats or present modes")
	}
	config := chooseSwapchainConfig(support, sc.display.size(), sc.families)
	if config.format.Format != sc.config.format.Format {
		sc.log.Warn(logx.General, "surface format changed, render pass kept",
			"was", sc.config.format.Format, "now", config.format.Format)
	}
	return sc.build(config)
}

// release destroys the per-image objects and the swapchain handle.
func (sc *swapchain) release() {
	for _, fb := range sc.framebuffers {
		vk.DestroyFramebuffer(sc.device, fb, nil)
	}
	for _, view := range sc.views {
		vk.DestroyImageView(sc.device, view, nil)
	}
	sc.framebuffers, sc.views, sc.images = nil, nil, nil
	if sc.handle != vk.NullSwapchain {
		vk.DestroySwapchain(sc.device, sc.handle, nil)
		sc.handle = vk.NullSwapchain
	}
}

func (sc *swapchain) destroy() {
	if sc.state == SwapchainDestroyed {
		return
	}
	sc.release()
	if sc.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(sc.device, sc.renderPass, nil)
		sc.renderPass = vk.NullRenderPass
	}
	sc.state = SwapchainDestroyed
}
