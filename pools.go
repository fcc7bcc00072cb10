package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ClearColor is the opaque black the render pass clears to.
var ClearColor = [4]float32{0, 0, 0, 1}

// commandContext is the graphics command pool with one primary command
// buffer per frame slot.
type commandContext struct {
	device  vk.Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
}

func newCommandContext(device vk.Device, graphicsFamily uint32) (*commandContext, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: graphicsFamily,
		// ResetCommandBufferBit allows command buffers to be reset individually.
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreateCommandPool")
	}

	buffers := make([]vk.CommandBuffer, FramesInFlight)
	ret = vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(FramesInFlight),
	}, buffers)
	if err := NewError(ret); err != nil {
		vk.DestroyCommandPool(device, pool, nil)
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}
	return &commandContext{device: device, pool: pool, buffers: buffers}, nil
}

// renderTarget is what one recording draws into.
type renderTarget struct {
	pass        vk.RenderPass
	framebuffer vk.Framebuffer
	extent      vk.Extent2D
	pipeline    vk.Pipeline
}

func viewportFor(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

func scissorFor(extent vk.Extent2D) vk.Rect2D {
	return vk.Rect2D{Offset: vk.Offset2D{}, Extent: extent}
}

// record resets the buffer of slot and records one triangle into target.
// Any failure leaves the buffer unsubmittable.
func (c *commandContext) record(slot int, target renderTarget) error {
	cmd := c.buffers[slot]
	if err := NewError(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return errors.Wrap(err, "vkResetCommandBuffer")
	}
	if err := NewError(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	})); err != nil {
		return errors.Wrap(err, "vkBeginCommandBuffer")
	}

	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      target.pass,
		Framebuffer:     target.framebuffer,
		RenderArea:      scissorFor(target.extent),
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(ClearColor[:])},
	}, vk.SubpassContentsInline)
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, target.pipeline)
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewportFor(target.extent)})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissorFor(target.extent)})
	vk.CmdDraw(cmd, 3, 1, 0, 0)
	vk.CmdEndRenderPass(cmd)

	if err := NewError(vk.EndCommandBuffer(cmd)); err != nil {
		return errors.Wrap(err, "vkEndCommandBuffer")
	}
	return nil
}

func (c *commandContext) destroy() {
	if c.pool == vk.CommandPool(vk.NullHandle) {
		return
	}
	vk.FreeCommandBuffers(c.device, c.pool, uint32(len(c.buffers)), c.buffers)
	vk.DestroyCommandPool(c.device, c.pool, nil)
	c.pool, c.buffers = vk.CommandPool(vk.NullHandle), nil
}
