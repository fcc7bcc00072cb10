package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// FramesInFlight bounds how many frames the CPU may record ahead of the GPU.
const FramesInFlight = 2

// frameDevice is the driver work behind one frame. GraphicsContext
// implements it against Vulkan.
type frameDevice interface {
	swapchainReady() bool
	waitForFrame(slot int) error
	resetFrame(slot int) error
	acquireImage(slot int) (uint32, vk.Result)
	recordFrame(slot int, image uint32) error
	submitFrame(slot int, image uint32) error
	presentFrame(image uint32) vk.Result
	recreateSwapchain() error
}

// frameLoop advances the frame slots and absorbs swapchain staleness.
type frameLoop struct {
	dev     frameDevice
	current int
	frames  uint64
}

// drawFrame renders and presents one frame. An out-of-date or suboptimal
// swapchain is rebuilt and reported as success; every other driver error is
// returned.
func (l *frameLoop) drawFrame() error {
	if !l.dev.swapchainReady() {
		if err := l.dev.recreateSwapchain(); err != nil {
			return runtimeErr("recreate swapchain", err)
		}
		if !l.dev.swapchainReady() {
			// Zero-sized surface, nothing to draw into yet.
			return nil
		}
	}

	slot := l.current
	if err := l.dev.waitForFrame(slot); err != nil {
		return runtimeErr("wait for in-flight fence", err)
	}

	image, ret := l.dev.acquireImage(slot)
	stale := false
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		stale = true
	case vk.ErrorOutOfDate:
		if err := l.dev.recreateSwapchain(); err != nil {
			return runtimeErr("recreate swapchain", err)
		}
		return nil
	default:
		return runtimeErr("acquire next image", NewError(ret))
	}

	// The fence is only reset once work that signals it is certain to be
	// submitted.
	if err := l.dev.resetFrame(slot); err != nil {
		return runtimeErr("reset in-flight fence", err)
	}
	if err := l.dev.recordFrame(slot, image); err != nil {
		return runtimeErr("record command buffer", err)
	}
	if err := l.dev.submitFrame(slot, image); err != nil {
		return runtimeErr("submit", err)
	}

	switch ret := l.dev.presentFrame(image); ret {
	case vk.Success:
	case vk.Suboptimal, vk.ErrorOutOfDate:
		stale = true
	default:
		return runtimeErr("present", NewError(ret))
	}

	if stale {
		if err := l.dev.recreateSwapchain(); err != nil {
			return runtimeErr("recreate swapchain", err)
		}
	}

	l.current = (l.current + 1) % FramesInFlight
	l.frames++
	return nil
}
