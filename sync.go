package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// syncAllocator creates and destroys synchronization primitives.
type syncAllocator interface {
	createSemaphore() (vk.Semaphore, error)
	createFence(signaled bool) (vk.Fence, error)
	destroySemaphore(vk.Semaphore)
	destroyFence(vk.Fence)
}

type deviceAllocator struct {
	device vk.Device
}

func (a deviceAllocator) createSemaphore() (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(a.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	return sem, NewError(ret)
}

func (a deviceAllocator) createFence(signaled bool) (vk.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(a.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	return fence, NewError(ret)
}

func (a deviceAllocator) destroySemaphore(sem vk.Semaphore) {
	vk.DestroySemaphore(a.device, sem, nil)
}

func (a deviceAllocator) destroyFence(fence vk.Fence) {
	vk.DestroyFence(a.device, fence, nil)
}

// frameSync holds the per-slot image-available semaphores and in-flight
// fences, plus one render-finished semaphore per swapchain image. Fences
// start signaled so the first wait on each slot returns at once.
type frameSync struct {
	alloc          syncAllocator
	imageAvailable []vk.Semaphore
	inFlight       []vk.Fence
	renderFinished []vk.Semaphore
}

func newFrameSync(alloc syncAllocator, imageCount int) (*frameSync, error) {
	s := &frameSync{alloc: alloc}
	for i := 0; i < FramesInFlight; i++ {
		sem, err := alloc.createSemaphore()
		if err != nil {
			s.destroy()
			return nil, errors.Wrapf(err, "image-available semaphore %d", i)
		}
		s.imageAvailable = append(s.imageAvailable, sem)

		fence, err := alloc.createFence(true)
		if err != nil {
			s.destroy()
			return nil, errors.Wrapf(err, "in-flight fence %d", i)
		}
		s.inFlight = append(s.inFlight, fence)
	}
	if err := s.resizeRenderFinished(imageCount); err != nil {
		s.destroy()
		return nil, err
	}
	return s, nil
}

// resizeRenderFinished grows or shrinks the render-finished set to n. The
// device must be idle when it shrinks.
func (s *frameSync) resizeRenderFinished(n int) error {
	for len(s.renderFinished) > n {
		last := len(s.renderFinished) - 1
		s.alloc.destroySemaphore(s.renderFinished[last])
		s.renderFinished = s.renderFinished[:last]
	}
	for len(s.renderFinished) < n {
		sem, err := s.alloc.createSemaphore()
		if err != nil {
			return errors.Wrapf(err, "render-finished semaphore %d", len(s.renderFinished))
		}
		s.renderFinished = append(s.renderFinished, sem)
	}
	return nil
}

func (s *frameSync) destroy() {
	for _, sem := range s.renderFinished {
		s.alloc.destroySemaphore(sem)
	}
	for _, fence := range s.inFlight {
		s.alloc.destroyFence(fence)
	}
	for _, sem := range s.imageAvailable {
		s.alloc.destroySemaphore(sem)
	}
	s.renderFinished, s.inFlight, s.imageAvailable = nil, nil, nil
}

// rebuildable is the part of the swapchain a rebuild drives.
type rebuildable interface {
	recreate() error
	ready() bool
	imageCount() int
}

// rebuildSwapchain waits for the device to go idle, rebuilds sc and matches
// the render-finished semaphores to its images. There is one semaphore per
// image whenever sc is Ready; a swapchain left Stale by a zero extent has no
// images and the semaphores are kept for the next build.
func rebuildSwapchain(waitIdle func() error, sc rebuildable, s *frameSync) error {
	if err := waitIdle(); err != nil {
		return errors.Wrap(err, "wait idle")
	}
	if err := sc.recreate(); err != nil {
		return err
	}
	if !sc.ready() {
		return nil
	}
	return s.resizeRenderFinished(sc.imageCount())
}
