package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// countingAllocator hands out null handles and counts live objects.
type countingAllocator struct {
	semaphores int
	fences     int
	signaled   int
	failAfter  int // fail the n-th semaphore creation when > 0
	created    int
}

func (a *countingAllocator) createSemaphore() (vk.Semaphore, error) {
	a.created++
	if a.failAfter > 0 && a.created >= a.failAfter {
		return vk.NullSemaphore, errors.New("out of memory")
	}
	a.semaphores++
	return vk.NullSemaphore, nil
}

func (a *countingAllocator) createFence(signaled bool) (vk.Fence, error) {
	a.fences++
	if signaled {
		a.signaled++
	}
	return vk.NullFence, nil
}

func (a *countingAllocator) destroySemaphore(vk.Semaphore) { a.semaphores-- }
func (a *countingAllocator) destroyFence(vk.Fence)         { a.fences-- }

func TestFrameSyncSizes(t *testing.T) {
	alloc := &countingAllocator{}
	s, err := newFrameSync(alloc, 3)
	require.NoError(t, err)

	assert.Len(t, s.imageAvailable, FramesInFlight)
	assert.Len(t, s.inFlight, FramesInFlight)
	assert.Len(t, s.renderFinished, 3)
	assert.Equal(t, FramesInFlight, alloc.signaled, "fences start signaled")
	assert.Equal(t, FramesInFlight+3, alloc.semaphores)

	s.destroy()
	assert.Zero(t, alloc.semaphores)
	assert.Zero(t, alloc.fences)
}

func TestRenderFinishedFollowsImageCount(t *testing.T) {
	alloc := &countingAllocator{}
	s, err := newFrameSync(alloc, 3)
	require.NoError(t, err)

	for _, n := range []int{2, 5, 5, 1, 4} {
		require.NoError(t, s.resizeRenderFinished(n))
		assert.Len(t, s.renderFinished, n)
		assert.Equal(t, FramesInFlight+n, alloc.semaphores)
	}
}

func TestFrameSyncReleasesOnFailure(t *testing.T) {
	alloc := &countingAllocator{failAfter: FramesInFlight + 2}
	_, err := newFrameSync(alloc, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render-finished semaphore 1")
	assert.Zero(t, alloc.semaphores)
	assert.Zero(t, alloc.fences)
}

// scriptedSwapchain yields one image count per rebuild; zero means the
// surface had no extent.
type scriptedSwapchain struct {
	counts []int
	images int
	calls  []string
	err    error
}

func (s *scriptedSwapchain) recreate() error {
	s.calls = append(s.calls, "recreate")
	if s.err != nil {
		return s.err
	}
	s.images, s.counts = s.counts[0], s.counts[1:]
	return nil
}

func (s *scriptedSwapchain) ready() bool     { return s.images > 0 }
func (s *scriptedSwapchain) imageCount() int { return s.images }

func TestRebuildMatchesRenderFinishedToImages(t *testing.T) {
	alloc := &countingAllocator{}
	fs, err := newFrameSync(alloc, 3)
	require.NoError(t, err)

	sc := &scriptedSwapchain{counts: []int{5, 0, 2}}
	idle := func() error {
		sc.calls = append(sc.calls, "idle")
		return nil
	}

	require.NoError(t, rebuildSwapchain(idle, sc, fs))
	assert.Equal(t, []string{"idle", "recreate"}, sc.calls)
	assert.Len(t, fs.renderFinished, 5)

	// A zero extent leaves the swapchain without images; the semaphores wait
	// for the next build.
	require.NoError(t, rebuildSwapchain(idle, sc, fs))
	assert.False(t, sc.ready())
	assert.Len(t, fs.renderFinished, 5)

	require.NoError(t, rebuildSwapchain(idle, sc, fs))
	assert.True(t, sc.ready())
	assert.Len(t, fs.renderFinished, sc.imageCount())
	assert.Equal(t, FramesInFlight+2, alloc.semaphores)
}

func TestRebuildStopsOnFailure(t *testing.T) {
	alloc := &countingAllocator{}
	fs, err := newFrameSync(alloc, 3)
	require.NoError(t, err)

	sc := &scriptedSwapchain{counts: []int{4}}
	err = rebuildSwapchain(func() error { return errors.New("device lost") }, sc, fs)
	assert.ErrorContains(t, err, "wait idle")
	assert.Empty(t, sc.calls, "no rebuild before the device is idle")

	sc.err = errors.New("surface lost")
	err = rebuildSwapchain(func() error { return nil }, sc, fs)
	assert.ErrorContains(t, err, "surface lost")
	assert.Len(t, fs.renderFinished, 3)
}
