package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// fakeDevice scripts acquire and present results and records the calls.
type fakeDevice struct {
	ready      bool
	zeroExtent bool // recreation leaves the swapchain unready

	acquire []vk.Result
	present []vk.Result

	recordErr error
	submitErr error

	calls      []string
	recreated  int
	fenceReset map[int]int
	slots      []int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{ready: true, fenceReset: map[int]int{}}
}

func (d *fakeDevice) swapchainReady() bool { return d.ready }

func (d *fakeDevice) waitForFrame(slot int) error {
	d.calls = append(d.calls, "wait")
	return nil
}

func (d *fakeDevice) resetFrame(slot int) error {
	d.calls = append(d.calls, "reset")
	d.fenceReset[slot]++
	return nil
}

func (d *fakeDevice) acquireImage(slot int) (uint32, vk.Result) {
	d.calls = append(d.calls, "acquire")
	d.slots = append(d.slots, slot)
	return 0, next(&d.acquire)
}

func (d *fakeDevice) recordFrame(slot int, image uint32) error {
	d.calls = append(d.calls, "record")
	return d.recordErr
}

func (d *fakeDevice) submitFrame(slot int, image uint32) error {
	d.calls = append(d.calls, "submit")
	return d.submitErr
}

func (d *fakeDevice) presentFrame(image uint32) vk.Result {
	d.calls = append(d.calls, "present")
	return next(&d.present)
}

func (d *fakeDevice) recreateSwapchain() error {
	d.calls = append(d.calls, "recreate")
	d.recreated++
	d.ready = !d.zeroExtent
	return nil
}

func next(results *[]vk.Result) vk.Result {
	if len(*results) == 0 {
		return vk.Success
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

func TestDrawFrameOrder(t *testing.T) {
	dev := newFakeDevice()
	loop := &frameLoop{dev: dev}

	require.NoError(t, loop.drawFrame())
	assert.Equal(t, []string{"wait", "acquire", "reset", "record", "submit", "present"}, dev.calls)
	assert.Equal(t, 1, loop.current)
	assert.Equal(t, uint64(1), loop.frames)
}

func TestCurrentFrameCycles(t *testing.T) {
	dev := newFakeDevice()
	loop := &frameLoop{dev: dev}

	for i := 0; i < 7; i++ {
		require.NoError(t, loop.drawFrame())
		assert.GreaterOrEqual(t, loop.current, 0)
		assert.Less(t, loop.current, FramesInFlight)
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0}, dev.slots)
	assert.Equal(t, uint64(7), loop.frames)
}

func TestAcquireOutOfDateRebuildsWithoutError(t *testing.T) {
	dev := newFakeDevice()
	dev.acquire = []vk.Result{vk.ErrorOutOfDate}
	loop := &frameLoop{dev: dev}

	require.NoError(t, loop.drawFrame())
	assert.Equal(t, []string{"wait", "acquire", "recreate"}, dev.calls)
	assert.Equal(t, 1, dev.recreated)
	assert.Zero(t, dev.fenceReset[0], "fence must stay signaled")
	assert.Equal(t, 0, loop.current)
	assert.Zero(t, loop.frames)

	// The next call renders into the same slot and advances.
	dev.calls = nil
	require.NoError(t, loop.drawFrame())
	assert.Equal(t, []string{"wait", "acquire", "reset", "record", "submit", "present"}, dev.calls)
	assert.Equal(t, []int{0, 0}, dev.slots)
	assert.Equal(t, 1, loop.current)
	assert.Equal(t, uint64(1), loop.frames)
}

func TestStalePresentRebuildsAfterPresenting(t *testing.T) {
	for _, tc := range []struct {
		name    string
		acquire []vk.Result
		present []vk.Result
	}{
		{name: "suboptimal acquire", acquire: []vk.Result{vk.Suboptimal}},
		{name: "suboptimal present", present: []vk.Result{vk.Suboptimal}},
		{name: "out of date present", present: []vk.Result{vk.ErrorOutOfDate}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.acquire, dev.present = tc.acquire, tc.present
			loop := &frameLoop{dev: dev}

			require.NoError(t, loop.drawFrame())
			assert.Equal(t, []string{"wait", "acquire", "reset", "record", "submit", "present", "recreate"}, dev.calls)
			assert.Equal(t, 1, loop.current)
		})
	}
}

func TestUnreadySwapchainIsRebuiltFirst(t *testing.T) {
	dev := newFakeDevice()
	dev.ready = false
	loop := &frameLoop{dev: dev}

	require.NoError(t, loop.drawFrame())
	assert.Equal(t, "recreate", dev.calls[0])
	assert.Equal(t, uint64(1), loop.frames)
}

func TestZeroExtentSkipsFrame(t *testing.T) {
	dev := newFakeDevice()
	dev.ready, dev.zeroExtent = false, true
	loop := &frameLoop{dev: dev}

	require.NoError(t, loop.drawFrame())
	assert.Equal(t, []string{"recreate"}, dev.calls)
	assert.Zero(t, loop.frames)
	assert.Equal(t, 0, loop.current)
}

func TestDriverErrorsAreRuntimeFailures(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		dev := newFakeDevice()
		dev.acquire = []vk.Result{vk.ErrorDeviceLost}
		loop := &frameLoop{dev: dev}

		err := loop.drawFrame()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRuntime)
		assert.NotContains(t, dev.calls, "reset")
	})
	t.Run("record", func(t *testing.T) {
		dev := newFakeDevice()
		dev.recordErr = errors.New("boom")
		loop := &frameLoop{dev: dev}

		err := loop.drawFrame()
		assert.ErrorIs(t, err, ErrRuntime)
		assert.NotContains(t, dev.calls, "submit")
		assert.Equal(t, 0, loop.current)
	})
	t.Run("present", func(t *testing.T) {
		dev := newFakeDevice()
		dev.present = []vk.Result{vk.ErrorSurfaceLost}
		loop := &frameLoop{dev: dev}

		err := loop.drawFrame()
		assert.ErrorIs(t, err, ErrRuntime)
		assert.Equal(t, StatusFailure, StatusOf(err))
		assert.Zero(t, dev.recreated)
	})
}
