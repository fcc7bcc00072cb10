package vkframe

import (
	"strings"

	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// physicalDevice is a GPU together with everything selection learned about
// it for the bound surface.
type physicalDevice struct {
	handle     vk.PhysicalDevice
	name       string
	kind       vk.PhysicalDeviceType
	extensions []string
	support    surfaceSupport
	families   QueueFamilyIndices
	// probeErr is set when a query failed; the device is then ineligible.
	probeErr error
}

// categoryRank orders device types: discrete, integrated, virtual, cpu,
// anything else.
func categoryRank(kind vk.PhysicalDeviceType) int {
	switch kind {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	}
	return 0
}

func categoryName(kind vk.PhysicalDeviceType) string {
	switch kind {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}

// eligible reports whether d can render to the surface, and why not.
func (d *physicalDevice) eligible(required []string) (bool, string) {
	if d.probeErr != nil {
		return false, d.probeErr.Error()
	}
	if lost := missing(required, d.extensions); len(lost) > 0 {
		return false, "missing extensions " + strings.Join(lost, ", ")
	}
	if len(d.support.formats) == 0 {
		return false, "no surface formats"
	}
	if len(d.support.presentModes) == 0 {
		return false, "no present modes"
	}
	if !d.families.hasGraphics {
		return false, "no graphics queue family"
	}
	if !d.families.hasPresent {
		return false, "no queue family presents to the surface"
	}
	return true, ""
}

// pickDevice returns the eligible device of the best category. Among equals
// the first enumerated wins.
func pickDevice(devices []*physicalDevice, required []string, log *logx.Logger) (*physicalDevice, error) {
	var best *physicalDevice
	for _, d := range devices {
		if ok, reason := d.eligible(required); !ok {
			log.Info(logx.General, "skipping device", "device", d.name, "reason", reason)
			continue
		}
		if best == nil || categoryRank(d.kind) > categoryRank(best.kind) {
			best = d
		}
	}
	if best == nil {
		return nil, errors.WithStack(&failure{
			kind:  ErrNoSuitableDevice,
			op:    "select physical device",
			cause: errors.Errorf("%d devices, none eligible", len(devices)),
		})
	}
	return best, nil
}

// probeDevice queries properties, extensions, surface support and queue
// families. Query failures are kept on the result rather than returned.
func probeDevice(gpu vk.PhysicalDevice, surface vk.Surface) *physicalDevice {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()

	d := &physicalDevice{
		handle: gpu,
		name:   vk.ToString(props.DeviceName[:]),
		kind:   props.DeviceType,
	}
	if d.extensions, d.probeErr = DeviceExtensions(gpu); d.probeErr != nil {
		return d
	}
	if d.support, d.probeErr = querySurfaceSupport(gpu, surface); d.probeErr != nil {
		return d
	}
	families, err := queryQueueFamilies(gpu, surface)
	if err != nil {
		d.probeErr = err
		return d
	}
	d.families = findQueueFamilies(families)
	return d
}

func selectPhysicalDevice(instance vk.Instance, surface vk.Surface, required []string, log *logx.Logger) (*physicalDevice, error) {
	var count uint32
	if err := NewError(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "count physical devices")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if count > 0 {
		if err := NewError(vk.EnumeratePhysicalDevices(instance, &count, gpus)); err != nil {
			return nil, errors.Wrap(err, "enumerate physical devices")
		}
	}

	devices := make([]*physicalDevice, 0, count)
	for _, gpu := range gpus[:count] {
		d := probeDevice(gpu, surface)
		log.Debug(logx.General, "found device", "device", d.name, "type", categoryName(d.kind))
		devices = append(devices, d)
	}

	chosen, err := pickDevice(devices, required, log)
	if err != nil {
		return nil, err
	}
	log.Info(logx.General, "selected device", "device", chosen.name, "type", categoryName(chosen.kind))
	return chosen, nil
}
