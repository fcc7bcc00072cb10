package vkframe

import (
	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyIndices holds the queue families the renderer submits and
// presents on. They may name the same family.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32

	hasGraphics bool
	hasPresent  bool
}

// Complete reports whether both a graphics and a present family were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

// Shared reports whether graphics and present use one family.
func (q QueueFamilyIndices) Shared() bool {
	return q.Complete() && q.Graphics == q.Present
}

// Distinct lists the family indices without repeats, graphics first.
func (q QueueFamilyIndices) Distinct() []uint32 {
	var out []uint32
	if q.hasGraphics {
		out = append(out, q.Graphics)
	}
	if q.hasPresent {
		out = append(out, q.Present)
	}
	return distinct(out...)
}

// queueFamily is what selection needs to know about one family.
type queueFamily struct {
	flags   vk.QueueFlags
	present bool
}

func (f queueFamily) graphics() bool {
	return f.flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

// findQueueFamilies prefers one family doing both graphics and present, then
// the first graphics family and the first present family.
func findQueueFamilies(families []queueFamily) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i, f := range families {
		if f.graphics() && f.present {
			return QueueFamilyIndices{
				Graphics: uint32(i), Present: uint32(i),
				hasGraphics: true, hasPresent: true,
			}
		}
	}
	for i, f := range families {
		if f.graphics() && !indices.hasGraphics {
			indices.Graphics, indices.hasGraphics = uint32(i), true
		}
		if f.present && !indices.hasPresent {
			indices.Present, indices.hasPresent = uint32(i), true
		}
	}
	return indices
}

func queryQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) ([]queueFamily, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	families := make([]queueFamily, count)
	for i := range props[:count] {
		props[i].Deref()
		var supported vk.Bool32
		if err := NewError(vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(i), surface, &supported)); err != nil {
			return nil, errors.Wrapf(err, "surface support for queue family %d", i)
		}
		families[i] = queueFamily{flags: props[i].QueueFlags, present: supported.B()}
	}
	return families, nil
}

// queueCreateInfos requests one queue at priority 1.0 per distinct family.
func queueCreateInfos(indices QueueFamilyIndices) []vk.DeviceQueueCreateInfo {
	families := indices.Distinct()
	infos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}

// logicalDevice is the VkDevice with its graphics and present queues.
type logicalDevice struct {
	handle   vk.Device
	graphics vk.Queue
	present  vk.Queue
	families QueueFamilyIndices
}

func newLogicalDevice(gpu *physicalDevice, extensions []string, log *logx.Logger) (*logicalDevice, error) {
	extensions = append([]string{}, extensions...)
	if contains(gpu.extensions, portabilitySubsetExtension) {
		extensions = append(extensions, portabilitySubsetExtension)
	}
	extensions = distinct(safeStrings(extensions)...)
	queues := queueCreateInfos(gpu.families)

	var device vk.Device
	ret := vk.CreateDevice(gpu.handle, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}, nil, &device)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreateDevice")
	}

	ld := &logicalDevice{handle: device, families: gpu.families}
	vk.GetDeviceQueue(device, gpu.families.Graphics, 0, &ld.graphics)
	vk.GetDeviceQueue(device, gpu.families.Present, 0, &ld.present)

	log.Info(logx.General, "logical device created",
		"graphics_family", gpu.families.Graphics,
		"present_family", gpu.families.Present,
		"shared", gpu.families.Shared(),
		"queues", len(queues))
	return ld, nil
}

func (d *logicalDevice) waitIdle() error {
	return NewError(vk.DeviceWaitIdle(d.handle))
}

func (d *logicalDevice) destroy() {
	if d.handle != nil {
		vk.DestroyDevice(d.handle, nil)
		d.handle = nil
	}
}
