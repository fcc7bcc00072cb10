package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	portabilitySubsetExtension      = "VK_KHR_portability_subset"
	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortability = vk.InstanceCreateFlags(0x00000001)
)

// InstanceExtensions lists the instance extensions the loader offers.
func InstanceExtensions() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "count instance extensions")
	}
	list := make([]vk.ExtensionProperties, count)
	if err := NewError(vk.EnumerateInstanceExtensionProperties("", &count, list)); err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}
	names := make([]string, 0, count)
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions lists the extensions offered by a physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "count device extensions")
	}
	list := make([]vk.ExtensionProperties, count)
	if err := NewError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)); err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	names := make([]string, 0, count)
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers lists the instance layers the loader offers.
func ValidationLayers() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "count instance layers")
	}
	list := make([]vk.LayerProperties, count)
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, list)); err != nil {
		return nil, errors.Wrap(err, "enumerate instance layers")
	}
	names := make([]string, 0, count)
	for _, layer := range list[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// missing returns the entries of want absent from have. Names compare without
// their C terminator.
func missing(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[trimNul(h)] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := set[trimNul(w)]; !ok {
			out = append(out, trimNul(w))
		}
	}
	return out
}

func contains(list []string, name string) bool {
	return len(missing([]string{name}, list)) == 0
}

func trimNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}
