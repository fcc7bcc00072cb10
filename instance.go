package vkframe

import (
	"runtime"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// instance owns the VkInstance and, in diagnostic mode, the debug report
// callback registered on it.
type instance struct {
	handle vk.Instance
	debug  vk.DebugReportCallback
	layers []string
	log    *logx.Logger
}

func newInstance(cfg Config, surfaceExtensions []string) (*instance, error) {
	available, err := InstanceExtensions()
	if err != nil {
		return nil, err
	}

	extensions := append([]string{}, surfaceExtensions...)
	if lost := missing(extensions, available); len(lost) > 0 {
		return nil, errors.Errorf("missing instance extensions: %s", strings.Join(lost, ", "))
	}
	debug := cfg.Diagnostic && debugReportAvailable(available, cfg.Logger)
	if debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}

	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" && contains(available, portabilityEnumerationExtension) {
		extensions = append(extensions, portabilityEnumerationExtension)
		flags |= instanceCreateEnumeratePortability
	}
	extensions = distinct(safeStrings(extensions)...)

	inst := &instance{log: cfg.Logger}
	if cfg.Diagnostic {
		inst.layers = diagnosticLayers(cfg.Logger)
	}

	var handle vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(cfg.AppName),
			ApplicationVersion: uint32(DefaultAppVersion),
			PEngineName:        safeString(DefaultAppName),
			EngineVersion:      uint32(DefaultAppVersion),
			ApiVersion:         uint32(DefaultAPIVersion),
		},
		Flags:                   flags,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(inst.layers)),
		PpEnabledLayerNames:     inst.layers,
	}, nil, &handle)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreateInstance")
	}
	inst.handle = handle

	if err := vk.InitInstance(handle); err != nil {
		inst.destroy()
		return nil, errors.Wrap(err, "load instance entry points")
	}

	if debug {
		if err := inst.registerDebugReport(); err != nil {
			inst.destroy()
			return nil, err
		}
	}
	cfg.Logger.Info(logx.General, "vulkan instance created",
		"extensions", len(extensions), "layers", len(inst.layers))
	return inst, nil
}

// debugReportAvailable reports whether the debug report callback can be
// registered. Without it diagnostic mode keeps only the validation layer.
func debugReportAvailable(available []string, log *logx.Logger) bool {
	if !contains(available, vk.ExtDebugReportExtensionName) {
		log.Warn(logx.General, "debug report extension not available, callback disabled",
			"extension", trimNul(vk.ExtDebugReportExtensionName))
		return false
	}
	return true
}

// diagnosticLayers returns the validation layer when the loader has it.
func diagnosticLayers(log *logx.Logger) []string {
	available, err := ValidationLayers()
	if err != nil {
		log.Warn(logx.General, "cannot enumerate instance layers", "err", err)
		return nil
	}
	if !contains(available, ValidationLayer) {
		log.Warn(logx.General, "validation layer not available", "layer", ValidationLayer)
		return nil
	}
	return safeStrings([]string{ValidationLayer})
}

// debugLog is the process-wide target of the debug report callback.
var debugLog atomic.Pointer[logx.Logger]

func (i *instance) registerDebugReport() error {
	debugLog.Store(i.log)
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(i.handle, &vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit | vk.DebugReportDebugBit),
		PfnCallback: debugReport,
	}, nil, &callback)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkCreateDebugReportCallbackEXT")
	}
	i.debug = callback
	i.log.Info(logx.General, "debug report callback enabled")
	return nil
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	log := debugLog.Load()
	if log == nil {
		return vk.Bool32(vk.False)
	}
	args := []any{"layer", pLayerPrefix, "code", messageCode}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Error(logx.Vulkan, pMessage, args...)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Warn(logx.Vulkan, pMessage, args...)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Warn(logx.Vulkan, pMessage, append(args, "performance", true)...)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		log.Debug(logx.Vulkan, pMessage, args...)
	default:
		log.Info(logx.Vulkan, pMessage, args...)
	}
	return vk.Bool32(vk.False)
}

func (i *instance) destroy() {
	if i.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debug, nil)
		i.debug = vk.NullDebugReportCallback
		debugLog.CompareAndSwap(i.log, nil)
	}
	if i.handle != nil {
		vk.DestroyInstance(i.handle, nil)
		i.handle = nil
	}
}
