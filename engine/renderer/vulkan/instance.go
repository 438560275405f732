package vulkan

import (
	"runtime"
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/core"
)

const (
	validationLayerName             = "VK_LAYER_KHRONOS_validation"
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	physicalDeviceProperties2       = "VK_KHR_get_physical_device_properties2"
	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortability = 0x00000001
)

// instanceExtensions lists the extensions the instance is created with: the
// platform's surface extensions, portability on darwin and debug report when
// validation is enabled.
func instanceExtensions(platformExtensions []string, validation bool, goos string) []string {
	extensions := []string{vk.KhrSurfaceExtensionName}
	for _, e := range platformExtensions {
		if e != vk.KhrSurfaceExtensionName {
			extensions = append(extensions, e)
		}
	}
	if goos == "darwin" {
		extensions = append(extensions, portabilityEnumerationExtension, physicalDeviceProperties2)
	}
	if validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	return extensions
}

// filterLayers keeps the requested layers the loader knows about. Missing
// layers are logged and dropped.
func filterLayers(requested, available []string, logger *core.Logger) []string {
	enabled := make([]string, 0, len(requested))
	for _, name := range requested {
		if !slices.Contains(available, name) {
			logger.Error("Required validation layer is missing: %s", name)
			continue
		}
		enabled = append(enabled, name)
	}
	return enabled
}

func availableInstanceLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError(res, "vkEnumerateInstanceLayerProperties")
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError(res, "vkEnumerateInstanceLayerProperties")
	}
	names := make([]string, 0, count)
	for i := range layers[:count] {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vb *VulkanBackend) createInstance(platformExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vb.options.ApplicationName),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PEngineName:        VulkanSafeString("Vulcan"),
	}

	extensions := instanceExtensions(platformExtensions, vb.options.Validation, runtime.GOOS)
	vb.logger.Info("Required extensions:")
	for _, e := range extensions {
		vb.logger.Info(e)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}
	if runtime.GOOS == "darwin" {
		createInfo.Flags |= instanceCreateEnumeratePortability
	}

	if len(vb.layers) > 0 {
		vb.logger.Info("Validation layers enabled: %v", vb.layers)
		createInfo.EnabledLayerCount = uint32(len(vb.layers))
		createInfo.PpEnabledLayerNames = VulkanSafeStrings(vb.layers)
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vb.context.Allocator, &instance); res != vk.Success {
		return errors.Wrap(resultError(res, "vkCreateInstance"), "creating Vulkan instance")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, vb.context.Allocator)
		return errors.Wrap(err, "loading instance functions")
	}
	vb.context.Instance = instance
	vb.logger.Info("Vulkan Instance created.")

	if len(vb.layers) > 0 {
		if err := vb.createDebugCallback(); err != nil {
			vb.logger.Warn("Vulkan debugger unavailable: %s", err)
		}
	}
	return nil
}

func (vb *VulkanBackend) createDebugCallback() error {
	vb.logger.Debug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: vb.debugReport,
	}
	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vb.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
		return errors.Wrap(err, "vkCreateDebugReportCallbackEXT")
	}
	vb.context.debugCallback = dbg
	vb.logger.Debug("Vulkan debugger created.")
	return nil
}

func (vb *VulkanBackend) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	logDebugReport(vb.logger, flags, pLayerPrefix, messageCode, pMessage)
	return vk.Bool32(vk.False)
}

func logDebugReport(logger *core.Logger, flags vk.DebugReportFlags, layerPrefix string, messageCode int32, message string) {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		logger.Error("ERROR: [%s] Code %d : %s", layerPrefix, messageCode, message)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		logger.Warn("WARNING: [%s] Code %d : %s", layerPrefix, messageCode, message)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		logger.Warn("PERFORMANCE WARNING: [%s] Code %d : %s", layerPrefix, messageCode, message)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		logger.Debug("DEBUG: [%s] Code %d : %s", layerPrefix, messageCode, message)
	default:
		logger.Info("INFORMATION: [%s] Code %d : %s", layerPrefix, messageCode, message)
	}
}

func (vb *VulkanBackend) destroyInstance() {
	if vb.context.debugCallback != nil {
		vb.logger.Debug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vb.context.Instance, vb.context.debugCallback, vb.context.Allocator)
		vb.context.debugCallback = nil
	}
	if vb.context.Instance != nil {
		vb.logger.Debug("Destroying Vulkan instance...")
		vk.DestroyInstance(vb.context.Instance, vb.context.Allocator)
		vb.context.Instance = nil
	}
}
