package vulkan

import (
	"slices"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/core"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

type VulkanDevice struct {
	PhysicalDevice   vk.PhysicalDevice
	LogicalDevice    vk.Device
	SwapchainSupport VulkanSwapchainSupportInfo
	QueueFamilies    VulkanPhysicalDeviceQueueFamilyInfo

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	TransferQueue vk.Queue

	Name       string
	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

type VulkanPhysicalDeviceRequirements struct {
	DeviceExtensionNames []string
}

// VulkanPhysicalDeviceQueueFamilyInfo holds one family index per queue role.
// Roles may share a family.
type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
	TransferFamilyIndex uint32
}

// Unique lists the distinct family indices, graphics first.
func (q VulkanPhysicalDeviceQueueFamilyInfo) Unique() []uint32 {
	indices := []uint32{q.GraphicsFamilyIndex}
	for _, i := range []uint32{q.PresentFamilyIndex, q.TransferFamilyIndex} {
		if !slices.Contains(indices, i) {
			indices = append(indices, i)
		}
	}
	return indices
}

type queueFamilySupport struct {
	Graphics bool
	Transfer bool
	Present  bool
}

// physicalDeviceCandidate is what selection needs to know about a device.
type physicalDeviceCandidate struct {
	Name             string
	Extensions       []string
	QueueFamilies    []queueFamilySupport
	FormatCount      int
	PresentModeCount int
}

// resolveQueueFamilies picks the first graphics family. Presentation prefers
// the graphics family. Transfer prefers a family without graphics, then any
// transfer family, then the graphics family.
func resolveQueueFamilies(families []queueFamilySupport) (VulkanPhysicalDeviceQueueFamilyInfo, error) {
	const none = -1
	graphics, present, transfer, anyTransfer := none, none, none, none
	for i, f := range families {
		if f.Graphics && graphics == none {
			graphics = i
		}
		if f.Transfer {
			if anyTransfer == none {
				anyTransfer = i
			}
			if !f.Graphics && transfer == none {
				transfer = i
			}
		}
	}
	if graphics == none {
		return VulkanPhysicalDeviceQueueFamilyInfo{}, errors.Wrap(core.ErrQueueUnavailable, "no graphics queue family")
	}

	if families[graphics].Present {
		present = graphics
	} else {
		for i, f := range families {
			if f.Present {
				present = i
				break
			}
		}
	}
	if present == none {
		return VulkanPhysicalDeviceQueueFamilyInfo{}, errors.Wrap(core.ErrQueueUnavailable, "no presentation queue family")
	}

	if transfer == none {
		transfer = anyTransfer
	}
	if transfer == none {
		// Graphics queues always accept transfer commands.
		transfer = graphics
	}

	return VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: uint32(graphics),
		PresentFamilyIndex:  uint32(present),
		TransferFamilyIndex: uint32(transfer),
	}, nil
}

func evaluateDevice(c physicalDeviceCandidate, requirements VulkanPhysicalDeviceRequirements) (VulkanPhysicalDeviceQueueFamilyInfo, error) {
	for _, name := range requirements.DeviceExtensionNames {
		if !slices.Contains(c.Extensions, name) {
			return VulkanPhysicalDeviceQueueFamilyInfo{}, errors.Wrapf(core.ErrDeviceUnavailable, "required extension not found: %s", name)
		}
	}
	queues, err := resolveQueueFamilies(c.QueueFamilies)
	if err != nil {
		return queues, err
	}
	if c.FormatCount < 1 || c.PresentModeCount < 1 {
		return queues, core.ErrSwapchainUnsupported
	}
	return queues, nil
}

func rejectionRank(err error) int {
	switch {
	case errors.Is(err, core.ErrSwapchainUnsupported):
		return 3
	case errors.Is(err, core.ErrQueueUnavailable):
		return 2
	default:
		return 1
	}
}

// pickDevice returns the first suitable candidate. When none qualifies the
// error of the candidate that got furthest through the checks is returned.
func pickDevice(candidates []physicalDeviceCandidate, requirements VulkanPhysicalDeviceRequirements, logger *core.Logger) (int, VulkanPhysicalDeviceQueueFamilyInfo, error) {
	if len(candidates) == 0 {
		return -1, VulkanPhysicalDeviceQueueFamilyInfo{}, errors.Wrap(core.ErrDeviceUnavailable, "no devices which support Vulkan were found")
	}
	var rejection error
	for i, c := range candidates {
		queues, err := evaluateDevice(c, requirements)
		if err == nil {
			logger.Info("Device '%s' meets the requirements.", c.Name)
			logger.Debug("Graphics Family Index: %d", queues.GraphicsFamilyIndex)
			logger.Debug("Present Family Index:  %d", queues.PresentFamilyIndex)
			logger.Debug("Transfer Family Index: %d", queues.TransferFamilyIndex)
			return i, queues, nil
		}
		logger.Info("Skipping device '%s': %s", c.Name, err)
		if rejection == nil || rejectionRank(err) > rejectionRank(rejection) {
			rejection = err
		}
	}
	return -1, VulkanPhysicalDeviceQueueFamilyInfo{}, rejection
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil); res != vk.Success {
		return nil, resultError(res, "vkEnumerateDeviceExtensionProperties")
	}
	props := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, props); res != vk.Success {
			return nil, resultError(res, "vkEnumerateDeviceExtensionProperties")
		}
	}
	names := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].ExtensionName[:]))
	}
	return names, nil
}

func queueFamilies(pd vk.PhysicalDevice, surface vk.Surface) ([]queueFamilySupport, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)

	families := make([]queueFamilySupport, count)
	for i := range props[:count] {
		props[i].Deref()
		flags := vk.QueueFlagBits(props[i].QueueFlags)
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent); res != vk.Success {
			return nil, resultError(res, "vkGetPhysicalDeviceSurfaceSupportKHR")
		}
		families[i] = queueFamilySupport{
			Graphics: flags&vk.QueueGraphicsBit != 0,
			Transfer: flags&vk.QueueTransferBit != 0,
			Present:  supportsPresent == vk.True,
		}
	}
	return families, nil
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (VulkanSwapchainSupportInfo, error) {
	var info VulkanSwapchainSupportInfo
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &info.Capabilities); res != vk.Success {
		return info, resultError(res, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return info, resultError(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}
	if formatCount > 0 {
		info.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, info.Formats); res != vk.Success {
			return info, resultError(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
		}
		for i := range info.Formats {
			info.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil); res != vk.Success {
		return info, resultError(res, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}
	if modeCount > 0 {
		info.PresentModes = make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, info.PresentModes); res != vk.Success {
			return info, resultError(res, "vkGetPhysicalDeviceSurfacePresentModesKHR")
		}
	}
	return info, nil
}

// SelectPhysicalDevice fills ctx.Device with the first device that can
// render and present to ctx.Surface.
func SelectPhysicalDevice(ctx *VulkanContext) error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(ctx.Instance, &count, nil); res != vk.Success {
		return errors.Wrap(core.ErrDeviceUnavailable, VulkanResultString(res))
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if count > 0 {
		if res := vk.EnumeratePhysicalDevices(ctx.Instance, &count, physicalDevices); res != vk.Success {
			return errors.Wrap(core.ErrDeviceUnavailable, VulkanResultString(res))
		}
	}

	candidates := make([]physicalDeviceCandidate, len(physicalDevices))
	support := make([]VulkanSwapchainSupportInfo, len(physicalDevices))
	properties := make([]vk.PhysicalDeviceProperties, len(physicalDevices))
	for i, pd := range physicalDevices {
		vk.GetPhysicalDeviceProperties(pd, &properties[i])
		properties[i].Deref()
		candidates[i].Name = vk.ToString(properties[i].DeviceName[:])

		var err error
		if candidates[i].Extensions, err = deviceExtensions(pd); err != nil {
			return err
		}
		if candidates[i].QueueFamilies, err = queueFamilies(pd, ctx.Surface); err != nil {
			return err
		}
		if support[i], err = DeviceQuerySwapchainSupport(pd, ctx.Surface); err != nil {
			return err
		}
		candidates[i].FormatCount = len(support[i].Formats)
		candidates[i].PresentModeCount = len(support[i].PresentModes)
	}

	requirements := VulkanPhysicalDeviceRequirements{
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}
	index, queues, err := pickDevice(candidates, requirements, ctx.logger)
	if err != nil {
		ctx.logger.Error("No physical devices were found which meet the requirements.")
		return err
	}

	device := &VulkanDevice{
		PhysicalDevice:   physicalDevices[index],
		SwapchainSupport: support[index],
		QueueFamilies:    queues,
		Name:             candidates[index].Name,
		Properties:       properties[index],
	}
	vk.GetPhysicalDeviceMemoryProperties(device.PhysicalDevice, &device.Memory)
	device.Memory.Deref()
	ctx.Device = device

	logDeviceInfo(ctx.logger, device)
	ctx.logger.Info("Physical device selected.")
	return nil
}

func logDeviceInfo(logger *core.Logger, device *VulkanDevice) {
	logger.Info("Selected device: '%s'.", device.Name)
	switch device.Properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		logger.Info("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		logger.Info("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		logger.Info("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		logger.Info("GPU type is CPU.")
	default:
		logger.Info("GPU type is Unknown.")
	}

	driver := vk.Version(device.Properties.DriverVersion)
	logger.Info("GPU Driver version: %d.%d.%d", driver.Major(), driver.Minor(), driver.Patch())
	api := vk.Version(device.Properties.ApiVersion)
	logger.Info("Vulkan API version: %d.%d.%d", api.Major(), api.Minor(), api.Patch())

	for i := uint32(0); i < device.Memory.MemoryHeapCount; i++ {
		heap := device.Memory.MemoryHeaps[i]
		heap.Deref()
		sizeGiB := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			logger.Info("Local GPU memory: %.2f GiB", sizeGiB)
		} else {
			logger.Info("Shared System memory: %.2f GiB", sizeGiB)
		}
	}
}

// DeviceCreate creates the logical device, fetches the three queues and the
// transfer command pool.
func DeviceCreate(ctx *VulkanContext, layers []string) error {
	device := ctx.Device
	ctx.logger.Info("Creating logical device...")

	families := device.QueueFamilies.Unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	available, err := deviceExtensions(device.PhysicalDevice)
	if err != nil {
		return err
	}
	extensions := []string{vk.KhrSwapchainExtensionName}
	if slices.Contains(available, portabilitySubsetExtension) {
		ctx.logger.Info("Adding required extension '%s'.", portabilitySubsetExtension)
		extensions = append(extensions, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		// Ignored by current loaders, kept for older implementations.
		EnabledLayerCount:   uint32(len(layers)),
		PpEnabledLayerNames: VulkanSafeStrings(layers),
	}

	var logical vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, ctx.Allocator, &logical); res != vk.Success {
		return errors.Wrap(core.ErrDeviceUnavailable, VulkanResultString(res))
	}
	device.LogicalDevice = logical
	ctx.logger.Info("Logical device created.")

	vk.GetDeviceQueue(logical, device.QueueFamilies.GraphicsFamilyIndex, 0, &device.GraphicsQueue)
	vk.GetDeviceQueue(logical, device.QueueFamilies.PresentFamilyIndex, 0, &device.PresentQueue)
	vk.GetDeviceQueue(logical, device.QueueFamilies.TransferFamilyIndex, 0, &device.TransferQueue)
	ctx.logger.Info("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.QueueFamilies.TransferFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(logical, &poolCreateInfo, ctx.Allocator, &pool); res != vk.Success {
		return resultError(res, "vkCreateCommandPool")
	}
	ctx.TransferCommandPool = pool
	ctx.logger.Info("Transfer command pool created.")
	return nil
}

// DeviceDestroy releases the logical device. The swapchain and the transfer
// pool must already be gone.
func DeviceDestroy(ctx *VulkanContext) {
	device := ctx.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil
	device.PresentQueue = nil
	device.TransferQueue = nil

	if device.LogicalDevice != nil {
		ctx.logger.Info("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, ctx.Allocator)
		device.LogicalDevice = nil
	}
	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	ctx.Device = nil
}

func (ctx *VulkanContext) destroyTransferPool() {
	if ctx.TransferCommandPool != nil && ctx.Device != nil && ctx.Device.LogicalDevice != nil {
		ctx.logger.Info("Destroying transfer command pool...")
		vk.DestroyCommandPool(ctx.Device.LogicalDevice, ctx.TransferCommandPool, ctx.Allocator)
		ctx.TransferCommandPool = nil
	}
}
