package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	d.logger.Info("enumerated physical devices", "count", len(physicalDevices))

	for _, device := range physicalDevices {
		indices, suitable := d.isDeviceSuitable(device)
		if suitable && !d.physicalDevice.Initialized() {
			d.physicalDevice = device
			d.queueFamilies = indices
		}
	}

	if !d.physicalDevice.Initialized() {
		return errors.New("failed to find a suitable GPU")
	}

	d.properties, err = d.instanceDriver.GetPhysicalDeviceProperties(d.physicalDevice)
	if err != nil {
		return err
	}

	d.logger.Info("selected physical device",
		"name", d.properties.DeviceName,
		"graphicsFamily", *d.queueFamilies.GraphicsFamily,
		"presentFamily", *d.queueFamilies.PresentFamily)
	return nil
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) (QueueFamilyIndices, bool) {
	d.describeDevice(device)

	indices, err := d.findQueueFamilies(device)
	if err != nil {
		d.logger.Warn("query queue families", "error", err)
		return indices, false
	}

	extensionsSupported := d.checkDeviceExtensionSupport(device)

	var swapChainAdequate bool
	if extensionsSupported {
		swapChainSupport, err := d.querySwapChainSupport(device)
		if err != nil {
			d.logger.Warn("query swapchain support", "error", err)
			return indices, false
		}

		swapChainAdequate = len(swapChainSupport.Formats) > 0 && len(swapChainSupport.PresentModes) > 0
	}

	return indices, indices.IsComplete() && extensionsSupported && swapChainAdequate
}

// describeDevice logs the capabilities of a candidate GPU.
func (d *Device) describeDevice(device core1_0.PhysicalDevice) {
	properties, err := d.instanceDriver.GetPhysicalDeviceProperties(device)
	if err != nil {
		d.logger.Warn("query device properties", "error", err)
		return
	}

	features := d.instanceDriver.GetPhysicalDeviceFeatures(device)

	d.logger.Debug("physical device",
		"name", properties.DeviceName,
		"id", properties.DeviceID,
		"type", properties.DeviceType,
		"apiVersion", properties.APIVersion,
		"geometryShader", features.GeometryShader)

	for idx, family := range d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device) {
		d.logger.Debug("queue family",
			"index", idx,
			"count", family.QueueCount,
			"graphics", family.QueueFlags&core1_0.QueueGraphics != 0,
			"compute", family.QueueFlags&core1_0.QueueCompute != 0,
			"transfer", family.QueueFlags&core1_0.QueueTransfer != 0,
			"sparseBinding", family.QueueFlags&core1_0.QueueSparseBinding != 0)
	}
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			d.logger.Debug("missing device extension", "extension", extension)
			return false
		}
	}

	return true
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if queueFamily.QueueCount == 0 {
			continue
		}

		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.surface, device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}
