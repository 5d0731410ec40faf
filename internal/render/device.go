package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/pupsyengine/pupsy/internal/config"
	"github.com/pupsyengine/pupsy/internal/window"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

// Device holds everything that survives swapchain recreation: the instance,
// debug messenger, surface, selected GPU, logical device and its queues.
type Device struct {
	logger *slog.Logger
	cfg    config.Config
	window *window.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	queueFamilies  QueueFamilyIndices

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
}

func NewDevice(logger *slog.Logger, cfg config.Config, win *window.Window) (*Device, error) {
	d := &Device{
		logger: logger,
		cfg:    cfg,
		window: win,
	}

	var err error
	d.globalDriver, err = core.CreateDriverFromProcAddr(win.ProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	err = d.createInstance()
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "create instance")
	}

	err = d.setupDebugMessenger()
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "create debug messenger")
	}

	err = d.createSurface()
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}

	err = d.pickPhysicalDevice()
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "pick physical device")
	}

	err = d.createLogicalDevice()
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "create logical device")
	}

	return d, nil
}

func (d *Device) createInstance() error {
	version, err := d.cfg.Engine.VersionTriple()
	if err != nil {
		return err
	}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    d.cfg.Window.Title,
		ApplicationVersion: common.CreateVersion(version[0], version[1], version[2]),
		EngineName:         d.cfg.Engine.Name,
		EngineVersion:      common.CreateVersion(version[0], version[1], version[2]),
		APIVersion:         common.Vulkan1_0,
	}

	windowExtensions := d.window.VulkanInstanceExtensions()
	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range windowExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("window requires missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if d.cfg.Render.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if d.cfg.Render.Validation {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range d.cfg.Render.ValidationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.WithHint(
					errors.Newf("validation layer %s requested but not available", layer),
					"install the Vulkan SDK or run with --validation=false")
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = d.debugMessengerOptions()
	}

	d.instanceDriver, _, err = d.globalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (d *Device) createSurface() error {
	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, d.window.SDL())
	if err != nil {
		return err
	}

	d.surface = surface
	return nil
}

func (d *Device) createLogicalDevice() error {
	indices := d.queueFamilies

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required on MoltenVK and other portability implementations.
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.deviceDriver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	d.graphicsQueue = d.deviceDriver.GetQueue(*indices.GraphicsFamily, 0)
	d.presentQueue = d.deviceDriver.GetQueue(*indices.PresentFamily, 0)
	return nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.deviceDriver == nil {
		return nil
	}

	_, err := d.deviceDriver.DeviceWaitIdle()
	return err
}

func (d *Device) Destroy() {
	if d.deviceDriver != nil {
		d.deviceDriver.DestroyDevice(nil)
		d.deviceDriver = nil
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.surface.Initialized() {
		d.surfaceExtension.DestroySurface(d.surface, nil)
		d.surface = khr_surface.Surface{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
}
