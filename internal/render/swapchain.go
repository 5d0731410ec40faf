package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func (d *Device) querySwapChainSupport(device core1_0.PhysicalDevice) (SwapChainSupportDetails, error) {
	var details SwapChainSupportDetails
	var err error

	details.Capabilities, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, device)
	return details, err
}

func (r *Renderer) createSwapchain() error {
	swapchainSupport, err := r.device.querySwapChainSupport(r.device.physicalDevice)
	if err != nil {
		return err
	}

	if len(swapchainSupport.Formats) == 0 {
		return errors.New("surface reports no formats")
	}

	width, height := r.device.window.DrawableSize()
	surfaceFormat := chooseSwapSurfaceFormat(swapchainSupport.Formats)
	presentMode := chooseSwapPresentMode(swapchainSupport.PresentModes, presentModeFromConfig(r.cfg.Render.PresentMode))
	extent := chooseSwapExtent(swapchainSupport.Capabilities, width, height)
	imageCount := chooseImageCount(swapchainSupport.Capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	indices := r.device.queueFamilies
	if !indices.Shared() {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = indices.Unique()
	}

	swapchain, _, err := r.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.device.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}
	r.swapchainExtent = extent
	r.swapchain = swapchain
	r.swapchainImageFormat = surfaceFormat.Format

	r.logger.Debug("created swapchain",
		"width", extent.Width,
		"height", extent.Height,
		"minImages", imageCount,
		"format", surfaceFormat.Format,
		"presentMode", presentMode)
	return nil
}

func (r *Renderer) createImageViews() error {
	images, _, err := r.swapchainExtension.GetSwapchainImages(r.swapchain)
	if err != nil {
		return err
	}
	r.swapchainImages = images

	var imageViews []core1_0.ImageView
	for _, image := range images {
		view, _, err := r.device.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   r.swapchainImageFormat,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}

		imageViews = append(imageViews, view)
	}
	r.swapchainImageViews = imageViews

	return nil
}

func (r *Renderer) createFramebuffers() error {
	for _, imageView := range r.swapchainImageViews {
		framebuffer, _, err := r.device.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  r.renderPass,
			Layers:      1,
			Attachments: []core1_0.ImageView{imageView},
			Width:       r.swapchainExtent.Width,
			Height:      r.swapchainExtent.Height,
		})
		if err != nil {
			return err
		}

		r.swapchainFramebuffers = append(r.swapchainFramebuffers, framebuffer)
	}

	return nil
}

// buildSwapChain creates every resource sized or shaped by the swapchain.
func (r *Renderer) buildSwapChain() error {
	err := r.createSwapchain()
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	err = r.createImageViews()
	if err != nil {
		return errors.Wrap(err, "create image views")
	}

	err = r.createRenderPass()
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	err = r.createGraphicsPipeline()
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}

	err = r.createFramebuffers()
	if err != nil {
		return errors.Wrap(err, "create framebuffers")
	}

	err = r.createCommandBuffers()
	if err != nil {
		return errors.Wrap(err, "record command buffers")
	}

	r.images.reset(len(r.swapchainImages))
	return nil
}

// cleanupSwapChain releases swapchain-dependent resources. Device, surface,
// geometry and synchronization objects are left alone.
func (r *Renderer) cleanupSwapChain() {
	driver := r.device.deviceDriver

	for _, framebuffer := range r.swapchainFramebuffers {
		driver.DestroyFramebuffer(framebuffer, nil)
	}
	r.swapchainFramebuffers = []core1_0.Framebuffer{}

	if len(r.commandBuffers) > 0 {
		driver.FreeCommandBuffers(r.commandBuffers...)
		r.commandBuffers = []core1_0.CommandBuffer{}
	}

	if r.graphicsPipeline.Initialized() {
		driver.DestroyPipeline(r.graphicsPipeline, nil)
		r.graphicsPipeline = core1_0.Pipeline{}
	}

	if r.pipelineLayout.Initialized() {
		driver.DestroyPipelineLayout(r.pipelineLayout, nil)
		r.pipelineLayout = core1_0.PipelineLayout{}
	}

	if r.renderPass.Initialized() {
		driver.DestroyRenderPass(r.renderPass, nil)
		r.renderPass = core1_0.RenderPass{}
	}

	for _, imageView := range r.swapchainImageViews {
		driver.DestroyImageView(imageView, nil)
	}
	r.swapchainImageViews = []core1_0.ImageView{}
	r.swapchainImages = nil

	if r.swapchain.Initialized() {
		r.swapchainExtension.DestroySwapchain(r.swapchain, nil)
		r.swapchain = khr_swapchain.Swapchain{}
	}
}

// recreateSwapChain rebuilds the swapchain against the current surface. A
// zero-sized or minimized window leaves the renderer stale so the next frame
// tries again.
func (r *Renderer) recreateSwapChain() error {
	w, h := r.device.window.DrawableSize()
	if w == 0 || h == 0 || r.device.window.Minimized() {
		r.state = Stale
		return nil
	}

	err := r.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	r.cleanupSwapChain()

	err = r.buildSwapChain()
	if err != nil {
		return err
	}

	r.state = Presenting
	r.resized = false
	r.logger.Info("recreated swapchain", "width", r.swapchainExtent.Width, "height", r.swapchainExtent.Height, "images", len(r.swapchainImages))
	return nil
}
