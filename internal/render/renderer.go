// Package render drives Vulkan through vkngwrapper: device and swapchain
// setup, the triangle pipeline, per-image command buffers and the
// frames-in-flight presentation loop.
package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/pupsyengine/pupsy/internal/config"
	"github.com/pupsyengine/pupsy/internal/mesh"
	"github.com/pupsyengine/pupsy/internal/window"
)

// Overlay is invoked with the command buffer of each frame just before it is
// submitted.
type Overlay interface {
	Render(commandBuffer core1_0.CommandBuffer) error
}

type Renderer struct {
	logger  *slog.Logger
	cfg     config.Config
	device  *Device
	mesh    mesh.Mesh
	overlay Overlay

	swapchainExtension    khr_swapchain.ExtensionDriver
	swapchain             khr_swapchain.Swapchain
	swapchainImages       []core1_0.Image
	swapchainImageFormat  core1_0.Format
	swapchainExtent       core1_0.Extent2D
	swapchainImageViews   []core1_0.ImageView
	swapchainFramebuffers []core1_0.Framebuffer

	renderPass       core1_0.RenderPass
	pipelineLayout   core1_0.PipelineLayout
	graphicsPipeline core1_0.Pipeline
	pipelineCache    *pipelineCache

	commandPool    core1_0.CommandPool
	commandBuffers []core1_0.CommandBuffer

	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	indexBuffer        core1_0.Buffer
	indexBufferMemory  core1_0.DeviceMemory

	sync    frameSync
	frames  frameRing
	images  imageTracker
	state   PresentState
	resized bool
}

// New brings up the device and every resource needed to draw geometry into
// win. On error everything created so far is released.
func New(logger *slog.Logger, cfg config.Config, win *window.Window, geometry mesh.Mesh) (*Renderer, error) {
	if len(geometry.Indices) == 0 {
		return nil, errors.New("geometry has no indices")
	}

	device, err := NewDevice(logger, cfg, win)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		logger: logger,
		cfg:    cfg,
		device: device,
		mesh:   geometry,
		frames: newFrameRing(cfg.Render.MaxFramesInFlight),
	}
	r.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(device.deviceDriver)

	err = r.init()
	if err != nil {
		r.destroy()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init() error {
	err := r.createPipelineCache()
	if err != nil {
		return errors.Wrap(err, "create pipeline cache")
	}

	err = r.createCommandPool()
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	err = r.createGeometryBuffers()
	if err != nil {
		return errors.Wrap(err, "upload geometry")
	}

	err = r.buildSwapChain()
	if err != nil {
		return err
	}

	err = r.createSyncObjects(r.cfg.Render.MaxFramesInFlight)
	if err != nil {
		return errors.Wrap(err, "create sync objects")
	}

	r.logger.Info("renderer ready",
		"width", r.swapchainExtent.Width,
		"height", r.swapchainExtent.Height,
		"images", len(r.swapchainImages),
		"framesInFlight", r.frames.size,
		"vertices", len(r.mesh.Vertices))
	return nil
}

// SetOverlay installs a hook called for every submitted frame.
func (r *Renderer) SetOverlay(overlay Overlay) {
	r.overlay = overlay
}

// MarkResized forces a swapchain rebuild after the next present.
func (r *Renderer) MarkResized() {
	r.resized = true
}

func (r *Renderer) State() PresentState {
	return r.state
}

func (r *Renderer) Extent() (int, int) {
	return r.swapchainExtent.Width, r.swapchainExtent.Height
}

// DrawFrame renders and presents one frame in the current frame slot. It
// reports false when no frame was presented because the swapchain is stale
// and could not be rebuilt yet.
func (r *Renderer) DrawFrame() (bool, error) {
	if r.state == Stale {
		err := r.recreateSwapChain()
		if err != nil {
			return false, err
		}
		if r.state == Stale {
			return false, nil
		}
	}

	driver := r.device.deviceDriver
	slot := r.frames.current
	fence := r.sync.inFlight[slot]

	_, err := driver.WaitForFences(true, common.NoTimeout, fence)
	if err != nil {
		return false, errors.Wrap(err, "wait for frame fence")
	}

	imageIndex, res, err := r.swapchainExtension.AcquireNextImage(r.swapchain, common.NoTimeout, &r.sync.imageAvailable[slot], nil)
	if acquireState(res) == Stale {
		r.state = Stale
		return false, r.recreateSwapChain()
	} else if err != nil {
		return false, errors.Wrap(err, "acquire swapchain image")
	}

	if prev := r.images.claim(imageIndex, slot); prev >= 0 && prev != slot {
		_, err = driver.WaitForFences(true, common.NoTimeout, r.sync.inFlight[prev])
		if err != nil {
			return false, errors.Wrap(err, "wait for image fence")
		}
	}

	_, err = driver.ResetFences(fence)
	if err != nil {
		return false, errors.Wrap(err, "reset frame fence")
	}

	commandBuffer := r.commandBuffers[imageIndex]
	if r.overlay != nil {
		err = r.overlay.Render(commandBuffer)
		if err != nil {
			return false, errors.Wrap(err, "render overlay")
		}
	}

	_, err = driver.QueueSubmit(r.device.graphicsQueue, &r.sync.inFlight[slot],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{r.sync.imageAvailable[slot]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{commandBuffer},
			SignalSemaphores: []core1_0.Semaphore{r.sync.renderFinished[slot]},
		},
	)
	if err != nil {
		return false, errors.Wrap(err, "submit frame")
	}

	res, err = r.swapchainExtension.QueuePresent(r.device.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.sync.renderFinished[slot]},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	r.frames.advance()

	err = presentError(res, err)
	if err != nil {
		return false, errors.Wrap(err, "present frame")
	}

	if presentState(res, r.resized) == Stale {
		r.state = Stale
		return true, r.recreateSwapChain()
	}

	return true, nil
}

// WaitIdle blocks until the GPU has drained every submitted frame.
func (r *Renderer) WaitIdle() error {
	return r.device.WaitIdle()
}

// Close waits for the device, persists the pipeline cache and destroys all
// resources in reverse creation order.
func (r *Renderer) Close() error {
	err := r.device.WaitIdle()
	if err != nil {
		r.logger.Error("wait for device idle", "error", err)
	}

	saveErr := r.pipelineCache.save()
	if saveErr != nil {
		r.logger.Warn("save pipeline cache", "error", saveErr)
	}

	r.destroy()
	return err
}

func (r *Renderer) destroy() {
	r.cleanupSwapChain()
	r.destroySyncObjects()
	r.destroyGeometryBuffers()

	if r.commandPool.Initialized() {
		r.device.deviceDriver.DestroyCommandPool(r.commandPool, nil)
		r.commandPool = core1_0.CommandPool{}
	}

	r.pipelineCache.destroy()
	r.device.Destroy()
}
