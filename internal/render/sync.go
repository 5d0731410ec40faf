package render

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// frameSync holds the per-slot synchronization primitives. Its size is fixed
// when the renderer starts and does not follow the swapchain image count.
type frameSync struct {
	imageAvailable []core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	inFlight       []core1_0.Fence
}

func (r *Renderer) createSyncObjects(framesInFlight int) error {
	driver := r.device.deviceDriver

	for i := 0; i < framesInFlight; i++ {
		semaphore, _, err := driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		r.sync.imageAvailable = append(r.sync.imageAvailable, semaphore)

		semaphore, _, err = driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		r.sync.renderFinished = append(r.sync.renderFinished, semaphore)

		fence, _, err := driver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
		r.sync.inFlight = append(r.sync.inFlight, fence)
	}

	return nil
}

func (r *Renderer) destroySyncObjects() {
	driver := r.device.deviceDriver

	for _, fence := range r.sync.inFlight {
		driver.DestroyFence(fence, nil)
	}

	for _, semaphore := range r.sync.renderFinished {
		driver.DestroySemaphore(semaphore, nil)
	}

	for _, semaphore := range r.sync.imageAvailable {
		driver.DestroySemaphore(semaphore, nil)
	}

	r.sync = frameSync{}
}
