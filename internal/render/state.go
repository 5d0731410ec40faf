package render

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// PresentState tracks whether the swapchain still matches the surface.
type PresentState int

const (
	Presenting PresentState = iota
	Stale
)

func (s PresentState) String() string {
	if s == Stale {
		return "stale"
	}
	return "presenting"
}

// acquireState classifies an image acquisition result. A suboptimal image is
// still presentable, so only out-of-date forces a rebuild here; presentState
// catches suboptimal once the frame is presented.
func acquireState(res common.VkResult) PresentState {
	if res == khr_swapchain.VKErrorOutOfDate {
		return Stale
	}
	return Presenting
}

// presentState classifies a queue present result, folding in a resize the
// window reported since the last frame.
func presentState(res common.VkResult, resized bool) PresentState {
	if resized || res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return Stale
	}
	return Presenting
}

// presentError drops err when res only means the swapchain must be rebuilt.
func presentError(res common.VkResult, err error) error {
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return nil
	}
	return err
}

// frameRing cycles through a fixed number of frame slots.
type frameRing struct {
	size    int
	current int
}

func newFrameRing(size int) frameRing {
	return frameRing{size: size}
}

func (r *frameRing) advance() {
	r.current = (r.current + 1) % r.size
}

// imageTracker remembers which frame slot last submitted work for each
// swapchain image, so a slot never renders into an image another slot still
// has in flight.
type imageTracker struct {
	owners []int
}

func (t *imageTracker) reset(images int) {
	t.owners = make([]int, images)
	for i := range t.owners {
		t.owners[i] = -1
	}
}

// claim assigns image to slot and returns the slot that used it before, or
// -1 if none did.
func (t *imageTracker) claim(image, slot int) int {
	prev := t.owners[image]
	t.owners[image] = slot
	return prev
}
