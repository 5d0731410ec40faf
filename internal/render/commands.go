package render

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createCommandPool() error {
	pool, _, err := r.device.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *r.device.queueFamilies.GraphicsFamily,
	})
	if err != nil {
		return err
	}

	r.commandPool = pool
	return nil
}

func (r *Renderer) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := r.device.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, err
	}

	buffer := buffers[0]
	_, err = r.device.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	return buffer, err
}

func (r *Renderer) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	driver := r.device.deviceDriver
	defer driver.FreeCommandBuffers(buffer)

	_, err := driver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	_, err = driver.QueueSubmit(r.device.graphicsQueue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return err
	}

	_, err = driver.QueueWaitIdle(r.device.graphicsQueue)
	return err
}

func (r *Renderer) copyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.device.deviceDriver.CmdCopyBuffer(buffer, srcBuffer, dstBuffer,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
	if err != nil {
		r.device.deviceDriver.FreeCommandBuffers(buffer)
		return err
	}

	return r.endSingleTimeCommands(buffer)
}

// createCommandBuffers records one command buffer per swapchain image. The
// recordings stay valid until the swapchain is rebuilt.
func (r *Renderer) createCommandBuffers() error {
	driver := r.device.deviceDriver

	buffers, _, err := driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(r.swapchainImages),
	})
	if err != nil {
		return err
	}
	r.commandBuffers = buffers

	clearColor := r.cfg.Render.ClearColor

	for bufferIdx, buffer := range buffers {
		_, err = driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
		if err != nil {
			return err
		}

		err = driver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
			core1_0.RenderPassBeginInfo{
				RenderPass:  r.renderPass,
				Framebuffer: r.swapchainFramebuffers[bufferIdx],
				RenderArea: core1_0.Rect2D{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: r.swapchainExtent,
				},
				ClearValues: []core1_0.ClearValue{
					core1_0.ClearValueFloat{clearColor[0], clearColor[1], clearColor[2], clearColor[3]},
				},
			})
		if err != nil {
			return err
		}

		driver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, r.graphicsPipeline)
		driver.CmdBindVertexBuffers(buffer, 0, []core1_0.Buffer{r.vertexBuffer}, []int{0})
		driver.CmdBindIndexBuffer(buffer, r.indexBuffer, 0, core1_0.IndexTypeUInt32)
		driver.CmdDrawIndexed(buffer, len(r.mesh.Indices), 1, 0, 0, 0)
		driver.CmdEndRenderPass(buffer)

		_, err = driver.EndCommandBuffer(buffer)
		if err != nil {
			return err
		}
	}

	return nil
}
