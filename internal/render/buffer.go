package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	driver := r.device.deviceDriver

	buffer, _, err := driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := driver.GetBufferMemoryRequirements(buffer)
	memProperties := r.device.instanceDriver.GetPhysicalDeviceMemoryProperties(r.device.physicalDevice)
	memoryTypeIndex, err := findMemoryType(memProperties, memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	memory, _, err := driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	_, err = driver.BindBufferMemory(buffer, memory, 0)
	return buffer, memory, err
}

func findMemoryType(memProperties *core1_0.PhysicalDeviceMemoryProperties, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type in mask 0x%x has properties %s", typeFilter, properties)
}

func writeData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)
	if bufferSize < 0 {
		return errors.Newf("cannot encode %T", data)
	}

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return err
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return err
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}

// uploadBuffer copies data into a new device-local buffer through a
// host-visible staging buffer.
func (r *Renderer) uploadBuffer(data any, usage core1_0.BufferUsageFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	driver := r.device.deviceDriver
	bufferSize := binary.Size(data)

	stagingBuffer, stagingBufferMemory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer.Initialized() {
		defer driver.DestroyBuffer(stagingBuffer, nil)
	}
	if stagingBufferMemory.Initialized() {
		defer driver.FreeMemory(stagingBufferMemory, nil)
	}

	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	err = writeData(driver, stagingBufferMemory, 0, data)
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	buffer, memory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return buffer, memory, err
	}

	return buffer, memory, r.copyBuffer(stagingBuffer, buffer, bufferSize)
}

func (r *Renderer) createGeometryBuffers() error {
	var err error

	r.vertexBuffer, r.vertexBufferMemory, err = r.uploadBuffer(r.mesh.Vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}

	r.indexBuffer, r.indexBufferMemory, err = r.uploadBuffer(r.mesh.Indices, core1_0.BufferUsageIndexBuffer)
	return errors.Wrap(err, "index buffer")
}

func (r *Renderer) destroyGeometryBuffers() {
	driver := r.device.deviceDriver

	if r.indexBuffer.Initialized() {
		driver.DestroyBuffer(r.indexBuffer, nil)
	}

	if r.indexBufferMemory.Initialized() {
		driver.FreeMemory(r.indexBufferMemory, nil)
	}

	if r.vertexBuffer.Initialized() {
		driver.DestroyBuffer(r.vertexBuffer, nil)
	}

	if r.vertexBufferMemory.Initialized() {
		driver.FreeMemory(r.vertexBufferMemory, nil)
	}
}
