package render

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const (
	pipelineCacheHeaderVersionOne = 1
	pipelineCacheHeaderSize       = 16 + len(uuid.UUID{})
)

// pipelineCacheHeader is the version-one header every driver writes at the
// start of its cache data.
//
//	offset 0   header length
//	offset 4   header version
//	offset 8   vendor ID
//	offset 12  device ID
//	offset 16  pipeline cache UUID
type pipelineCacheHeader struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

func parsePipelineCacheHeader(data []byte) (pipelineCacheHeader, error) {
	var header pipelineCacheHeader
	if len(data) < pipelineCacheHeaderSize {
		return header, errors.Newf("cache data is %d bytes, shorter than a header", len(data))
	}

	err := binary.Read(bytes.NewReader(data), common.ByteOrder, &header)
	return header, err
}

// check returns an error naming the first field that does not match the
// running device.
func (h pipelineCacheHeader) check(vendorID, deviceID uint32, cacheUUID uuid.UUID) error {
	switch {
	case h.Length < uint32(pipelineCacheHeaderSize):
		return errors.Newf("bad header length 0x%x", h.Length)
	case h.Version != pipelineCacheHeaderVersionOne:
		return errors.Newf("unsupported header version 0x%x", h.Version)
	case h.VendorID != vendorID:
		return errors.Newf("vendor ID mismatch: cache 0x%x, driver 0x%x", h.VendorID, vendorID)
	case h.DeviceID != deviceID:
		return errors.Newf("device ID mismatch: cache 0x%x, driver 0x%x", h.DeviceID, deviceID)
	case h.UUID != cacheUUID:
		return errors.Newf("UUID mismatch: cache %s, driver %s", h.UUID, cacheUUID)
	}
	return nil
}

type pipelineCache struct {
	path   string
	cache  core1_0.PipelineCache
	warm   bool
	driver core1_0.DeviceDriver
}

// loadPipelineCacheData returns the cached bytes at path when they were
// written by the same driver and device. A stale file is removed so the next
// run repopulates it.
func loadPipelineCacheData(logger *slog.Logger, path string, properties *core1_0.PhysicalDeviceProperties) []byte {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		logger.Warn("read pipeline cache", "path", path, "error", err)
		return nil
	}

	header, err := parsePipelineCacheHeader(data)
	if err == nil {
		err = header.check(uint32(properties.VendorID), uint32(properties.DeviceID), properties.PipelineCacheUUID)
	}
	if err != nil {
		logger.Info("discarding pipeline cache", "path", path, "reason", err)
		// not important if this fails
		_ = os.Remove(path)
		return nil
	}

	return data
}

func (r *Renderer) createPipelineCache() error {
	path := r.cfg.Render.PipelineCachePath
	if path == "" {
		return nil
	}

	initialData := loadPipelineCacheData(r.logger, path, r.device.properties)

	cache, _, err := r.device.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initialData,
	})
	if err != nil {
		return err
	}

	r.pipelineCache = &pipelineCache{
		path:   path,
		cache:  cache,
		warm:   len(initialData) > 0,
		driver: r.device.deviceDriver,
	}
	return nil
}

func (c *pipelineCache) handle() *core1_0.PipelineCache {
	if c == nil {
		return nil
	}
	return &c.cache
}

func (c *pipelineCache) save() error {
	if c == nil {
		return nil
	}

	data, _, err := c.driver.GetPipelineCacheData(c.cache)
	if err != nil {
		return errors.Wrap(err, "get pipeline cache data")
	}

	return errors.Wrapf(os.WriteFile(c.path, data, 0o644), "write pipeline cache %s", c.path)
}

func (c *pipelineCache) destroy() {
	if c == nil || !c.cache.Initialized() {
		return
	}
	c.driver.DestroyPipelineCache(c.cache, nil)
	c.cache = core1_0.PipelineCache{}
}

// warmed reports whether the cache was seeded from disk.
func (c *pipelineCache) warmed() bool {
	return c != nil && c.warm
}
