package render

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

var testCacheUUID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func encodeHeader(t *testing.T, h pipelineCacheHeader, payload ...byte) []byte {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, common.ByteOrder, h))
	buf.Write(payload)
	return buf.Bytes()
}

func validHeader() pipelineCacheHeader {
	return pipelineCacheHeader{
		Length:   uint32(pipelineCacheHeaderSize),
		Version:  pipelineCacheHeaderVersionOne,
		VendorID: 0x10de,
		DeviceID: 0x2204,
		UUID:     testCacheUUID,
	}
}

func TestParsePipelineCacheHeader(t *testing.T) {
	data := encodeHeader(t, validHeader(), 1, 2, 3)

	header, err := parsePipelineCacheHeader(data)
	require.NoError(t, err)
	assert.Equal(t, validHeader(), header)
	assert.NoError(t, header.check(0x10de, 0x2204, testCacheUUID))

	_, err = parsePipelineCacheHeader(data[:10])
	assert.Error(t, err)
}

func TestPipelineCacheHeaderCheck(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *pipelineCacheHeader)
		want   string
	}{
		{"length", func(h *pipelineCacheHeader) { h.Length = 0 }, "header length"},
		{"version", func(h *pipelineCacheHeader) { h.Version = 2 }, "header version"},
		{"vendor", func(h *pipelineCacheHeader) { h.VendorID = 0x1002 }, "vendor ID"},
		{"device", func(h *pipelineCacheHeader) { h.DeviceID = 1 }, "device ID"},
		{"uuid", func(h *pipelineCacheHeader) { h.UUID = uuid.Nil }, "UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.mutate(&h)
			err := h.check(0x10de, 0x2204, testCacheUUID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPipelineCacheData(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	properties := &core1_0.PhysicalDeviceProperties{
		VendorID:          0x10de,
		DeviceID:          0x2204,
		PipelineCacheUUID: testCacheUUID,
	}
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, loadPipelineCacheData(logger, filepath.Join(dir, "none.bin"), properties))
	})

	t.Run("matching", func(t *testing.T) {
		path := filepath.Join(dir, "good.bin")
		data := encodeHeader(t, validHeader(), 7, 7)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		assert.Equal(t, data, loadPipelineCacheData(logger, path, properties))
		assert.FileExists(t, path)
	})

	t.Run("stale", func(t *testing.T) {
		path := filepath.Join(dir, "stale.bin")
		h := validHeader()
		h.DeviceID = 0xbeef
		require.NoError(t, os.WriteFile(path, encodeHeader(t, h), 0o644))

		assert.Nil(t, loadPipelineCacheData(logger, path, properties))
		assert.NoFileExists(t, path)
	})
}

func TestNilPipelineCache(t *testing.T) {
	var c *pipelineCache
	assert.Nil(t, c.handle())
	assert.False(t, c.warmed())
	assert.NoError(t, c.save())
	c.destroy()
}
