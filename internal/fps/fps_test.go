package fps

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCounter(buf *bytes.Buffer, interval time.Duration) *Counter {
	c := NewCounter(slog.New(slog.NewTextHandler(buf, nil)), interval)
	c.lastTime = 0
	c.lastReport = 0
	return c
}

func TestUpdateComputesRate(t *testing.T) {
	c := newTestCounter(&bytes.Buffer{}, 0)

	c.Update(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, c.Delta())
	assert.InDelta(t, 100.0, c.FPS(), 1e-9)

	c.Update(30 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, c.Delta())
	assert.InDelta(t, 50.0, c.FPS(), 1e-9)
	assert.Equal(t, uint64(2), c.Frames())
}

func TestUpdateZeroDeltaKeepsRate(t *testing.T) {
	c := newTestCounter(&bytes.Buffer{}, 0)

	c.Update(4 * time.Millisecond)
	c.Update(4 * time.Millisecond)

	assert.Equal(t, time.Duration(0), c.Delta())
	assert.InDelta(t, 250.0, c.FPS(), 1e-9)
	assert.Equal(t, 4*time.Millisecond, c.lastTime)
}

func TestReportInterval(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCounter(&buf, time.Second)

	for i := 1; i <= 150; i++ {
		c.Update(time.Duration(i) * 16 * time.Millisecond)
	}

	// 150 frames at 16ms span 2.4s: reports at ~1s and ~2s.
	assert.Equal(t, 2, strings.Count(buf.String(), "frame rate"))
}

func TestReportDisabled(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCounter(&buf, 0)

	c.Update(5 * time.Second)
	assert.Empty(t, buf.String())
}

func TestFirstFrameDoesNotReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewCounter(slog.New(slog.NewTextHandler(&buf, nil)), time.Second)

	c.Update(c.lastTime + 16*time.Millisecond)
	assert.Empty(t, buf.String())

	c.Update(c.lastTime + time.Second)
	assert.Contains(t, buf.String(), "frame rate")
}
