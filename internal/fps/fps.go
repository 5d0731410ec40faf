// Package fps tracks frame timing against the high-resolution clock.
package fps

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

type Counter struct {
	logger   *slog.Logger
	interval time.Duration

	delta      time.Duration
	fps        float64
	lastTime   time.Duration
	lastReport time.Duration
	frames     uint64
}

// NewCounter returns a counter that logs the current rate every interval. A
// zero interval disables reporting.
func NewCounter(logger *slog.Logger, interval time.Duration) *Counter {
	start := hrtime.Now()
	return &Counter{
		logger:     logger,
		interval:   interval,
		lastTime:   start,
		lastReport: start,
	}
}

// Tick samples the clock and updates the counter.
func (c *Counter) Tick() {
	c.Update(hrtime.Now())
}

// Update records a frame completing at now, a duration on the hrtime clock.
func (c *Counter) Update(now time.Duration) {
	dt := now - c.lastTime
	c.delta = dt
	c.frames++

	if dt > 0 {
		c.fps = float64(time.Second) / float64(dt)
		c.lastTime = now
	}

	if c.interval > 0 && now-c.lastReport >= c.interval {
		c.lastReport = now
		c.logger.Info("frame rate", "fps", c.fps, "frameTime", c.delta, "frames", c.frames)
	}
}

// Delta is the duration between the last two samples.
func (c *Counter) Delta() time.Duration {
	return c.delta
}

func (c *Counter) FPS() float64 {
	return c.fps
}

func (c *Counter) Frames() uint64 {
	return c.frames
}
