package app

import (
	"fmt"
	"time"
)

// statsInterval is how often the frame statistics are refreshed.
const statsInterval = time.Second

// FrameClock measures frame deltas and the average frame time.
type FrameClock struct {
	now  func() time.Time
	last time.Time

	windowStart time.Time
	frames      int

	avgFrame time.Duration
}

// NewFrameClock starts a clock at the current time.
func NewFrameClock() *FrameClock {
	return newFrameClock(time.Now)
}

func newFrameClock(now func() time.Time) *FrameClock {
	t := now()
	return &FrameClock{now: now, last: t, windowStart: t}
}

// Tick ends a frame and returns its duration in seconds.
func (c *FrameClock) Tick() float64 {
	t := c.now()
	dt := t.Sub(c.last)
	c.last = t

	c.frames++
	if elapsed := t.Sub(c.windowStart); elapsed >= statsInterval {
		c.avgFrame = elapsed / time.Duration(c.frames)
		c.frames = 0
		c.windowStart = t
	}
	return dt.Seconds()
}

// AverageFrame is the mean frame time over the last full interval.
func (c *FrameClock) AverageFrame() time.Duration {
	return c.avgFrame
}

// FPS is the frame rate matching AverageFrame.
func (c *FrameClock) FPS() float64 {
	avg := c.AverageFrame()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// Stats formats the frame statistics line.
func (c *FrameClock) Stats() string {
	ms := float64(c.AverageFrame()) / float64(time.Millisecond)
	return fmt.Sprintf("Average %.3f ms/frame (%.1f FPS)", ms, c.FPS())
}
