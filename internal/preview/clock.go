package preview

import (
	"errors"
	"fmt"
	"sync"

	"clipstudio/internal/geom"
)

// MediaClock is the playable source media. Its own position is the ground
// truth for playback.
type MediaClock interface {
	CurrentTime() float64
	Seek(t float64) error
	Play() error
	Pause() error
	Paused() bool
}

// RateSetter is implemented by clocks that can play faster or slower than
// real time. The driver sets the rate to the active clip's speed.
type RateSetter interface {
	SetRate(rate float64) error
}

var errNoMedia = errors.New("media has no duration")

// SimClock is a virtual media element. It only moves when Advance is
// called, which makes playback reproducible for dry runs and tests.
type SimClock struct {
	mu       sync.Mutex
	duration float64
	pos      float64
	paused   bool
	rate     float64
	seeks    int
}

// NewSimClock returns a paused clock over media of the given length.
func NewSimClock(duration float64) *SimClock {
	return &SimClock{duration: duration, paused: true, rate: 1}
}

func (c *SimClock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *SimClock) Seek(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.duration <= 0 {
		return errNoMedia
	}
	c.pos = geom.Clamp(t, 0, c.duration)
	c.seeks++
	return nil
}

func (c *SimClock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.duration <= 0 {
		return errNoMedia
	}
	c.paused = false
	return nil
}

func (c *SimClock) Pause() error {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	return nil
}

func (c *SimClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *SimClock) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	c.mu.Lock()
	c.rate = rate
	c.mu.Unlock()
	return nil
}

// Advance plays dt seconds of wall time at the current rate. The clock
// pauses itself at the end of the media.
func (c *SimClock) Advance(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || dt <= 0 {
		return
	}
	c.pos += dt * c.rate
	if c.pos >= c.duration {
		c.pos = c.duration
		c.paused = true
	}
}

// Seeks counts Seek calls.
func (c *SimClock) Seeks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seeks
}
