package ptt

import (
	"sync"
	"sync/atomic"

	"github.com/quietkey/pttd/internal/audio"
	"github.com/quietkey/pttd/internal/hotkey"
)

// Capture composes audio.Capture with a gated buffer and a lossy level
// broadcast channel. Samples only land in the buffer while a Pressed
// edge for the bound action is outstanding.
type Capture struct {
	action string
	audio  *audio.Capture

	bufMu sync.Mutex
	buf   []float32

	active atomic.Bool

	meterMu sync.Mutex
	meter   *LevelMeter

	levelCh chan LevelReading
	fedOnce sync.Once
}

// NewCapture returns a Capture gated on the given action tag, driving
// samples through the given audio backend.
func NewCapture(backend audio.Backend, action string) *Capture {
	return &Capture{
		action:  action,
		audio:   audio.NewCapture(backend),
		meter:   NewLevelMeter(),
		levelCh: make(chan LevelReading, 8),
	}
}

// Audio returns the underlying audio capture for device refresh/select.
func (c *Capture) Audio() *audio.Capture {
	return c.audio
}

// Start clears the buffer, resets the meter, and begins the audio
// stream with a combined callback: meter update (always), level
// broadcast (best-effort), and gated buffer append.
func (c *Capture) Start() error {
	c.active.Store(false)

	c.bufMu.Lock()
	c.buf = nil
	c.bufMu.Unlock()

	c.meterMu.Lock()
	c.meter.Reset()
	c.meterMu.Unlock()

	return c.audio.Start(func(samples []float32) {
		c.meterMu.Lock()
		c.meter.Update(samples)
		reading := c.meter.Reading()
		c.meterMu.Unlock()

		select {
		case c.levelCh <- reading:
		default:
		}

		if c.active.Load() {
			c.bufMu.Lock()
			c.buf = append(c.buf, samples...)
			c.bufMu.Unlock()
		}
	})
}

// Stop pauses the audio stream.
func (c *Capture) Stop() error {
	c.active.Store(false)
	return c.audio.Stop()
}

// TakeAudio atomically moves out the buffer contents.
func (c *Capture) TakeAudio() []float32 {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	out := c.buf
	c.buf = nil
	return out
}

// LevelFeed yields the receiving end of the level channel. Only the
// first call returns a usable channel; subsequent calls return nil.
func (c *Capture) LevelFeed() <-chan LevelReading {
	var ch <-chan LevelReading
	c.fedOnce.Do(func() {
		ch = c.levelCh
	})
	return ch
}

// Level returns the current meter snapshot.
func (c *Capture) Level() LevelReading {
	c.meterMu.Lock()
	defer c.meterMu.Unlock()
	return c.meter.Reading()
}

// HandleAction gates the capture buffer on edges for this Capture's
// bound action. Pressed sets capture-active and clears the buffer;
// Released clears capture-active. Other actions are ignored.
func (c *Capture) HandleAction(event hotkey.ActionEvent) {
	if event.Action != c.action {
		return
	}

	switch event.State {
	case hotkey.TriggerPressed:
		c.active.Store(true)
		c.bufMu.Lock()
		c.buf = nil
		c.bufMu.Unlock()
	case hotkey.TriggerReleased:
		c.active.Store(false)
	}
}
