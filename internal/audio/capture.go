package audio

import "sync"

// SampleCallback receives one block of interleaved f32 samples from the
// backend's realtime audio thread. It MUST be non-blocking and quick.
type SampleCallback func(samples []float32)

// Stream is a running (or pausable) input stream built by a Backend.
type Stream interface {
	Start() error
	Stop() error
}

// Backend abstracts device enumeration and stream construction so real
// hardware (PortAudio) can be swapped for a test double.
type Backend interface {
	ListInputDevices() ([]Device, error)
	DefaultInputDevice() (*Device, error)
	BuildInputStream(device Device, onSamples SampleCallback) (Stream, error)
}

// Capture owns device selection and the lifecycle of a single input
// stream. It does not interpret the samples it delivers — callers
// (package ptt) layer level metering and gated buffering on top.
type Capture struct {
	backend Backend

	mu       sync.Mutex
	devices  []Device
	selected *Device
	stream   Stream
	running  bool
}

// NewCapture returns a Capture driven by backend.
func NewCapture(backend Backend) *Capture {
	return &Capture{backend: backend}
}

// RefreshDevices re-enumerates backend inputs.
func (c *Capture) RefreshDevices() ([]Device, error) {
	devices, err := c.backend.ListInputDevices()
	if err != nil {
		return nil, &BackendError{Op: "list input devices", Err: err}
	}

	c.mu.Lock()
	c.devices = devices
	c.mu.Unlock()
	return devices, nil
}

// SelectDevice selects a device by id from the most recent
// RefreshDevices result. id may be "default" to defer to the backend's
// default device, resolved lazily at Start.
func (c *Capture) SelectDevice(id string) error {
	if id == "" || id == "default" {
		c.mu.Lock()
		c.selected = nil
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.devices {
		if c.devices[i].ID == id {
			d := c.devices[i]
			c.selected = &d
			return nil
		}
	}
	return ErrDeviceNotFound
}

// Start builds and plays an input stream, invoking onSamples for every
// delivered block. If no device was selected, the backend's default is
// used and memoized as the selected device.
func (c *Capture) Start(onSamples SampleCallback) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}

	device := c.selected
	c.mu.Unlock()

	if device == nil {
		def, err := c.backend.DefaultInputDevice()
		if err != nil {
			return &BackendError{Op: "default input device", Err: err}
		}
		if def == nil {
			return ErrNoInputDevice
		}
		device = def
	}

	stream, err := c.backend.BuildInputStream(*device, onSamples)
	if err != nil {
		return &BackendError{Op: "build input stream", Err: err}
	}
	if err := stream.Start(); err != nil {
		return &BackendError{Op: "start stream", Err: err}
	}

	c.mu.Lock()
	c.stream = stream
	c.selected = device
	c.running = true
	c.mu.Unlock()
	return nil
}

// Stop pauses the active stream.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	stream := c.stream
	c.running = false
	c.mu.Unlock()

	if err := stream.Stop(); err != nil {
		return &BackendError{Op: "stop stream", Err: err}
	}
	return nil
}

// Running reports whether a stream is currently active.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SelectedDevice returns the device memoized by the last Start call, if any.
func (c *Capture) SelectedDevice() *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// NormalizeI16 converts a signed 16-bit sample to the [-1, 1] f32 range.
func NormalizeI16(sample int16) float32 {
	const int16Max = 32767
	return float32(sample) / int16Max
}

// NormalizeU16 converts an unsigned 16-bit sample to the [-1, 1] f32
// range, centering at the midpoint the way the backend's unsigned PCM
// format does.
func NormalizeU16(sample uint16) float32 {
	const mid = float32(65536 / 2)
	return (float32(sample) - mid) / mid
}

// ConvertI16Block normalizes a whole block of signed 16-bit samples,
// the shape a Backend delivers for a FormatI16 Device.
func ConvertI16Block(block []int16) []float32 {
	out := make([]float32, len(block))
	for i, s := range block {
		out[i] = NormalizeI16(s)
	}
	return out
}

// ConvertU16Block normalizes a whole block of unsigned 16-bit samples,
// the shape a Backend delivers for a FormatU16 Device.
func ConvertU16Block(block []uint16) []float32 {
	out := make([]float32, len(block))
	for i, s := range block {
		out[i] = NormalizeU16(s)
	}
	return out
}
