package audio

import (
	"errors"
	"testing"
)

type mockStream struct {
	running bool
}

func (s *mockStream) Start() error {
	s.running = true
	return nil
}

func (s *mockStream) Stop() error {
	s.running = false
	return nil
}

type mockBackend struct {
	devices []Device
	built   *mockStream
}

func (b *mockBackend) ListInputDevices() ([]Device, error) {
	return b.devices, nil
}

func (b *mockBackend) DefaultInputDevice() (*Device, error) {
	if len(b.devices) == 0 {
		return nil, nil
	}
	d := b.devices[0]
	return &d, nil
}

func (b *mockBackend) BuildInputStream(device Device, onSamples SampleCallback) (Stream, error) {
	b.built = &mockStream{}
	return b.built, nil
}

// formatDispatchBackend mirrors PortAudioBackend.BuildInputStream's
// format switch without touching cgo/real hardware: it synthesizes a
// fixed raw block in the device's declared Format and feeds it through
// onSamples once Start is called on the returned stream, exercising
// the same conversion/error path production code takes.
type formatDispatchBackend struct {
	device Device
}

func (b *formatDispatchBackend) ListInputDevices() ([]Device, error) {
	return []Device{b.device}, nil
}

func (b *formatDispatchBackend) DefaultInputDevice() (*Device, error) {
	d := b.device
	return &d, nil
}

func (b *formatDispatchBackend) BuildInputStream(device Device, onSamples SampleCallback) (Stream, error) {
	switch device.Format {
	case FormatF32:
		return &dispatchStream{fire: func() { onSamples([]float32{0.5, -0.5}) }}, nil
	case FormatI16:
		return &dispatchStream{fire: func() { onSamples(ConvertI16Block([]int16{16383, -16384})) }}, nil
	case FormatU16:
		return &dispatchStream{fire: func() { onSamples(ConvertU16Block([]uint16{49152, 16384})) }}, nil
	default:
		return nil, &BackendError{Op: "build input stream", Err: ErrUnsupportedSampleFormat}
	}
}

// dispatchStream fires its converted block once on Start, the way a
// real PortAudio stream delivers its first callback.
type dispatchStream struct {
	fire func()
}

func (s *dispatchStream) Start() error {
	s.fire()
	return nil
}

func (s *dispatchStream) Stop() error { return nil }

func TestBuildInputStreamConvertsI16Block(t *testing.T) {
	backend := &formatDispatchBackend{device: Device{ID: "0:I16", Name: "I16", Format: FormatI16}}
	var got []float32
	stream, err := backend.BuildInputStream(backend.device, func(samples []float32) {
		got = samples
	})
	if err != nil {
		t.Fatalf("BuildInputStream: %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("stream.Start: %v", err)
	}

	want := []float32{NormalizeI16(16383), NormalizeI16(-16384)}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("delivered samples = %v, want %v", got, want)
	}
}

func TestBuildInputStreamConvertsU16Block(t *testing.T) {
	backend := &formatDispatchBackend{device: Device{ID: "0:U16", Name: "U16", Format: FormatU16}}
	var got []float32
	stream, err := backend.BuildInputStream(backend.device, func(samples []float32) {
		got = samples
	})
	if err != nil {
		t.Fatalf("BuildInputStream: %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("stream.Start: %v", err)
	}

	want := []float32{NormalizeU16(49152), NormalizeU16(16384)}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("delivered samples = %v, want %v", got, want)
	}
}

func TestBuildInputStreamRejectsUnsupportedFormat(t *testing.T) {
	backend := &formatDispatchBackend{device: Device{ID: "0:Weird", Name: "Weird", Format: FormatUnsupported}}
	_, err := backend.BuildInputStream(backend.device, func([]float32) {})

	var backendErr *BackendError
	if err == nil || !errors.As(err, &backendErr) {
		t.Fatalf("BuildInputStream() error = %v, want *BackendError", err)
	}
	if backendErr.Err != ErrUnsupportedSampleFormat {
		t.Errorf("BackendError.Err = %v, want ErrUnsupportedSampleFormat", backendErr.Err)
	}
}

func devices() []Device {
	return []Device{
		{ID: "0:Mock", Name: "Mock", SampleRate: 48000, Channels: 2},
		{ID: "1:Other", Name: "Other", SampleRate: 44100, Channels: 1},
	}
}

func TestCaptureSetsDefaultDeviceOnStart(t *testing.T) {
	backend := &mockBackend{devices: devices()}
	c := NewCapture(backend)
	if _, err := c.RefreshDevices(); err != nil {
		t.Fatalf("RefreshDevices: %v", err)
	}

	if err := c.Start(func([]float32) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := c.SelectedDevice()
	if got == nil || got.ID != "0:Mock" {
		t.Errorf("SelectedDevice() = %+v, want default device memoized", got)
	}
}

func TestCaptureSelectDeviceNotFound(t *testing.T) {
	backend := &mockBackend{devices: devices()}
	c := NewCapture(backend)
	c.RefreshDevices()

	if err := c.SelectDevice("missing"); err != ErrDeviceNotFound {
		t.Errorf("SelectDevice() = %v, want ErrDeviceNotFound", err)
	}
}

func TestCaptureTracksRunningState(t *testing.T) {
	backend := &mockBackend{devices: devices()}
	c := NewCapture(backend)
	c.RefreshDevices()

	if c.Running() {
		t.Fatal("Running() = true before Start")
	}
	if err := c.Start(func([]float32) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Running() {
		t.Error("Running() = false after Start")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestCaptureStartTwiceFails(t *testing.T) {
	backend := &mockBackend{devices: devices()}
	c := NewCapture(backend)
	c.RefreshDevices()
	c.Start(func([]float32) {})

	if err := c.Start(func([]float32) {}); err != ErrAlreadyRunning {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
}

func TestCaptureStopWithoutStartFails(t *testing.T) {
	backend := &mockBackend{devices: devices()}
	c := NewCapture(backend)

	if err := c.Stop(); err != ErrNotRunning {
		t.Errorf("Stop() = %v, want ErrNotRunning", err)
	}
}

func TestNormalizeI16CentersAtZero(t *testing.T) {
	if got := NormalizeI16(0); got != 0 {
		t.Errorf("NormalizeI16(0) = %v, want 0", got)
	}
	if got := NormalizeI16(32767); got < 0.999 || got > 1.0 {
		t.Errorf("NormalizeI16(32767) = %v, want ~1.0", got)
	}
}

func TestNormalizeU16CentersAtZero(t *testing.T) {
	got := NormalizeU16(32768)
	if got != 0 {
		t.Errorf("NormalizeU16(32768) = %v, want 0", got)
	}
	if NormalizeU16(0) >= 0 {
		t.Errorf("NormalizeU16(0) = %v, want negative", NormalizeU16(0))
	}
}
