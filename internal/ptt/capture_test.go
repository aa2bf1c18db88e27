package ptt

import (
	"testing"
	"time"

	"github.com/quietkey/pttd/internal/audio"
	"github.com/quietkey/pttd/internal/hotkey"
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
	onSamples audio.SampleCallback
	stream    *mockStream
}

func (b *mockBackend) ListInputDevices() ([]audio.Device, error) {
	return []audio.Device{{ID: "0:Mock", Name: "Mock", SampleRate: 48000, Channels: 1}}, nil
}

func (b *mockBackend) DefaultInputDevice() (*audio.Device, error) {
	return &audio.Device{ID: "0:Mock", Name: "Mock", SampleRate: 48000, Channels: 1}, nil
}

func (b *mockBackend) BuildInputStream(device audio.Device, onSamples audio.SampleCallback) (audio.Stream, error) {
	b.onSamples = onSamples
	b.stream = &mockStream{}
	return b.stream, nil
}

func (b *mockBackend) push(samples []float32) {
	if b.stream == nil || !b.stream.running {
		return
	}
	b.onSamples(samples)
}

func TestPTTCaptureBuffersSamplesWhenActive(t *testing.T) {
	backend := &mockBackend{}
	c := NewCapture(backend, "ptt")
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	backend.push([]float32{0.1, 0.2})
	if got := c.TakeAudio(); len(got) != 0 {
		t.Errorf("TakeAudio() before Pressed = %v, want empty", got)
	}

	c.HandleAction(hotkey.ActionEvent{Action: "ptt", State: hotkey.TriggerPressed})
	backend.push([]float32{0.25, -0.25, 0.5})

	got := c.TakeAudio()
	want := []float32{0.25, -0.25, 0.5}
	if len(got) != len(want) {
		t.Fatalf("TakeAudio() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TakeAudio()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	c.HandleAction(hotkey.ActionEvent{Action: "ptt", State: hotkey.TriggerReleased})
	backend.push([]float32{0.3})
	if got := c.TakeAudio(); len(got) != 0 {
		t.Errorf("TakeAudio() after Released = %v, want empty", got)
	}
}

func TestPTTCaptureEmitsLevelUpdates(t *testing.T) {
	backend := &mockBackend{}
	c := NewCapture(backend, "ptt")
	feed := c.LevelFeed()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	backend.push([]float32{0.5, -0.5})

	select {
	case reading := <-feed:
		if reading.Peak <= 0 {
			t.Errorf("reading.Peak = %v, want > 0", reading.Peak)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for level reading")
	}
}

func TestPTTCaptureIgnoresUnrelatedActions(t *testing.T) {
	backend := &mockBackend{}
	c := NewCapture(backend, "ptt")
	c.Start()

	c.HandleAction(hotkey.ActionEvent{Action: "other", State: hotkey.TriggerPressed})
	backend.push([]float32{0.9})

	if got := c.TakeAudio(); len(got) != 0 {
		t.Errorf("TakeAudio() = %v, want empty (action mismatch ignored)", got)
	}
}

func TestPTTCaptureLevelFeedOnlyYieldsOnce(t *testing.T) {
	backend := &mockBackend{}
	c := NewCapture(backend, "ptt")

	first := c.LevelFeed()
	second := c.LevelFeed()

	if first == nil {
		t.Error("first LevelFeed() = nil, want a channel")
	}
	if second != nil {
		t.Error("second LevelFeed() != nil, want nil (feed already taken)")
	}
}
