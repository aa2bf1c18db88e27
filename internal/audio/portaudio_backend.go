package audio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// ErrMicPermissionDenied is returned when the OS has denied microphone access.
var ErrMicPermissionDenied = errors.New("microphone access denied — enable microphone permission for this app")

const framesPerBuffer = 512

// portaudioStream adapts an open *portaudio.Stream to the Stream interface.
type portaudioStream struct {
	stream *portaudio.Stream
}

func (s *portaudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start stream: %w", err)
	}
	return nil
}

func (s *portaudioStream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("portaudio: stop stream: %w", err)
	}
	return s.stream.Close()
}

// PortAudioBackend wraps github.com/gordonklaus/portaudio for production use.
type PortAudioBackend struct{}

// NewPortAudioBackend initializes the PortAudio runtime.
func NewPortAudioBackend() (*PortAudioBackend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &PortAudioBackend{}, nil
}

// Close terminates the PortAudio runtime. Call once at process shutdown.
func (b *PortAudioBackend) Close() error {
	return portaudio.Terminate()
}

func (b *PortAudioBackend) ListInputDevices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	var devices []Device
	for i, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, Device{
			ID:         IndexedDeviceID(i, info.Name),
			Name:       info.Name,
			SampleRate: info.DefaultSampleRate,
			Channels:   info.MaxInputChannels,
			Format:     nativeSampleFormat(info),
		})
	}
	return devices, nil
}

func (b *PortAudioBackend) DefaultInputDevice() (*Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("default input device: %w", err)
	}
	if info == nil {
		return nil, nil
	}
	return &Device{
		ID:         DefaultDeviceID(info.Name),
		Name:       info.Name,
		SampleRate: info.DefaultSampleRate,
		Channels:   info.MaxInputChannels,
		Format:     nativeSampleFormat(info),
	}, nil
}

// nativeSampleFormat maps a device's host API family to the sample
// format its driver actually hands back. CoreAudio/ALSA/JACK give us
// f32 natively; the Windows-family APIs (MME/DirectSound/WDMKS/WASAPI)
// hand back i16 PCM; OSS is u16. Anything else we haven't grounded a
// conversion for is reported unsupported rather than guessed at.
func nativeSampleFormat(info *portaudio.DeviceInfo) SampleFormat {
	if info.HostApi == nil {
		return FormatF32
	}
	switch info.HostApi.Type {
	case portaudio.CoreAudio, portaudio.ALSA, portaudio.JACK:
		return FormatF32
	case portaudio.MME, portaudio.DirectSound, portaudio.WDMKS, portaudio.WASAPI:
		return FormatI16
	case portaudio.OSS:
		return FormatU16
	default:
		return FormatUnsupported
	}
}

// deviceInfo resolves a Device's id back to the live portaudio device
// it was enumerated from: "default:<name>" is the backend default,
// "<index>:<name>" indexes into the current device list.
func (b *PortAudioBackend) deviceInfo(device Device) (*portaudio.DeviceInfo, error) {
	if strings.HasPrefix(device.ID, "default:") {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return info, nil
	}

	idxStr, _, _ := strings.Cut(device.ID, ":")
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, fmt.Errorf("malformed device id %q", device.ID)
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if idx < 0 || idx >= len(infos) {
		return nil, fmt.Errorf("device id %q out of range", device.ID)
	}
	return infos[idx], nil
}

func (b *PortAudioBackend) BuildInputStream(device Device, onSamples SampleCallback) (Stream, error) {
	channels := device.Channels
	if channels <= 0 {
		channels = 1
	}

	info, err := b.deviceInfo(device)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      device.SampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	var stream *portaudio.Stream
	switch device.Format {
	case FormatF32:
		stream, err = portaudio.OpenStream(params, func(in []float32) {
			block := make([]float32, len(in))
			copy(block, in)
			onSamples(block)
		})
	case FormatI16:
		stream, err = portaudio.OpenStream(params, func(in []int16) {
			onSamples(ConvertI16Block(in))
		})
	case FormatU16:
		stream, err = portaudio.OpenStream(params, func(in []uint16) {
			onSamples(ConvertU16Block(in))
		})
	default:
		return nil, &BackendError{Op: "build input stream", Err: ErrUnsupportedSampleFormat}
	}
	if err != nil {
		if isPermissionDenied(err) {
			return nil, ErrMicPermissionDenied
		}
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	return &portaudioStream{stream: stream}, nil
}

func isPermissionDenied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "denied") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "device unavailable")
}
