// Package audio wires a device backend (real PortAudio or a test
// double) into a capture service that exposes a block callback and a
// rolling level-less stream lifecycle. Level metering itself lives in
// package ptt; this package only delivers sample blocks.
package audio

import "fmt"

// Device describes an input device as enumerated by a backend.
type Device struct {
	ID         string
	Name       string
	SampleRate float64
	Channels   int
	// Format is the sample format the backend will deliver through
	// BuildInputStream's callback. The zero value, FormatF32, matches
	// every backend/device that never sets it explicitly.
	Format SampleFormat
}

// SampleFormat is the wire shape of the samples a Backend delivers for
// a given Device: f32 passes through unchanged, i16/u16
// are converted to float32 via NormalizeI16/NormalizeU16, and anything
// else is a Backend error at stream-build time.
type SampleFormat int

const (
	FormatF32 SampleFormat = iota
	FormatI16
	FormatU16
	FormatUnsupported
)

func (f SampleFormat) String() string {
	switch f {
	case FormatF32:
		return "f32"
	case FormatI16:
		return "i16"
	case FormatU16:
		return "u16"
	default:
		return "unsupported"
	}
}

// DefaultDeviceID encodes the synthesized "use whatever the backend
// considers default" device as default:<name>.
func DefaultDeviceID(name string) string {
	return fmt.Sprintf("default:%s", name)
}

// IndexedDeviceID encodes a concrete backend device by its index.
func IndexedDeviceID(index int, name string) string {
	return fmt.Sprintf("%d:%s", index, name)
}
