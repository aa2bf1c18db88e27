package audio

import "errors"

// ErrDeviceNotFound is returned by SelectDevice for an id not present
// in the most recent RefreshDevices result.
var ErrDeviceNotFound = errors.New("audio: device not found")

// ErrNoInputDevice is returned when no input device is available at all.
var ErrNoInputDevice = errors.New("audio: no input device available")

// ErrAlreadyRunning is returned by Start when a stream is already active.
var ErrAlreadyRunning = errors.New("audio: stream already running")

// ErrNotRunning is returned by Stop when no stream is active.
var ErrNotRunning = errors.New("audio: stream not running")

// ErrUnsupportedSampleFormat is wrapped in a BackendError by
// BuildInputStream when a device reports a sample format none of the
// backend's normalize paths cover.
var ErrUnsupportedSampleFormat = errors.New("audio: unsupported sample format")

// BackendError wraps a lower-level backend failure (device enumeration,
// stream construction, unsupported sample format).
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return "audio: " + e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
