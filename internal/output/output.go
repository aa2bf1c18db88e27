// Package output dispatches a finished transcript to the configured
// output sink: UI-only (no system side effect), clipboard, or direct
// keystroke injection with a clipboard fallback on failure.
package output

import (
	"fmt"
)

// Mode selects how a transcript reaches the user, per the wire
// grammar's output_mode field.
type Mode string

const (
	ModeUIOnly      Mode = "ui_only"
	ModeClipboard   Mode = "clipboard"
	ModeDirectWrite Mode = "direct_write"
)

// Sink abstracts the two system-level strategies so tests can swap in
// a fake without touching the clipboard or an input device.
type Sink interface {
	Inject(text string) error
	CopyToClipboard(text string) error
}

// Result describes what actually happened after Dispatch ran.
type Result struct {
	Mode            Mode
	FellBackToClip  bool
	Warning         string
}

// Dispatch sends text through the sink according to mode. ui_only is a
// no-op (the caller still publishes the transcription event). A
// direct_write failure falls back to clipboard and the returned
// Result carries a warning describing what happened; the transcript is
// never dropped even when the output mechanism fails.
func Dispatch(sink Sink, mode Mode, text string) (Result, error) {
	result := Result{Mode: mode}
	if text == "" {
		return result, nil
	}

	switch mode {
	case ModeUIOnly:
		return result, nil

	case ModeClipboard:
		if err := sink.CopyToClipboard(text); err != nil {
			return result, fmt.Errorf("clipboard: %w", err)
		}
		return result, nil

	case ModeDirectWrite:
		if err := sink.Inject(text); err == nil {
			return result, nil
		}
		if err := sink.CopyToClipboard(text); err != nil {
			return result, fmt.Errorf("direct write failed and clipboard fallback also failed: %w", err)
		}
		result.FellBackToClip = true
		result.Warning = "direct write unavailable; copied to clipboard instead"
		return result, nil

	default:
		return result, fmt.Errorf("unknown output mode %q", mode)
	}
}
