//go:build linux

package main

import (
	"github.com/charmbracelet/log"

	"github.com/quietkey/pttd/internal/hotkey"
)

// openHotkeySource auto-detects a keyboard device under /dev/input. It
// fails if the process lacks permission to read the device node (the
// common case on a fresh install before the user is added to the
// "input" group), which the caller treats as "no global hotkey" and
// falls back to the manual-toggle control surface.
func openHotkeySource() (hotkey.Source, hotkey.KeyTable) {
	src, err := hotkey.OpenKeyboard("")
	if err != nil {
		log.Warn("hotkey: no evdev source, falling back to manual toggle only", "err", err)
		return nil, hotkey.KeyTable{}
	}
	return src, hotkey.DefaultKeyTable()
}
