//go:build !linux

package main

import (
	"github.com/charmbracelet/log"

	"github.com/quietkey/pttd/internal/hotkey"
)

// openHotkeySource has no portable equivalent outside Linux; the PTT
// edge path falls back to the manual-toggle control surface there.
func openHotkeySource() (hotkey.Source, hotkey.KeyTable) {
	log.Debug("hotkey: evdev source only available on linux, manual toggle only")
	return nil, hotkey.KeyTable{}
}
