//go:build !darwin

package main

import "github.com/charmbracelet/log"

// captureContextText is a no-op on platforms without the macOS
// Accessibility API: there is no portable equivalent, and the core's
// output-dispatch path works without prior text context.
func captureContextText() string {
	return ""
}

// PromptAccessibility is a no-op outside macOS, which is the only
// platform that gates keystroke injection behind an explicit permission
// dialog.
func PromptAccessibility() {}

// HideFromDock is a no-op outside macOS; other platforms' tray
// implementations don't have a dock icon to hide.
func HideFromDock() {
	log.Debug("systray: HideFromDock is a no-op on this platform")
}
