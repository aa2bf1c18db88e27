package main

import (
	_ "embed"
	"time"

	"github.com/getlantern/systray"
)

//go:embed assets/icon-template.png
var iconBytes []byte

// StartSystray launches the system-tray icon in a background goroutine.
// It must be called AFTER Wails startup() fires so the Cocoa run loop is
// already running — calling it earlier causes a deadlock.
func StartSystray(app *App) {
	go systray.Run(
		func() { onSystrayReady(app) },
		func() { /* onExit — nothing to clean up */ },
	)
}

func onSystrayReady(app *App) {
	HideFromDock() // runs on Cocoa thread — safe to call NSApp here
	systray.SetTemplateIcon(iconBytes, iconBytes)
	systray.SetTooltip("pttd — idle")

	mToggle := systray.AddMenuItem("Show / Hide", "Toggle the pttd window")
	mPTT := systray.AddMenuItem("Toggle Dictation", "Arm/capture without a hotkey")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit pttd", "Exit the application")

	go pollTrayState(app)

	go func() {
		for {
			select {
			case <-mToggle.ClickedCh:
				app.ToggleWindow()
			case <-mPTT.ClickedCh:
				app.ManualToggle()
			case <-mQuit.ClickedCh:
				systray.Quit()
				app.Quit()
				return
			}
		}
	}()
}

// pollTrayState refreshes the tray tooltip from the runtime's last
// published PttState. Polling (rather than subscribing to the event
// bus) keeps the tray icon decoupled from the Wails event transport,
// which isn't running yet the first few ticks after startup.
func pollTrayState(app *App) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		systray.SetTooltip("pttd — " + app.CurrentState())
	}
}
