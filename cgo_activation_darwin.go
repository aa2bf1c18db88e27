//go:build darwin

package main

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices
#import <AppKit/AppKit.h>
#import <ApplicationServices/ApplicationServices.h>

// hideFromDock sets the process activation policy to Accessory, which
// removes the Dock icon and Task Switcher entry. Safe to call only after
// the Cocoa run loop is running (i.e. from startup()).
void hideFromDock() {
    if ([NSApp isRunning]) {
        [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
    }
}

// promptAccessibility triggers the OS accessibility-permission dialog (if
// not already granted) without blocking on the user's response.
void promptAccessibility() {
    NSDictionary *opts = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)opts);
}
*/
import "C"

import "github.com/charmbracelet/log"

// HideFromDock removes the app's Dock icon at runtime. No-op (recovered)
// if called before the Cocoa run loop is running, e.g. in tests.
func HideFromDock() {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("cgo_activation: HideFromDock skipped, no run loop", "recover", r)
		}
	}()
	C.hideFromDock()
}

// PromptAccessibility shows the macOS Accessibility permission dialog if
// the app hasn't been granted it yet, so direct keystroke injection
// doesn't silently fail later on the first hotkey press.
func PromptAccessibility() {
	C.promptAccessibility()
}
