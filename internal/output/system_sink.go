package output

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	atclip "github.com/atotto/clipboard"
)

// SystemSink injects text into the focused window and copies to the
// system clipboard using whatever display protocol is active. Wayland
// sessions type the text with ydotool (clipboard mismatch between X11
// and Wayland selections makes a copy-then-paste unreliable there);
// X11 sessions copy to the clipboard and simulate Ctrl+V with xdotool.
type SystemSink struct{}

// NewSystemSink returns the production Sink.
func NewSystemSink() *SystemSink { return &SystemSink{} }

func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// Inject types text into whatever window currently has focus.
func (s *SystemSink) Inject(text string) error {
	if isWayland() {
		return typeWayland(text)
	}
	return pasteX11(text)
}

// CopyToClipboard writes text to the system clipboard without
// attempting to paste it anywhere.
func (s *SystemSink) CopyToClipboard(text string) error {
	if isWayland() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := exec.LookPath("wl-copy"); err != nil {
			return fmt.Errorf("wl-copy not found: %w", err)
		}
		if err := exec.CommandContext(ctx, "wl-copy", "--", text).Run(); err != nil {
			return fmt.Errorf("wl-copy: %w", err)
		}
		return nil
	}
	if err := atclip.WriteAll(text); err != nil {
		return fmt.Errorf("write to clipboard: %w", err)
	}
	return nil
}

func ensureYdotoold() {
	if err := exec.Command("pgrep", "-x", "ydotoold").Run(); err == nil {
		return
	}
	if _, err := exec.LookPath("ydotoold"); err != nil {
		return
	}
	cmd := exec.Command("ydotoold")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return
	}
	time.Sleep(200 * time.Millisecond)
}

func typeWayland(text string) error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install with: apt install wl-clipboard)", err)
	}
	if _, err := exec.LookPath("ydotool"); err != nil {
		return fmt.Errorf("ydotool not found: %w (install with: apt install ydotool)", err)
	}

	ensureYdotoold()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "wl-copy", "--", text).Run(); err != nil {
		return fmt.Errorf("wl-copy: %w", err)
	}
	if err := exec.CommandContext(ctx, "ydotool", "key", "--delay", "0", "ctrl+v").Run(); err != nil {
		return fmt.Errorf("ydotool key ctrl+v: %w", err)
	}

	time.Sleep(100 * time.Millisecond)
	exec.CommandContext(ctx, "wl-copy", "--clear").Run()
	return nil
}

func pasteX11(text string) error {
	if _, err := exec.LookPath("xdotool"); err != nil {
		return fmt.Errorf("xdotool not found: %w (install with: apt install xdotool)", err)
	}
	if err := atclip.WriteAll(text); err != nil {
		return fmt.Errorf("write to clipboard: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "xdotool", "key", "ctrl+v").Run(); err != nil {
		return fmt.Errorf("xdotool paste: %w", err)
	}

	time.Sleep(100 * time.Millisecond)
	atclip.WriteAll("")
	return nil
}
