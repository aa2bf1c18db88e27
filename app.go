package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/quietkey/pttd/internal/hotkey"
	"github.com/quietkey/pttd/internal/ptt"
)

// App binds the PTT runtime to the Wails webview shell: it owns no PTT
// state itself, only the handful of app-shell concerns the core is
// deliberately silent on (window chrome, login items, config
// persistence, tray window-toggle accelerator) and projects the
// runtime's published events onto the embedded frontend's event bus.
type App struct {
	mu        sync.RWMutex
	ctx       context.Context
	startupCh chan struct{}
	once      sync.Once

	runtime    *ptt.Runtime
	config     *ConfigService
	model      *ModelService
	loginItems *LoginItemService
	hotkeys    hotkeyStarter // tray show/hide accelerator only, not the PTT edge path

	systrayOnce   sync.Once
	windowVisible bool
}

// hotkeyStarter is the minimal interface App needs from HotkeyService.
type hotkeyStarter interface {
	Start(ctx context.Context, combo string, onTrigger func()) error
	Reregister(combo string) error
	Combo() string
	IsRegistered() bool
}

// NewApp creates the App shell. The PTT runtime and its dependencies
// are injected by main.go via SetRuntime before wails.Run(), keeping
// CGo/hardware goroutines out of unit tests entirely.
func NewApp() *App {
	svc, err := NewLoginItemService()
	if err != nil {
		log.Warn("login item service unavailable", "err", err)
	}
	return &App{
		startupCh:  make(chan struct{}),
		loginItems: svc,
	}
}

// SetRuntime injects the PTT runtime (called by main.go before wails.Run).
func (a *App) SetRuntime(r *ptt.Runtime) { a.runtime = r }

// SetConfigService injects config persistence (called by main.go before wails.Run).
func (a *App) SetConfigService(cs *ConfigService) { a.config = cs }

// SetModelService injects the model download/status service (called by main.go before wails.Run).
func (a *App) SetModelService(ms *ModelService) { a.model = ms }

// SetHotkeyService injects the tray window-toggle accelerator (called by main.go before wails.Run).
func (a *App) SetHotkeyService(hs hotkeyStarter) { a.hotkeys = hs }

// startup is called by Wails once the runtime is ready. It restores
// window position, starts the tray icon, and arms the PTT runtime with
// the persisted settings and active model.
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	a.once.Do(func() { close(a.startupCh) })

	cfg := defaultConfig()
	if a.config != nil {
		cfg = a.config.Load()
		if cfg.WindowX != 0 || cfg.WindowY != 0 {
			runtime.WindowSetPosition(ctx, cfg.WindowX, cfg.WindowY)
		}
	}

	if a.model != nil {
		a.model.SetContext(ctx)
	}

	a.systrayOnce.Do(func() { go StartSystray(a) })
	PromptAccessibility()

	if a.hotkeys != nil {
		combo := a.hotkeys.Combo()
		if err := a.hotkeys.Start(ctx, combo, a.ToggleWindow); err != nil {
			log.Warn("tray accelerator: failed to register", "combo", combo, "err", err)
		}
	}

	if a.runtime != nil {
		payload := hotkey.Payload{Key: cfg.HotkeyKey, Ctrl: cfg.Ctrl, Alt: cfg.Alt, Shift: cfg.Shift, Meta: cfg.Meta}
		if payload.Key != "" {
			if _, err := a.runtime.SetHotkey(payload); err != nil {
				log.Warn("ptt: failed to apply persisted hotkey, keeping default", "err", err)
			}
		}
		if _, err := a.runtime.Start(cfg.Settings(), cfg.Model); err != nil {
			log.Error("ptt: failed to arm runtime", "err", err)
		}
	}
}

// waitForStartup blocks until Wails has initialised (startup() has been called).
func (a *App) waitForStartup() context.Context {
	<-a.startupCh
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

// PublishState implements ptt.EventSink.
func (a *App) PublishState(e ptt.StateEvent) {
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, "ptt_state", map[string]any{"state": e.State.String(), "message": e.Message})
}

// PublishLevel implements ptt.EventSink.
func (a *App) PublishLevel(reading ptt.LevelReading) {
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, "ptt_level", reading)
}

// PublishTranscription implements ptt.EventSink.
func (a *App) PublishTranscription(text string) {
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, "ptt_transcription", text)
}

// PublishError implements ptt.EventSink.
func (a *App) PublishError(message string) {
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	log.Warn("ptt: error event", "message", message)
	runtime.EventsEmit(ctx, "ptt_error", message)
}

// PublishModelStatus implements ptt.EventSink.
func (a *App) PublishModelStatus(payload ptt.ModelStatusPayload) {
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, "model-download-status", payload)
}

func (a *App) boundCtx() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

// ManualToggle is the localhost control surface's in-process counterpart,
// exposed to the frontend as a button for users without a working global
// hotkey (e.g. a Wayland session with no evdev permission).
func (a *App) ManualToggle() (string, error) {
	if a.runtime == nil {
		return "", fmt.Errorf("ptt runtime not available")
	}
	state, err := a.runtime.ManualToggle()
	return state.String(), err
}

// GetConfig returns the current persisted configuration.
func (a *App) GetConfig() Config {
	if a.config == nil {
		return defaultConfig()
	}
	return a.config.Load()
}

// UpdateSettings persists the given settings and applies them to the
// running PTT runtime immediately.
func (a *App) UpdateSettings(cfg Config) error {
	if a.runtime != nil {
		a.runtime.UpdateSettings(cfg.Settings())
	}
	if a.config == nil {
		return nil
	}
	return a.config.Save(cfg)
}

// SetModel switches the active transcription model and persists the change.
func (a *App) SetModel(model string) error {
	if a.runtime != nil {
		a.runtime.SetActiveModel(model)
	}
	if a.config == nil {
		return nil
	}
	cfg := a.config.Load()
	cfg.Model = model
	return a.config.Save(cfg)
}

// GetModelStatuses returns the download status of each known model.
func (a *App) GetModelStatuses() map[string]string {
	if a.model == nil {
		return map[string]string{}
	}
	return a.model.GetModelStatuses()
}

// DownloadModel starts a background download of the named model.
func (a *App) DownloadModel(name string) error {
	if a.model == nil {
		return fmt.Errorf("model service not available")
	}
	return a.model.DownloadModel(name)
}

// GetHotkey returns the persisted hotkey combo.
func (a *App) GetHotkey() hotkey.Payload {
	if a.config == nil {
		return hotkey.DefaultPayload()
	}
	cfg := a.config.Load()
	return hotkey.Payload{Key: cfg.HotkeyKey, Ctrl: cfg.Ctrl, Alt: cfg.Alt, Shift: cfg.Shift, Meta: cfg.Meta}
}

// SetHotkey changes the PTT hotkey binding and persists it.
func (a *App) SetHotkey(payload hotkey.Payload) error {
	if a.runtime == nil {
		return fmt.Errorf("ptt runtime not available")
	}
	applied, err := a.runtime.SetHotkey(payload)
	if err != nil {
		a.PublishError(err.Error())
		return err
	}
	if a.config == nil {
		return nil
	}
	cfg := a.config.Load()
	cfg.HotkeyKey, cfg.Ctrl, cfg.Alt, cfg.Shift, cfg.Meta = applied.Key, applied.Ctrl, applied.Alt, applied.Shift, applied.Meta
	return a.config.Save(cfg)
}

// ShowWindow shows the main settings window.
func (a *App) ShowWindow() {
	go func() {
		ctx := a.waitForStartup()
		runtime.WindowShow(ctx)
		a.mu.Lock()
		a.windowVisible = true
		a.mu.Unlock()
	}()
}

// ToggleWindow shows the window if hidden, or hides it if visible.
func (a *App) ToggleWindow() {
	go func() {
		ctx := a.waitForStartup()
		a.mu.Lock()
		if a.windowVisible {
			runtime.WindowHide(ctx)
			a.windowVisible = false
		} else {
			runtime.WindowShow(ctx)
			a.windowVisible = true
		}
		a.mu.Unlock()
	}()
}

// Quit exits the application, stopping the PTT runtime first so the
// audio stream and hotkey listener shut down cleanly before process exit.
func (a *App) Quit() {
	go func() {
		ctx := a.waitForStartup()
		if hs, ok := a.hotkeys.(*HotkeyService); ok {
			hs.Stop()
		}
		if a.runtime != nil {
			a.runtime.Close()
		}
		<-time.After(50 * time.Millisecond)
		runtime.Quit(ctx)
	}()
}

// SaveWindowPosition persists the current window X/Y to config so it can be
// restored on the next launch. Called from OnBeforeClose in main.go.
func (a *App) SaveWindowPosition() {
	if a.config == nil {
		return
	}
	ctx := a.boundCtx()
	if ctx == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("config: recovered panic in SaveWindowPosition", "recover", r)
		}
	}()
	x, y := runtime.WindowGetPosition(ctx)
	cfg := a.config.Load()
	cfg.WindowX = x
	cfg.WindowY = y
	if err := a.config.Save(cfg); err != nil {
		log.Warn("config: failed to save window position", "err", err)
	}
}

// GetHotkeyStatus returns the tray accelerator's registration status.
func (a *App) GetHotkeyStatus() string {
	if a.hotkeys != nil && a.hotkeys.IsRegistered() {
		return "registered"
	}
	return "unregistered"
}

// GetLaunchAtLogin reports whether the app is registered as a login item.
func (a *App) GetLaunchAtLogin() bool {
	if a.loginItems == nil {
		return false
	}
	return a.loginItems.IsEnabled()
}

// SetLaunchAtLogin enables or disables the launch-at-login login item.
func (a *App) SetLaunchAtLogin(enabled bool) error {
	if a.loginItems == nil {
		return nil
	}
	if enabled {
		execPath, err := os.Executable()
		if err != nil {
			return err
		}
		return a.loginItems.Enable(execPath)
	}
	return a.loginItems.Disable()
}

// OpenSystemSettings opens the OS privacy pane for microphone/accessibility
// permissions. macOS only; a no-op elsewhere.
func (a *App) OpenSystemSettings() error {
	if _, err := exec.LookPath("open"); err != nil {
		return nil
	}
	return exec.Command("open",
		"x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone",
	).Run()
}

// CurrentState returns the last-published PTT state, for a settings window
// that opens after the fact and needs to paint the right icon immediately.
func (a *App) CurrentState() string {
	if a.runtime == nil {
		return ptt.StateIdle.String()
	}
	return a.runtime.CurrentState().State.String()
}
