package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"github.com/quietkey/pttd/internal/audio"
	"github.com/quietkey/pttd/internal/output"
	"github.com/quietkey/pttd/internal/ptt"
	"github.com/quietkey/pttd/internal/transcribe"
)

//go:embed all:frontend/dist
var assets embed.FS

// initLogging opens ~/.config/pttd/pttd.log (falling back to stderr-only
// if it can't) and points charmbracelet/log at both stderr and that file.
func initLogging() (*charmlog.Logger, *os.File) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	logDir := filepath.Join(dir, "pttd")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		l := charmlog.New(os.Stderr)
		l.Warn("logging: failed to create log dir, stderr only", "err", err)
		return l, nil
	}

	logPath := filepath.Join(logDir, "pttd.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := charmlog.New(os.Stderr)
		l.Warn("logging: failed to open log file, stderr only", "err", err)
		return l, nil
	}

	l := charmlog.NewWithOptions(io.MultiWriter(os.Stderr, f), charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	charmlog.SetDefault(l)
	l.Info("=== pttd starting ===")
	return l, f
}

func modelCacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".pttd", "models")
}

// startToggleServer serves the localhost manual-toggle control surface:
// a single POST /toggle endpoint debounced to one accepted request per
// 400ms window, mirroring ptt.Runtime.ManualToggle.
func startToggleServer(r *ptt.Runtime) *http.Server {
	debounce := ptt.NewToggleDebounce(400 * time.Millisecond)
	mux := http.NewServeMux()
	mux.HandleFunc("/toggle", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !debounce.Allow(time.Now()) {
			http.Error(w, "debounced", http.StatusTooManyRequests)
			return
		}
		state, err := r.ManualToggle()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"state":%q}`, state.String())
	})

	srv := &http.Server{Addr: "127.0.0.1:38174", Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			charmlog.Error("toggle server: exited", "err", err)
		}
	}()
	return srv
}

func main() {
	log, logFile := initLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	audioBackend, err := audio.NewPortAudioBackend()
	if err != nil {
		log.Fatal("audio: failed to initialize portaudio", "err", err)
	}
	defer audioBackend.Close()

	app := NewApp()

	cfgSvc := NewConfigService()
	app.SetConfigService(cfgSvc)

	modelSvc := NewModelService(modelCacheRoot())
	app.SetModelService(modelSvc)

	transcriberFactory := ptt.NewPipelineTranscriberFactory(
		modelSvc.Manager(),
		modelSvc.Downloader(),
		transcribe.NewWhisperCppBindings(),
	)

	hkSource, keyTable := openHotkeySource()

	rt := ptt.NewRuntime(ptt.Config{
		ModelRoot:      modelCacheRoot(),
		NewTranscriber: transcriberFactory,
		AudioBackend:   audioBackend,
		HotkeySource:   hkSource,
		KeyTable:       keyTable,
		Sink:           output.NewSystemSink(),
		Events:         app,
		CaptureContext: captureContextText,
	})
	app.SetRuntime(rt)

	toggleSrv := startToggleServer(rt)
	defer toggleSrv.Close()

	app.SetHotkeyService(NewHotkeyService())

	appMenu := menu.NewMenu()
	fileMenu := appMenu.AddSubmenu("pttd")
	fileMenu.AddText("Show / Hide", keys.CmdOrCtrl(","), func(_ *menu.CallbackData) {
		app.ToggleWindow()
	})
	fileMenu.AddText("Toggle Dictation", keys.CmdOrCtrl("d"), func(_ *menu.CallbackData) {
		app.ManualToggle()
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		app.Quit()
	})

	err = wails.Run(&options.App{
		Title:     "pttd",
		Width:     360,
		Height:    420,
		MinWidth:  300,
		MinHeight: 380,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 18, G: 18, B: 18, A: 0},
		OnStartup:        app.startup,
		Bind:             []interface{}{app},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarHiddenInset(),
			Appearance:           mac.NSAppearanceNameDarkAqua,
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			About: &mac.AboutInfo{
				Title:   "pttd",
				Message: "Push-to-talk dictation, offline and local.",
			},
		},
		StartHidden:       true,
		HideWindowOnClose: true,
		Menu:              appMenu,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			app.SaveWindowPosition()
			return false
		},
		Logger:   logger.NewDefaultLogger(),
		LogLevel: logger.WARNING,
	})

	if err != nil {
		log.Fatal("wails.Run failed", "err", err, "stack", string(debug.Stack()))
	}
}
