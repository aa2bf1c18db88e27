// Package ptt is the push-to-talk runtime: the owning state machine
// that gates audio capture on a hotkey, drives transcription, and
// dispatches the result through an output sink. It also hosts the
// lock-minimal level-metering/gated-capture pipeline (Capture,
// LevelMeter) and the 16kHz-mono resample stage that sit between
// audio capture and transcription.
package ptt

import (
	"fmt"
	"sync"
	"time"

	"github.com/quietkey/pttd/internal/audio"
	"github.com/quietkey/pttd/internal/hotkey"
	"github.com/quietkey/pttd/internal/modelcache"
	"github.com/quietkey/pttd/internal/output"
	"github.com/quietkey/pttd/internal/transcribe"
)

// pttAction is the action tag the runtime registers its hotkey under,
// on both triggers.
const pttAction = "ptt"

// State is one value of the PTT state machine.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateCapturing
	StateProcessing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateCapturing:
		return "capturing"
	case StateProcessing:
		return "processing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateEvent is a published ptt_state payload: the state plus, for
// StateError, the message that accompanies it.
type StateEvent struct {
	State   State
	Message string
}

// EventSink is the (external, out-of-scope) UI event transport the
// runtime publishes to. Production code backs this with the embedded
// frontend's event bus; tests use a recording fake.
type EventSink interface {
	PublishState(StateEvent)
	PublishLevel(LevelReading)
	PublishTranscription(text string)
	PublishError(message string)
	PublishModelStatus(ModelStatusPayload)
}

// Transcriber turns a finished capture buffer into text. Production
// code gets one from a TranscriberFactory wired to the model cache and
// whisper.cpp bindings; tests supply a fixed-output fake.
type Transcriber interface {
	Transcribe(audio []float32) (string, error)
}

// PromptHintTranscriber is an optional capability of a Transcriber: one
// that can take a whisper-style initial-prompt hint, seeded from text
// captured from the focused window right as recording started. Plain
// Transcribers (including tests' fixed-output fakes) don't need it;
// runTranscription falls back to plain Transcribe when a Transcriber
// doesn't implement it.
type PromptHintTranscriber interface {
	TranscribeWithHint(audio []float32, hint string) (string, error)
}

// TranscriberFactory builds a Transcriber bound to modelID. The
// runtime calls it once per SetActiveModel / initial Start.
type TranscriberFactory func(modelID modelcache.ID) Transcriber

type pipelineTranscriber struct {
	pipeline *transcribe.Pipeline
	modelID  modelcache.ID
}

func (t *pipelineTranscriber) Transcribe(audio []float32) (string, error) {
	return t.pipeline.Transcribe(t.modelID, audio)
}

func (t *pipelineTranscriber) TranscribeWithHint(audio []float32, hint string) (string, error) {
	return t.pipeline.TranscribeWithPrompt(t.modelID, audio, hint)
}

// NewPipelineTranscriberFactory adapts a single shared transcribe.Pipeline
// (model cache + downloader + whisper.cpp bindings) into a
// TranscriberFactory, one instance per active model id. Unavailable
// bindings are swallowed into empty text so the runtime can surface
// "no speech detected" instead of an Error state.
func NewPipelineTranscriberFactory(models *modelcache.Manager, downloader modelcache.Downloader, bindings transcribe.Bindings) TranscriberFactory {
	pipeline := transcribe.NewPipeline(models, downloader, bindings)
	pipeline.SwallowUnavailable(true)
	return func(modelID modelcache.ID) Transcriber {
		return &pipelineTranscriber{pipeline: pipeline, modelID: modelID}
	}
}

// Config bundles everything a Runtime needs to own: its audio backend,
// an optional hotkey source (nil disables the global listener, as
// tests and Wayland sessions do), the model cache root used to derive
// status snapshots, and the output sink/event transport.
type Config struct {
	ModelRoot      string
	NewTranscriber TranscriberFactory
	AudioBackend   audio.Backend
	HotkeySource   hotkey.Source
	KeyTable       hotkey.KeyTable
	Sink           output.Sink
	Events         EventSink
	PollInterval   time.Duration // default 50ms

	// CaptureContext, if set, is called on the Pressed edge to read text
	// from whatever's focused (e.g. the tail of the focused text field in
	// the active window) so it can seed the transcriber's initial-prompt
	// hint. Optional: nil means no hint is ever captured.
	CaptureContext func() string
}

type cmdResult struct {
	state State
	err   error
}

type transcriptionWork struct {
	audio      []float32
	promptHint string
}

// transcriptSuppressionHint is appended to every prompt hint: it nudges
// whisper toward a clean transcript instead of echoing filler words or
// stutters verbatim.
const transcriptSuppressionHint = " Here is a clean, grammatically correct transcript without filler words or stutters:"

// buildPromptHint folds captured window context (possibly empty) and
// the suppression instruction into the single hint string passed to
// the transcriber.
func buildPromptHint(context string) string {
	if context == "" {
		return transcriptSuppressionHint
	}
	return context + transcriptSuppressionHint
}

// Runtime is the single-owner PTT state machine. All
// mutable state is touched only on its owning goroutine; external
// callers submit work through Start/Stop/... which enqueue a closure
// onto cmdCh and block on a reply.
type Runtime struct {
	cfg   Config
	cmdCh chan func()

	capture       *Capture
	hotkeyManager *hotkey.Manager
	listener      *hotkey.Listener
	hotkeyEvents  <-chan hotkey.ActionEvent
	levelFeed     <-chan LevelReading

	runtimeStarted bool
	armed          bool
	state          State
	stateMessage   string
	currentHotkey  hotkey.Hotkey
	settings       Settings
	activeModel    string
	transcriber    Transcriber
	overrides      *overrideStore
	pendingHint    string

	publishedMu sync.Mutex
	published   StateEvent
}

// NewRuntime builds a Runtime and starts its owning goroutine. The
// hotkey registered before the first SetHotkey call is the grammar's
// default (space + ctrl+alt).
func NewRuntime(cfg Config) *Runtime {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}

	r := &Runtime{
		cfg:           cfg,
		cmdCh:         make(chan func(), 16),
		hotkeyManager: hotkey.NewManager(),
		overrides:     newOverrideStore(),
		settings:      DefaultSettings(),
		state:         StateIdle,
		capture:       NewCapture(cfg.AudioBackend, pttAction),
	}

	defaultHotkey, err := hotkey.DefaultPayload().ToHotkey()
	if err != nil {
		// DefaultPayload is a grammar-valid constant; this cannot fail.
		panic(fmt.Sprintf("ptt: default hotkey payload invalid: %s", err))
	}
	r.currentHotkey = defaultHotkey
	registerHotkeyBinding(r.hotkeyManager, defaultHotkey)
	r.setActiveModelLocked("")

	go r.loop()
	return r
}

func registerHotkeyBinding(manager *hotkey.Manager, hk hotkey.Hotkey) {
	manager.RegisterWithTrigger(hk, hotkey.TriggerPressed, pttAction)
	manager.RegisterWithTrigger(hk, hotkey.TriggerReleased, pttAction)
}

func (r *Runtime) loop() {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd, ok := <-r.cmdCh:
			if !ok {
				return
			}
			cmd()
		case <-ticker.C:
			r.pollHotkeyEvents()
			r.pollLevelReadings()
		}
	}
}

// Close stops the audio stream and hotkey listener (if running) and
// shuts down the owning goroutine. Safe to call once.
func (r *Runtime) Close() {
	done := make(chan struct{})
	r.cmdCh <- func() {
		if r.listener != nil {
			r.listener.Stop()
		}
		if r.capture.Audio().Running() {
			_ = r.capture.Stop()
		}
		close(done)
	}
	<-done
	close(r.cmdCh)
}

// CurrentState returns the last published ptt_state event. Safe to
// call from any goroutine.
func (r *Runtime) CurrentState() StateEvent {
	r.publishedMu.Lock()
	defer r.publishedMu.Unlock()
	return r.published
}

// Start transitions Idle -> Armed: ensures the hotkey listener/level
// feed are wired up, then arms with the given settings and model.
func (r *Runtime) Start(settings Settings, activeModel string) (State, error) {
	reply := make(chan cmdResult, 1)
	r.cmdCh <- func() {
		if err := r.ensureRuntimeStarted(); err != nil {
			reply <- cmdResult{state: r.state, err: err}
			return
		}
		state, err := r.arm(settings, activeModel)
		reply <- cmdResult{state: state, err: err}
	}
	res := <-reply
	return res.state, res.err
}

// Stop unconditionally stops the audio stream (if running), clears
// the armed flag, and transitions to Idle.
func (r *Runtime) Stop() State {
	reply := make(chan cmdResult, 1)
	r.cmdCh <- func() {
		r.armed = false
		if r.capture.Audio().Running() {
			_ = r.capture.Stop()
		}
		r.setState(StateIdle, "")
		reply <- cmdResult{state: r.state}
	}
	return (<-reply).state
}

// SetHotkey validates payload, unregisters the current hotkey (both
// triggers), and registers the new one on both triggers under "ptt".
func (r *Runtime) SetHotkey(payload hotkey.Payload) (hotkey.Payload, error) {
	type result struct {
		payload hotkey.Payload
		err     error
	}
	reply := make(chan result, 1)
	r.cmdCh <- func() {
		hk, err := payload.ToHotkey()
		if err != nil {
			reply <- result{err: err}
			return
		}
		r.hotkeyManager.Unregister(r.currentHotkey)
		registerHotkeyBinding(r.hotkeyManager, hk)
		r.currentHotkey = hk
		reply <- result{payload: payload}
	}
	res := <-reply
	return res.payload, res.err
}

// UpdateSettings replaces the stored settings. It does not change the
// armed flag or active model.
func (r *Runtime) UpdateSettings(settings Settings) {
	done := make(chan struct{})
	r.cmdCh <- func() {
		r.settings = settings
		close(done)
	}
	<-done
}

// SetActiveModel rebuilds the transcriber for name (empty means the
// default "base" model), clears any transient override for the
// previously active model, and re-publishes the model status snapshot.
func (r *Runtime) SetActiveModel(name string) {
	done := make(chan struct{})
	r.cmdCh <- func() {
		r.setActiveModelLocked(name)
		close(done)
	}
	<-done
}

func (r *Runtime) setActiveModelLocked(name string) {
	if r.activeModel != "" {
		r.overrides.clear(r.activeModel)
	}
	id := modelcache.ParseID(name)
	r.activeModel = id.DisplayName()
	if r.cfg.NewTranscriber != nil {
		r.transcriber = r.cfg.NewTranscriber(id)
	}
	r.overrides.clear(r.activeModel)
	r.updateModelStatusSnapshot()
}

// ManualToggle synthesizes a hotkey edge. Idempotent while
// Processing; auto-arms from Idle/un-armed; otherwise toggles
// Capturing<->Armed.
func (r *Runtime) ManualToggle() (State, error) {
	// While the owner goroutine is inside a transcription, commands queue
	// behind it and would only land after it finished — as a fresh Pressed
	// edge. Answering off the published state keeps the toggle a no-op for
	// the whole time Processing is visible, without blocking the caller.
	if r.CurrentState().State == StateProcessing {
		return StateProcessing, nil
	}

	reply := make(chan cmdResult, 1)
	r.cmdCh <- func() {
		if r.state == StateProcessing {
			reply <- cmdResult{state: r.state}
			return
		}

		if !r.armed {
			if _, err := r.arm(r.settings, r.activeModel); err != nil {
				reply <- cmdResult{state: r.state, err: err}
				return
			}
		}

		trigger := hotkey.TriggerPressed
		if r.state == StateCapturing {
			trigger = hotkey.TriggerReleased
		}
		event := hotkey.ActionEvent{Action: pttAction, Hotkey: r.currentHotkey, State: trigger}
		if work := r.handleHotkeyAction(event); work != nil {
			r.runTranscription(work)
		}
		reply <- cmdResult{state: r.state}
	}
	res := <-reply
	return res.state, res.err
}

func (r *Runtime) arm(settings Settings, activeModel string) (State, error) {
	r.settings = settings
	r.setActiveModelLocked(activeModel)
	if err := r.prepareAudio(settings); err != nil {
		return r.state, err
	}
	r.armed = true
	r.updateModelStatusSnapshot()
	r.setState(StateArmed, "")
	return r.state, nil
}

func (r *Runtime) prepareAudio(settings Settings) error {
	audioCap := r.capture.Audio()
	if _, err := audioCap.RefreshDevices(); err != nil {
		return err
	}
	if settings.InputDevice != "" && settings.InputDevice != "default" {
		_ = audioCap.SelectDevice(settings.InputDevice) // unknown id: fall back to backend default
	}
	if !audioCap.Running() {
		if err := r.capture.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) ensureRuntimeStarted() error {
	if r.runtimeStarted {
		return nil
	}

	if r.cfg.HotkeySource != nil && r.hotkeyEvents == nil {
		listener := hotkey.NewListener(r.cfg.HotkeySource, r.cfg.KeyTable, r.hotkeyManager)
		listener.Start()
		r.listener = listener
		r.hotkeyEvents = listener.Events()
	}

	if r.levelFeed == nil {
		r.levelFeed = r.capture.LevelFeed()
	}

	r.runtimeStarted = true
	return nil
}

func (r *Runtime) pollHotkeyEvents() {
	if r.hotkeyEvents == nil {
		return
	}
	for {
		select {
		case event, ok := <-r.hotkeyEvents:
			if !ok {
				r.hotkeyEvents = nil
				return
			}
			if work := r.handleHotkeyAction(event); work != nil {
				r.runTranscription(work)
			}
		default:
			return
		}
	}
}

func (r *Runtime) pollLevelReadings() {
	if r.levelFeed == nil {
		return
	}
	for {
		select {
		case reading, ok := <-r.levelFeed:
			if !ok {
				r.levelFeed = nil
				return
			}
			if r.armed {
				r.cfg.Events.PublishLevel(reading)
			}
		default:
			return
		}
	}
}

// handleHotkeyAction applies a (possibly corrected) hotkey edge to the
// capture gate and state machine. A duplicate Pressed while already
// Capturing is coerced to Released (the release edge was missed). It
// returns non-nil work exactly on a Released edge for the bound
// action, while armed.
func (r *Runtime) handleHotkeyAction(event hotkey.ActionEvent) *transcriptionWork {
	if !r.armed || event.Action != pttAction {
		return nil
	}

	trigger := event.State
	if trigger == hotkey.TriggerPressed && r.state == StateCapturing {
		trigger = hotkey.TriggerReleased
	}

	r.capture.HandleAction(hotkey.ActionEvent{Action: event.Action, Hotkey: event.Hotkey, State: trigger})

	switch trigger {
	case hotkey.TriggerPressed:
		// Capture context now, while the target app is guaranteed to be
		// focused and the cursor is exactly where the user is about to
		// dictate; Released may fire long after focus has moved on.
		context := ""
		if r.cfg.CaptureContext != nil {
			context = r.cfg.CaptureContext()
		}
		r.pendingHint = buildPromptHint(context)
		r.setState(StateCapturing, "")
		return nil
	case hotkey.TriggerReleased:
		r.setState(StateProcessing, "")
		r.markModelDownloading()
		samples := r.capture.TakeAudio()
		sampleRate := 16000.0
		channels := 1
		if device := r.capture.Audio().SelectedDevice(); device != nil {
			sampleRate = device.SampleRate
			channels = device.Channels
		}
		return &transcriptionWork{
			audio:      ResampleTo16kMono(samples, sampleRate, channels),
			promptHint: r.pendingHint,
		}
	default:
		return nil
	}
}

// runTranscription runs synchronously on the owner goroutine: Processing
// stays visible for its entire duration, and a command queued behind it
// (e.g. stop()) is simply served once it returns — which is also how
// "stop does not cancel an in-progress transcription" falls out for free.
func (r *Runtime) runTranscription(work *transcriptionWork) {
	var (
		text string
		err  error
	)
	if hinted, ok := r.transcriber.(PromptHintTranscriber); ok {
		text, err = hinted.TranscribeWithHint(work.audio, work.promptHint)
	} else {
		text, err = r.transcriber.Transcribe(work.audio)
	}
	if err != nil {
		r.setState(StateError, err.Error())
		r.cfg.Events.PublishError(err.Error())
		r.markModelFailed()
		r.finishProcessing()
		return
	}

	trimmed := transcribe.TrimTranscript(text)
	if trimmed == "" || transcribe.IsHallucination(trimmed) {
		r.cfg.Events.PublishError("no speech detected")
		r.markModelReady()
		r.finishProcessing()
		return
	}

	result, dispatchErr := output.Dispatch(r.cfg.Sink, r.settings.OutputMode, text)
	if dispatchErr != nil {
		r.cfg.Events.PublishError(dispatchErr.Error())
	} else if result.Warning != "" {
		r.cfg.Events.PublishError(result.Warning)
	}

	r.cfg.Events.PublishTranscription(text)
	r.markModelReady()
	r.finishProcessing()
}

func (r *Runtime) finishProcessing() {
	if r.armed {
		r.setState(StateArmed, "")
	} else {
		r.setState(StateIdle, "")
	}
}

func (r *Runtime) markModelDownloading() {
	r.overrides.set(r.activeModel, StatusDownloading)
	r.updateModelStatusSnapshot()
}

func (r *Runtime) markModelReady() {
	r.overrides.clear(r.activeModel)
	r.updateModelStatusSnapshot()
}

func (r *Runtime) markModelFailed() {
	r.overrides.set(r.activeModel, StatusFailed)
	r.updateModelStatusSnapshot()
}

func (r *Runtime) updateModelStatusSnapshot() {
	payload := buildModelStatusPayload(r.cfg.ModelRoot, r.activeModel, r.overrides.snapshot())
	r.cfg.Events.PublishModelStatus(payload)
}

// setState applies next, suppressing publication when it is identical
// (same state and message) to the current one — the state machine's
// idempotency requirement.
func (r *Runtime) setState(next State, message string) {
	if r.state == next && r.stateMessage == message {
		return
	}
	r.state = next
	r.stateMessage = message

	event := StateEvent{State: next, Message: message}
	r.publishedMu.Lock()
	r.published = event
	r.publishedMu.Unlock()

	r.cfg.Events.PublishState(event)
}
