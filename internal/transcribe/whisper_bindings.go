package transcribe

import (
	"fmt"
	"os"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperCppBindings wraps github.com/ggerganov/whisper.cpp/bindings/go.
type WhisperCppBindings struct{}

// NewWhisperCppBindings returns the production Bindings.
func NewWhisperCppBindings() *WhisperCppBindings { return &WhisperCppBindings{} }

func (WhisperCppBindings) InitFromFile(modelPath string) (Context, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, &BindingError{Kind: InitFailed, Err: fmt.Errorf("model file %q not found", modelPath)}
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, &BindingError{Kind: Unavailable, Err: err}
	}

	ctx, err := model.NewContext()
	if err != nil {
		model.Close()
		return nil, &BindingError{Kind: InitFailed, Err: err}
	}

	ctx.SetLanguage("en") //nolint:errcheck — "en" is always valid

	// Tuned for short dictation bursts: halve the default beam search
	// and encoder context, and don't carry context between clips since
	// every PTT press is an independent utterance.
	ctx.SetThreads(8)
	ctx.SetBeamSize(2)
	ctx.SetAudioCtx(768)
	ctx.SetMaxContext(0)

	return &whisperContext{model: model, ctx: ctx}, nil
}

type whisperContext struct {
	model whisperlib.Model
	ctx   whisperlib.Context
}

// SetInitialPrompt seeds whisper's initial prompt, biasing decoding
// toward the given text (e.g. context captured from the focused
// window just before recording started).
func (c *whisperContext) SetInitialPrompt(prompt string) error {
	c.ctx.SetInitialPrompt(prompt)
	return nil
}

func (c *whisperContext) Transcribe(audio []float32) (string, error) {
	if err := c.ctx.Process(audio, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %w", err)
	}

	var text string
	for {
		seg, err := c.ctx.NextSegment()
		if err != nil {
			break // io.EOF — no more segments
		}
		text += seg.Text
	}
	return text, nil
}

func (c *whisperContext) Close() error {
	return c.model.Close()
}
