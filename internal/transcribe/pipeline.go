package transcribe

import (
	"errors"
	"fmt"

	"github.com/quietkey/pttd/internal/modelcache"
)

// ErrEmptyAudio is returned when Transcribe is called with no samples.
var ErrEmptyAudio = errors.New("transcribe: audio buffer is empty")

// Pipeline ensures a model is cached, builds a bindings context for
// it, and runs transcription.
type Pipeline struct {
	models     *modelcache.Manager
	downloader modelcache.Downloader
	bindings   Bindings

	swallowUnavailable bool
}

// NewPipeline returns a Pipeline wired to the given model cache,
// downloader, and bindings implementation.
func NewPipeline(models *modelcache.Manager, downloader modelcache.Downloader, bindings Bindings) *Pipeline {
	return &Pipeline{models: models, downloader: downloader, bindings: bindings}
}

// SwallowUnavailable makes Transcribe return ("", nil) instead of
// propagating a BindingError{Kind: Unavailable}, so callers can
// surface a plain "no speech detected" message instead of an error
// state. InitFailed and all other errors are still propagated.
func (p *Pipeline) SwallowUnavailable(swallow bool) {
	p.swallowUnavailable = swallow
}

// Transcribe ensures modelID is cached, initializes a context for it,
// and transcribes audio. Whitespace in the result is retained as-is;
// an empty result after trimming is the caller's signal that no
// speech was detected.
func (p *Pipeline) Transcribe(modelID modelcache.ID, audio []float32) (string, error) {
	return p.TranscribeWithPrompt(modelID, audio, "")
}

// TranscribeWithPrompt is Transcribe plus an optional initial-prompt
// hint (e.g. text captured from the focused window right before
// recording started). The hint is best-effort: a
// Context that doesn't implement PromptHintContext just transcribes
// without it.
func (p *Pipeline) TranscribeWithPrompt(modelID modelcache.ID, audio []float32, prompt string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	modelPath, err := p.models.EnsureCached(modelID, p.downloader)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	ctx, err := p.bindings.InitFromFile(modelPath)
	if err != nil {
		var bindingErr *BindingError
		if p.swallowUnavailable && errors.As(err, &bindingErr) && bindingErr.Kind == Unavailable {
			return "", nil
		}
		return "", err
	}
	defer ctx.Close()

	if prompt != "" {
		if hinted, ok := ctx.(PromptHintContext); ok {
			_ = hinted.SetInitialPrompt(prompt) // best-effort decoding bias, never fatal
		}
	}

	text, err := ctx.Transcribe(audio)
	if err != nil {
		return "", err
	}
	return text, nil
}

// TrimTranscript removes leading/trailing spaces and newlines from a
// raw whisper result.
func TrimTranscript(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\n') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n') {
		s = s[:len(s)-1]
	}
	return s
}

var hallucinationTags = map[string]bool{
	"[BLANK_AUDIO]": true, "[blank_audio]": true,
	"(Music)": true, "(music)": true,
	"(noise)": true, "(Noise)": true,
	"[MUSIC]": true, "[Music]": true,
	"(clapping)": true, "(Applause)": true,
	"[silence]": true,
}

// IsHallucination reports whether text is a known whisper.cpp
// hallucination tag produced during silence or background noise.
func IsHallucination(s string) bool {
	if hallucinationTags[s] {
		return true
	}
	return len(s) > 2 && ((s[0] == '[' && s[len(s)-1] == ']') || (s[0] == '(' && s[len(s)-1] == ')'))
}
