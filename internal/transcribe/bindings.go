// Package transcribe wraps a whisper.cpp-family transcription engine
// behind a small capability interface, so the PTT runtime never links
// the real bindings or touches a GPU/CPU model in tests.
package transcribe

import "fmt"

// BindingError distinguishes a bindings library that could not be
// loaded at all from one that loaded but failed to build a context
// for a specific model file.
type BindingError struct {
	Kind BindingErrorKind
	Err  error
}

type BindingErrorKind int

const (
	// Unavailable means the bindings library itself isn't usable
	// (e.g. no compiled backend for this platform).
	Unavailable BindingErrorKind = iota
	// InitFailed means the bindings loaded but failed to build a
	// context for the given model file.
	InitFailed
)

func (e *BindingError) Error() string {
	switch e.Kind {
	case Unavailable:
		return fmt.Sprintf("transcribe: bindings unavailable: %s", e.Err)
	default:
		return fmt.Sprintf("transcribe: init failed: %s", e.Err)
	}
}

func (e *BindingError) Unwrap() error { return e.Err }

// Context is an initialized, model-loaded transcription context.
type Context interface {
	Transcribe(audio []float32) (string, error)
	Close() error
}

// PromptHintContext is implemented by Contexts whose underlying engine
// supports seeding an initial prompt (whisper.cpp's "initial prompt"
// mechanism, used to bias decoding toward known vocabulary/style). Not
// every Context needs one; Pipeline falls back to a plain Transcribe
// when a context doesn't implement it.
type PromptHintContext interface {
	SetInitialPrompt(prompt string) error
}

// Bindings builds a Context from a model file on disk.
type Bindings interface {
	InitFromFile(modelPath string) (Context, error)
}
