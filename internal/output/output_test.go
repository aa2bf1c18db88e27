package output

import (
	"errors"
	"testing"
)

type mockSink struct {
	injectCalled    bool
	clipboardCalled bool
	injectErr       error
	clipboardErr    error
	injectedText    string
	clipboardText   string
}

func (m *mockSink) Inject(text string) error {
	m.injectCalled = true
	m.injectedText = text
	return m.injectErr
}

func (m *mockSink) CopyToClipboard(text string) error {
	m.clipboardCalled = true
	m.clipboardText = text
	return m.clipboardErr
}

func TestDispatchUIOnlyTouchesNothing(t *testing.T) {
	mock := &mockSink{}
	result, err := Dispatch(mock, ModeUIOnly, "hello")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if mock.injectCalled || mock.clipboardCalled {
		t.Error("ui_only must not touch the clipboard or inject keystrokes")
	}
	if result.Warning != "" {
		t.Errorf("unexpected warning: %q", result.Warning)
	}
}

func TestDispatchClipboardCopiesText(t *testing.T) {
	mock := &mockSink{}
	_, err := Dispatch(mock, ModeClipboard, "hello")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !mock.clipboardCalled || mock.clipboardText != "hello" {
		t.Errorf("clipboard text = %q, called = %v", mock.clipboardText, mock.clipboardCalled)
	}
	if mock.injectCalled {
		t.Error("clipboard mode must not inject keystrokes")
	}
}

func TestDispatchDirectWriteSuccess(t *testing.T) {
	mock := &mockSink{}
	result, err := Dispatch(mock, ModeDirectWrite, "hello")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !mock.injectCalled {
		t.Error("Inject() not called")
	}
	if mock.clipboardCalled {
		t.Error("clipboard should not be touched when direct write succeeds")
	}
	if result.FellBackToClip || result.Warning != "" {
		t.Errorf("unexpected fallback result: %+v", result)
	}
}

func TestDispatchDirectWriteFallsBackToClipboard(t *testing.T) {
	mock := &mockSink{injectErr: errors.New("xdotool not found")}
	result, err := Dispatch(mock, ModeDirectWrite, "hello")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !mock.clipboardCalled || mock.clipboardText != "hello" {
		t.Error("direct write failure must fall back to clipboard copy")
	}
	if !result.FellBackToClip || result.Warning == "" {
		t.Errorf("result = %+v, want FellBackToClip with a warning", result)
	}
}

func TestDispatchDirectWriteAndClipboardBothFail(t *testing.T) {
	mock := &mockSink{
		injectErr:    errors.New("xdotool not found"),
		clipboardErr: errors.New("clipboard unavailable"),
	}
	_, err := Dispatch(mock, ModeDirectWrite, "hello")
	if err == nil {
		t.Error("Dispatch() error = nil, want an error when both paths fail")
	}
}

func TestDispatchEmptyTextIsNoOp(t *testing.T) {
	mock := &mockSink{}
	_, err := Dispatch(mock, ModeDirectWrite, "")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if mock.injectCalled || mock.clipboardCalled {
		t.Error("empty text must not touch the sink")
	}
}

func TestDispatchUnknownModeErrors(t *testing.T) {
	mock := &mockSink{}
	_, err := Dispatch(mock, Mode("bogus"), "hello")
	if err == nil {
		t.Error("Dispatch() error = nil, want an error for an unknown mode")
	}
}
