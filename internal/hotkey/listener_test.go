package hotkey

import (
	"errors"
	"testing"
	"time"
)

const (
	codeF9   Code = 1
	codeCtrl Code = 2
)

// edge is one synthetic raw keyboard transition fed to a fakeSource.
type edge struct {
	code    Code
	pressed bool
}

// fakeSource replays a fixed edge script, then blocks until closed.
type fakeSource struct {
	edges  []edge
	i      int
	closed chan struct{}
}

func newFakeSource(edges []edge) *fakeSource {
	return &fakeSource{edges: edges, closed: make(chan struct{})}
}

func (f *fakeSource) Next() (Code, bool, bool, error) {
	if f.i < len(f.edges) {
		e := f.edges[f.i]
		f.i++
		return e.code, e.pressed, false, nil
	}
	<-f.closed
	return 0, false, false, errors.New("source closed")
}

func (f *fakeSource) Close() error {
	close(f.closed)
	return nil
}

func testTable() KeyTable {
	return KeyTable{
		Keys:      map[Code]Key{codeF9: "f9"},
		Modifiers: map[Code]Modifiers{codeCtrl: ModCtrl},
	}
}

func drainEvents(t *testing.T, l *Listener, want int) []ActionEvent {
	t.Helper()
	var got []ActionEvent
	timeout := time.After(time.Second)
	for len(got) < want {
		select {
		case ev, ok := <-l.Events():
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for %d events, got %d: %+v", want, len(got), got)
		}
	}
	return got
}

func TestListenerDedupsRepeatedPressSameModifiers(t *testing.T) {
	source := newFakeSource([]edge{
		{codeF9, true},
		{codeF9, true}, // duplicate press, same modifiers: suppressed
		{codeF9, false},
	})
	m := NewManager()
	plain := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(plain, TriggerPressed, "ptt")
	m.RegisterWithTrigger(plain, TriggerReleased, "ptt")

	l := NewListener(source, testTable(), m)
	l.Start()
	defer l.Stop()

	got := drainEvents(t, l, 2)
	if got[0].State != TriggerPressed || got[1].State != TriggerReleased {
		t.Errorf("got %+v, want exactly one Pressed then one Released edge", got)
	}
}

func TestListenerModifierVariantYieldsTwoPressEdges(t *testing.T) {
	source := newFakeSource([]edge{
		{codeF9, true},   // plain F9 press
		{codeCtrl, true}, // ctrl down, no edge
		{codeF9, true},   // F9 press again, now with ctrl: distinct snapshot, not suppressed
		{codeF9, false},
		{codeCtrl, false},
	})
	m := NewManager()
	plain := Hotkey{Key: "f9", Modifiers: 0}
	withCtrl := Hotkey{Key: "f9", Modifiers: ModCtrl}
	m.RegisterWithTrigger(plain, TriggerPressed, "plain")
	m.RegisterWithTrigger(withCtrl, TriggerPressed, "ctrl")
	m.RegisterWithTrigger(withCtrl, TriggerReleased, "ctrl")

	l := NewListener(source, testTable(), m)
	l.Start()
	defer l.Stop()

	var pressed []ActionEvent
	timeout := time.After(time.Second)
	for len(pressed) < 2 {
		select {
		case ev := <-l.Events():
			if ev.State == TriggerPressed {
				pressed = append(pressed, ev)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for 2 Pressed edges, got %+v", pressed)
		}
	}

	if pressed[0].Action != "plain" || pressed[1].Action != "ctrl" {
		t.Errorf("pressed edges = %+v, want [plain, ctrl]", pressed)
	}
}

func TestListenerSuppressesReleaseForUntrackedKey(t *testing.T) {
	source := newFakeSource([]edge{
		{codeF9, false}, // release with no prior press: suppressed
		{codeF9, true},
		{codeF9, false},
	})
	m := NewManager()
	plain := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(plain, TriggerPressed, "ptt")
	m.RegisterWithTrigger(plain, TriggerReleased, "ptt")

	l := NewListener(source, testTable(), m)
	l.Start()
	defer l.Stop()

	got := drainEvents(t, l, 2)
	if got[0].State != TriggerPressed || got[1].State != TriggerReleased {
		t.Errorf("got %+v, want exactly one Pressed then one Released edge", got)
	}
}

func TestListenerUnmappedKeyIgnored(t *testing.T) {
	source := newFakeSource([]edge{
		{99, true}, // no entry in table.Keys
		{codeF9, true},
		{codeF9, false},
	})
	m := NewManager()
	plain := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(plain, TriggerPressed, "ptt")
	m.RegisterWithTrigger(plain, TriggerReleased, "ptt")

	l := NewListener(source, testTable(), m)
	l.Start()
	defer l.Stop()

	got := drainEvents(t, l, 2)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
}

func TestListenerJoinReturnsBackendError(t *testing.T) {
	source := newFakeSource(nil)
	m := NewManager()
	l := NewListener(source, testTable(), m)
	l.Start()

	source.Close() // simulate the backend failing, not a graceful Stop()

	err := l.Join()
	if err == nil {
		t.Fatal("Join() = nil, want a ListenerError")
	}
	var lerr *ListenerError
	if !errors.As(err, &lerr) {
		t.Errorf("Join() error = %v, want *ListenerError", err)
	}
}
