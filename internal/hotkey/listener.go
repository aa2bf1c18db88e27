package hotkey

import (
	"fmt"
	"sync"
)

// Code identifies a physical key in a backend-agnostic way (an evdev
// key code on Linux; callers on other platforms supply their own
// numbering via a KeyTable).
type Code uint16

// Source streams raw key edges from an OS-level keyboard tap. Next
// blocks until an edge is available; repeat reports an OS auto-repeat
// edge when the backend distinguishes one (evdev value 2).
type Source interface {
	Next() (code Code, pressed bool, repeat bool, err error)
	Close() error
}

// KeyTable maps backend key codes to the grammar's Key values and to
// the modifier bit a code represents, if any (both left/right variants
// of Ctrl/Alt/Shift/Meta map to the same bit).
type KeyTable struct {
	Keys      map[Code]Key
	Modifiers map[Code]Modifiers
}

// ListenerError wraps the backend failure that terminated a Listener's
// read loop.
type ListenerError struct {
	Err error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("hotkey listener: %s", e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Listener runs a keyboard tap on its own goroutine, tracks modifier
// state, de-duplicates auto-repeat, and resolves non-modifier edges
// against a Manager, emitting ActionEvents on Events().
type Listener struct {
	source  Source
	table   KeyTable
	manager *Manager

	events chan ActionEvent
	done   chan struct{}

	mu      sync.Mutex
	err     error
	stopped bool
}

// NewListener returns a Listener that has not yet started reading
// from source.
func NewListener(source Source, table KeyTable, manager *Manager) *Listener {
	return &Listener{
		source:  source,
		table:   table,
		manager: manager,
		events:  make(chan ActionEvent, 32),
		done:    make(chan struct{}),
	}
}

// Events returns the channel of resolved action edges.
func (l *Listener) Events() <-chan ActionEvent {
	return l.events
}

// Start spawns the listener's read loop.
func (l *Listener) Start() {
	go l.run()
}

// Stop closes the underlying source, unblocking the read loop.
func (l *Listener) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.source.Close()
}

// Join blocks until the read loop exits and returns the terminal
// error, if any (nil after a clean Stop()).
func (l *Listener) Join() error {
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Listener) run() {
	defer close(l.done)
	defer close(l.events)

	var modifierState Modifiers
	pressedSnapshot := make(map[Key]Modifiers)

	for {
		code, pressed, _, err := l.source.Next()
		if err != nil {
			l.mu.Lock()
			if !l.stopped {
				l.err = &ListenerError{Err: err}
			}
			l.mu.Unlock()
			return
		}

		if bit, isModifier := l.table.Modifiers[code]; isModifier {
			if pressed {
				modifierState |= bit
			} else {
				modifierState &^= bit
			}
			continue
		}

		key, mapped := l.table.Keys[code]
		if !mapped {
			continue
		}

		if pressed {
			if snapshot, tracked := pressedSnapshot[key]; tracked && snapshot == modifierState {
				continue // OS auto-repeat or duplicate press: suppressed
			}
			pressedSnapshot[key] = modifierState
			l.emit(key, modifierState, TriggerPressed)
			continue
		}

		snapshot, tracked := pressedSnapshot[key]
		if !tracked {
			continue // Released for a key we weren't tracking: suppressed
		}
		delete(pressedSnapshot, key)
		l.emit(key, snapshot, TriggerReleased)
	}
}

func (l *Listener) emit(key Key, mods Modifiers, trigger Trigger) {
	hk := Hotkey{Key: key, Modifiers: mods}
	action, ok := l.manager.Resolve(hk, trigger)
	if !ok {
		return
	}
	select {
	case l.events <- ActionEvent{Action: action, Hotkey: hk, State: trigger}:
	default:
	}
}
