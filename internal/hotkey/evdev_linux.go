//go:build linux

package hotkey

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// evdevKeys maps evdev key codes to the grammar's Key values. Letter
// and function keys are generated; named keys are listed explicitly.
var evdevKeys = func() map[Code]Key {
	m := map[Code]Key{
		Code(evdev.KEY_SPACE):     KeySpace,
		Code(evdev.KEY_ENTER):     KeyEnter,
		Code(evdev.KEY_ESC):       KeyEscape,
		Code(evdev.KEY_TAB):       KeyTab,
		Code(evdev.KEY_BACKSPACE): KeyBackspace,
		Code(evdev.KEY_LEFT):      KeyLeft,
		Code(evdev.KEY_RIGHT):     KeyRight,
		Code(evdev.KEY_UP):        KeyUp,
		Code(evdev.KEY_DOWN):      KeyDown,
	}
	letters := []evdev.EvCode{
		evdev.KEY_A, evdev.KEY_B, evdev.KEY_C, evdev.KEY_D, evdev.KEY_E, evdev.KEY_F,
		evdev.KEY_G, evdev.KEY_H, evdev.KEY_I, evdev.KEY_J, evdev.KEY_K, evdev.KEY_L,
		evdev.KEY_M, evdev.KEY_N, evdev.KEY_O, evdev.KEY_P, evdev.KEY_Q, evdev.KEY_R,
		evdev.KEY_S, evdev.KEY_T, evdev.KEY_U, evdev.KEY_V, evdev.KEY_W, evdev.KEY_X,
		evdev.KEY_Y, evdev.KEY_Z,
	}
	for i, code := range letters {
		m[Code(code)] = Key(string(rune('a' + i)))
	}
	fnKeys := []evdev.EvCode{
		evdev.KEY_F1, evdev.KEY_F2, evdev.KEY_F3, evdev.KEY_F4, evdev.KEY_F5, evdev.KEY_F6,
		evdev.KEY_F7, evdev.KEY_F8, evdev.KEY_F9, evdev.KEY_F10, evdev.KEY_F11, evdev.KEY_F12,
	}
	for i, code := range fnKeys {
		m[Code(code)] = Key(fmt.Sprintf("f%d", i+1))
	}
	return m
}()

var evdevModifiers = map[Code]Modifiers{
	Code(evdev.KEY_LEFTCTRL):   ModCtrl,
	Code(evdev.KEY_RIGHTCTRL):  ModCtrl,
	Code(evdev.KEY_LEFTALT):    ModAlt,
	Code(evdev.KEY_RIGHTALT):   ModAlt,
	Code(evdev.KEY_LEFTSHIFT):  ModShift,
	Code(evdev.KEY_RIGHTSHIFT): ModShift,
	Code(evdev.KEY_LEFTMETA):   ModMeta,
	Code(evdev.KEY_RIGHTMETA):  ModMeta,
}

// DefaultKeyTable returns the evdev key table used by EvdevSource.
func DefaultKeyTable() KeyTable {
	return KeyTable{Keys: evdevKeys, Modifiers: evdevModifiers}
}

// EvdevSource reads raw key edges from a Linux evdev input device.
type EvdevSource struct {
	dev *evdev.InputDevice

	mu     sync.Mutex
	closed bool
}

// OpenKeyboard opens devicePath, or auto-detects a keyboard by
// scanning /dev/input/event* for a device exposing the full letter
// range (this is how a real keyboard is told apart from a power
// button or mouse with a handful of EV_KEY codes).
func OpenKeyboard(devicePath string) (*EvdevSource, error) {
	if devicePath != "" {
		dev, err := evdev.Open(devicePath)
		if err != nil {
			return nil, fmt.Errorf("open device %s: %w", devicePath, err)
		}
		return &EvdevSource{dev: dev}, nil
	}

	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})

	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if isKeyboardDevice(dev) {
			return &EvdevSource{dev: dev}, nil
		}
		_ = dev.Close()
	}
	return nil, fmt.Errorf("no keyboard device found in /dev/input/event*")
}

func isKeyboardDevice(dev *evdev.InputDevice) bool {
	for _, evType := range dev.CapableTypes() {
		if evType == evdev.EV_REL {
			return false
		}
	}
	keys := dev.CapableEvents(evdev.EV_KEY)
	hasA, hasZ := false, false
	for _, code := range keys {
		if code == evdev.KEY_A {
			hasA = true
		}
		if code == evdev.KEY_Z {
			hasZ = true
		}
	}
	return hasA && hasZ
}

// Next implements Source by reading evdev events until it sees a
// EV_KEY transition (press or release; repeat events are surfaced
// with repeat=true so the caller's de-dup logic can decide).
func (s *EvdevSource) Next() (Code, bool, bool, error) {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return 0, false, false, fmt.Errorf("evdev source closed")
			}
			return 0, false, false, err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		switch ev.Value {
		case 0:
			return Code(ev.Code), false, false, nil
		case 1:
			return Code(ev.Code), true, false, nil
		case 2:
			return Code(ev.Code), true, true, nil
		}
	}
}

// Close stops the device so a blocked Next() returns an error.
func (s *EvdevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dev.Close()
}
