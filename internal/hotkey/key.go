// Package hotkey models global keyboard shortcuts: a key+modifier
// identity (Hotkey), the bindings registered against it, and a
// listener that turns raw keyboard edges into resolved action events.
package hotkey

import (
	"fmt"
	"strings"
)

// Key identifies one of the keys the hotkey payload grammar supports.
// Values are the grammar's lower-case spelling.
type Key string

const (
	KeySpace     Key = "space"
	KeyEnter     Key = "enter"
	KeyEscape    Key = "escape"
	KeyTab       Key = "tab"
	KeyBackspace Key = "backspace"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
)

var letterAndFnKeys = func() map[Key]bool {
	keys := make(map[Key]bool)
	for c := 'a'; c <= 'z'; c++ {
		keys[Key(string(c))] = true
	}
	for i := 1; i <= 12; i++ {
		keys[Key(fmt.Sprintf("f%d", i))] = true
	}
	return keys
}()

var namedKeys = map[Key]bool{
	KeySpace: true, KeyEnter: true, KeyEscape: true, KeyTab: true,
	KeyBackspace: true, KeyLeft: true, KeyRight: true, KeyUp: true, KeyDown: true,
}

// ParseKey matches input case-insensitively against the hotkey payload
// grammar (a-z, f1-f12, space, enter, escape, tab, backspace, left,
// right, up, down). The error message quotes the rejected input so the
// settings UI can echo it back verbatim.
func ParseKey(input string) (Key, error) {
	lower := Key(strings.ToLower(strings.TrimSpace(input)))
	if letterAndFnKeys[lower] || namedKeys[lower] {
		return lower, nil
	}
	return "", fmt.Errorf("unsupported hotkey key '%s'", input)
}

// Modifiers is a bitset of the four modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// NewModifiers builds a bitset from the four boolean flags in the
// hotkey payload grammar.
func NewModifiers(ctrl, alt, shift, meta bool) Modifiers {
	var m Modifiers
	if ctrl {
		m |= ModCtrl
	}
	if alt {
		m |= ModAlt
	}
	if shift {
		m |= ModShift
	}
	if meta {
		m |= ModMeta
	}
	return m
}

func (m Modifiers) Ctrl() bool  { return m&ModCtrl != 0 }
func (m Modifiers) Alt() bool   { return m&ModAlt != 0 }
func (m Modifiers) Shift() bool { return m&ModShift != 0 }
func (m Modifiers) Meta() bool  { return m&ModMeta != 0 }

// Hotkey is a structurally-equal, hashable key+modifier identity.
type Hotkey struct {
	Key       Key
	Modifiers Modifiers
}

// Trigger is the edge a binding fires on.
type Trigger int

const (
	TriggerPressed Trigger = iota
	TriggerReleased
)

// Binding ties an action tag to one trigger of one hotkey.
type Binding struct {
	Action  string
	Trigger Trigger
}

// ActionEvent is emitted by a Listener when it resolves a keyboard
// edge against a Manager.
type ActionEvent struct {
	Action string
	Hotkey Hotkey
	State  Trigger
}
