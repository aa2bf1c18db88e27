package hotkey

// Payload is the wire shape accepted by SetHotkey: a key string
// matched case-insensitively and four modifier flags.
type Payload struct {
	Key      string
	Ctrl     bool
	Alt      bool
	Shift    bool
	Meta     bool
}

// DefaultPayload is the hotkey registered before the user configures one.
func DefaultPayload() Payload {
	return Payload{Key: "space", Ctrl: true, Alt: true}
}

// ToHotkey validates the payload's key against the grammar and builds
// a Hotkey.
func (p Payload) ToHotkey() (Hotkey, error) {
	key, err := ParseKey(p.Key)
	if err != nil {
		return Hotkey{}, err
	}
	return Hotkey{
		Key:       key,
		Modifiers: NewModifiers(p.Ctrl, p.Alt, p.Shift, p.Meta),
	}, nil
}
