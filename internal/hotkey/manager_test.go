package hotkey

import "testing"

func TestManagerResolvesEvent(t *testing.T) {
	m := NewManager()
	key := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(key, TriggerPressed, "ptt")
	m.RegisterWithTrigger(key, TriggerReleased, "ptt")

	action, ok := m.Resolve(key, TriggerPressed)
	if !ok || action != "ptt" {
		t.Errorf("Resolve(Pressed) = (%q, %v), want (\"ptt\", true)", action, ok)
	}
	action, ok = m.Resolve(key, TriggerReleased)
	if !ok || action != "ptt" {
		t.Errorf("Resolve(Released) = (%q, %v), want (\"ptt\", true)", action, ok)
	}
}

func TestManagerRequiresExactModifiers(t *testing.T) {
	m := NewManager()
	plain := Hotkey{Key: "f9", Modifiers: 0}
	withCtrl := Hotkey{Key: "f9", Modifiers: ModCtrl}
	m.RegisterWithTrigger(plain, TriggerPressed, "ptt")

	if _, ok := m.Resolve(withCtrl, TriggerPressed); ok {
		t.Error("Resolve matched a different modifier set; want no match")
	}
}

func TestManagerRespectsTriggerType(t *testing.T) {
	m := NewManager()
	key := Hotkey{Key: "space", Modifiers: ModCtrl | ModAlt}
	m.RegisterWithTrigger(key, TriggerPressed, "ptt")

	if _, ok := m.Resolve(key, TriggerReleased); ok {
		t.Error("Resolve matched Released when only Pressed was registered")
	}
}

func TestManagerRegisterSameHotkeyBothTriggers(t *testing.T) {
	m := NewManager()
	key := Hotkey{Key: "space", Modifiers: ModCtrl | ModAlt}

	if displaced := m.RegisterWithTrigger(key, TriggerPressed, "ptt"); displaced != nil {
		t.Errorf("first Pressed registration displaced %+v, want nil", displaced)
	}
	if displaced := m.RegisterWithTrigger(key, TriggerReleased, "ptt"); displaced != nil {
		t.Errorf("first Released registration displaced %+v, want nil", displaced)
	}

	_, pressedOK := m.Resolve(key, TriggerPressed)
	_, releasedOK := m.Resolve(key, TriggerReleased)
	if !pressedOK || !releasedOK {
		t.Error("registering the same hotkey on both triggers should keep both bindings")
	}
}

func TestManagerRegisterDisplacesSameTrigger(t *testing.T) {
	m := NewManager()
	key := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(key, TriggerPressed, "ptt")

	displaced := m.RegisterWithTrigger(key, TriggerPressed, "other")
	if displaced == nil || displaced.Action != "ptt" {
		t.Errorf("RegisterWithTrigger displaced = %+v, want the old \"ptt\" binding", displaced)
	}
}

func TestManagerUnregisterRemovesBothTriggers(t *testing.T) {
	m := NewManager()
	key := Hotkey{Key: "f9", Modifiers: 0}
	m.RegisterWithTrigger(key, TriggerPressed, "ptt")
	m.RegisterWithTrigger(key, TriggerReleased, "ptt")

	m.Unregister(key)

	if _, ok := m.Resolve(key, TriggerPressed); ok {
		t.Error("Resolve still matched Pressed after Unregister")
	}
	if _, ok := m.Resolve(key, TriggerReleased); ok {
		t.Error("Resolve still matched Released after Unregister")
	}
}
