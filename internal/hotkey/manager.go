package hotkey

import "sync"

// Manager maps a Hotkey to a small collection of bindings, at most one
// per trigger. A flat "one binding per hotkey" map cannot hold both
// the Pressed and Released registration PTT needs on the same hotkey.
type Manager struct {
	mu       sync.Mutex
	bindings map[Hotkey]map[Trigger]Binding
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{bindings: make(map[Hotkey]map[Trigger]Binding)}
}

// RegisterWithTrigger replaces any existing binding with the same
// trigger on hotkey and returns the displaced binding, if any.
func (m *Manager) RegisterWithTrigger(key Hotkey, trigger Trigger, action string) (displaced *Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()

	triggers, ok := m.bindings[key]
	if !ok {
		triggers = make(map[Trigger]Binding)
		m.bindings[key] = triggers
	}

	if old, exists := triggers[trigger]; exists {
		displaced = &old
	}
	triggers[trigger] = Binding{Action: action, Trigger: trigger}
	return displaced
}

// Unregister removes all bindings (both triggers) for hotkey.
func (m *Manager) Unregister(key Hotkey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, key)
}

// Resolve finds the binding whose trigger matches event's state and
// returns its action tag. The second return is false if no binding on
// that hotkey matches the trigger.
func (m *Manager) Resolve(key Hotkey, trigger Trigger) (action string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	triggers, exists := m.bindings[key]
	if !exists {
		return "", false
	}
	binding, exists := triggers[trigger]
	if !exists {
		return "", false
	}
	return binding.Action, true
}
