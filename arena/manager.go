// arena/manager.go
package arena

import (
	"sort"
	"strings"
	"sync"
)

// Manager is the process-wide arena registry, keyed by lowercase name.
type Manager struct {
	arenas map[string]*Arena
	mutex  sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{arenas: make(map[string]*Arena)}
}

// Add registers an arena. Registering a second arena under the same name
// replaces the first.
func (m *Manager) Add(a *Arena) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.arenas[strings.ToLower(a.Name())] = a
}

// Remove unregisters an arena and cancels its timers.
func (m *Manager) Remove(name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := strings.ToLower(name)
	if a, exists := m.arenas[key]; exists {
		a.CancelTimers()
		delete(m.arenas, key)
	}
}

func (m *Manager) Get(name string) (*Arena, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	a, exists := m.arenas[strings.ToLower(name)]
	return a, exists
}

// List returns all arenas sorted by name.
func (m *Manager) List() []*Arena {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Arena, 0, len(m.arenas))
	for _, a := range m.arenas {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.arenas)
}

// FindJoinable returns the first unlocked idle arena, if any.
func (m *Manager) FindJoinable() *Arena {
	for _, a := range m.List() {
		if !a.IsLocked() && a.Phase() == PhaseIdle {
			return a
		}
	}
	return nil
}
