// goal/registry.go
package goal

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wfunc/arena/arena"
)

// Factory builds a fresh goal instance bound to an arena. Every arena gets
// its own instance; goals are never shared.
type Factory func(a *arena.Arena) arena.Goal

// Registry maps goal type names to factories. Concrete goals register
// themselves here; the configuration loader looks them up by name.
type Registry struct {
	factories map[string]Factory
	mutex     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, factory Factory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Create instantiates the named goal for an arena.
func (r *Registry) Create(name string, a *arena.Arena) (arena.Goal, error) {
	r.mutex.RLock()
	factory, ok := r.factories[strings.ToLower(name)]
	r.mutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown goal type %q", name)
	}
	return factory(a), nil
}

// Names lists the registered goal types, sorted.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
