// spawn/spawn.go
package spawn

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wfunc/arena/logger"
)

// Well-known spawn names.
const (
	NameSpawn     = "spawn"
	NameLounge    = "lounge"
	NameSpectator = "spectator"
	NameExit      = "exit"
	NameOld       = "old"
)

// Spawn is a named teleport target. Identity is the (Name, Team, Class)
// triple; Team and Class are empty for untargeted spawns.
type Spawn struct {
	Name   string
	Team   string
	Class  string
	Loc    Location
	Offset *Vector
}

// Key serializes the identity triple into the "team_name_class" config node
// format.
func (s Spawn) Key() string {
	var b strings.Builder
	if s.Team != "" {
		b.WriteString(s.Team)
		b.WriteByte('_')
	}
	b.WriteString(s.Name)
	if s.Class != "" {
		b.WriteByte('_')
		b.WriteString(s.Class)
	}
	return b.String()
}

// Resolved returns the teleport target with the offset applied.
func (s Spawn) Resolved() Location {
	if s.Offset == nil {
		return s.Loc
	}
	return s.Loc.Add(*s.Offset)
}

// ParseNode splits a "team_name_class" config node. The caller validates team
// and class names against the arena definition; a single segment is a plain
// named spawn.
func ParseNode(node string) (name, team, class string, err error) {
	parts := strings.Split(node, "_")
	switch len(parts) {
	case 1:
		return parts[0], "", "", nil
	case 2:
		return parts[1], parts[0], "", nil
	case 3:
		return parts[1], parts[0], parts[2], nil
	default:
		return "", "", "", fmt.Errorf("invalid spawn node %q", node)
	}
}

// Block is a named block descriptor registered by block-based goals.
type Block struct {
	Name string
	Team string
	Loc  BlockLocation
}

// Manager holds the spawn and block descriptors of one arena. Registration
// order is preserved: it is the tie-break order for nearest-block queries and
// the distribution order for teams.
type Manager struct {
	spawns []Spawn
	blocks []Block
	mutex  sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a spawn descriptor, replacing any earlier descriptor with the
// same identity triple.
func (m *Manager) Register(sp Spawn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, existing := range m.spawns {
		if existing.Name == sp.Name && existing.Team == sp.Team && existing.Class == sp.Class {
			m.spawns[i] = sp
			return
		}
	}
	m.spawns = append(m.spawns, sp)
}

// Unregister removes the descriptor with the given identity triple.
func (m *Manager) Unregister(name, team, class string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, sp := range m.spawns {
		if sp.Name == name && sp.Team == team && sp.Class == class {
			m.spawns = append(m.spawns[:i], m.spawns[i+1:]...)
			return true
		}
	}
	return false
}

// RegisterBlock adds a block descriptor.
func (m *Manager) RegisterBlock(b Block) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.blocks = append(m.blocks, b)
}

// Spawns returns all descriptors in registration order.
func (m *Manager) Spawns() []Spawn {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]Spawn, len(m.spawns))
	copy(out, m.spawns)
	return out
}

// Resolve finds the most specific descriptor for the requested triple:
// (name,team,class), then (name,team), then (name).
func (m *Manager) Resolve(name, team, class string) (Spawn, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if team != "" && class != "" {
		if sp, ok := m.lookup(name, team, class); ok {
			return sp, true
		}
	}
	if team != "" {
		if sp, ok := m.lookup(name, team, ""); ok {
			return sp, true
		}
	}
	return m.lookup(name, "", "")
}

// ResolveOrFallback resolves the triple, falling back to the goal-declared
// fallback name (e.g. spectator or exit) when nothing matches.
func (m *Manager) ResolveOrFallback(name, team, class, fallback string) (Spawn, bool) {
	if sp, ok := m.Resolve(name, team, class); ok {
		return sp, true
	}
	logger.Log.Debugf("spawn %s/%s/%s not found, falling back to %s", name, team, class, fallback)
	return m.Resolve(fallback, "", "")
}

func (m *Manager) lookup(name, team, class string) (Spawn, bool) {
	for _, sp := range m.spawns {
		if sp.Name == name && sp.Team == team && sp.Class == class {
			return sp, true
		}
	}
	return Spawn{}, false
}

// candidatesFor collects the fight spawns usable by a team, most specific
// first: the team's own spawn points, then the untargeted ones.
func (m *Manager) candidatesFor(team string) []Spawn {
	var own, generic []Spawn
	for _, sp := range m.spawns {
		if sp.Name != NameSpawn {
			continue
		}
		switch sp.Team {
		case team:
			own = append(own, sp)
		case "":
			generic = append(generic, sp)
		}
	}
	if len(own) > 0 {
		return own
	}
	return generic
}

// Distribute assigns each member of a team to one of the team's spawn points.
// No point is reused while unused candidates remain; once all candidates are
// taken the assignment wraps around.
func (m *Manager) Distribute(team string, members []string) map[string]Spawn {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	assignment := make(map[string]Spawn, len(members))
	candidates := m.candidatesFor(team)
	if len(candidates) == 0 {
		logger.Log.Warnf("no fight spawns for team %q", team)
		return assignment
	}

	for i, member := range members {
		assignment[member] = candidates[i%len(candidates)]
	}
	return assignment
}

// DistributeTeams assigns every member of every team, keyed by member name.
func (m *Manager) DistributeTeams(teams map[string][]string) map[string]Spawn {
	assignment := make(map[string]Spawn)
	for team, members := range teams {
		for member, sp := range m.Distribute(team, members) {
			assignment[member] = sp
		}
	}
	return assignment
}

// NearestBlock returns the registered block with the given name closest to
// from, by squared distance. Ties keep the earlier-registered block.
func (m *Manager) NearestBlock(name string, from BlockLocation) (Block, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var best Block
	bestDist := -1
	for _, b := range m.blocks {
		if b.Name != name || b.Loc.World != from.World {
			continue
		}
		d := b.Loc.DistanceSquared(from)
		if bestDist < 0 || d < bestDist {
			best = b
			bestDist = d
		}
	}
	return best, bestDist >= 0
}
