// arena/team.go
package arena

import (
	"fmt"
	"sort"
	"sync"
)

// Team groups players inside one arena. Virtual teams are goal-internal role
// groups (infected, tank): they need no spawns, may be empty, and stay out of
// score bookkeeping and statistics. Membership is touched from packet handlers
// and scheduler callbacks alike, so the roster map carries its own lock.
type Team struct {
	name    string
	color   string
	virtual bool
	players map[*Player]struct{}
	mutex   sync.RWMutex
}

func NewTeam(name, color string) *Team {
	return &Team{
		name:    name,
		color:   color,
		players: make(map[*Player]struct{}),
	}
}

// NewVirtualTeam creates a goal-internal synthetic team.
func NewVirtualTeam(name, color string) *Team {
	t := NewTeam(name, color)
	t.virtual = true
	return t
}

func (t *Team) Name() string { return t.name }

func (t *Team) Color() string { return t.color }

func (t *Team) IsVirtual() bool { return t.virtual }

// ColoredName is the display form used in broadcasts.
func (t *Team) ColoredName() string {
	if t.color == "" {
		return t.name
	}
	return fmt.Sprintf("[%s]%s", t.color, t.name)
}

func (t *Team) Add(p *Player) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.players[p] = struct{}{}
}

func (t *Team) Remove(p *Player) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.players, p)
}

func (t *Team) HasPlayer(p *Player) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	_, ok := t.players[p]
	return ok
}

// Members returns the roster sorted by player name so that iteration order is
// stable for scoring and broadcasts.
func (t *Team) Members() []*Player {
	t.mutex.RLock()
	out := make([]*Player, 0, len(t.players))
	for p := range t.players {
		out = append(out, p)
	}
	t.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (t *Team) Size() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.players)
}

func (t *Team) IsEmpty() bool { return t.Size() == 0 }

// IsEveryoneReady reports whether every member has flagged ready. An empty
// team is not ready.
func (t *Team) IsEveryoneReady() bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if len(t.players) == 0 {
		return false
	}
	for p := range t.players {
		if p.Status() != StatusReady {
			return false
		}
	}
	return true
}

// HasFighter reports whether at least one member is actively playing.
func (t *Team) HasFighter() bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	for p := range t.players {
		if p.Status() == StatusFight {
			return true
		}
	}
	return false
}

func (t *Team) String() string { return t.name }
