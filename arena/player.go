// arena/player.go
package arena

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/spawn"
)

// DeathInfo describes how a player died. Damage is the final blow's amount,
// credited to the killer.
type DeathInfo struct {
	Cause  string
	Killer *Player
	Damage int
}

// Player is the per-participant state. Instances are created lazily by the
// Registry on first reference and are never destroyed, only reset when the
// player leaves an arena.
//
// Invariant: status == NULL exactly when arena == nil.
type Player struct {
	id   uuid.UUID
	name string

	status    PlayerStatus
	arena     *Arena
	class     string
	nextClass string

	savedLoadout []string
	location     spawn.Location
	mayRespawn   bool

	statistics map[string]*StatMap // arena name -> counters
}

func newPlayer(id uuid.UUID, name string) *Player {
	return &Player{
		id:         id,
		name:       name,
		status:     StatusNull,
		statistics: make(map[string]*StatMap),
	}
}

func (p *Player) ID() uuid.UUID { return p.id }

func (p *Player) Name() string { return p.name }

func (p *Player) Status() PlayerStatus { return p.status }

func (p *Player) SetStatus(status PlayerStatus) {
	logger.Log.Debugf("player %s: %s > %s", p.name, p.status, status)
	p.status = status
}

func (p *Player) Arena() *Arena { return p.arena }

func (p *Player) setArena(a *Arena) { p.arena = a }

// Team scans the owning arena's teams for this player. Nil while the join
// transition is still in flight or when the player is in no arena.
func (p *Player) Team() *Team {
	if p.arena == nil {
		return nil
	}
	for _, t := range p.arena.Teams() {
		if t.HasPlayer(p) {
			return t
		}
	}
	return nil
}

func (p *Player) Class() string { return p.class }

func (p *Player) SetClass(class string) { p.class = class }

// NextClass is the class applied on the player's next respawn.
func (p *Player) NextClass() string { return p.nextClass }

func (p *Player) SetNextClass(class string) { p.nextClass = class }

// ApplyNextClass swaps in the pending class, if any. Called on respawn.
func (p *Player) ApplyNextClass() {
	if p.nextClass != "" {
		p.class = p.nextClass
		p.nextClass = ""
	}
}

func (p *Player) MayRespawn() bool { return p.mayRespawn }

func (p *Player) SetMayRespawn(v bool) { p.mayRespawn = v }

func (p *Player) Location() spawn.Location { return p.location }

func (p *Player) SetLocation(loc spawn.Location) { p.location = loc }

// SaveLoadout snapshots the player's pre-match loadout.
func (p *Player) SaveLoadout(items []string) {
	p.savedLoadout = append([]string(nil), items...)
}

// TakeSavedLoadout hands back the snapshot and clears it.
func (p *Player) TakeSavedLoadout() []string {
	items := p.savedLoadout
	p.savedLoadout = nil
	return items
}

// Statistics returns the counter map for the given arena, creating it on
// first use.
func (p *Player) Statistics(arenaName string) *StatMap {
	m, ok := p.statistics[arenaName]
	if !ok {
		m = NewStatMap()
		p.statistics[arenaName] = m
	}
	return m
}

func (p *Player) currentStats() *StatMap {
	if p.arena == nil {
		return NewStatMap()
	}
	return p.Statistics(p.arena.Name())
}

func (p *Player) AddKill()  { p.currentStats().Inc(StatKills) }
func (p *Player) AddDeath() { p.currentStats().Inc(StatDeaths) }
func (p *Player) AddWin()   { p.currentStats().Inc(StatWins) }
func (p *Player) AddLoss()  { p.currentStats().Inc(StatLosses) }

// AddDamage accumulates damage dealt to opponents.
func (p *Player) AddDamage(amount int) { p.currentStats().Add(StatDamage, amount) }

// TotalStat sums a counter across all arenas this player has fought in.
func (p *Player) TotalStat(t StatType) int {
	sum := 0
	for _, m := range p.statistics {
		sum += m.Get(t)
	}
	return sum
}

// Reset detaches the player from its arena and team and restores the NULL
// status. Statistics survive the reset; the instance stays cached.
func (p *Player) Reset() {
	logger.Log.Debugf("resetting player %s", p.name)

	if p.arena != nil {
		if t := p.Team(); t != nil {
			t.Remove(p)
		}
	}
	p.arena = nil
	p.class = ""
	p.nextClass = ""
	p.mayRespawn = false
	p.SetStatus(StatusNull)
}

// Registry is the process-wide player cache keyed by stable identity.
// Instances are created on first reference and never evicted.
type Registry struct {
	players map[uuid.UUID]*Player
	mutex   sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[uuid.UUID]*Player)}
}

// Lookup returns the cached player for id, creating one with the given name
// on first reference.
func (r *Registry) Lookup(id uuid.UUID, name string) *Player {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if p, ok := r.players[id]; ok {
		return p
	}
	p := newPlayer(id, name)
	r.players[id] = p
	return p
}

// Get returns the cached player for id without creating one.
func (r *Registry) Get(id uuid.UUID) (*Player, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// GetByName finds a cached player by display name.
func (r *Registry) GetByName(name string) (*Player, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, p := range r.players {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// All returns every cached player.
func (r *Registry) All() []*Player {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}
