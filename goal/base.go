// goal/base.go
package goal

import (
	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/spawn"
)

// Base carries the state and behavior every concrete goal needs: the life
// maps, the end-sequence guard and neutral defaults for the hook family.
// Concrete goals embed a Base and override what they care about; there is no
// inheritance chain, just composition.
//
// A life-map entry means the team or player is still eligible to win;
// removing the entry signals elimination.
type Base struct {
	arenaRef *arena.Arena

	teamLives   map[*arena.Team]int
	playerLives map[*arena.Player]int
}

func NewBase(a *arena.Arena) *Base {
	return &Base{
		arenaRef:    a,
		teamLives:   make(map[*arena.Team]int),
		playerLives: make(map[*arena.Player]int),
	}
}

func (b *Base) Arena() *arena.Arena { return b.arenaRef }

// --- team life map ---

func (b *Base) InitTeamLives(t *arena.Team, lives int) {
	b.teamLives[t] = lives
}

func (b *Base) TeamLives(t *arena.Team) (int, bool) {
	lives, ok := b.teamLives[t]
	return lives, ok
}

// DecTeamLife decrements a team's lives, removing the entry when it hits
// zero. Returns the remaining lives and whether the team was eliminated.
func (b *Base) DecTeamLife(t *arena.Team) (int, bool) {
	lives, ok := b.teamLives[t]
	if !ok {
		return 0, false
	}
	lives--
	if lives <= 0 {
		delete(b.teamLives, t)
		logger.Log.Debugf("team %s eliminated", t.Name())
		return 0, true
	}
	b.teamLives[t] = lives
	return lives, false
}

func (b *Base) RemoveTeamLives(t *arena.Team) {
	delete(b.teamLives, t)
}

func (b *Base) ActiveTeamLives() int { return len(b.teamLives) }

// --- player life map ---

func (b *Base) InitPlayerLives(p *arena.Player, lives int) {
	b.playerLives[p] = lives
}

func (b *Base) PlayerLives(p *arena.Player) (int, bool) {
	lives, ok := b.playerLives[p]
	return lives, ok
}

// DecPlayerLife mirrors DecTeamLife for free-for-all goals.
func (b *Base) DecPlayerLife(p *arena.Player) (int, bool) {
	lives, ok := b.playerLives[p]
	if !ok {
		return 0, false
	}
	lives--
	if lives <= 0 {
		delete(b.playerLives, p)
		logger.Log.Debugf("player %s eliminated", p.Name())
		return 0, true
	}
	b.playerLives[p] = lives
	return lives, false
}

func (b *Base) RemovePlayerLives(p *arena.Player) {
	delete(b.playerLives, p)
}

func (b *Base) ActivePlayerLives() int { return len(b.playerLives) }

// --- shared behavior ---

// ScheduleEnding arms the arena end sequence on behalf of CommitEnd. It
// re-checks the arena sentinel, so CommitEnd stays idempotent even when two
// triggers race within one tick.
func (b *Base) ScheduleEnding(conclude func()) bool {
	if b.arenaRef.EndScheduled() {
		logger.Log.Debugf("arena %s: commitEnd skipped, ending already scheduled", b.arenaRef.Name())
		return false
	}
	return b.arenaRef.ScheduleEnd(conclude)
}

// Reset clears both life maps. Safe to call repeatedly and before the match
// ever started.
func (b *Base) Reset(force bool) {
	b.teamLives = make(map[*arena.Team]int)
	b.playerLives = make(map[*arena.Player]int)
}

// TeamScores folds remaining team lives into the timed-end accumulator,
// keyed by team name. Virtual teams carry no score.
func (b *Base) TeamScores(scores map[string]float64) map[string]float64 {
	for t, lives := range b.teamLives {
		if t.IsVirtual() {
			continue
		}
		scores[t.Name()] += float64(lives)
	}
	return scores
}

// PlayerScores folds remaining player lives into the accumulator, keyed by
// player name.
func (b *Base) PlayerScores(scores map[string]float64) map[string]float64 {
	for p, lives := range b.playerLives {
		scores[p.Name()] += float64(lives)
	}
	return scores
}

// --- neutral defaults for the optional contract surface ---

func (b *Base) IsFreeForAll() bool   { return false }
func (b *Base) OverridesStart() bool { return false }

func (b *Base) CommitArenaLoaded() {}

func (b *Base) SetDefaults(defaults map[string]interface{}) {}

func (b *Base) Initiate(p *arena.Player) {}

func (b *Base) HasSpawn(name string) bool { return name == spawn.NameSpawn }

// CheckForMissingSpawns reports which required fight spawns are absent. The
// default requires one spawn per real team.
func (b *Base) CheckForMissingSpawns(spawns []spawn.Spawn) []string {
	var missing []string
	for _, t := range b.arenaRef.RealTeams() {
		found := false
		for _, sp := range spawns {
			if sp.Name == spawn.NameSpawn && sp.Team == t.Name() {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, t.Name()+"_"+spawn.NameSpawn)
		}
	}
	return missing
}

func (b *Base) CheckForMissingBlocks(blocks []spawn.Block) []string { return nil }

// World hooks: no opinion by default.
func (b *Base) CheckBreak(p *arena.Player, block spawn.BlockLocation) error    { return nil }
func (b *Base) CheckPlace(p *arena.Player, block spawn.BlockLocation) error    { return nil }
func (b *Base) CheckInteract(p *arena.Player, block spawn.BlockLocation) error { return nil }
func (b *Base) CheckExplode(block spawn.BlockLocation) error                   { return nil }
func (b *Base) CheckCraft(p *arena.Player, item string) error                  { return nil }
func (b *Base) CheckDrop(p *arena.Player, item string) error                   { return nil }
func (b *Base) CheckPickup(p *arena.Player, item string) error                 { return nil }
func (b *Base) CheckInventory(p *arena.Player) error                           { return nil }
