// workflow/manager.go
package workflow

import (
	"errors"
	"fmt"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/scheduler"
	"github.com/wfunc/arena/spawn"
	"github.com/wfunc/arena/team"
)

var (
	ErrFightInProgress = errors.New("fight already in progress")
	ErrNotInArena      = errors.New("player is not in this arena")
	ErrNoGoal          = errors.New("arena has no goal")
)

// Tick delays for the small follow-up actions that must not run inside the
// event that triggered them.
const (
	respawnDelayTicks = 3
	leaveDelayTicks   = 5
	loadoutDelayTicks = 10
)

// StatsSink receives fire-and-forget notifications at kill/death/win/loss
// boundaries. The core never consumes a return value from it.
type StatsSink interface {
	RecordStat(p *arena.Player, arenaName string, stat arena.StatType, delta int)
	SaveMatchOutcome(arenaName, goalName string, winners []string, draw bool)
}

// Teleporter moves a participant to a resolved location. Implemented by the
// world integration layer.
type Teleporter interface {
	Teleport(p *arena.Player, loc spawn.Location)
}

// LoadoutRestorer gives a leaving player their saved loadout back. Invoked
// with a tick delay, never synchronously from the leave event.
type LoadoutRestorer interface {
	Restore(p *arena.Player, items []string)
}

// Observer receives match lifecycle metrics events.
type Observer interface {
	PlayerJoined()
	PlayerLeft()
	MatchStarted()
	MatchEnded(outcome string)
}

// Manager sequences the join, spectate, death and end flows. It is stateless
// beyond the collaborators it is handed: all match state lives on the Arena.
type Manager struct {
	arenas   *arena.Manager
	sched    *scheduler.Scheduler
	stats    StatsSink
	teleport Teleporter
	loadout  LoadoutRestorer
	observer Observer
}

func NewManager(arenas *arena.Manager, sched *scheduler.Scheduler) *Manager {
	return &Manager{arenas: arenas, sched: sched}
}

func (m *Manager) SetStatsSink(s StatsSink)             { m.stats = s }
func (m *Manager) SetTeleporter(t Teleporter)           { m.teleport = t }
func (m *Manager) SetLoadoutRestorer(l LoadoutRestorer) { m.loadout = l }
func (m *Manager) SetObserver(o Observer)               { m.observer = o }

func (m *Manager) Arenas() *arena.Manager { return m.arenas }

// HandleJoin admits a player into an arena lounge. An empty teamName
// auto-balances. Configuration problems surface as errors for the triggering
// sender; the arena is left unchanged.
func (m *Manager) HandleJoin(a *arena.Arena, p *arena.Player, teamName string) error {
	if a.IsLocked() {
		return fmt.Errorf("%w: %s", arena.ErrArenaLocked, a.Name())
	}
	if a.IsFightInProgress() {
		return fmt.Errorf("%w: %s", ErrFightInProgress, a.Name())
	}
	if err := a.AddPlayer(p, teamName); err != nil {
		return err
	}

	p.SetStatus(arena.StatusWarm)
	m.teleportTo(a, p, spawn.NameLounge)
	p.SetStatus(arena.StatusLounge)

	// A player admitted while the countdown runs gets a lazy life-map entry.
	if g := a.Goal(); g != nil && a.Phase() == arena.PhaseStarting {
		g.Initiate(p)
	}

	a.Broadcast(fmt.Sprintf("%s joined the arena", p.Name()))
	if m.observer != nil {
		m.observer.PlayerJoined()
	}
	return nil
}

// HandleSpectate admits a player as a watcher.
func (m *Manager) HandleSpectate(a *arena.Arena, p *arena.Player) error {
	if a.IsLocked() {
		return fmt.Errorf("%w: %s", arena.ErrArenaLocked, a.Name())
	}
	if err := a.AddSpectator(p); err != nil {
		return err
	}
	p.SetStatus(arena.StatusWatch)
	m.teleportTo(a, p, spawn.NameSpectator)
	return nil
}

// HandleReady flags a player ready (optionally picking a class) and starts
// the countdown once the readiness threshold is met.
func (m *Manager) HandleReady(a *arena.Arena, p *arena.Player, class string) error {
	if p.Arena() != a {
		return ErrNotInArena
	}
	if class != "" {
		p.SetClass(class)
	}
	p.SetStatus(arena.StatusReady)

	if a.Phase() == arena.PhaseIdle &&
		a.PlayerCount() >= a.MinPlayers() &&
		team.IsEveryoneReady(a) {
		m.StartCountdown(a)
	}
	return nil
}

// StartCountdown moves the arena into STARTING and schedules the start
// commit. No-op if the arena is not idle.
func (m *Manager) StartCountdown(a *arena.Arena) bool {
	if a.Goal() == nil {
		logger.Log.Warnf("arena %s cannot start: no goal", a.Name())
		return false
	}
	if !a.ScheduleStart(func() { m.commitStart(a) }) {
		return false
	}
	a.Broadcast("the match is starting")
	return true
}

// commitStart runs when the countdown elapses.
func (m *Manager) commitStart(a *arena.Arena) {
	g := a.Goal()
	if g == nil {
		a.CancelStart()
		return
	}

	if err := g.ParseStart(); err != nil {
		logger.Log.Errorf("arena %s: start aborted: %v", a.Name(), err)
		a.Broadcast("the match could not start")
		a.Reset(true)
		return
	}

	if g.OverridesStart() {
		// Role assignment already happened in ParseStart; the goal performs
		// its own spawning.
		g.CommitStart()
	} else {
		m.spawnFighters(a)
		g.CommitStart()
	}

	if err := a.Transition(arena.PhaseFight); err != nil {
		logger.Log.Errorf("arena %s: %v", a.Name(), err)
		return
	}
	a.SetFightInProgress(true)
	a.ScheduleTimedEnd(func() { m.runTimedEnd(a) })
	a.Broadcast("fight!")

	if m.observer != nil {
		m.observer.MatchStarted()
	}
}

// spawnFighters distributes every waiting player across their team's spawn
// points and moves them into the fight.
func (m *Manager) spawnFighters(a *arena.Arena) {
	byTeam := make(map[string][]string)
	byName := make(map[string]*arena.Player)

	for _, t := range a.RealTeams() {
		for _, p := range t.Members() {
			switch p.Status() {
			case arena.StatusWarm, arena.StatusLounge, arena.StatusReady:
				byTeam[t.Name()] = append(byTeam[t.Name()], p.Name())
				byName[p.Name()] = p
			}
		}
	}

	assignment := a.Spawns().DistributeTeams(byTeam)
	for name, p := range byName {
		if sp, ok := assignment[name]; ok {
			m.doTeleport(p, sp.Resolved())
		} else {
			m.teleportTo(a, p, spawn.NameSpawn)
		}
		p.SetStatus(arena.StatusFight)
		a.MarkPlayed(p)
	}
}

// HandleEnd is the single-flight choke point for every end trigger. It
// returns false without side effects when an end sequence is already in
// flight, otherwise consults the goal. CommitEnd re-checks the sentinel
// itself: two independent triggers within one tick must not schedule two end
// sequences.
func (m *Manager) HandleEnd(a *arena.Arena, force bool) bool {
	if a.EndScheduled() {
		logger.Log.Debugf("arena %s: end already in flight", a.Name())
		return false
	}
	g := a.Goal()
	if g == nil {
		return false
	}
	if force || g.CheckEnd() {
		g.CommitEnd(force)
		if m.observer != nil {
			m.observer.MatchEnded("goal")
		}
		return true
	}
	return false
}

// HandlePlayerDeath sequences a death: visual effect, respawn decision, then
// the end check.
func (m *Manager) HandlePlayerDeath(a *arena.Arena, p *arena.Player, death *arena.DeathInfo) {
	if p.Arena() != a {
		return
	}
	g := a.Goal()
	if g == nil {
		return
	}

	// Fake-death effect: the victim never sees a real death screen.
	a.Broadcast(fmt.Sprintf("%s was defeated (%s)", p.Name(), death.Cause))

	p.AddDeath()
	m.recordStat(p, a.Name(), arena.StatDeaths, 1)
	if k := death.Killer; k != nil && k != p {
		k.AddKill()
		m.recordStat(k, a.Name(), arena.StatKills, 1)
		if death.Damage > 0 {
			k.AddDamage(death.Damage)
			m.recordStat(k, a.Name(), arena.StatDamage, death.Damage)
		}
	}

	if g.ShouldRespawnPlayer(p, death) {
		p.SetStatus(arena.StatusDead)
		m.scheduleRespawn(a, p)
	} else {
		g.CommitPlayerDeath(p, false, death)
		if p.Status() == arena.StatusLost {
			m.creditLoss(a, p)
			m.scheduleLeave(a, p)
		}
	}

	m.HandleEnd(a, false)
}

// HandleLeave removes a player from the match without treating the departure
// as a death. Leaving mid-fight still counts as a loss.
func (m *Manager) HandleLeave(a *arena.Arena, p *arena.Player) error {
	if p.Arena() != a {
		return ErrNotInArena
	}
	if g := a.Goal(); g != nil {
		g.ParseLeave(p)
	}
	if p.Status() == arena.StatusFight && a.IsFightInProgress() {
		m.creditLoss(a, p)
	}

	m.restoreLoadoutLater(p)
	m.teleportTo(a, p, spawn.NameExit)
	a.RemovePlayer(p)
	a.Broadcast(fmt.Sprintf("%s left the arena", p.Name()))

	if m.observer != nil {
		m.observer.PlayerLeft()
	}
	m.HandleEnd(a, false)
	return nil
}

// ForceReset aborts whatever the arena is doing and returns it to idle.
func (m *Manager) ForceReset(a *arena.Arena) {
	a.Reset(true)
}

// --- internals ---

func (m *Manager) scheduleRespawn(a *arena.Arena, p *arena.Player) {
	m.sched.Schedule(respawnDelayTicks, func() {
		if p.Arena() != a || p.Status() != arena.StatusDead {
			return
		}
		p.ApplyNextClass()

		teamName := ""
		if t := p.Team(); t != nil {
			teamName = t.Name()
		}
		if sp, ok := a.Spawns().ResolveOrFallback(spawn.NameSpawn, teamName, p.Class(), spawn.NameSpectator); ok {
			m.doTeleport(p, sp.Resolved())
		}
		p.SetStatus(arena.StatusFight)
	})
}

// scheduleLeave queues the physical removal of a lost player. The delay keeps
// the removal out of the event that caused it.
func (m *Manager) scheduleLeave(a *arena.Arena, p *arena.Player) {
	m.sched.Schedule(leaveDelayTicks, func() {
		if p.Arena() != a {
			return
		}
		m.restoreLoadoutLater(p)
		m.teleportTo(a, p, spawn.NameExit)
		a.RemovePlayer(p)
	})
}

func (m *Manager) restoreLoadoutLater(p *arena.Player) {
	items := p.TakeSavedLoadout()
	if len(items) == 0 || m.loadout == nil {
		return
	}
	restorer := m.loadout
	m.sched.Schedule(loadoutDelayTicks, func() {
		restorer.Restore(p, items)
	})
}

// creditLoss marks the statistics of a losing player before removal.
func (m *Manager) creditLoss(a *arena.Arena, p *arena.Player) {
	p.AddLoss()
	m.recordStat(p, a.Name(), arena.StatLosses, 1)
}

func (m *Manager) creditWin(a *arena.Arena, p *arena.Player) {
	p.AddWin()
	m.recordStat(p, a.Name(), arena.StatWins, 1)
}

func (m *Manager) recordStat(p *arena.Player, arenaName string, stat arena.StatType, delta int) {
	if m.stats != nil {
		m.stats.RecordStat(p, arenaName, stat, delta)
	}
}

func (m *Manager) teleportTo(a *arena.Arena, p *arena.Player, name string) {
	teamName := ""
	if t := p.Team(); t != nil {
		teamName = t.Name()
	}
	sp, ok := a.Spawns().ResolveOrFallback(name, teamName, p.Class(), spawn.NameSpectator)
	if !ok {
		logger.Log.Debugf("arena %s: no spawn for %s", a.Name(), name)
		return
	}
	m.doTeleport(p, sp.Resolved())
}

func (m *Manager) doTeleport(p *arena.Player, loc spawn.Location) {
	p.SetLocation(loc)
	if m.teleport != nil {
		m.teleport.Teleport(p, loc)
	}
}
