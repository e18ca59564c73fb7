package workflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/goal"
	"github.com/wfunc/arena/scheduler"
	"github.com/wfunc/arena/spawn"
)

// MockBroadcaster records every arena broadcast.
type MockBroadcaster struct {
	messages []string
}

func (m *MockBroadcaster) Broadcast(arenaName, message string) {
	m.messages = append(m.messages, message)
}

// MockStatsSink records stat and outcome notifications.
type MockStatsSink struct {
	stats    []string // "player:stat"
	deltas   map[string]int
	outcomes []matchOutcome
}

type matchOutcome struct {
	arenaName string
	winners   []string
	draw      bool
}

func (m *MockStatsSink) RecordStat(p *arena.Player, arenaName string, stat arena.StatType, delta int) {
	key := p.Name() + ":" + string(stat)
	m.stats = append(m.stats, key)
	if m.deltas == nil {
		m.deltas = make(map[string]int)
	}
	m.deltas[key] += delta
}

func (m *MockStatsSink) SaveMatchOutcome(arenaName, goalName string, winners []string, draw bool) {
	m.outcomes = append(m.outcomes, matchOutcome{arenaName: arenaName, winners: winners, draw: draw})
}

func (m *MockStatsSink) count(key string) int {
	n := 0
	for _, s := range m.stats {
		if s == key {
			n++
		}
	}
	return n
}

// MockTeleporter records every teleport target by player name.
type MockTeleporter struct {
	moves map[string][]spawn.Location
}

func (m *MockTeleporter) Teleport(p *arena.Player, loc spawn.Location) {
	if m.moves == nil {
		m.moves = make(map[string][]spawn.Location)
	}
	m.moves[p.Name()] = append(m.moves[p.Name()], loc)
}

// MockObserver counts lifecycle events.
type MockObserver struct {
	joined, left, started int
	ended                 []string
}

func (m *MockObserver) PlayerJoined()             { m.joined++ }
func (m *MockObserver) PlayerLeft()               { m.left++ }
func (m *MockObserver) MatchStarted()             { m.started++ }
func (m *MockObserver) MatchEnded(outcome string) { m.ended = append(m.ended, outcome) }

// fakeGoal composes goal.Base the way a concrete goal would and exposes knobs
// for the behavior under test.
type fakeGoal struct {
	*goal.Base

	endReached    bool
	respawn       bool
	freeForAll    bool
	parseStartErr error
	scores        map[string]float64

	commitEnds   int
	parseLeaves  int
	deathCommits int
}

func newFakeGoal(a *arena.Arena) *fakeGoal {
	return &fakeGoal{Base: goal.NewBase(a), respawn: true}
}

func (g *fakeGoal) Name() string       { return "fake" }
func (g *fakeGoal) IsFreeForAll() bool { return g.freeForAll }

func (g *fakeGoal) ParseStart() error { return g.parseStartErr }
func (g *fakeGoal) CommitStart()      {}

func (g *fakeGoal) CheckEnd() bool { return g.endReached }

func (g *fakeGoal) CommitEnd(force bool) {
	g.ScheduleEnding(func() { g.commitEnds++ })
}

func (g *fakeGoal) CommitPlayerDeath(p *arena.Player, doesRespawn bool, death *arena.DeathInfo) {
	g.deathCommits++
	if !doesRespawn {
		p.SetStatus(arena.StatusLost)
	}
}

func (g *fakeGoal) ShouldRespawnPlayer(p *arena.Player, death *arena.DeathInfo) bool {
	return g.respawn
}

func (g *fakeGoal) ParseLeave(p *arena.Player) { g.parseLeaves++ }

func (g *fakeGoal) TimedEnd(scores map[string]float64) map[string]float64 {
	for k, v := range g.scores {
		scores[k] += v
	}
	return scores
}

// testSetup bundles one arena with its workflow manager and mocks.
type testSetup struct {
	sched    *scheduler.Scheduler
	arena    *arena.Arena
	goal     *fakeGoal
	manager  *Manager
	registry *arena.Registry
	bcast    *MockBroadcaster
	sink     *MockStatsSink
	teleport *MockTeleporter
	observer *MockObserver
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()

	s := &testSetup{
		sched:    scheduler.New(),
		registry: arena.NewRegistry(),
		bcast:    &MockBroadcaster{},
		sink:     &MockStatsSink{},
		teleport: &MockTeleporter{},
		observer: &MockObserver{},
	}

	a := arena.New("workflow", s.sched, s.bcast)
	a.AddTeam(arena.NewTeam("red", "RED"))
	a.AddTeam(arena.NewTeam("blue", "BLUE"))
	a.SetCountdown(2)
	a.SetEndDelay(2)
	a.SetResetDelay(2)

	sp := a.Spawns()
	sp.Register(spawn.Spawn{Name: spawn.NameLounge, Loc: spawn.Location{World: "world", Y: 70}})
	sp.Register(spawn.Spawn{Name: spawn.NameSpectator, Loc: spawn.Location{World: "world", Y: 100}})
	sp.Register(spawn.Spawn{Name: spawn.NameExit, Loc: spawn.Location{World: "world", Y: 60}})
	sp.Register(spawn.Spawn{Name: spawn.NameSpawn, Team: "red", Loc: spawn.Location{World: "world", X: -10}})
	sp.Register(spawn.Spawn{Name: spawn.NameSpawn, Team: "blue", Loc: spawn.Location{World: "world", X: 10}})

	s.goal = newFakeGoal(a)
	a.SetGoal(s.goal)
	s.arena = a

	arenas := arena.NewManager()
	arenas.Add(a)

	s.manager = NewManager(arenas, s.sched)
	s.manager.SetStatsSink(s.sink)
	s.manager.SetTeleporter(s.teleport)
	s.manager.SetObserver(s.observer)
	return s
}

func (s *testSetup) join(t *testing.T, name, team string) *arena.Player {
	t.Helper()
	p := s.registry.Lookup(uuid.New(), name)
	if err := s.manager.HandleJoin(s.arena, p, team); err != nil {
		t.Fatalf("HandleJoin(%s): %v", name, err)
	}
	return p
}

// startFight walks two players through ready and the countdown.
func (s *testSetup) startFight(t *testing.T) (*arena.Player, *arena.Player) {
	t.Helper()
	p1 := s.join(t, "p1", "red")
	p2 := s.join(t, "p2", "blue")

	if err := s.manager.HandleReady(s.arena, p1, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.manager.HandleReady(s.arena, p2, ""); err != nil {
		t.Fatal(err)
	}
	s.sched.Advance(2)

	if s.arena.Phase() != arena.PhaseFight {
		t.Fatalf("Expected FIGHT after the countdown, got %s", s.arena.Phase())
	}
	return p1, p2
}

func TestManager_HandleJoin(t *testing.T) {
	s := newTestSetup(t)

	p := s.join(t, "p1", "red")

	if p.Status() != arena.StatusLounge {
		t.Errorf("Expected LOUNGE after join, got %s", p.Status())
	}
	if got := s.teleport.moves["p1"]; len(got) != 1 || got[0].Y != 70 {
		t.Errorf("Expected one teleport to the lounge, got %v", got)
	}
	if s.observer.joined != 1 {
		t.Errorf("Expected 1 join event, got %d", s.observer.joined)
	}
}

func TestManager_HandleJoinLockedArena(t *testing.T) {
	s := newTestSetup(t)
	s.arena.SetLocked(true)

	p := s.registry.Lookup(uuid.New(), "p1")
	err := s.manager.HandleJoin(s.arena, p, "")
	if !errors.Is(err, arena.ErrArenaLocked) {
		t.Errorf("Expected ErrArenaLocked, got %v", err)
	}
	if p.Arena() != nil {
		t.Error("A rejected join must leave the player detached")
	}
}

func TestManager_HandleJoinDuringFight(t *testing.T) {
	s := newTestSetup(t)
	s.startFight(t)

	p := s.registry.Lookup(uuid.New(), "late")
	err := s.manager.HandleJoin(s.arena, p, "")
	if !errors.Is(err, ErrFightInProgress) {
		t.Errorf("Expected ErrFightInProgress, got %v", err)
	}
}

func TestManager_HandleSpectate(t *testing.T) {
	s := newTestSetup(t)

	p := s.registry.Lookup(uuid.New(), "watcher")
	if err := s.manager.HandleSpectate(s.arena, p); err != nil {
		t.Fatal(err)
	}
	if p.Status() != arena.StatusWatch {
		t.Errorf("Expected WATCH, got %s", p.Status())
	}
	if got := s.teleport.moves["watcher"]; len(got) != 1 || got[0].Y != 100 {
		t.Errorf("Expected teleport to the spectator point, got %v", got)
	}
}

func TestManager_ReadyStartsCountdownAndFight(t *testing.T) {
	s := newTestSetup(t)

	p1 := s.join(t, "p1", "red")
	p2 := s.join(t, "p2", "blue")

	if err := s.manager.HandleReady(s.arena, p1, "archer"); err != nil {
		t.Fatal(err)
	}
	if s.arena.Phase() != arena.PhaseIdle {
		t.Fatal("One ready player of two must not start the countdown")
	}
	if p1.Class() != "archer" {
		t.Errorf("Expected the chosen class set, got %q", p1.Class())
	}

	if err := s.manager.HandleReady(s.arena, p2, ""); err != nil {
		t.Fatal(err)
	}
	if s.arena.Phase() != arena.PhaseStarting {
		t.Fatalf("Expected STARTING once everyone is ready, got %s", s.arena.Phase())
	}

	s.sched.Advance(2)

	if s.arena.Phase() != arena.PhaseFight {
		t.Fatalf("Expected FIGHT, got %s", s.arena.Phase())
	}
	if !s.arena.IsFightInProgress() {
		t.Error("Fight flag must be set at start commit")
	}
	if p1.Status() != arena.StatusFight || p2.Status() != arena.StatusFight {
		t.Errorf("Expected both fighters in FIGHT, got %s / %s", p1.Status(), p2.Status())
	}
	if s.arena.PlayedCount() != 2 {
		t.Errorf("Expected both players marked played, got %d", s.arena.PlayedCount())
	}
	if s.observer.started != 1 {
		t.Errorf("Expected 1 match start event, got %d", s.observer.started)
	}

	// Fighters were distributed onto their team points.
	if got := s.teleport.moves["p1"]; len(got) != 2 || got[1].X != -10 {
		t.Errorf("Expected p1 on the red point, got %v", got)
	}
	if got := s.teleport.moves["p2"]; len(got) != 2 || got[1].X != 10 {
		t.Errorf("Expected p2 on the blue point, got %v", got)
	}
}

func TestManager_MinPlayersGateCountdown(t *testing.T) {
	s := newTestSetup(t)

	p1 := s.join(t, "p1", "red")
	if err := s.manager.HandleReady(s.arena, p1, ""); err != nil {
		t.Fatal(err)
	}
	if s.arena.Phase() != arena.PhaseIdle {
		t.Error("A lone ready player below min_players must not start the countdown")
	}
}

func TestManager_StartAbortsOnParseError(t *testing.T) {
	s := newTestSetup(t)
	s.goal.parseStartErr = errors.New("roles unassignable")

	p1 := s.join(t, "p1", "red")
	p2 := s.join(t, "p2", "blue")
	s.manager.HandleReady(s.arena, p1, "")
	s.manager.HandleReady(s.arena, p2, "")

	s.sched.Advance(2)

	if s.arena.Phase() != arena.PhaseIdle {
		t.Errorf("Expected the aborted start to reset to IDLE, got %s", s.arena.Phase())
	}
	if s.arena.PlayerCount() != 0 {
		t.Errorf("Expected the forced reset to clear the roster, got %d", s.arena.PlayerCount())
	}
	if s.observer.started != 0 {
		t.Error("An aborted start is not a match start")
	}
}

func TestManager_HandleEndIsSingleFlight(t *testing.T) {
	s := newTestSetup(t)
	s.startFight(t)
	s.goal.endReached = true

	if !s.manager.HandleEnd(s.arena, false) {
		t.Fatal("First HandleEnd should trigger the end sequence")
	}
	if s.manager.HandleEnd(s.arena, false) {
		t.Fatal("Second HandleEnd must see the armed sequence and decline")
	}

	s.sched.Advance(4)
	if s.goal.commitEnds != 1 {
		t.Errorf("Expected exactly one conclusion, got %d", s.goal.commitEnds)
	}
	if s.arena.Phase() != arena.PhaseIdle {
		t.Errorf("Expected IDLE after the end sequence, got %s", s.arena.Phase())
	}
}

func TestManager_HandleEndNotReached(t *testing.T) {
	s := newTestSetup(t)
	s.startFight(t)
	s.goal.endReached = false

	if s.manager.HandleEnd(s.arena, false) {
		t.Error("HandleEnd must decline while the goal sees no outcome")
	}
	if s.manager.HandleEnd(s.arena, true) != true {
		t.Error("A forced end bypasses the goal predicate")
	}
}

func TestManager_PlayerDeathWithRespawn(t *testing.T) {
	s := newTestSetup(t)
	p1, p2 := s.startFight(t)
	s.goal.respawn = true
	p1.SetNextClass("mage")

	s.manager.HandlePlayerDeath(s.arena, p1, &arena.DeathInfo{Cause: "lava", Killer: p2})

	if p1.Status() != arena.StatusDead {
		t.Fatalf("Expected DEAD pending respawn, got %s", p1.Status())
	}
	if s.sink.count("p1:deaths") != 1 || s.sink.count("p2:kills") != 1 {
		t.Errorf("Expected death and kill recorded, got %v", s.sink.stats)
	}

	s.sched.Advance(respawnDelayTicks)

	if p1.Status() != arena.StatusFight {
		t.Errorf("Expected FIGHT after respawn, got %s", p1.Status())
	}
	if p1.Class() != "mage" {
		t.Errorf("Expected the pending class applied on respawn, got %q", p1.Class())
	}
}

func TestManager_PlayerDeathCreditsDamageDealt(t *testing.T) {
	s := newTestSetup(t)
	p1, p2 := s.startFight(t)

	s.manager.HandlePlayerDeath(s.arena, p1, &arena.DeathInfo{Cause: "sword", Killer: p2, Damage: 7})

	if got := s.sink.deltas["p2:damage"]; got != 7 {
		t.Errorf("Expected 7 damage recorded for the killer, got %d", got)
	}
	if got := p2.Statistics(s.arena.Name()).Get(arena.StatDamage); got != 7 {
		t.Errorf("Expected the killer's damage counter at 7, got %d", got)
	}
	if got := s.sink.deltas["p1:damage"]; got != 0 {
		t.Errorf("The victim deals no damage, got %d", got)
	}
}

func TestManager_PlayerDeathSelfKillNotCredited(t *testing.T) {
	s := newTestSetup(t)
	p1, _ := s.startFight(t)

	s.manager.HandlePlayerDeath(s.arena, p1, &arena.DeathInfo{Cause: "void", Killer: p1, Damage: 4})

	if s.sink.count("p1:kills") != 0 {
		t.Error("A self kill must not be credited")
	}
	if s.sink.count("p1:deaths") != 1 {
		t.Error("The death itself is still recorded")
	}
	if s.sink.deltas["p1:damage"] != 0 {
		t.Error("Self-inflicted damage must not be credited")
	}
}

func TestManager_PlayerDeathWithoutRespawnLoses(t *testing.T) {
	s := newTestSetup(t)
	p1, _ := s.startFight(t)
	s.goal.respawn = false

	s.manager.HandlePlayerDeath(s.arena, p1, &arena.DeathInfo{Cause: "sword"})

	if s.goal.deathCommits != 1 {
		t.Fatalf("Expected CommitPlayerDeath called once, got %d", s.goal.deathCommits)
	}
	if p1.Status() != arena.StatusLost {
		t.Fatalf("Expected LOST, got %s", p1.Status())
	}
	if s.sink.count("p1:losses") != 1 {
		t.Errorf("Expected the loss recorded, got %v", s.sink.stats)
	}

	// The physical removal is delayed, then the player is detached.
	if p1.Arena() != s.arena {
		t.Fatal("Removal must not happen inside the death event")
	}
	s.sched.Advance(leaveDelayTicks)
	if p1.Arena() != nil {
		t.Error("Expected the lost player removed after the delay")
	}
}

func TestManager_HandleLeaveMidFightCountsAsLoss(t *testing.T) {
	s := newTestSetup(t)
	p1, _ := s.startFight(t)
	p1.SaveLoadout([]string{"sword"})

	if err := s.manager.HandleLeave(s.arena, p1); err != nil {
		t.Fatal(err)
	}

	if s.goal.parseLeaves != 1 {
		t.Errorf("Expected ParseLeave called once, got %d", s.goal.parseLeaves)
	}
	if s.sink.count("p1:losses") != 1 {
		t.Errorf("Expected the ragequit recorded as a loss, got %v", s.sink.stats)
	}
	if p1.Arena() != nil || p1.Status() != arena.StatusNull {
		t.Error("Expected the player detached and NULL")
	}
	if s.observer.left != 1 {
		t.Errorf("Expected 1 leave event, got %d", s.observer.left)
	}

	// Loadout restore is scheduled, not synchronous.
	if len(s.teleport.moves["p1"]) != 3 {
		t.Errorf("Expected lounge, spawn and exit teleports, got %v", s.teleport.moves["p1"])
	}
}

func TestManager_HandleLeaveBeforeFightNoLoss(t *testing.T) {
	s := newTestSetup(t)
	p1 := s.join(t, "p1", "red")

	if err := s.manager.HandleLeave(s.arena, p1); err != nil {
		t.Fatal(err)
	}
	if s.sink.count("p1:losses") != 0 {
		t.Error("Leaving the lounge is not a loss")
	}
}

func TestManager_HandleLeaveNotInArena(t *testing.T) {
	s := newTestSetup(t)
	p := s.registry.Lookup(uuid.New(), "stranger")

	if err := s.manager.HandleLeave(s.arena, p); !errors.Is(err, ErrNotInArena) {
		t.Errorf("Expected ErrNotInArena, got %v", err)
	}
}

func TestManager_ForceReset(t *testing.T) {
	s := newTestSetup(t)
	s.startFight(t)

	s.manager.ForceReset(s.arena)

	if s.arena.Phase() != arena.PhaseIdle {
		t.Errorf("Expected IDLE after force reset, got %s", s.arena.Phase())
	}
	if s.arena.IsFightInProgress() {
		t.Error("Force reset must clear the fight flag")
	}
	if s.arena.PlayerCount() != 0 {
		t.Error("Force reset must clear the roster")
	}
}
