// arena/arena.go
package arena

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/scheduler"
	"github.com/wfunc/arena/spawn"
)

var (
	ErrAlreadyInArena = errors.New("player is already in an arena")
	ErrUnknownTeam    = errors.New("unknown team")
	ErrArenaLocked    = errors.New("arena is locked")
)

// Broadcaster delivers a message to every participant of an arena. Defined
// here, implemented by the broadcast package, to keep the core free of
// transport concerns.
type Broadcaster interface {
	Broadcast(arenaName, message string)
}

// Module is an attached extension notified on lifecycle boundaries.
// Hook calls are fire-and-forget; the core never consumes a return value.
type Module interface {
	Name() string
	PhaseChanged(a *Arena, from, to Phase)
}

// Arena is one match instance: roster, active goal, lifecycle phase and the
// timers that drive it. Packet handlers and scheduler callbacks reach it from
// different goroutines, so the roster and the timer handles carry their own
// locks next to the phase mutex. Teams and the goal are wired at load time
// and never swapped afterwards.
type Arena struct {
	name   string
	locked bool

	phase           Phase
	fightInProgress bool

	teams    []*Team
	everyone map[*Player]struct{}
	played   map[string]struct{}

	goal        Goal
	modules     []Module
	broadcaster Broadcaster
	sched       *scheduler.Scheduler
	spawns      *spawn.Manager

	// The end task pair doubles as the single-flight sentinel: at most one of
	// the two is live at any moment.
	startTask   *scheduler.Task
	endTask     *scheduler.Task
	realEndTask *scheduler.Task
	timedTask   *scheduler.Task

	countdownTicks  uint64
	timeLimitTicks  uint64
	endDelayTicks   uint64
	resetDelayTicks uint64
	timerWinner     string
	minPlayers      int

	// mutex guards the phase and flag fields, playerMutex the roster and
	// played set, timerMutex the four task handles.
	mutex       sync.RWMutex
	playerMutex sync.RWMutex
	timerMutex  sync.Mutex
}

func New(name string, sched *scheduler.Scheduler, broadcaster Broadcaster) *Arena {
	return &Arena{
		name:            name,
		phase:           PhaseIdle,
		everyone:        make(map[*Player]struct{}),
		played:          make(map[string]struct{}),
		broadcaster:     broadcaster,
		sched:           sched,
		spawns:          spawn.NewManager(),
		countdownTicks:  10,
		endDelayTicks:   5,
		resetDelayTicks: 5,
		minPlayers:      2,
	}
}

func (a *Arena) Name() string { return a.name }

func (a *Arena) Scheduler() *scheduler.Scheduler { return a.sched }

func (a *Arena) Spawns() *spawn.Manager { return a.spawns }

func (a *Arena) IsLocked() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.locked
}

func (a *Arena) SetLocked(locked bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.locked = locked
}

func (a *Arena) Phase() Phase {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.phase
}

func (a *Arena) IsFightInProgress() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.fightInProgress
}

func (a *Arena) SetFightInProgress(v bool) {
	a.mutex.Lock()
	a.fightInProgress = v
	a.mutex.Unlock()
}

func (a *Arena) Goal() Goal { return a.goal }

func (a *Arena) SetGoal(g Goal) { a.goal = g }

func (a *Arena) AttachModule(m Module) {
	a.modules = append(a.modules, m)
}

// Timer settings, in ticks.
func (a *Arena) SetCountdown(ticks uint64)  { a.countdownTicks = ticks }
func (a *Arena) SetTimeLimit(ticks uint64)  { a.timeLimitTicks = ticks }
func (a *Arena) SetEndDelay(ticks uint64)   { a.endDelayTicks = ticks }
func (a *Arena) SetResetDelay(ticks uint64) { a.resetDelayTicks = ticks }
func (a *Arena) TimeLimit() uint64          { return a.timeLimitTicks }

// TimerWinner is the configured forced winner of a timed match, empty if
// unset.
func (a *Arena) TimerWinner() string        { return a.timerWinner }
func (a *Arena) SetTimerWinner(team string) { a.timerWinner = team }
func (a *Arena) MinPlayers() int            { return a.minPlayers }
func (a *Arena) SetMinPlayers(min int)      { a.minPlayers = min }

// --- teams ---

func (a *Arena) AddTeam(t *Team) {
	a.teams = append(a.teams, t)
}

// Teams returns all teams in declaration order, virtual ones included.
func (a *Arena) Teams() []*Team {
	out := make([]*Team, len(a.teams))
	copy(out, a.teams)
	return out
}

// RealTeams returns the non-virtual teams in declaration order.
func (a *Arena) RealTeams() []*Team {
	var out []*Team
	for _, t := range a.teams {
		if !t.IsVirtual() {
			out = append(out, t)
		}
	}
	return out
}

func (a *Arena) Team(name string) *Team {
	for _, t := range a.teams {
		if strings.EqualFold(t.Name(), name) {
			return t
		}
	}
	return nil
}

func (a *Arena) TeamNames() []string {
	out := make([]string, 0, len(a.teams))
	for _, t := range a.teams {
		out = append(out, t.Name())
	}
	return out
}

// --- roster ---

// AddPlayer admits a player into the arena and a team. An empty team name
// auto-balances onto the smallest non-virtual team. A player can be in one
// arena at a time.
func (a *Arena) AddPlayer(p *Player, teamName string) error {
	a.playerMutex.Lock()
	defer a.playerMutex.Unlock()

	if other := p.Arena(); other != nil && other != a {
		return fmt.Errorf("%w: %s", ErrAlreadyInArena, other.Name())
	}

	var target *Team
	if teamName == "" {
		for _, t := range a.RealTeams() {
			if target == nil || t.Size() < target.Size() {
				target = t
			}
		}
	} else {
		target = a.Team(teamName)
		if target == nil || target.IsVirtual() {
			return fmt.Errorf("%w: %s", ErrUnknownTeam, teamName)
		}
	}
	if target == nil {
		return fmt.Errorf("%w: arena %s has no teams", ErrUnknownTeam, a.name)
	}

	p.setArena(a)
	a.everyone[p] = struct{}{}
	target.Add(p)
	logger.Log.Infof("player %s joined arena %s on team %s", p.Name(), a.name, target.Name())
	return nil
}

// AddSpectator admits a player without team membership.
func (a *Arena) AddSpectator(p *Player) error {
	a.playerMutex.Lock()
	defer a.playerMutex.Unlock()

	if other := p.Arena(); other != nil && other != a {
		return fmt.Errorf("%w: %s", ErrAlreadyInArena, other.Name())
	}
	p.setArena(a)
	a.everyone[p] = struct{}{}
	return nil
}

// RemovePlayer detaches a player from roster and team and resets them.
func (a *Arena) RemovePlayer(p *Player) {
	a.playerMutex.Lock()
	defer a.playerMutex.Unlock()
	delete(a.everyone, p)
	p.Reset()
}

// Everyone returns every participant, fighters and spectators alike.
func (a *Arena) Everyone() []*Player {
	a.playerMutex.RLock()
	defer a.playerMutex.RUnlock()
	out := make([]*Player, 0, len(a.everyone))
	for p := range a.everyone {
		out = append(out, p)
	}
	return out
}

// Fighters returns the participants currently in FIGHT status.
func (a *Arena) Fighters() []*Player {
	a.playerMutex.RLock()
	defer a.playerMutex.RUnlock()
	var out []*Player
	for p := range a.everyone {
		if p.Status() == StatusFight {
			out = append(out, p)
		}
	}
	return out
}

func (a *Arena) PlayerCount() int {
	a.playerMutex.RLock()
	defer a.playerMutex.RUnlock()
	return len(a.everyone)
}

// MarkPlayed records that a player entered the fight this match. The timed
// end free-for-all refinement compares winners against this set.
func (a *Arena) MarkPlayed(p *Player) {
	a.playerMutex.Lock()
	defer a.playerMutex.Unlock()
	a.played[p.Name()] = struct{}{}
}

func (a *Arena) PlayedCount() int {
	a.playerMutex.RLock()
	defer a.playerMutex.RUnlock()
	return len(a.played)
}

// --- messaging ---

// Broadcast sends a message to every arena member.
func (a *Arena) Broadcast(message string) {
	logger.Log.Debugf("[%s] broadcast: %s", a.name, message)
	if a.broadcaster != nil {
		a.broadcaster.Broadcast(a.name, message)
	}
}

// --- lifecycle ---

// Transition moves the lifecycle phase along a legal edge, broadcasting the
// boundary and firing module hooks.
func (a *Arena) Transition(to Phase) error {
	a.mutex.Lock()
	from := a.phase
	if !transitionAllowed(from, to) {
		a.mutex.Unlock()
		return fmt.Errorf("%w: %s > %s", ErrTransitionNotAllowed, from, to)
	}
	a.phase = to
	a.mutex.Unlock()

	a.phaseChanged(from, to)
	return nil
}

// forcePhase is the recovery path used by Reset: it skips the edge check but
// still fires the boundary side effects.
func (a *Arena) forcePhase(to Phase) {
	a.mutex.Lock()
	from := a.phase
	a.phase = to
	a.mutex.Unlock()
	if from != to {
		a.phaseChanged(from, to)
	}
}

func (a *Arena) phaseChanged(from, to Phase) {
	logger.Log.Infof("arena %s: %s > %s", a.name, from, to)
	a.Broadcast(fmt.Sprintf("arena is now %s", to))
	for _, m := range a.modules {
		m.PhaseChanged(a, from, to)
	}
}

// ScheduleStart begins the countdown. Returns false if the arena is not idle.
func (a *Arena) ScheduleStart(onElapsed func()) bool {
	a.timerMutex.Lock()
	defer a.timerMutex.Unlock()

	if a.Phase() != PhaseIdle || a.startTask != nil {
		return false
	}
	if err := a.Transition(PhaseStarting); err != nil {
		return false
	}
	a.startTask = a.sched.Schedule(a.countdownTicks, func() {
		a.clearTask(&a.startTask)
		onElapsed()
	})
	return true
}

// CancelStart aborts a running countdown and returns to idle.
func (a *Arena) CancelStart() {
	a.timerMutex.Lock()
	if a.startTask == nil {
		a.timerMutex.Unlock()
		return
	}
	a.startTask.Cancel()
	a.startTask = nil
	a.timerMutex.Unlock()

	if a.Phase() == PhaseStarting {
		_ = a.Transition(PhaseIdle)
	}
}

// ScheduleTimedEnd arms the time-limit task, if a limit is configured.
func (a *Arena) ScheduleTimedEnd(onElapsed func()) {
	if a.timeLimitTicks == 0 {
		return
	}
	a.timerMutex.Lock()
	defer a.timerMutex.Unlock()
	a.timedTask = a.sched.Schedule(a.timeLimitTicks, func() {
		a.clearTask(&a.timedTask)
		onElapsed()
	})
}

// EndScheduled reports whether an end sequence is already in flight.
func (a *Arena) EndScheduled() bool {
	a.timerMutex.Lock()
	defer a.timerMutex.Unlock()
	return a.endTask != nil || a.realEndTask != nil
}

// ScheduleEnd arms the end sequence: after the end delay the conclude
// callback runs and the chained reset task is queued. The sequence is
// single-flight; a second call while either handle is live is a no-op
// returning false.
func (a *Arena) ScheduleEnd(conclude func()) bool {
	a.timerMutex.Lock()
	defer a.timerMutex.Unlock()

	if a.endTask != nil || a.realEndTask != nil {
		logger.Log.Debugf("arena %s: end already scheduled", a.name)
		return false
	}
	if err := a.Transition(PhaseEnding); err != nil {
		logger.Log.Debugf("arena %s: %v", a.name, err)
		return false
	}

	a.endTask = a.sched.Schedule(a.endDelayTicks, func() {
		a.clearTask(&a.endTask)
		a.SetFightInProgress(false)
		if conclude != nil {
			conclude()
		}
		a.timerMutex.Lock()
		a.realEndTask = a.sched.Schedule(a.resetDelayTicks, func() {
			a.clearTask(&a.realEndTask)
			a.Reset(false)
		})
		a.timerMutex.Unlock()
	})
	return true
}

func (a *Arena) clearTask(slot **scheduler.Task) {
	a.timerMutex.Lock()
	*slot = nil
	a.timerMutex.Unlock()
}

// CancelTimers cancels every outstanding task and nulls the handles,
// including the chained real end task.
func (a *Arena) CancelTimers() {
	a.timerMutex.Lock()
	defer a.timerMutex.Unlock()
	for _, t := range []*scheduler.Task{a.startTask, a.endTask, a.realEndTask, a.timedTask} {
		t.Cancel()
	}
	a.startTask = nil
	a.endTask = nil
	a.realEndTask = nil
	a.timedTask = nil
}

// Reset returns the arena to a clean idle state regardless of outcome: goal
// state cleared, timers cancelled, roster emptied.
func (a *Arena) Reset(force bool) {
	logger.Log.Infof("resetting arena %s (force: %v)", a.name, force)

	if a.goal != nil {
		a.goal.Reset(force)
	}
	a.CancelTimers()
	a.SetFightInProgress(false)

	a.playerMutex.Lock()
	for p := range a.everyone {
		p.Reset()
	}
	a.everyone = make(map[*Player]struct{})
	a.played = make(map[string]struct{})
	for _, t := range a.teams {
		for _, p := range t.Members() {
			t.Remove(p)
		}
	}
	a.playerMutex.Unlock()

	a.forcePhase(PhaseReset)
	a.forcePhase(PhaseIdle)
}
