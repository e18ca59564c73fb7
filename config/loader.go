// config/loader.go
package config

import (
	"fmt"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/goal"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/scheduler"
	"github.com/wfunc/arena/spawn"
)

// TicksPerSecond is the tick rate the second-based config values are scaled
// by. The production loop advances the scheduler at this rate.
const TicksPerSecond = 10

// BuildArenas turns the arena definitions into registered Arena instances.
// A definition that fails validation still registers its arena, but locked:
// visible for inspection and repair, excluded from join and start.
func BuildArenas(cfg *Config, arenas *arena.Manager, goals *goal.Registry,
	sched *scheduler.Scheduler, broadcaster arena.Broadcaster) {

	for name, def := range cfg.Arenas {
		a := arena.New(name, sched, broadcaster)
		arenas.Add(a)

		if err := buildArena(a, def, goals); err != nil {
			logger.Log.Errorf("arena %s failed to load, locking: %v", name, err)
			a.SetLocked(true)
			continue
		}
		logger.Log.Infof("arena %s loaded (goal: %s)", name, def.Goal)
	}
}

func buildArena(a *arena.Arena, def ArenaConfig, goals *goal.Registry) error {
	if len(def.Teams) == 0 {
		return fmt.Errorf("no teams defined")
	}
	for teamName, color := range def.Teams {
		a.AddTeam(arena.NewTeam(teamName, color))
	}

	if def.MinPlayers > 0 {
		a.SetMinPlayers(def.MinPlayers)
	}
	if def.CountdownSeconds > 0 {
		a.SetCountdown(uint64(def.CountdownSeconds * TicksPerSecond))
	}
	if def.TimeLimitSeconds > 0 {
		a.SetTimeLimit(uint64(def.TimeLimitSeconds * TicksPerSecond))
	}
	if def.EndDelaySeconds > 0 {
		a.SetEndDelay(uint64(def.EndDelaySeconds * TicksPerSecond))
	}
	if def.TimerWinner != "" {
		if a.Team(def.TimerWinner) == nil {
			return fmt.Errorf("timer_winner %q is not a team", def.TimerWinner)
		}
		a.SetTimerWinner(def.TimerWinner)
	}

	if err := loadSpawns(a, def); err != nil {
		return err
	}

	g, err := goals.Create(def.Goal, a)
	if err != nil {
		return err
	}
	g.SetDefaults(def.Goals)
	a.SetGoal(g)
	g.CommitArenaLoaded()

	if missing := g.CheckForMissingSpawns(a.Spawns().Spawns()); len(missing) > 0 {
		return fmt.Errorf("missing spawns: %v", missing)
	}
	return nil
}

func loadSpawns(a *arena.Arena, def ArenaConfig) error {
	for node, raw := range def.Spawns {
		name, teamName, className, err := spawn.ParseNode(node)
		if err != nil {
			return err
		}
		if teamName != "" && a.Team(teamName) == nil {
			return fmt.Errorf("%s is not a valid team for spawn %s", teamName, node)
		}
		if className != "" {
			if _, ok := def.Classes[className]; !ok {
				return fmt.Errorf("%s is not a valid class for spawn %s", className, node)
			}
		}
		loc, err := spawn.ParseLocation(raw)
		if err != nil {
			return fmt.Errorf("spawn %s: %w", node, err)
		}
		a.Spawns().Register(spawn.Spawn{
			Name:  name,
			Team:  teamName,
			Class: className,
			Loc:   loc,
		})
	}
	return nil
}
