// arena/goal.go
package arena

import (
	"errors"
	"fmt"

	"github.com/wfunc/arena/spawn"
)

// Goal is the pluggable win-condition engine of one arena. One live instance
// per arena, swapped wholesale when the arena's goal type changes.
//
// The interface is declared here, next to the Arena that consumes it; the
// goal package supplies the shared helper concrete goals compose with.
type Goal interface {
	Name() string

	// IsFreeForAll marks goals that score players individually rather than
	// by team.
	IsFreeForAll() bool

	// OverridesStart marks goals that take full control of ParseStart and
	// CommitStart, e.g. when role assignment must happen before any teleport.
	OverridesStart() bool

	// CommitArenaLoaded runs once when the arena definition has been loaded.
	// Goals register their virtual teams here.
	CommitArenaLoaded()

	// SetDefaults lets the goal declare its configuration defaults.
	SetDefaults(defaults map[string]interface{})

	// ParseStart computes goal-internal state (life maps, roles) before any
	// player is moved. CommitStart performs the moves.
	ParseStart() error
	CommitStart()

	// Initiate lazily establishes the life-map entry of a player admitted
	// mid-setup or on late join.
	Initiate(p *Player)

	// CheckEnd is a pure predicate: true exactly when the match has a decided
	// or drawn outcome.
	CheckEnd() bool

	// CommitEnd announces the outcome and schedules the ending transition.
	// Idempotent: it must self-guard against an end sequence already running.
	CommitEnd(force bool)

	// CommitPlayerDeath decrements life counters and decides LOST versus
	// respawn, including any role-reassignment side effects.
	CommitPlayerDeath(p *Player, doesRespawn bool, death *DeathInfo)

	// ShouldRespawnPlayer decides whether the death flow short-circuits
	// straight to LOST.
	ShouldRespawnPlayer(p *Player, death *DeathInfo) bool

	// ParseLeave removes a leaving player's life-map entry without treating
	// the departure as a death.
	ParseLeave(p *Player)

	// Reset clears all goal-internal state. Safe to call on a match that
	// never fully started, and on repeat.
	Reset(force bool)

	// TimedEnd folds this goal's notion of current score per team or player
	// into the shared accumulator. Pure over the life maps.
	TimedEnd(scores map[string]float64) map[string]float64

	// Declarative self-description consumed by setup tooling.
	HasSpawn(name string) bool
	CheckForMissingSpawns(spawns []spawn.Spawn) []string
	CheckForMissingBlocks(blocks []spawn.Block) []string

	// World hook family. A nil return means the goal has no opinion; an
	// explicit veto is reported as a *VetoError.
	CheckBreak(p *Player, block spawn.BlockLocation) error
	CheckPlace(p *Player, block spawn.BlockLocation) error
	CheckInteract(p *Player, block spawn.BlockLocation) error
	CheckExplode(block spawn.BlockLocation) error
	CheckCraft(p *Player, item string) error
	CheckDrop(p *Player, item string) error
	CheckPickup(p *Player, item string) error
	CheckInventory(p *Player) error
}

// VetoError signals that a goal explicitly cancelled a world action. It is a
// gameplay outcome, not a failure: callers cancel the action and carry on.
type VetoError struct {
	Action string
	Reason string
}

func (e *VetoError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s not allowed", e.Action)
	}
	return fmt.Sprintf("%s not allowed: %s", e.Action, e.Reason)
}

// Veto builds a veto for the named action.
func Veto(action, reason string) *VetoError {
	return &VetoError{Action: action, Reason: reason}
}

// IsVeto distinguishes an explicit goal veto from an ordinary error.
func IsVeto(err error) bool {
	var v *VetoError
	return errors.As(err, &v)
}
