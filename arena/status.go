// arena/status.go
package arena

// PlayerStatus tracks where a participant is in the match flow. Transitions
// are driven by the workflow orchestrator and goal callbacks, never by the
// player itself.
type PlayerStatus int

const (
	// StatusNull means the player is in no arena.
	StatusNull PlayerStatus = iota
	// StatusWarm means the player has joined but not reached the lounge yet.
	StatusWarm
	// StatusLounge means the player is in the waiting area.
	StatusLounge
	// StatusReady means the player flagged themselves ready.
	StatusReady
	// StatusFight means the player is actively playing.
	StatusFight
	// StatusDead means the player is eliminated but may respawn.
	StatusDead
	// StatusLost means the player is out of the match for good.
	StatusLost
	// StatusWatch means the player is spectating.
	StatusWatch
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusNull:
		return "NULL"
	case StatusWarm:
		return "WARM"
	case StatusLounge:
		return "LOUNGE"
	case StatusReady:
		return "READY"
	case StatusFight:
		return "FIGHT"
	case StatusDead:
		return "DEAD"
	case StatusLost:
		return "LOST"
	case StatusWatch:
		return "WATCH"
	default:
		return "UNKNOWN"
	}
}
