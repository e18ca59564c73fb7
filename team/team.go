// team/team.go
package team

import (
	"github.com/wfunc/arena/arena"
)

// Pure roster queries. These run inside goal end-condition evaluation and
// must never trigger a transition themselves.

// CountActiveTeams returns the number of distinct teams with at least one
// member in FIGHT status. Virtual teams count like any other: a role team
// with fighters keeps the match alive.
func CountActiveTeams(a *arena.Arena) int {
	count := 0
	for _, t := range a.Teams() {
		if t.HasFighter() {
			count++
		}
	}
	return count
}

// TeamsWithFighters returns the active teams in declaration order.
func TeamsWithFighters(a *arena.Arena) []*arena.Team {
	var out []*arena.Team
	for _, t := range a.Teams() {
		if t.HasFighter() {
			out = append(out, t)
		}
	}
	return out
}

// IsEveryoneReady reports whether every member of every non-empty real team
// has flagged ready.
func IsEveryoneReady(a *arena.Arena) bool {
	any := false
	for _, t := range a.RealTeams() {
		if t.IsEmpty() {
			continue
		}
		any = true
		if !t.IsEveryoneReady() {
			return false
		}
	}
	return any
}

// CountReadyPlayers returns the number of players in READY status.
func CountReadyPlayers(a *arena.Arena) int {
	count := 0
	for _, p := range a.Everyone() {
		if p.Status() == arena.StatusReady {
			count++
		}
	}
	return count
}
