// workflow/timed_end.go
package workflow

import (
	"fmt"
	"sort"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/logger"
)

// runTimedEnd resolves a match forced to end by elapsed time. The goal hands
// over per-entity scores; the tie break walks team level first, then member
// sums, with "everyone remaining tied" meaning a draw at every level.
// Virtual teams carry no score and are skipped throughout.
func (m *Manager) runTimedEnd(a *arena.Arena) {
	if !a.IsFightInProgress() {
		return
	}
	g := a.Goal()
	if g == nil {
		return
	}

	logger.Log.Infof("arena %s: time limit reached", a.Name())
	scores := g.TimedEnd(make(map[string]float64))

	realTeams := a.RealTeams()
	ffa := g.IsFreeForAll() && len(realTeams) <= 1

	winners := make(map[string]struct{})

	switch {
	case ffa:
		// One shared roster; winners are picked at the player level below.
	case a.TimerWinner() != "":
		winners[a.TimerWinner()] = struct{}{}
	default:
		maxScore := 0.0
		neededTeams := len(realTeams)

		for _, t := range realTeams {
			score, ok := scores[t.Name()]
			if !ok {
				neededTeams--
				continue
			}
			if score > maxScore {
				maxScore = score
				winners = map[string]struct{}{t.Name(): {}}
			} else if score == maxScore {
				winners[t.Name()] = struct{}{}
			}
		}

		// Fewer than two scoring teams still means a head-to-head: a single
		// scoring team must win rather than draw against itself.
		if neededTeams < 2 {
			neededTeams = 2
		}
		if len(winners) >= neededTeams {
			logger.Log.Debugf("arena %s: all %d remaining teams tied", a.Name(), len(winners))
			winners = make(map[string]struct{})
		}
	}

	if len(winners) > 1 {
		winners = m.refineByMemberSums(a, winners, scores)
	}

	if ffa {
		winners = m.pickFreeForAllWinners(a, scores)
	}

	m.concludeTimedEnd(a, winners, ffa)
}

// refineByMemberSums breaks a team-level tie by summing each tied team's
// member scores. If the sums cannot separate the tied teams either, the tie
// becomes a draw.
func (m *Manager) refineByMemberSums(a *arena.Arena, tied map[string]struct{}, scores map[string]float64) map[string]struct{} {
	precise := make(map[string]struct{})
	maxSum := 0.0

	for _, t := range a.RealTeams() {
		if _, ok := tied[t.Name()]; !ok {
			continue
		}
		sum := 0.0
		for _, p := range t.Members() {
			sum += scores[p.Name()]
		}
		if sum > maxSum {
			maxSum = sum
			precise = map[string]struct{}{t.Name(): {}}
		} else if sum == maxSum {
			precise[t.Name()] = struct{}{}
		}
	}

	if len(precise) > 0 && len(precise) < len(tied) {
		return precise
	}
	logger.Log.Debugf("arena %s: member sums tied as well, draw", a.Name())
	return make(map[string]struct{})
}

// pickFreeForAllWinners selects the highest-scoring players. A tie spanning
// every played player is a draw.
func (m *Manager) pickFreeForAllWinners(a *arena.Arena, scores map[string]float64) map[string]struct{} {
	precise := make(map[string]struct{})
	maxSum := 0.0

	for _, t := range a.Teams() {
		for _, p := range t.Members() {
			sum := scores[p.Name()]
			if sum > maxSum {
				maxSum = sum
				precise = map[string]struct{}{p.Name(): {}}
			} else if sum == maxSum {
				precise[p.Name()] = struct{}{}
			}
		}
	}

	if len(precise) == a.PlayedCount() {
		return make(map[string]struct{})
	}
	return precise
}

// concludeTimedEnd announces the outcome, credits wins and losses and resets
// the arena. An empty winner set is a draw and forces a full reset.
func (m *Manager) concludeTimedEnd(a *arena.Arena, winners map[string]struct{}, ffa bool) {
	goalName := ""
	if g := a.Goal(); g != nil {
		goalName = g.Name()
	}

	if len(winners) == 0 {
		a.Broadcast("the match ended in a draw")
		if m.stats != nil {
			m.stats.SaveMatchOutcome(a.Name(), goalName, nil, true)
		}
		if m.observer != nil {
			m.observer.MatchEnded("draw")
		}
		a.Reset(true)
		return
	}

	names := make([]string, 0, len(winners))
	for name := range winners {
		names = append(names, name)
	}
	sort.Strings(names)

	if ffa {
		for _, t := range a.Teams() {
			for _, p := range t.Members() {
				if _, won := winners[p.Name()]; won {
					a.Broadcast(fmt.Sprintf("%s has won the match", p.Name()))
					m.creditWin(a, p)
				} else if p.Status() == arena.StatusFight {
					m.creditLoss(a, p)
					p.SetStatus(arena.StatusLost)
				}
			}
		}
	} else {
		for _, name := range names {
			if t := a.Team(name); t != nil {
				a.Broadcast(fmt.Sprintf("team %s has won the match", t.ColoredName()))
			} else {
				logger.Log.Errorf("arena %s: winning team %q not found", a.Name(), name)
			}
		}
		for _, t := range a.RealTeams() {
			if _, won := winners[t.Name()]; won {
				for _, p := range t.Members() {
					m.creditWin(a, p)
				}
				continue
			}
			for _, p := range t.Members() {
				if p.Status() != arena.StatusFight {
					continue
				}
				m.creditLoss(a, p)
				p.SetStatus(arena.StatusLost)
			}
		}
	}

	if m.stats != nil {
		m.stats.SaveMatchOutcome(a.Name(), goalName, names, false)
	}
	if m.observer != nil {
		m.observer.MatchEnded("timed")
	}
	a.Reset(false)
}
