// services/stats_service.go
package services

import (
	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/models"
	"github.com/wfunc/arena/persistence"
)

// StatsService bridges the core's fire-and-forget stat notifications to the
// stats store. Writes happen off the tick thread; failures are logged, never
// propagated back into the match flow.
type StatsService struct {
	store persistence.StatsStore
}

func NewStatsService(store persistence.StatsStore) *StatsService {
	return &StatsService{store: store}
}

// RecordStat implements workflow.StatsSink.
func (s *StatsService) RecordStat(p *arena.Player, arenaName string, stat arena.StatType, delta int) {
	if s.store == nil {
		return
	}
	playerID := p.ID().String()
	playerName := p.Name()
	go func() {
		if err := s.store.AddStat(playerID, playerName, arenaName, string(stat), delta); err != nil {
			logger.Log.Errorf("failed to record %s for %s: %v", stat, playerName, err)
		}
	}()
}

// SaveMatchOutcome implements workflow.StatsSink.
func (s *StatsService) SaveMatchOutcome(arenaName, goalName string, winners []string, draw bool) {
	if s.store == nil {
		return
	}
	record := &models.MatchRecord{
		Arena:    arenaName,
		GoalType: goalName,
		Winners:  winners,
		Draw:     draw,
	}
	go func() {
		if err := s.store.SaveMatchRecord(record); err != nil {
			logger.Log.Errorf("failed to save match record for %s: %v", arenaName, err)
		}
	}()
}

// PlayerStats reads a player's persisted counters for one arena.
func (s *StatsService) PlayerStats(playerID, arenaName string) (*models.PlayerStats, error) {
	return s.store.PlayerStats(playerID, arenaName)
}

// Leaderboard returns the top players of an arena by the given stat.
func (s *StatsService) Leaderboard(arenaName, stat string, limit int) ([]models.PlayerStats, error) {
	return s.store.Leaderboard(arenaName, stat, limit)
}
