// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/arena/models"
)

// StatsStore persists player statistics and match outcomes. The core calls
// it fire-and-forget at kill/death/win/loss boundaries.
type StatsStore interface {
	AddStat(playerID, playerName, arenaName, stat string, delta int) error
	PlayerStats(playerID, arenaName string) (*models.PlayerStats, error)
	SaveMatchRecord(record *models.MatchRecord) error
	Leaderboard(arenaName, stat string, limit int) ([]models.PlayerStats, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// knownStats guards the raw-SQL backend against interpolating arbitrary
// column names.
var knownStats = map[string]bool{
	"kills":  true,
	"deaths": true,
	"wins":   true,
	"losses": true,
	"damage": true,
}

func validStat(stat string) error {
	if !knownStats[stat] {
		return fmt.Errorf("unknown stat column %q", stat)
	}
	return nil
}
