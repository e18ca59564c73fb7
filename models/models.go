// models/models.go
package models

import (
	"time"
)

// PlayerStats are the per-player, per-arena counters kept by the stats store.
type PlayerStats struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Arena      string    `json:"arena"`
	Kills      int       `json:"kills"`
	Deaths     int       `json:"deaths"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	Damage     int       `json:"damage"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MatchRecord is one finished match.
type MatchRecord struct {
	Arena     string    `json:"arena"`
	GoalType  string    `json:"goal_type"`
	Winners   []string  `json:"winners"`
	Draw      bool      `json:"draw"`
	CreatedAt time.Time `json:"created_at"`
}
