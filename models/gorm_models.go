// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPlayerStats is the stats row, unique per (player, arena).
type GormPlayerStats struct {
	gorm.Model
	PlayerID   string `gorm:"uniqueIndex:idx_player_arena;not null"`
	PlayerName string `gorm:"not null"`
	Arena      string `gorm:"uniqueIndex:idx_player_arena;not null"`
	Kills      int    `gorm:"default:0"`
	Deaths     int    `gorm:"default:0"`
	Wins       int    `gorm:"default:0"`
	Losses     int    `gorm:"default:0"`
	Damage     int    `gorm:"default:0"`
}

// GormMatchRecord is one finished match.
type GormMatchRecord struct {
	gorm.Model
	Arena    string                 `gorm:"index;not null"`
	GoalType string                 `gorm:"not null"`
	Winners  map[string]interface{} `gorm:"type:jsonb;serializer:json"`
	Draw     bool                   `gorm:"default:false"`
}
