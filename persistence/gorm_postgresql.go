// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/arena/models"
)

// GormPostgreSQL is the GORM-backed stats store.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.GormPlayerStats{},
		&models.GormMatchRecord{},
	); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// AddStat upserts the (player, arena) row and bumps one counter.
func (p *GormPostgreSQL) AddStat(playerID, playerName, arenaName, stat string, delta int) error {
	if err := validStat(stat); err != nil {
		return err
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		var row models.GormPlayerStats
		result := tx.Where("player_id = ? AND arena = ?", playerID, arenaName).First(&row)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			row = models.GormPlayerStats{
				PlayerID:   playerID,
				PlayerName: playerName,
				Arena:      arenaName,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else if result.Error != nil {
			return result.Error
		}

		return tx.Model(&row).Update(stat, gorm.Expr(stat+" + ?", delta)).Error
	})
}

func (p *GormPostgreSQL) PlayerStats(playerID, arenaName string) (*models.PlayerStats, error) {
	var row models.GormPlayerStats
	err := p.db.Where("player_id = ? AND arena = ?", playerID, arenaName).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.PlayerStats{
		PlayerID:   row.PlayerID,
		PlayerName: row.PlayerName,
		Arena:      row.Arena,
		Kills:      row.Kills,
		Deaths:     row.Deaths,
		Wins:       row.Wins,
		Losses:     row.Losses,
		Damage:     row.Damage,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (p *GormPostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	winners := make(map[string]interface{}, len(record.Winners))
	for i, w := range record.Winners {
		winners[fmt.Sprintf("%d", i)] = w
	}
	row := models.GormMatchRecord{
		Arena:    record.Arena,
		GoalType: record.GoalType,
		Winners:  winners,
		Draw:     record.Draw,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) Leaderboard(arenaName, stat string, limit int) ([]models.PlayerStats, error) {
	if err := validStat(stat); err != nil {
		return nil, err
	}

	var rows []models.GormPlayerStats
	err := p.db.Where("arena = ?", arenaName).
		Order(stat + " DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.PlayerStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PlayerStats{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			Arena:      row.Arena,
			Kills:      row.Kills,
			Deaths:     row.Deaths,
			Wins:       row.Wins,
			Losses:     row.Losses,
			Damage:     row.Damage,
			UpdatedAt:  row.UpdatedAt,
		})
	}
	return out, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
