// persistence/postgresql.go
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/wfunc/arena/models"
)

// PostgreSQL is the raw database/sql stats store, the alternative to the
// GORM backend for deployments that want plain SQL.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	store := &PostgreSQL{db: db}
	if err := store.createTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (p *PostgreSQL) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS player_stats (
			id SERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			arena TEXT NOT NULL,
			kills INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			damage INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (player_id, arena)
		)`,
		`CREATE TABLE IF NOT EXISTS match_records (
			id SERIAL PRIMARY KEY,
			arena TEXT NOT NULL,
			goal_type TEXT NOT NULL,
			winners JSONB NOT NULL DEFAULT '[]',
			draw BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgreSQL) AddStat(playerID, playerName, arenaName, stat string, delta int) error {
	if err := validStat(stat); err != nil {
		return err
	}

	// stat is validated against the fixed column set above, so the
	// interpolation is safe.
	query := fmt.Sprintf(`
		INSERT INTO player_stats (player_id, player_name, arena, %s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, arena)
		DO UPDATE SET %s = player_stats.%s + $4, updated_at = NOW()`,
		stat, stat, stat)

	_, err := p.db.Exec(query, playerID, playerName, arenaName, delta)
	return err
}

func (p *PostgreSQL) PlayerStats(playerID, arenaName string) (*models.PlayerStats, error) {
	row := p.db.QueryRow(`
		SELECT player_id, player_name, arena, kills, deaths, wins, losses, damage, updated_at
		FROM player_stats WHERE player_id = $1 AND arena = $2`,
		playerID, arenaName)

	var stats models.PlayerStats
	err := row.Scan(&stats.PlayerID, &stats.PlayerName, &stats.Arena,
		&stats.Kills, &stats.Deaths, &stats.Wins, &stats.Losses, &stats.Damage, &stats.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (p *PostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	winners, err := json.Marshal(record.Winners)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`
		INSERT INTO match_records (arena, goal_type, winners, draw)
		VALUES ($1, $2, $3, $4)`,
		record.Arena, record.GoalType, winners, record.Draw)
	return err
}

func (p *PostgreSQL) Leaderboard(arenaName, stat string, limit int) ([]models.PlayerStats, error) {
	if err := validStat(stat); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT player_id, player_name, arena, kills, deaths, wins, losses, damage, updated_at
		FROM player_stats WHERE arena = $1
		ORDER BY %s DESC LIMIT $2`, stat)

	rows, err := p.db.Query(query, arenaName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PlayerStats
	for rows.Next() {
		var stats models.PlayerStats
		if err := rows.Scan(&stats.PlayerID, &stats.PlayerName, &stats.Arena,
			&stats.Kills, &stats.Deaths, &stats.Wins, &stats.Losses, &stats.Damage, &stats.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
