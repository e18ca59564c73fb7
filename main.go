package main

import (
	"time"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/broadcast"
	"github.com/wfunc/arena/config"
	"github.com/wfunc/arena/goal"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/monitor"
	"github.com/wfunc/arena/persistence"
	"github.com/wfunc/arena/scheduler"
	"github.com/wfunc/arena/server"
	"github.com/wfunc/arena/services"
	"github.com/wfunc/arena/session"
	"github.com/wfunc/arena/workflow"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")
	defer store.Close()

	statsService := services.NewStatsService(store)

	// Tick scheduler driving countdowns, time limits and respawns
	sched := scheduler.New()
	tickMillis := cfg.Server.TickMillis
	if tickMillis <= 0 {
		tickMillis = 1000 / config.TicksPerSecond
	}
	stop := make(chan struct{})
	defer close(stop)
	go sched.Run(time.Duration(tickMillis)*time.Millisecond, stop)

	// Session layer and broadcaster
	sessionManager := session.NewManager()
	broadcaster := broadcast.NewArenaBroadcaster(sessionManager)

	// Arena registry, goal registry and the configured arenas. Goals are
	// registered by embedders before BuildArenas; an arena whose goal is
	// unknown loads locked.
	arenas := arena.NewManager()
	goals := goal.NewRegistry()
	config.BuildArenas(cfg, arenas, goals, sched, broadcaster)

	// Workflow manager and its collaborators
	flow := workflow.NewManager(arenas, sched)
	flow.SetStatsSink(statsService)

	mon := monitor.NewMonitor("arena")
	mon.SetActiveArenas(arenas.Count())
	flow.SetObserver(mon)
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	players := arena.NewRegistry()

	// Game server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress,
		flow, players, sessionManager, statsService)
	gameServer.SetLatencyObserver(mon)

	logger.Log.Infof("Starting arena server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore selects the stats backend by configured driver.
func openStore(cfg *config.Config) (persistence.StatsStore, error) {
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "postgres":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
}
