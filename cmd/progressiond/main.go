package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmcgame/progression/internal/config"
	"github.com/rmcgame/progression/internal/core/event"
	coresys "github.com/rmcgame/progression/internal/core/system"
	"github.com/rmcgame/progression/internal/data"
	"github.com/rmcgame/progression/internal/net"
	"github.com/rmcgame/progression/internal/persist"
	"github.com/rmcgame/progression/internal/scripting"
	"github.com/rmcgame/progression/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Open the store (runs migrations)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	// 4. Progression tables and capability scripts
	tables := data.DefaultTables()
	if cfg.Data.TablesPath != "" {
		if tables, err = data.LoadTables(cfg.Data.TablesPath); err != nil {
			return fmt.Errorf("load tables: %w", err)
		}
	}
	log.Info("progression tables ready",
		zap.Int("levels", len(tables.LevelXP)+1),
		zap.Int("ranks", len(tables.RankXP)),
		zap.Int("skills", tables.Skills.Count()),
	)

	engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()

	// 5. Roster and systems
	bus := event.NewBus()
	var saver system.Persister
	switch cfg.Persist.Mode {
	case "immediate":
		saver = system.NewImmediatePersister(store, cfg.Database.SaveTimeout)
	case "batched", "":
		saver = system.BatchPersister{}
	default:
		return fmt.Errorf("unknown persist mode %q", cfg.Persist.Mode)
	}
	roster := system.NewRoster(tables, bus, store, saver, cfg.Database.SaveTimeout, log)
	caps := system.NewCapabilitySystem(roster, engine, bus)
	defer caps.Close()

	var feed *net.Server
	if cfg.Feed.Enabled {
		feed = net.NewServer(cfg.Feed, log)
	}
	persistSys := system.NewPersistenceSystem(roster, store, cfg.Persist.FlushEveryTicks, cfg.Persist.FlushWorkers, cfg.Database.SaveTimeout, log)
	inputSys := system.NewInputSystem(feed, net.NewHub(), roster, bus, cfg.Feed.MaxCommandsPerTick, log)
	defer inputSys.Close()

	runner := coresys.NewRunner()
	runner.Register(inputSys)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(roster, log))
	runner.WatchSlow(cfg.Server.TickRate, func(s coresys.System, took time.Duration) {
		log.Warn("system overran tick", zap.Stringer("phase", s.Phase()), zap.Duration("took", took))
	})

	if feed != nil {
		if err := feed.Listen(); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
		log.Info("feed listening", zap.String("addr", feed.Addr().String()))
	}

	// 6. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	started := time.Unix(cfg.Server.StartTime, 0)
	log.Info("progression server started",
		zap.String("name", cfg.Server.Name),
		zap.Time("boot", started),
		zap.Duration("tick", cfg.Server.TickRate),
		zap.String("persist", cfg.Persist.Mode),
	)

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if failed := persistSys.SaveAll(context.Background()); failed > 0 {
				log.Warn("characters not saved on shutdown", zap.Int("failed", failed))
			}
			if feed != nil {
				shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := feed.Shutdown(shutCtx); err != nil {
					log.Warn("feed shutdown", zap.Error(err))
				}
				shutCancel()
			}
			log.Info("progression server stopped", zap.Duration("uptime", time.Since(started).Round(time.Second)))
			return nil
		}
	}
}

// loadConfig reads PROGRESSION_CONFIG (default config/server.toml). A missing
// default file falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := "config/server.toml"
	explicit := false
	if p := os.Getenv("PROGRESSION_CONFIG"); p != "" {
		path, explicit = p, true
	}
	if _, err := os.Stat(path); err != nil && !explicit {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
