package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/timetolife1989-cloud/mechdefense/internal/ai"
	"github.com/timetolife1989-cloud/mechdefense/internal/config"
	"github.com/timetolife1989-cloud/mechdefense/internal/db"
	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/sim"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
	"github.com/timetolife1989-cloud/mechdefense/internal/stream"
)

const DefaultConfigPath = "config/wavesim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := DefaultConfigPath
	if p := os.Getenv("MECHDEFENSE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("wavesim starting", "config", cfgPath, "log_level", cfg.LogLevel)

	waves, err := config.LoadWaves(cfg.WavesFile)
	if err != nil {
		return fmt.Errorf("loading waves: %w", err)
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return fmt.Errorf("combat config: %w", err)
	}
	slog.Info("content loaded",
		"waves", len(waves.Definitions),
		"archetypes", waves.Archetypes.Names(),
		"seed", simCfg.Seed)

	var (
		reward   spawn.Rewarder
		recorder *db.Recorder
	)
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		store := database.Store()
		runID, err := store.Runs.Create(ctx, simCfg.Seed)
		if err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		recorder = db.NewRecorder(runID, store, cfg.Database.QueueSize)
		reward = recorder
		slog.Info("recording run", "run", runID)
	}

	s := sim.New(simCfg, waves.Archetypes, waves.Definitions, reward)
	runner := sim.NewRunner(s, sim.RunnerConfig{
		Interval:         cfg.TickInterval,
		ExitWhenFinished: cfg.ExitWhenFinished,
	})

	commands := make(chan sim.Command, 8)
	runner.SetCommands(commands)

	g, gctx := errgroup.WithContext(ctx)
	// Cancelled when the loop exits so the other services follow it.
	svcCtx, stopServices := context.WithCancel(gctx)
	defer stopServices()

	if cfg.Watch && cfg.WavesFile != "" {
		reload := make(chan sim.Reload, 1)
		runner.SetReload(reload)
		g.Go(func() error {
			if err := config.WatchWaves(svcCtx, cfg.WavesFile, reload); err != nil {
				return fmt.Errorf("waves watcher: %w", err)
			}
			return nil
		})
	}

	if cfg.Stream.Enabled {
		batches := make(chan []event.Event, cfg.Stream.SendBuffer)
		runner.AddSink(batches)
		hub := stream.NewHub(stream.Config{SendBuffer: cfg.Stream.SendBuffer}, commands)
		g.Go(func() error {
			return hub.Run(svcCtx, batches)
		})
		g.Go(func() error {
			return hub.Serve(svcCtx, cfg.Stream.Addr, cfg.Stream.Path)
		})
	}

	if recorder != nil {
		batches := make(chan []event.Event, cfg.Database.QueueSize)
		runner.AddSink(batches)
		g.Go(func() error {
			return recorder.Run(svcCtx, batches)
		})
	}

	g.Go(func() error {
		defer stopServices()
		err := runner.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("simulation loop: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	st := s.Stats()
	slog.Info("wavesim stopped",
		"tick", s.Tick(),
		"elapsed", s.Elapsed(),
		"waves", s.Spawner().CurrentWave(),
		"spawned", st.Spawned,
		"kills", st.Kills,
		"player_deaths", st.PlayerDeaths)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
