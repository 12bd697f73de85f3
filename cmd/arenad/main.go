package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bugduel/server/internal/arena"
	"github.com/bugduel/server/internal/config"
	"github.com/bugduel/server/internal/data"
	"github.com/bugduel/server/internal/handler"
	"github.com/bugduel/server/internal/lobby"
	"github.com/bugduel/server/internal/persist"
	"github.com/bugduel/server/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("BUGDUEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Defaults()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Pick the snapshot store: Postgres when configured, files otherwise
	var store persist.Store
	if cfg.Database.Enabled {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		store = persist.NewDBStore(db)
		log.Info("using postgres lobby store")
	} else {
		fileStore, err := persist.NewFileStore(cfg.Persistence.Dir)
		if err != nil {
			return fmt.Errorf("file store: %w", err)
		}
		store = fileStore
		log.Info("using file lobby store", zap.String("dir", cfg.Persistence.Dir))
	}

	// 4. Load data tables and scripts
	sorts, err := data.LoadSortTable(cfg.Data.SortsFile)
	if err != nil {
		return fmt.Errorf("load sort table: %w", err)
	}

	tuning := cfg.Game.Tuning()
	var rule arena.ImpactRule
	if cfg.Scripts.Dir != "" {
		engine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		rule = engine.ImpactRule(arena.DefaultImpactRule(sorts, tuning.ImpactSpeedThreshold))
	}

	// 5. Lobby service, restored from the store
	svc := lobby.NewService(store, log, tuning, sorts, rule)
	if err := svc.Restore(ctx); err != nil {
		return fmt.Errorf("restore lobbies: %w", err)
	}

	// 6. HTTP surface
	mux := http.NewServeMux()
	handler.RegisterAll(mux, &handler.Deps{Service: svc, Log: log})

	srv := &http.Server{
		Addr:         cfg.Server.BindAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("server", cfg.Server.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-shutdownCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
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
