package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/logger"
	"github.com/eternalApril/moonwire/internal/server"
	"github.com/eternalApril/moonwire/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("moonwire", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", ".", "directory containing config.yaml")
	flagSet.String("host", "", "address to listen on")
	flagSet.StringP("port", "p", "", "port to listen on")
	flagSet.String("log-level", "", "debug, info, warn or error")
	flagSet.Bool("aof", false, "journal write commands to the append only file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath, flagSet)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Moonwire starting",
		zap.String("port", cfg.Server.Port),
		zap.Uint("shards", cfg.Storage.Shards),
		zap.Int("max_depth", cfg.Protocol.MaxDepth),
		zap.Bool("aof", cfg.Persistence.AOF.Enabled),
	)

	db, err := store.NewShardedMapStore(cfg.Storage.Shards)
	if err != nil {
		return err
	}

	engine, err := server.NewEngine(db, cfg, log)
	if err != nil {
		log.Error("cant initialize engine", zap.Error(err))
		return err
	}
	defer engine.Shutdown()

	srv := server.New(cfg, engine, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() { served <- srv.ListenAndServe() }()

	select {
	case err := <-served:
		if err != nil {
			log.Error("listener error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown timed out, forcing exit", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	} else {
		log.Info("All connections closed gracefully")
	}

	<-served
	log.Info("Moonwire stopped")
	return nil
}
