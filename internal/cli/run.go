package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/engine"
	"github.com/hubsync/hubsync/internal/factory"
	"github.com/hubsync/hubsync/internal/host/fakehost"
	redisstorage "github.com/hubsync/hubsync/internal/storage/redis"
)

func newRunCmd() *cobra.Command {
	var fakeHost bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the synchronization agent",
		Long: `Start the agent and run reconciliation cycles until interrupted.

A production deployment wires in an adapter for the game server's control
channel; --fake-host runs against an empty in-memory host instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fakeHost {
				return fmt.Errorf("no host adapter configured: pass --fake-host to run with the in-memory development host")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)

			return runAgent(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().BoolVar(&fakeHost, "fake-host", false, "run against an in-memory host instead of a game server adapter")

	return cmd
}

func runAgent(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := app.Engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	logger.Info("agent started", slog.String("server_id", cfg.ServerID))

	<-ctx.Done()
	app.Engine.Stop()

	return nil
}

func newApp(cfg config.Config, logger *slog.Logger) (*factory.App, error) {
	factoryCfg := factory.Config{
		APIURL:       cfg.APIURL,
		APIKey:       cfg.APIKey,
		ServerID:     cfg.ServerID,
		Host:         fakehost.New(),
		AdvertPrefix: cfg.AdvertPrefix,
		EngineConfig: engine.Config{
			SyncInterval:   cfg.SyncInterval,
			AdvertInterval: cfg.AdvertInterval,
		},
		Logger:      logger,
		StorageType: cfg.StorageType,
		DataDir:     cfg.DataDir,
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	return factory.New(factoryCfg)
}
