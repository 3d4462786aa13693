package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rapidaai/voice-gateway/api/recordings"
	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/internal/gateway"
	"github.com/rapidaai/voice-gateway/internal/recorder"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

const retentionSweepInterval = time.Hour

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("initializing config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("loading application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Infof("%s %s starting, recording enabled=%v root=%s",
		cfg.Name, cfg.Version, cfg.Recording.Enabled, cfg.Recording.RootDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Recording.Enabled {
		recorder.StartCleanupTicker(ctx, cfg.Recording, logger, retentionSweepInterval)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return gateway.NewServer(cfg, logger).Run(ctx)
	})
	group.Go(func() error {
		return recordings.New(cfg, logger).Run(ctx)
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("shutting down with error: %v", err)
		return
	}
	logger.Info("shutdown complete")
}
