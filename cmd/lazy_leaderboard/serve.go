package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazylions/lazy-leaderboard/internal/api"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/internal/nats"
	"github.com/lazylions/lazy-leaderboard/internal/refresh"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
	"github.com/lazylions/lazy-leaderboard/pkg/sigproc"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Info().Msg("lazy_leaderboard service starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newApp(cfg)
	if err = a.initStore(); err != nil {
		logger.Fatal().Err(err).Msg("init name store failed")
	}
	if err = a.initSources(); err != nil {
		logger.Fatal().Err(err).Msg("init upstream sources failed")
	}
	if err = a.initResolver(ctx); err != nil {
		logger.Fatal().Err(err).Msg("init ens resolver failed")
	}

	if a.cleaner != nil {
		a.cleaner.Start()
	}

	// NATS 可选，未配置时不发布刷新事件
	var (
		publisher *nats.Publisher
		pubRef    monitor.PublisherRef
		schedOpts = []refresh.SchedulerOpt{refresh.WithRunOnStart(cfg.Refresh.RunOnStart)}
	)
	if cfg.NATS.Endpoint != "" {
		publisher, err = nats.NewPublisher(cfg.NATS.Endpoint, cfg.NATS.Subject)
		if err != nil {
			logger.Fatal().Err(err).Msg("init nats publisher failed")
		}
		pubRef = publisher
		schedOpts = append(schedOpts, refresh.WithPublisher(publisher))
	}

	scheduler, err := refresh.NewScheduler(a.job, cfg.Refresh.Schedule, schedOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("init refresh scheduler failed")
	}
	if cfg.Refresh.Enabled {
		scheduler.Start()
	}

	apiServer := api.NewServer(cfg.Server.APIAddr, api.Deps{
		Names:       a.names,
		Leaderboard: a.board,
		Refresher:   scheduler,
		Holders:     a.chainbase,
	})
	apiServer.Start()

	healthServer := monitor.NewHealthServer(cfg.Server.HealthAddr, a.store, pubRef, scheduler)
	if err = healthServer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start health server failed")
	}

	logger.Info().
		Str("api_addr", cfg.Server.APIAddr).
		Str("health_addr", cfg.Server.HealthAddr).
		Str("store", a.store.Name()).
		Bool("refresh_enabled", cfg.Refresh.Enabled).
		Str("schedule", cfg.Refresh.Schedule).
		Msg("lazy_leaderboard service started successfully")

	stopped := make(chan struct{})
	sigproc.GracefulShutdown(func(sig os.Signal) {
		defer close(stopped)

		logger.Info().Str("signal", sig.String()).Msg("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		// 先停入口，再停后台任务
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("api server shutdown failed")
		}

		cancel()
		scheduler.Stop()

		if publisher != nil {
			publisher.Close()
		}

		healthServer.Stop(shutdownCtx)

		a.close()

		logger.Info().Msg("lazy_leaderboard service stopped")
	})

	<-stopped
	return nil
}
