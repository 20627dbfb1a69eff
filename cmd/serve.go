package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/archiver"
	"github.com/listmsg/mailman-bridge/internal/config"
	"github.com/listmsg/mailman-bridge/internal/db"
	"github.com/listmsg/mailman-bridge/internal/filter"
	httpSrv "github.com/listmsg/mailman-bridge/internal/http"
	"github.com/listmsg/mailman-bridge/internal/logger"
	"github.com/listmsg/mailman-bridge/internal/metrics"
	"github.com/listmsg/mailman-bridge/internal/publisher"
	"github.com/listmsg/mailman-bridge/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the archive ingest server and publish workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)
		defer logger.Sync()
		log := logger.Log

		metrics.MustRegister(prometheus.DefaultRegisterer)

		// config snapshot, immutable for the process lifetime
		snap := filter.New(
			cfg.Archiver.ExcludedListIDs(),
			cfg.Archiver.OwnedDomains,
			cfg.Archiver.ArchiveBaseURL,
		)
		log.Info("archiver config loaded",
			zap.Int("excluded_lists", len(cfg.Archiver.ExcludedListIDs())),
			zap.Int("owned_domains", len(cfg.Archiver.OwnedDomains)),
			zap.Bool("archive_urls", cfg.Archiver.ArchiveBaseURL != ""),
		)

		// redis backs the rate limiter only; degrade to unlimited if down
		rds, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			rds = nil
		} else {
			defer func() { _ = rds.Close() }()
		}

		pub := publisher.NewKafka(publisher.Config{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			BatchTimeout:  cfg.Kafka.BatchTimeout,
			WriteTimeout:  cfg.Kafka.WriteTimeout,
			MaxAttempts:   cfg.Publisher.MaxAttempts,
			Backoff:       cfg.Publisher.Backoff,
			FailThreshold: cfg.Publisher.FailThreshold,
			OpenFor:       cfg.Publisher.OpenFor,
		}, log.Named("publisher"))
		defer func() { _ = pub.Close() }()

		pump := worker.NewPump(pub, log.Named("pump"), cfg.Publisher.QueueSize, cfg.Publisher.Workers)
		hook := archiver.New(snap, pump, log.Named("archiver"))

		server := httpSrv.NewServer(cfg, hook, rds)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 2)
		go func() { errCh <- pump.Run(ctx) }()
		go func() {
			log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		select {
		case <-ctx.Done():
			log.Info("signal received, shutting down")
		case err := <-errCh:
			if err != nil {
				log.Error("component exited", zap.Error(err))
			}
		}

		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutCtx)

		return nil
	},
}
