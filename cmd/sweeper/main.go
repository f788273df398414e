// The sweeper runs the scheduled delay sweep and dispatches outbox events
// to the message broker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pmes/internal/config"
	"pmes/internal/repository"
	"pmes/internal/service"
	"pmes/pkg/db"
	"pmes/pkg/logger"
	"pmes/pkg/mq"
	"pmes/pkg/outbox"
	"pmes/pkg/redis"
	"pmes/pkg/util"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting pmes sweeper...",
		zap.Duration("interval", cfg.Sweep.Interval.Std()),
		zap.Duration("run_timeout", cfg.Sweep.RunTimeout.Std()),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	projectRepo := repository.NewProjectRepository(dbConn, log)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	outboxRepo := outbox.NewRepository(dbConn)

	deduper := util.NewDeduperWithLogger(rdb, cfg.Sweep.DedupTTL.Std(), log)
	recorder := service.NewDelayRecorder(dbConn, notificationRepo, outboxRepo, deduper, log)
	reconciler := service.NewReconcileService(dbConn, projectRepo, milestoneRepo, outboxRepo, recorder, log)
	sweeper := service.NewSweeper(projectRepo, reconciler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
		WithInterval(1 * time.Second).
		WithBatchSize(100)
	go dispatcher.Start(ctx)
	log.Info("Outbox dispatcher started")

	go runSweepLoop(ctx, sweeper, cfg.Sweep, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down sweeper...")
	cancel()
	// Give the in-flight sweep a moment to observe cancellation.
	time.Sleep(500 * time.Millisecond)
	log.Info("Sweeper exited")
}

func runSweepLoop(ctx context.Context, sweeper *service.Sweeper, cfg config.SweepConfig, log *zap.Logger) {
	if cfg.RunOnStartup {
		runOnce(ctx, sweeper, cfg.RunTimeout.Std(), log)
	}

	ticker := time.NewTicker(cfg.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, sweeper, cfg.RunTimeout.Std(), log)
		}
	}
}

func runOnce(ctx context.Context, sweeper *service.Sweeper, timeout time.Duration, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := sweeper.RunDelaySweep(runCtx)
	if err != nil {
		log.Error("Delay sweep incomplete",
			zap.Int("checked", summary.Checked),
			zap.Error(err),
		)
	}
}
