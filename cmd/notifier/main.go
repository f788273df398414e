// The notifier consumes project.delayed events and fans them out to user
// inboxes.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pmes/internal/config"
	"pmes/internal/events"
	"pmes/internal/mqhandler"
	"pmes/internal/repository"
	"pmes/pkg/db"
	"pmes/pkg/logger"
	"pmes/pkg/mq"
	"pmes/pkg/redis"
	"pmes/pkg/util"
)

const delayedQueue = "pmes.notifier.project_delayed.q"

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting pmes notifier...", zap.String("queue", delayedQueue))

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

	if err := declareDLQ(cfg.MQ.URL); err != nil {
		log.Fatal("Failed to declare DLQ", zap.Error(err))
	}

	projectRepo := repository.NewProjectRepository(dbConn, log)
	inboxRepo := repository.NewInboxRepository(dbConn, log)
	deduper := util.NewDeduperWithLogger(rdb, cfg.Sweep.DedupTTL.Std(), log)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	delayedHandler := mqhandler.NewProjectDelayedHandler(projectRepo, inboxRepo, deduper, retryCounter, publisher, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, delayedQueue, events.RoutingProjectDelayed, log)
	if err != nil {
		log.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(delayedHandler.Handle)

	go func() {
		log.Info("Starting project.delayed consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notifier...")
	consumer.Stop()
	log.Info("Notifier exited")
}

func declareDLQ(url string) error {
	conn, err := mq.NewConnection(url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := mq.DeclareDLQExchange(ch); err != nil {
		return err
	}
	_, err = mq.DeclareDLQQueue(ch, events.RoutingProjectDelayed)
	return err
}
