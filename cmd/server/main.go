package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pmes/internal/config"
	"pmes/internal/handler"
	"pmes/internal/httpserver"
	"pmes/internal/repository"
	"pmes/internal/service"
	"pmes/pkg/db"
	"pmes/pkg/logger"
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

	log.Info("Starting pmes server...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("port", cfg.Server.Port),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()
	log.Info("Database connection established")

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	projectRepo := repository.NewProjectRepository(dbConn, log)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	submissionRepo := repository.NewSubmissionRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	inboxRepo := repository.NewInboxRepository(dbConn, log)
	outboxRepo := outbox.NewRepository(dbConn)

	deduper := util.NewDeduperWithLogger(rdb, cfg.Sweep.DedupTTL.Std(), log)
	weights := cfg.ProgressWeights()

	recorder := service.NewDelayRecorder(dbConn, notificationRepo, outboxRepo, deduper, log)
	reconciler := service.NewReconcileService(dbConn, projectRepo, milestoneRepo, outboxRepo, recorder, log)
	sweeper := service.NewSweeper(projectRepo, reconciler, log)

	submissionSvc := service.NewSubmissionService(projectRepo, milestoneRepo, submissionRepo, log)
	reviewSvc := service.NewReviewService(dbConn, projectRepo, milestoneRepo, submissionRepo, outboxRepo, reconciler, weights, log)
	projectSvc := service.NewProjectService(dbConn, projectRepo, milestoneRepo, weights, log)

	router := httpserver.NewRouter(httpserver.Handlers{
		Projects:    handler.NewProjectHandler(projectSvc, notificationRepo, log),
		Submissions: handler.NewSubmissionHandler(submissionSvc, log),
		Reviews:     handler.NewReviewHandler(reviewSvc, log),
		Inbox:       handler.NewInboxHandler(inboxRepo, log),
		Sweep:       handler.NewSweepHandler(sweeper, log),
	}, cfg.JWT.Secret, log, dbConn)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
