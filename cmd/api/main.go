package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bank-autopay/internal/cache"
	"github.com/Dan9191/bank-autopay/internal/config"
	"github.com/Dan9191/bank-autopay/internal/events"
	"github.com/Dan9191/bank-autopay/internal/handler"
	"github.com/Dan9191/bank-autopay/internal/integrations/cbr"
	"github.com/Dan9191/bank-autopay/internal/memstore"
	"github.com/Dan9191/bank-autopay/internal/middleware"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/Dan9191/bank-autopay/internal/scheduler"
	"github.com/Dan9191/bank-autopay/internal/service"
	"github.com/Dan9191/bank-autopay/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// eventsMaxLen bounds the settlement event stream
const eventsMaxLen = 100000

// store is everything the services need from persistence
type store interface {
	service.PaymentStore
	service.OverdraftStore
	service.CreditStore
	service.NotificationStore
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var st store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		st = memstore.New()
	default:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		st = repository.NewRepository(db)
	}

	// Redis is optional
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
	}

	var scoreCache service.ScoreCache
	if rdb != nil {
		scoreCache = cache.NewRedisScoreCache(rdb, cfg.ScoreCacheTTL, logger)
	} else {
		scoreCache = cache.NewLRUScoreCache(cfg.ScoreCacheSize, cfg.ScoreCacheTTL)
	}

	keyRate := service.Unavailable[service.KeyRateSource]()
	if cfg.CBRURL != "" {
		keyRate = service.Available[service.KeyRateSource](cbr.NewCBRClient(cfg, logger))
	}

	// Initialize layers
	creditSvc := service.NewCreditScoreService(st, scoreCache, logger)
	overdraftSvc := service.NewOverdraftService(st, creditSvc, keyRate, logger)
	paymentSvc := service.NewAutomatedPaymentService(st, overdraftSvc, logger, service.SettlementConfig{
		PageSize:       cfg.SettlementPageSize,
		PaymentTimeout: cfg.PaymentTimeout,
	})
	notificationSvc := service.NewNotificationService(st, logger)

	paymentSvc.Use(
		service.NewNotificationHook(st),
		service.NewScoreRefreshHook(creditSvc),
	)
	if cfg.EmailEnabled() {
		paymentSvc.Use(email.NewNotificationHook(email.NewSender(cfg, logger), st))
	}
	if rdb != nil {
		paymentSvc.Use(events.NewSettlementHook(events.NewPublisher(rdb, cfg.EventsStream, eventsMaxLen)))
	}

	// Background jobs
	jobs, err := scheduler.NewScheduler(paymentSvc, overdraftSvc, scheduler.Config{
		SettlementSchedule:   cfg.SettlementSchedule,
		OverdueSweepSchedule: cfg.OverdueSweepSchedule,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to configure scheduler: %v", err)
	}
	jobs.Start()

	// Setup router
	h := handler.NewHandler(paymentSvc, overdraftSvc, creditSvc, notificationSvc, logger)
	r := mux.NewRouter()
	h.Routes(r, middleware.AuthMiddleware(cfg))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Background jobs did not finish in time")
	}
}
