package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpapi "github.com/closet-hub/closet-hub/internal/api/http"
	appAudit "github.com/closet-hub/closet-hub/internal/application/audit"
	"github.com/closet-hub/closet-hub/internal/application/auth"
	"github.com/closet-hub/closet-hub/internal/application/decision"
	"github.com/closet-hub/closet-hub/internal/application/intake"
	"github.com/closet-hub/closet-hub/internal/config"
	"github.com/closet-hub/closet-hub/internal/domain/event"
	"github.com/closet-hub/closet-hub/internal/domain/notification"
	"github.com/closet-hub/closet-hub/internal/domain/rule"
	"github.com/closet-hub/closet-hub/internal/infrastructure/kafka"
	"github.com/closet-hub/closet-hub/internal/infrastructure/metrics"
	"github.com/closet-hub/closet-hub/internal/infrastructure/postgres"
	"github.com/closet-hub/closet-hub/internal/infrastructure/redisq"
	"github.com/closet-hub/closet-hub/internal/infrastructure/sse"
	"github.com/closet-hub/closet-hub/internal/infrastructure/stepflow"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	approvalRepo := postgres.NewApprovalRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	executionRepo := postgres.NewExecutionRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	notifiers := notification.Fanout{sse.NewHubNotifier(sseHub)}
	if cfg.RedisURL != "" {
		redisNotifier, err := redisq.NewNotifier(cfg.RedisURL, cfg.NotifyChannel, logger)
		if err != nil {
			log.Fatalf("redis error: %v", err)
		}
		defer redisNotifier.Close()
		notifiers = append(notifiers, redisNotifier)
	}

	var bus *kafka.Bus
	if len(cfg.KafkaBrokers) > 0 {
		bus, err = kafka.NewBus(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("kafka error: %v", err)
		}
		defer bus.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	workflowMetrics := metrics.New(registry)

	// services
	auditKey := loadHexKey(cfg.AuditSigningKey)
	auditSvc := appAudit.NewService(auditRepo, auditKey, logger)
	authSvc := auth.NewService(userRepo, sessionRepo, cfg.SessionTTL, logger)

	dispatcher := decision.NewDispatcher(auditSvc, busOrNil(bus), notifiers, logger)

	engine := stepflow.NewEngine(executionRepo, approvalRepo, loadPrescreenRules(logger, cfg.PrescreenRulesRaw), cfg.ReviewTimeout, logger)
	sweeper := stepflow.NewSweeper(executionRepo, auditSvc, busOrNil(bus), workflowMetrics, cfg.SweepInterval, logger)

	intakeSvc := intake.NewService(approvalRepo, engine, dispatcher, logger)
	decisionSvc := decision.NewService(approvalRepo, engine, dispatcher, workflowMetrics, logger)

	// API server
	apiServer := httpapi.NewServer(
		intakeSvc,
		decisionSvc,
		auditSvc,
		authSvc,
		sseHub,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg.SessionCookieName,
		cfg.SessionCookieSecure,
	)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := sessionRepo.DeleteExpired(context.Background()); err == nil && n > 0 {
				logger.Info().Int("count", n).Msg("expired sessions removed")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweeper()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}

// busOrNil keeps a nil *kafka.Bus from becoming a non-nil interface.
func busOrNil(bus *kafka.Bus) event.Bus {
	if bus == nil {
		return nil
	}
	return bus
}

func loadHexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}

func loadPrescreenRules(logger zerolog.Logger, raw string) []rule.Rule {
	if raw == "" {
		return nil
	}
	var rules []rule.Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		logger.Warn().Err(err).Msg("invalid PRESCREEN_RULES, ignoring")
		return nil
	}
	return rules
}
