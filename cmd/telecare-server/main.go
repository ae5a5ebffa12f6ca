package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/config"
	v1 "github.com/telecare/telecare/internal/handler/v1"
	"github.com/telecare/telecare/internal/oracle"
	"github.com/telecare/telecare/internal/repository"
	"github.com/telecare/telecare/internal/service"
	"github.com/telecare/telecare/internal/signaling"
	"github.com/telecare/telecare/pkg/auth"
	"github.com/telecare/telecare/pkg/database"
	"github.com/telecare/telecare/pkg/logger"
	"github.com/telecare/telecare/pkg/mailer"
	"github.com/telecare/telecare/pkg/metrics"
	"github.com/telecare/telecare/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting telecare-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer, "telecare")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	recordRepo := repository.NewHealthRecordRepository(db)
	consultRepo := repository.NewConsultationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(doctorRepo, jwtManager, auditSvc, log)
	userSvc := service.NewUserService(userRepo, recordRepo, auditSvc, log)

	gemini, err := oracle.NewGeminiGenerator(context.Background(), cfg.Gemini)
	if err != nil {
		return fmt.Errorf("initializing gemini client: %w", err)
	}
	diagnoser := oracle.NewClient(gemini, cfg.Gemini.MaxAttempts, cfg.Gemini.RetryDelay, collector, log)
	analysisSvc := service.NewAnalysisService(userRepo, recordRepo, diagnoser, auditSvc, log)

	consultSvc := service.NewConsultationService(consultRepo, auditSvc, log)

	var sender mailer.Sender
	if cfg.SMTP.AdminEmail != "" {
		sender = mailer.New(cfg.SMTP)
	}
	notifySvc := service.NewNotificationService(sender, cfg.SMTP.AdminEmail, log)

	// Live signaling
	presence := signaling.NewPresence()
	matcher := signaling.NewMatcher()
	hub := signaling.NewHub(presence, collector, log)
	sigRouter := signaling.NewRouter(hub, presence, matcher, consultSvc, collector, log)
	wsHandler := signaling.NewWSHandler(hub, sigRouter, cfg.WebSocket, log)

	engine := v1.NewRouter(cfg, db, jwtManager, collector, v1.Handlers{
		Users:         v1.NewUserHandler(userSvc),
		Analysis:      v1.NewAnalysisHandler(analysisSvc),
		Doctors:       v1.NewDoctorHandler(authSvc, consultSvc),
		Consultations: v1.NewConsultationHandler(consultSvc, notifySvc),
		WS:            wsHandler,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
