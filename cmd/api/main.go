package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/finhealth-service/internal/config"
	"github.com/Dan9191/finhealth-service/internal/handler"
	"github.com/Dan9191/finhealth-service/internal/healthscore"
	"github.com/Dan9191/finhealth-service/internal/integrations/statement"
	"github.com/Dan9191/finhealth-service/internal/middleware"
	"github.com/Dan9191/finhealth-service/internal/notify"
	"github.com/Dan9191/finhealth-service/internal/repository"
	"github.com/Dan9191/finhealth-service/internal/scheduler"
	"github.com/Dan9191/finhealth-service/internal/service"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

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

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if cfg.RunMigrations {
		if err := repository.RunMigrations(db); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	engine := healthscore.NewEngine()
	parser := statement.NewParser(logger)
	sender := notify.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, engine, parser, sender)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(logger))
	h.Routes(r, middleware.AuthMiddleware(cfg))

	// Scheduled health reports
	sched := scheduler.New(logger)
	if cfg.ReportSchedule != "" {
		err := sched.Add("health-reports", cfg.ReportSchedule, func(ctx context.Context) error {
			_, err := svc.SendHealthReports(ctx)
			return err
		})
		if err != nil {
			logger.Fatalf("Failed to schedule health reports: %v", err)
		}
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Errorf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("Scheduled jobs did not finish before shutdown timeout")
	}
	logger.Info("Server stopped")
}
