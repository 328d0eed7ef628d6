package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appService "github.com/avilar/recordatorio-bot/internal/application/service"
	"github.com/avilar/recordatorio-bot/internal/config"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/auth"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/database/sqlite"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/scheduler"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/storage"
	twilioClient "github.com/avilar/recordatorio-bot/internal/infrastructure/twilio"
	"github.com/avilar/recordatorio-bot/internal/interfaces/api/handler"
	"github.com/avilar/recordatorio-bot/internal/interfaces/api/router"
	appLogger "github.com/avilar/recordatorio-bot/internal/pkg/logger"

	"gorm.io/gorm"
)

func gracefulShutdown(apiServer *http.Server, scanSvc appService.ScanService, db *gorm.DB, log appLogger.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	log.Info("Stopping scan scheduler...")
	scanSvc.Stop()

	if db != nil {
		if err := sqlite.CloseDB(db); err != nil {
			log.Error("Error closing database", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Server exiting")
	done <- true
}

func main() {
	log := appLogger.New()
	cfg := config.Load()

	// --- Reminder store: SQLite when DB_URL is set, JSON snapshot otherwise ---
	var (
		store repository.ReminderStore
		db    *gorm.DB
	)
	if cfg.DBURL != "" {
		var err error
		db, err = sqlite.NewDB(cfg.DBURL)
		if err != nil {
			log.Error("Failed to open database", err)
			panic(err)
		}
		store = sqlite.NewReminderStore(db)
		log.Info(fmt.Sprintf("Using SQLite reminder store at %s", cfg.DBURL))
	} else {
		store = storage.New(cfg.RemindersFile, log)
		log.Info(fmt.Sprintf("Using JSON snapshot reminder store at %s", cfg.RemindersFile))
	}

	// --- Collaborators ---
	authProvider := auth.NewFileProvider(cfg.UsersFile, log)
	sender := twilioClient.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, log)
	sessions := appService.NewSessionStore()
	cronScheduler := scheduler.NewScheduler(log)

	// --- Application services ---
	conversationSvc := appService.NewConversationService(store, sessions, authProvider, sender, cfg.LocalTimezone, log)
	scanSvc := appService.NewScanService(store, sender, cronScheduler, cfg.ScanIntervalSeconds, log)
	if err := scanSvc.Start(); err != nil {
		log.Error("Failed to start reminder scan", err)
		panic(err)
	}
	log.Info(fmt.Sprintf("Reminder scan running every %d seconds", cfg.ScanIntervalSeconds))

	// --- HTTP surface ---
	webhookHandler := handler.NewWebhookHandler(conversationSvc, cfg.TwilioWhatsAppNumber, log)
	echoRouter := router.NewRouter(&router.Config{
		WebhookHandler: webhookHandler,
		Logger:         log,
	})

	apiServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, scanSvc, db, log, done)

	log.Info(fmt.Sprintf("Server starting on port %s", cfg.Port))
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Info("Graceful shutdown complete.")
}
