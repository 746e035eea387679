package main

import (
	"context"
	"errors"
	"fmt"
	"karma_server/api"
	"karma_server/bot"
	"karma_server/config"
	"karma_server/database"
	"karma_server/services"
	"karma_server/structs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
)

var logger *gecho.Logger
var cfg *structs.Config

// shutdownTimeout bounds how long in-flight requests get on exit
const shutdownTimeout = 15 * time.Second

// init loads environment variables, the logger and the database
func init() {
	envErr := godotenv.Load()

	cfg = config.GetConfig()
	logger = config.InitializeLogger()

	if envErr != nil {
		logger.Warn("No .env file found or error loading .env file, proceeding with system environment variables")
	}

	if err := database.Initialize(); err != nil {
		logger.Fatal("Failed to initialize database", gecho.Field("error", err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := database.GetInstance()

	sm, err := services.NewServiceManager(logger, cfg, db, nil)
	if err != nil {
		logger.Fatal("Failed to create services", gecho.Field("error", err))
	}
	if err := sm.Ping(ctx); err != nil {
		logger.Fatal("Failed to reach cache", gecho.Field("error", err))
	}

	if cfg.Database.SeedSizes {
		created, err := sm.CatalogService.SeedDefaultSizes(ctx)
		if err != nil {
			logger.Error("Failed to seed default sizes", gecho.Field("error", err))
		} else if created > 0 {
			logger.Info("Seeded default sizes", gecho.Field("created", created))
		}
	}

	srv := &http.Server{
		Addr:           cfg.Server.Port,
		Handler:        api.App(logger, cfg, sm),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info(fmt.Sprintf("Starting server (%s) on %s", cfg.Server.AppName, cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", gecho.Field("error", err))
			stop()
		}
	}()

	botDone := make(chan struct{})
	if cfg.Bot.Token != "" {
		b, err := bot.New(logger, cfg, sm)
		if err != nil {
			logger.Fatal("Failed to start bot", gecho.Field("error", err))
		}
		go func() {
			defer close(botDone)
			if err := b.Run(ctx); err != nil {
				logger.Error("Bot stopped with error", gecho.Field("error", err))
			}
		}()
	} else {
		close(botDone)
		logger.Warn("BOT_TOKEN is not set, running the HTTP API only")
	}

	sm.PaymentService.StartReconciler(ctx)

	<-ctx.Done()
	logger.Info("Received shutdown signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", gecho.Field("error", err))
	}
	// Run returns once in-flight updates are done
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		logger.Warn("Bot did not stop in time")
	}

	if err := sm.Close(); err != nil {
		logger.Error("Failed to close cache", gecho.Field("error", err))
	}
	if err := database.CloseInstance(); err != nil {
		logger.Error("Failed to close database", gecho.Field("error", err))
	}
	logger.Info("Shutdown complete")
}
