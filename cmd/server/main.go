package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/database"
	"risk-calculator-go/internal/history"
	"risk-calculator-go/internal/logger"
	"risk-calculator-go/internal/quotes"
	"risk-calculator-go/internal/stocks"
	"risk-calculator-go/internal/subscription"
	"risk-calculator-go/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.", zap.String("driver", cfg.Database.Driver))

	limiters := quotes.NewLimiters(cfg.Quotes.RateLimit, cfg.Quotes.RateLimitBurst)
	provider, err := quotes.NewProvider(&cfg, db, quotes.NewCache(&cfg.Cache), limiters, log)
	if err != nil {
		log.Fatal("Failed to set up quote provider", zap.Error(err))
	}
	source, err := quotes.NewSourceProvider(&cfg, limiters, log)
	if err != nil {
		log.Fatal("Failed to set up stock refresh source", zap.Error(err))
	}
	log.Info("Quote provider ready", zap.String("provider", provider.Name()))

	acc := accounts.NewService(db, cfg.Risk, log)
	sessions := web.NewSessionManager(cfg.Server.SessionTTL, cfg.Server.SecureCookies)
	stockSvc := stocks.NewService(db, source, quotes.NewStaticProvider(cfg.Quotes.DefaultPrice), cfg.Stocks, log)

	srv, err := web.NewServer(cfg.Server, web.Deps{
		DB:            db,
		Accounts:      acc,
		History:       history.NewService(db, cfg.History, log),
		Subscriptions: subscription.NewService(db, acc, cfg.Subscription, log),
		Quotes:        provider,
		Stocks:        stockSvc,
		Sessions:      sessions,
	}, log)
	if err != nil {
		log.Fatal("Failed to create web server", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, time.Hour)
	go stockSvc.Run(ctx)
	srv.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
