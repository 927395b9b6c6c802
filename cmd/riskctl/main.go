package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/database"
	"risk-calculator-go/internal/logger"
	"risk-calculator-go/internal/subscription"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

// rootCmd is the base command for the admin CLI
var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "Administration tool for the risk calculator",
	Long: `riskctl runs maintenance tasks against the risk calculator database:
refreshing the stock table, managing device trials, marking accounts as paid
and toggling the application-wide access switches.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "Directory containing config.yml")
}

// app holds what every subcommand needs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	acc    *accounts.Service
	access *subscription.Service
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		return nil, err
	}

	acc := accounts.NewService(db, cfg.Risk, log)
	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		acc:    acc,
		access: subscription.NewService(db, acc, cfg.Subscription, log),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// parseSwitch reads an on/off argument.
func parseSwitch(arg string) (bool, error) {
	switch arg {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
