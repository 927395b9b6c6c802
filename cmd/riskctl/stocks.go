package main

import (
	"fmt"
	"strings"

	"risk-calculator-go/internal/quotes"
	"risk-calculator-go/internal/stocks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	refreshMaxStocks  int
	refreshSymbols    string
	refreshPricesOnly bool
	refreshForce      bool
)

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "Manage the stock table",
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch quotes and upsert them into the stock table",
	Long: `Fetch quotes from the configured source and store them in the stock table.

Examples:
  riskctl stocks refresh
  riskctl stocks refresh --symbols=RELIANCE,TCS --force
  riskctl stocks refresh --update-prices-only --max-stocks=50`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(stocksCmd)
	stocksCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVar(&refreshMaxStocks, "max-stocks", 0, "Maximum number of symbols to refresh (0 uses the configured limit)")
	refreshCmd.Flags().StringVar(&refreshSymbols, "symbols", "", "Comma separated symbols to refresh")
	refreshCmd.Flags().BoolVar(&refreshPricesOnly, "update-prices-only", false, "Only update prices of stocks already stored")
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Refresh stocks even when they were updated recently")
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	limiters := quotes.NewLimiters(a.cfg.Quotes.RateLimit, a.cfg.Quotes.RateLimitBurst)
	source, err := quotes.NewSourceProvider(&a.cfg, limiters, a.log)
	if err != nil {
		return err
	}
	svc := stocks.NewService(a.db, source, quotes.NewStaticProvider(a.cfg.Quotes.DefaultPrice), a.cfg.Stocks, a.log)

	opts := stocks.Options{
		MaxStocks:        refreshMaxStocks,
		UpdatePricesOnly: refreshPricesOnly,
		Force:            refreshForce,
	}
	for _, s := range strings.Split(refreshSymbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.Symbols = append(opts.Symbols, s)
		}
	}

	res, err := svc.Refresh(cmd.Context(), opts)
	if err != nil {
		return err
	}
	a.log.Info("Stock refresh finished", zap.String("source", source.Name()))
	fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d skipped=%d failed=%d\n", res.Created, res.Updated, res.Skipped, res.Failed)
	return nil
}
