package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/trading-bot/src/brokerapi"
	"github.com/jiaming2012/trading-bot/src/cmd/tradingctl/run"
	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/dbutils"
	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/utils"
)

const defaultDatabaseURL = "sqlite://trading_bot.db"

func openDatabase() (*data.DatabaseService, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	db, err := dbutils.InitDatabase(utils.GetEnvOrDefault("DATABASE_URL", defaultDatabaseURL), data.Models()...)
	if err != nil {
		return nil, err
	}

	return data.NewDatabaseService(db), nil
}

func parseDay(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}

	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	return &day, nil
}

var rootCmd = &cobra.Command{
	Use:   "tradingctl",
	Short: "Inspect and operate the trading bot",
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show the positions recorded at the last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}

		positions, err := store.ListPositions(cmd.Context())
		if err != nil {
			return err
		}

		run.RenderPositions(os.Stdout, positions)
		return nil
	},
}

var exportTradesCmd = &cobra.Command{
	Use:   "export-trades --start 2024-03-01 --end 2024-03-31 --outDir ./exports",
	Short: "Export executed trades to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, _ := cmd.Flags().GetString("symbol")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		outDir, _ := cmd.Flags().GetString("outDir")

		loc, err := eventmodels.LoadLocation(utils.GetEnvOrDefault("BOT_TIMEZONE", eventmodels.DefaultTimezone))
		if err != nil {
			return err
		}

		filter := data.TradeFilter{Symbol: symbol}

		if filter.Start, err = parseDay(start, loc, false); err != nil {
			return err
		}

		if filter.End, err = parseDay(end, loc, true); err != nil {
			return err
		}

		store, err := openDatabase()
		if err != nil {
			return err
		}

		trades, err := store.ListTrades(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if outDir == "" {
			return run.WriteTradesCsv(os.Stdout, trades)
		}

		csvPath, err := run.ExportTradesToCsv(outDir, trades, "trades", time.Now())
		if err != nil {
			return err
		}

		fmt.Println("CSV file written to: ", csvPath)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize trades per symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, _ := cmd.Flags().GetString("symbol")

		store, err := openDatabase()
		if err != nil {
			return err
		}

		summaries, err := store.GetTradeSummary(cmd.Context(), symbol)
		if err != nil {
			return err
		}

		run.RenderTradeSummary(os.Stdout, summaries)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel --order-id 0001234",
	Short: "Cancel an open order at the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, _ := cmd.Flags().GetString("order-id")

		if err := utils.InitEnvironmentVariables(); err != nil {
			return fmt.Errorf("error loading environment variables: %w", err)
		}

		cfg, err := utils.LoadBotConfig()
		if err != nil {
			return err
		}

		limiter := brokerapi.NewRateLimiter(cfg.Broker.RateLimitCalls, cfg.Broker.RateLimitPeriod)
		client := brokerapi.NewClient(brokerapi.NewHTTPTransport(cfg.Broker.BaseURL), limiter, cfg.Broker)
		defer client.Close()

		cancelled, err := client.CancelOrder(cmd.Context(), orderID)
		if err != nil {
			return err
		}

		if !cancelled {
			return fmt.Errorf("order %s was not cancelled", orderID)
		}

		fmt.Printf("order %s cancelled\n", orderID)
		return nil
	},
}

func main() {
	log.SetLevel(log.WarnLevel)

	exportTradesCmd.Flags().String("symbol", "", "Only export trades for this symbol.")
	exportTradesCmd.Flags().String("start", "", "First day to export (YYYY-MM-DD).")
	exportTradesCmd.Flags().String("end", "", "Last day to export (YYYY-MM-DD).")
	exportTradesCmd.Flags().String("outDir", "", "The directory to write the output to. Defaults to stdout.")

	summaryCmd.Flags().String("symbol", "", "Only summarize this symbol.")

	cancelCmd.Flags().String("order-id", "", "The broker order id.")
	cancelCmd.MarkFlagRequired("order-id")

	rootCmd.AddCommand(positionsCmd, exportTradesCmd, summaryCmd, cancelCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
