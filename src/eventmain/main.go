package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/brokerapi"
	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/dbutils"
	"github.com/jiaming2012/trading-bot/src/eventproducers/statusapi"
	"github.com/jiaming2012/trading-bot/src/eventpubsub"
	"github.com/jiaming2012/trading-bot/src/execution"
	"github.com/jiaming2012/trading-bot/src/notifier"
	"github.com/jiaming2012/trading-bot/src/scheduler"
	"github.com/jiaming2012/trading-bot/src/strategy"
	"github.com/jiaming2012/trading-bot/src/telemetry"
	"github.com/jiaming2012/trading-bot/src/utils"
)

const defaultDatabaseURL = "sqlite://trading_bot.db"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Main: %v", err)
	}
}

func setLogLevel() {
	level, err := log.ParseLevel(utils.GetEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		log.Warnf("invalid LOG_LEVEL, using info: %v", err)
		level = log.InfoLevel
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func run() (err error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	setLogLevel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := sync.WaitGroup{}

	// Set up Telemetry
	otelEnabled, _, err := utils.GetEnvBool("OTEL_ENABLED")
	if err != nil {
		return err
	}

	if otelEnabled {
		telemetry.AddLogHook()

		otelShutdown, setupErr := telemetry.SetupOTelSDK(ctx)
		if setupErr != nil {
			return fmt.Errorf("failed to setup otel sdk: %w", setupErr)
		}

		defer func() {
			err = errors.Join(err, otelShutdown(context.Background()))
		}()
	}

	// Load config
	cfg, err := utils.LoadBotConfig()
	if err != nil {
		return err
	}

	// Setup storage
	db, err := dbutils.InitDatabase(utils.GetEnvOrDefault("DATABASE_URL", defaultDatabaseURL), data.Models()...)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	dbService := data.NewDatabaseService(db)

	// Setup broker client
	limiter := brokerapi.NewRateLimiter(cfg.Broker.RateLimitCalls, cfg.Broker.RateLimitPeriod)
	client := brokerapi.NewClient(brokerapi.NewHTTPTransport(cfg.Broker.BaseURL), limiter, cfg.Broker)
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warnf("Main: failed to close broker client: %v", closeErr)
		}
	}()

	tracker := execution.NewPositionTracker(client, dbService)
	if _, err := tracker.UpdatePositions(ctx); err != nil {
		log.Warnf("Main: initial position sync failed, starting with an empty cache: %v", err)
	}

	orderManager := execution.NewOrderManager(client, execution.NewRiskManager(cfg.Trading), tracker, dbService, client.AccountNumber(), cfg.Trading)

	strat, err := strategy.New(cfg.Strategy, cfg.Trading)
	if err != nil {
		return err
	}

	// Setup notifications
	bus := eventpubsub.New()

	if webhookURL, err := utils.GetEnv("SLACK_WEBHOOK_URL"); err == nil {
		if err := notifier.NewSlackNotifierClient(&wg, bus, webhookURL).Start(ctx); err != nil {
			return err
		}
	} else {
		log.Warn("Main: SLACK_WEBHOOK_URL not set, notifications are disabled")
	}

	dispatcher := notifier.NewDispatcher(bus)

	// Setup scheduler
	tradingScheduler := scheduler.NewTradingScheduler(client, tracker, orderManager, dbService, dispatcher, strat, cfg)
	if err := tradingScheduler.Start(ctx); err != nil {
		return err
	}

	// Setup web server
	var srv *http.Server
	if port, err := utils.GetEnv("PORT"); err == nil {
		router := mux.NewRouter()
		statusapi.NewHandler(cfg, tracker, dbService, orderManager, tradingScheduler, client).SetupHandler(router)

		srv = &http.Server{
			Handler: router,
			Addr:    fmt.Sprintf(":%s", port),
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}

		go func() {
			log.Infof("listening on :%s", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("failed to start server: %v", err)
			}
		}()
	}

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Infof("Main: init complete (dry_run=%v, strategy=%s, symbols=%v)", cfg.Trading.DryRun, strat.Name(), cfg.Symbols())

	// Block here until program is shut down
	<-stop

	tradingScheduler.Stop()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Main: failed to shut down server: %v", err)
		}
		shutdownCancel()
	}

	// Shut down event clients
	cancel()

	// Wait for event clients to shut down
	wg.Wait()

	log.Info("Main: gracefully stopped!")
	return nil
}
