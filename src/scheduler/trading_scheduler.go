package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiaming2012/trading-bot/src/brokerapi"
	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/strategy"
)

type MarketData interface {
	GetOHLCV(ctx context.Context, symbol, interval string, count int) ([]eventmodels.OHLCVBar, error)
	GetAccountBalance(ctx context.Context) (eventmodels.AccountBalance, error)
}

type PositionSyncer interface {
	UpdatePositions(ctx context.Context) ([]eventmodels.Position, error)
	GetCurrentPosition(symbol string) (eventmodels.Position, bool)
}

type SignalExecutor interface {
	ExecuteSignal(ctx context.Context, signal eventmodels.Signal) (eventmodels.ExecutionResult, error)
}

type TradeLister interface {
	ListTrades(ctx context.Context, filter data.TradeFilter) ([]eventmodels.Trade, error)
}

// Notifier delivers operator notifications. Implementations must not block on delivery.
type Notifier interface {
	SendSignal(ctx context.Context, signal eventmodels.Signal)
	SendOrderResult(ctx context.Context, order eventmodels.OrderResponse)
	SendRejection(ctx context.Context, signal eventmodels.Signal, reason string)
	SendError(ctx context.Context, err error, errContext string)
	SendDailySummary(ctx context.Context, date time.Time, balance eventmodels.AccountBalance, trades []eventmodels.Trade)
}

// TradingScheduler drives the bot: a strategy tick during market hours, a periodic
// position sync and a daily summary. Each job runs on its own goroutine.
type TradingScheduler struct {
	market    MarketData
	positions PositionSyncer
	executor  SignalExecutor
	trades    TradeLister
	notifier  Notifier
	strategy  strategy.Strategy
	symbols   []string
	hours     MarketHours
	now       func() time.Time

	jobs   []*Job
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start initializes the strategy and arms every job trigger. It returns once the
// triggers are running.
func (s *TradingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("TradingScheduler.Start: already started")
	}

	if initializer, ok := s.strategy.(strategy.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			return fmt.Errorf("TradingScheduler.Start: failed to initialize strategy %s: %w", s.strategy.Name(), err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(runCtx, job)
	}

	log.Infof("TradingScheduler: started (strategy=%s, symbols=%v, hours=%s-%s %s)", s.strategy.Name(), s.symbols, s.hours.Open, s.hours.Close, s.hours.Location)
	return nil
}

// Stop cancels every trigger and waits for in-flight runs to return.
func (s *TradingScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
	log.Info("TradingScheduler: stopped")
}

// RunNow runs the named job immediately on the caller's goroutine. It returns false when
// a run of the same job is already in flight.
func (s *TradingScheduler) RunNow(ctx context.Context, name string) (bool, error) {
	for _, job := range s.jobs {
		if job.name == name {
			return job.run(ctx), nil
		}
	}

	return false, fmt.Errorf("RunNow: %w: %s", ErrUnknownJob, name)
}

func (s *TradingScheduler) loop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		now := s.now()
		timer := time.NewTimer(job.trigger.next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				job.run(ctx)
			}()
		}
	}
}

func (s *TradingScheduler) IsMarketOpen() bool {
	return s.hours.IsOpen(s.now())
}

func (s *TradingScheduler) strategyTick(ctx context.Context) {
	if !s.IsMarketOpen() {
		log.Debug("TradingScheduler: market closed, skipping strategy tick")
		return
	}

	log.Debugf("TradingScheduler: strategy tick for %d symbols", len(s.symbols))

	for _, symbol := range s.symbols {
		if ctx.Err() != nil {
			log.Warn("TradingScheduler: strategy tick interrupted")
			return
		}

		if err := s.processSymbol(ctx, symbol); err != nil {
			log.WithError(err).WithField("symbol", symbol).Error("TradingScheduler: failed to process symbol")
			s.notifier.SendError(ctx, err, fmt.Sprintf("%s strategy tick", symbol))
		}
	}
}

func (s *TradingScheduler) processSymbol(ctx context.Context, symbol string) (err error) {
	ctx, span := otel.Tracer("scheduler").Start(ctx, "processSymbol", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processSymbol: panic: %v", r)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return s.evaluate(ctx, symbol)
}

func (s *TradingScheduler) evaluate(ctx context.Context, symbol string) error {
	bars, err := s.market.GetOHLCV(ctx, symbol, brokerapi.DefaultOHLCVInterval, brokerapi.DefaultOHLCVCount)
	if err != nil {
		return fmt.Errorf("evaluate: failed to fetch bars: %w", err)
	}

	if len(bars) == 0 {
		log.WithField("symbol", symbol).Warn("TradingScheduler: no bars, skipping")
		return nil
	}

	var position *eventmodels.Position
	if p, found := s.positions.GetCurrentPosition(symbol); found {
		position = &p
	}

	signal, err := s.strategy.GenerateSignal(ctx, symbol, bars, position)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	log.WithField("symbol", symbol).Infof("signal: %s - %s", signal.Type, signal.Reason)

	s.notifier.SendSignal(ctx, signal)

	result, err := s.executor.ExecuteSignal(ctx, signal)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	switch result.Outcome {
	case eventmodels.ExecutionOutcomePlaced:
		s.notifier.SendOrderResult(ctx, *result.Order)

		if observer, ok := s.strategy.(strategy.FillObserver); ok {
			observer.OnOrderFilled(ctx, symbol, signal)
		}
	case eventmodels.ExecutionOutcomeRejected:
		s.notifier.SendRejection(ctx, signal, result.Reason)
	}

	return nil
}

func (s *TradingScheduler) syncPositions(ctx context.Context) {
	positions, err := s.positions.UpdatePositions(ctx)
	if err != nil {
		log.WithError(err).Error("TradingScheduler: position sync failed")
		return
	}

	log.Debugf("TradingScheduler: synced %d positions", len(positions))
}

func (s *TradingScheduler) dailySummary(ctx context.Context) {
	balance, err := s.market.GetAccountBalance(ctx)
	if err != nil {
		log.WithError(err).Error("TradingScheduler: failed to build daily summary")
		return
	}

	today := s.now().In(s.hours.Location)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	trades, err := s.trades.ListTrades(ctx, data.TradeFilter{Start: &start, End: &end})
	if err != nil {
		log.WithError(err).Warn("TradingScheduler: failed to load today's trades, sending summary without them")
		trades = nil
	}

	s.notifier.SendDailySummary(ctx, today, balance, trades)
	log.Info("TradingScheduler: daily summary sent")
}

func NewTradingScheduler(
	market MarketData,
	positions PositionSyncer,
	executor SignalExecutor,
	trades TradeLister,
	notifier Notifier,
	strat strategy.Strategy,
	cfg eventmodels.BotConfig,
) *TradingScheduler {
	s := &TradingScheduler{
		market:    market,
		positions: positions,
		executor:  executor,
		trades:    trades,
		notifier:  notifier,
		strategy:  strat,
		symbols:   cfg.Symbols(),
		hours:     NewMarketHours(cfg.Schedule),
		now:       time.Now,
	}

	s.jobs = []*Job{
		newJob(StrategyTickJob, intervalTrigger{interval: cfg.Schedule.TickInterval}, s.strategyTick),
		newJob(SyncPositionsJob, intervalTrigger{interval: cfg.Schedule.PositionSyncInterval}, s.syncPositions),
		newJob(DailySummaryJob, dailyTrigger{at: cfg.Schedule.DailySummaryAt, loc: s.hours.Location}, s.dailySummary),
	}

	return s
}
