package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type MockMarket struct {
	mu      sync.Mutex
	bars    map[string][]eventmodels.OHLCVBar
	barErr  map[string]error
	balance eventmodels.AccountBalance
	fetched []string
	entered chan struct{}
	release chan struct{}
}

func (m *MockMarket) GetOHLCV(ctx context.Context, symbol, interval string, count int) ([]eventmodels.OHLCVBar, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, symbol)
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}

	if err := m.barErr[symbol]; err != nil {
		return nil, err
	}

	return m.bars[symbol], nil
}

func (m *MockMarket) GetAccountBalance(ctx context.Context) (eventmodels.AccountBalance, error) {
	return m.balance, nil
}

func (m *MockMarket) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

type MockPositions struct {
	positions map[string]eventmodels.Position
	syncErr   error
	syncs     int
}

func (m *MockPositions) UpdatePositions(ctx context.Context) ([]eventmodels.Position, error) {
	m.syncs++
	if m.syncErr != nil {
		return nil, m.syncErr
	}

	var out []eventmodels.Position
	for _, p := range m.positions {
		out = append(out, p)
	}

	return out, nil
}

func (m *MockPositions) GetCurrentPosition(symbol string) (eventmodels.Position, bool) {
	p, found := m.positions[symbol]
	return p, found
}

type MockExecutor struct {
	results  map[string]eventmodels.ExecutionResult
	errs     map[string]error
	executed []eventmodels.Signal
}

func (m *MockExecutor) ExecuteSignal(ctx context.Context, signal eventmodels.Signal) (eventmodels.ExecutionResult, error) {
	m.executed = append(m.executed, signal)

	if err := m.errs[signal.Symbol]; err != nil {
		return eventmodels.ExecutionResult{}, err
	}

	if result, found := m.results[signal.Symbol]; found {
		return result, nil
	}

	return eventmodels.NewSkippedResult("hold"), nil
}

type MockTrades struct {
	trades []eventmodels.Trade
	filter data.TradeFilter
}

func (m *MockTrades) ListTrades(ctx context.Context, filter data.TradeFilter) ([]eventmodels.Trade, error) {
	m.filter = filter
	return m.trades, nil
}

type MockNotifier struct {
	mu         sync.Mutex
	signals    []eventmodels.Signal
	orders     []eventmodels.OrderResponse
	rejections []string
	errors     []string
	summaries  []time.Time
	summary    []eventmodels.Trade
}

func (m *MockNotifier) SendSignal(ctx context.Context, signal eventmodels.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, signal)
}

func (m *MockNotifier) SendOrderResult(ctx context.Context, order eventmodels.OrderResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
}

func (m *MockNotifier) SendRejection(ctx context.Context, signal eventmodels.Signal, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, reason)
}

func (m *MockNotifier) SendError(ctx context.Context, err error, errContext string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, errContext)
}

func (m *MockNotifier) SendDailySummary(ctx context.Context, date time.Time, balance eventmodels.AccountBalance, trades []eventmodels.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, date)
	m.summary = trades
}

type MockStrategy struct {
	signals     map[string]eventmodels.Signal
	panicOn     string
	initialized bool
	filled      []string
	positions   map[string]*eventmodels.Position
}

func (m *MockStrategy) Name() string {
	return "mock"
}

func (m *MockStrategy) Initialize(ctx context.Context) error {
	m.initialized = true
	return nil
}

func (m *MockStrategy) GenerateSignal(ctx context.Context, symbol string, bars []eventmodels.OHLCVBar, position *eventmodels.Position) (eventmodels.Signal, error) {
	if symbol == m.panicOn {
		panic("strategy blew up")
	}

	if m.positions == nil {
		m.positions = make(map[string]*eventmodels.Position)
	}
	m.positions[symbol] = position

	if signal, found := m.signals[symbol]; found {
		return signal, nil
	}

	return eventmodels.NewHoldSignal(symbol, "neutral"), nil
}

func (m *MockStrategy) OnOrderFilled(ctx context.Context, symbol string, signal eventmodels.Signal) {
	m.filled = append(m.filled, symbol)
}
