package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

var (
	ErrStrategy = fmt.Errorf("strategy error")
)

// Strategy turns recent bars and the current position into a signal. Bars are ordered
// newest first. position is nil when nothing is held.
type Strategy interface {
	Name() string
	GenerateSignal(ctx context.Context, symbol string, bars []eventmodels.OHLCVBar, position *eventmodels.Position) (eventmodels.Signal, error)
}

// Initializer is implemented by strategies that need to load state before the first tick.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// FillObserver is implemented by strategies that track their own fills.
type FillObserver interface {
	OnOrderFilled(ctx context.Context, symbol string, signal eventmodels.Signal)
}

type StrategyError struct {
	StrategyName string
	Symbol       string
	Err          error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.StrategyName, e.Symbol, e.Err)
}

func (e *StrategyError) Unwrap() []error {
	return []error{ErrStrategy, e.Err}
}

func newStrategyError(name, symbol string, err error) *StrategyError {
	return &StrategyError{StrategyName: name, Symbol: symbol, Err: err}
}

// buyQuantity sizes a BUY so that it fits in one position's budget.
func buyQuantity(maxPositionSize int64, price float64) int64 {
	if price <= 0 {
		return 0
	}

	return int64(float64(maxPositionSize) / price)
}

func isHeld(position *eventmodels.Position) bool {
	return position != nil && position.Quantity > 0
}

// New builds the named strategy with its default parameters.
func New(name string, cfg eventmodels.TradingConfig) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rsi":
		return NewRsiStrategy(DefaultRsiPeriod, DefaultRsiOversold, DefaultRsiOverbought, cfg.MaxPositionSize), nil
	case "golden_cross", "golden-cross", "goldencross":
		s, err := NewGoldenCrossStrategy(DefaultShortPeriod, DefaultLongPeriod, cfg.MaxPositionSize)
		if err != nil {
			return nil, err
		}

		return s, nil
	}

	return nil, fmt.Errorf("strategy.New: unknown strategy %q", name)
}
