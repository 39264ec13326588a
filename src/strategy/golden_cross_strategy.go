package strategy

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/indicators"
)

const (
	DefaultShortPeriod = 5
	DefaultLongPeriod  = 20
)

// GoldenCrossStrategy buys when the short moving average crosses above the long one and
// sells a held position on the opposite cross.
type GoldenCrossStrategy struct {
	shortPeriod     int
	longPeriod      int
	maxPositionSize int64
}

type crossState struct {
	prevShort, prevLong float64
	short, long         float64
}

func (c crossState) golden() bool {
	return c.prevShort <= c.prevLong && c.short > c.long
}

func (c crossState) dead() bool {
	return c.prevShort >= c.prevLong && c.short < c.long
}

func (s *GoldenCrossStrategy) Name() string {
	return "GoldenCrossStrategy"
}

func (s *GoldenCrossStrategy) minBars() int {
	return s.longPeriod + 2
}

func (s *GoldenCrossStrategy) averages(closes []float64) (crossState, error) {
	var state crossState
	var err error

	if state.short, err = indicators.Sma(closes, s.shortPeriod); err != nil {
		return crossState{}, err
	}

	if state.long, err = indicators.Sma(closes, s.longPeriod); err != nil {
		return crossState{}, err
	}

	prev := closes[:len(closes)-1]
	if state.prevShort, err = indicators.Sma(prev, s.shortPeriod); err != nil {
		return crossState{}, err
	}

	if state.prevLong, err = indicators.Sma(prev, s.longPeriod); err != nil {
		return crossState{}, err
	}

	return state, nil
}

func (s *GoldenCrossStrategy) GenerateSignal(ctx context.Context, symbol string, bars []eventmodels.OHLCVBar, position *eventmodels.Position) (eventmodels.Signal, error) {
	if len(bars) < s.minBars() {
		return eventmodels.NewHoldSignal(symbol, fmt.Sprintf("not enough data (%d bars, need %d)", len(bars), s.minBars())), nil
	}

	state, err := s.averages(eventmodels.Closes(bars))
	if err != nil {
		return eventmodels.Signal{}, newStrategyError(s.Name(), symbol, err)
	}

	currentPrice := bars[0].Close
	metadata := map[string]interface{}{
		"short_ma": state.short,
		"long_ma":  state.long,
	}

	log.WithContext(ctx).Debugf("%s MA(%d)=%.0f MA(%d)=%.0f price=%.0f", symbol, s.shortPeriod, state.short, s.longPeriod, state.long, currentPrice)

	if state.golden() {
		qty := buyQuantity(s.maxPositionSize, currentPrice)
		if qty <= 0 {
			signal := eventmodels.NewHoldSignal(symbol, "golden cross but position budget buys 0 shares")
			signal.Metadata = metadata
			return signal, nil
		}

		metadata[eventmodels.MetadataCurrentPrice] = currentPrice
		return eventmodels.Signal{
			Type:     eventmodels.SignalTypeBuy,
			Symbol:   symbol,
			Reason:   fmt.Sprintf("golden cross (MA%d %.0f > MA%d %.0f)", s.shortPeriod, state.short, s.longPeriod, state.long),
			Quantity: qty,
			Metadata: metadata,
		}, nil
	}

	if state.dead() && isHeld(position) {
		metadata[eventmodels.MetadataCurrentPrice] = currentPrice
		return eventmodels.Signal{
			Type:     eventmodels.SignalTypeSell,
			Symbol:   symbol,
			Reason:   fmt.Sprintf("dead cross (MA%d %.0f < MA%d %.0f)", s.shortPeriod, state.short, s.longPeriod, state.long),
			Quantity: position.Quantity,
			Metadata: metadata,
		}, nil
	}

	signal := eventmodels.NewHoldSignal(symbol, fmt.Sprintf("no cross (MA%d %.0f, MA%d %.0f)", s.shortPeriod, state.short, s.longPeriod, state.long))
	signal.Metadata = metadata
	return signal, nil
}

func NewGoldenCrossStrategy(shortPeriod, longPeriod int, maxPositionSize int64) (*GoldenCrossStrategy, error) {
	if shortPeriod <= 0 || shortPeriod >= longPeriod {
		return nil, fmt.Errorf("NewGoldenCrossStrategy: short period (%d) must be positive and less than long period (%d)", shortPeriod, longPeriod)
	}

	if maxPositionSize <= 0 {
		maxPositionSize = eventmodels.DefaultMaxPositionSize
	}

	return &GoldenCrossStrategy{
		shortPeriod:     shortPeriod,
		longPeriod:      longPeriod,
		maxPositionSize: maxPositionSize,
	}, nil
}
