package strategy

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/indicators"
)

const (
	DefaultRsiPeriod     = 14
	DefaultRsiOversold   = 30.0
	DefaultRsiOverbought = 70.0
)

// RsiStrategy buys when RSI falls below the oversold threshold and sells a held position
// when RSI rises above the overbought threshold.
type RsiStrategy struct {
	period          int
	oversold        float64
	overbought      float64
	maxPositionSize int64
}

func (s *RsiStrategy) Name() string {
	return "RsiStrategy"
}

func (s *RsiStrategy) GenerateSignal(ctx context.Context, symbol string, bars []eventmodels.OHLCVBar, position *eventmodels.Position) (eventmodels.Signal, error) {
	if len(bars) < s.period+1 {
		return eventmodels.NewHoldSignal(symbol, fmt.Sprintf("not enough data (%d bars, need %d)", len(bars), s.period+1)), nil
	}

	rsi, ready := indicators.RsiFromCloses(eventmodels.Closes(bars), s.period)
	if !ready {
		return eventmodels.Signal{}, newStrategyError(s.Name(), symbol, fmt.Errorf("rsi not ready after %d bars", len(bars)))
	}

	currentPrice := bars[0].Close

	log.WithContext(ctx).Debugf("%s RSI=%.2f price=%.0f", symbol, rsi, currentPrice)

	if rsi < s.oversold {
		qty := buyQuantity(s.maxPositionSize, currentPrice)
		if qty <= 0 {
			signal := eventmodels.NewHoldSignal(symbol, fmt.Sprintf("RSI oversold (%.2f) but position budget buys 0 shares", rsi))
			signal.Metadata = map[string]interface{}{"rsi": rsi}
			return signal, nil
		}

		return eventmodels.Signal{
			Type:     eventmodels.SignalTypeBuy,
			Symbol:   symbol,
			Reason:   fmt.Sprintf("RSI oversold (%.2f < %.0f)", rsi, s.oversold),
			Quantity: qty,
			Metadata: map[string]interface{}{"rsi": rsi, eventmodels.MetadataCurrentPrice: currentPrice},
		}, nil
	}

	if rsi > s.overbought && isHeld(position) {
		return eventmodels.Signal{
			Type:     eventmodels.SignalTypeSell,
			Symbol:   symbol,
			Reason:   fmt.Sprintf("RSI overbought (%.2f > %.0f)", rsi, s.overbought),
			Quantity: position.Quantity,
			Metadata: map[string]interface{}{"rsi": rsi, eventmodels.MetadataCurrentPrice: currentPrice},
		}, nil
	}

	signal := eventmodels.NewHoldSignal(symbol, fmt.Sprintf("RSI neutral (%.2f)", rsi))
	signal.Metadata = map[string]interface{}{"rsi": rsi}
	return signal, nil
}

func NewRsiStrategy(period int, oversold, overbought float64, maxPositionSize int64) *RsiStrategy {
	if maxPositionSize <= 0 {
		maxPositionSize = eventmodels.DefaultMaxPositionSize
	}

	return &RsiStrategy{
		period:          period,
		oversold:        oversold,
		overbought:      overbought,
		maxPositionSize: maxPositionSize,
	}
}
