package execution

import (
	"math"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

// RiskManager applies the configured position and exposure limits. It holds no state of
// its own.
type RiskManager struct {
	maxPositionSize  int64
	maxTotalExposure int64
}

// ValidateSignalQuantity caps quantity so that quantity*price stays within the per
// position limit. A non-positive price leaves the quantity unchanged.
func (r *RiskManager) ValidateSignalQuantity(quantity int64, price float64) int64 {
	if price <= 0 {
		return quantity
	}

	maxQty := int64(math.Floor(float64(r.maxPositionSize) / price))
	if quantity > maxQty {
		return maxQty
	}

	return quantity
}

func (r *RiskManager) CheckPositionLimit(symbol string, quantity int64, price float64, current *eventmodels.Position) error {
	amount := float64(quantity) * price
	if current != nil {
		amount += float64(current.MarketValue)
	}

	if amount > float64(r.maxPositionSize) {
		return &PositionLimitExceededError{
			Symbol: symbol,
			Amount: int64(math.Ceil(amount)),
			Limit:  r.maxPositionSize,
		}
	}

	return nil
}

func (r *RiskManager) CheckTotalExposure(newAmount int64, positions []eventmodels.Position) error {
	current := eventmodels.TotalMarketValue(positions)
	if current+newAmount > r.maxTotalExposure {
		return &TotalExposureExceededError{
			Additional: newAmount,
			Current:    current,
			Limit:      r.maxTotalExposure,
		}
	}

	return nil
}

func NewRiskManager(cfg eventmodels.TradingConfig) *RiskManager {
	maxPositionSize := cfg.MaxPositionSize
	if maxPositionSize <= 0 {
		maxPositionSize = eventmodels.DefaultMaxPositionSize
	}

	maxTotalExposure := cfg.MaxTotalExposure
	if maxTotalExposure <= 0 {
		maxTotalExposure = eventmodels.DefaultMaxTotalExposure
	}

	return &RiskManager{
		maxPositionSize:  maxPositionSize,
		maxTotalExposure: maxTotalExposure,
	}
}
