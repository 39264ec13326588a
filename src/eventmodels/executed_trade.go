package eventmodels

import "time"

// Trade is an append-only record of a fill.
type Trade struct {
	OrderID    string    `csv:"order_id"`
	Symbol     string    `csv:"symbol"`
	Side       OrderSide `csv:"side"`
	Quantity   int64     `csv:"quantity"`
	Price      float64   `csv:"price"`
	Amount     int64     `csv:"amount"`
	Commission int64     `csv:"commission"`
	ExecutedAt time.Time `csv:"executed_at"`
}

func NewTradeFromFill(order OrderResponse, executedAt time.Time) (Trade, bool) {
	if order.Status != OrderStatusFilled || order.FilledPrice == nil {
		return Trade{}, false
	}

	return Trade{
		OrderID:    order.OrderID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Quantity:   order.FilledQuantity,
		Price:      *order.FilledPrice,
		Amount:     int64(float64(order.FilledQuantity) * *order.FilledPrice),
		ExecutedAt: executedAt,
	}, true
}

type TradeSummary struct {
	Symbol          string
	TotalTrades     int64
	TotalQuantity   int64
	TotalAmount     int64
	TotalCommission int64
	AvgPrice        float64
}

type DailyTradeStats struct {
	BuyCount    int
	SellCount   int
	TotalAmount int64
}

func NewDailyTradeStats(trades []Trade) DailyTradeStats {
	var stats DailyTradeStats
	for _, t := range trades {
		switch t.Side {
		case OrderSideBuy:
			stats.BuyCount++
		case OrderSideSell:
			stats.SellCount++
		}

		stats.TotalAmount += t.Amount
	}

	return stats
}
