package data

import (
	"time"

	"gorm.io/gorm"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type OrderRecord struct {
	gorm.Model
	OrderID        string    `gorm:"column:order_id;type:text;not null;uniqueIndex"`
	Symbol         string    `gorm:"column:symbol;type:text;not null;index"`
	Side           string    `gorm:"column:side;type:text;not null"`
	OrderType      string    `gorm:"column:order_type;type:text;not null"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	Price          *float64  `gorm:"column:price"`
	Status         string    `gorm:"column:status;type:text;not null;index"`
	FilledQuantity int64     `gorm:"column:filled_qty;not null;default:0"`
	FilledPrice    *float64  `gorm:"column:filled_price"`
	PlacedAt       time.Time `gorm:"column:placed_at;not null"`
	LastUpdatedAt  time.Time `gorm:"column:last_updated_at;not null"`
}

func (OrderRecord) TableName() string {
	return "orders"
}

func (r OrderRecord) ToModel() eventmodels.OrderResponse {
	return eventmodels.OrderResponse{
		OrderID:        r.OrderID,
		Symbol:         r.Symbol,
		Side:           eventmodels.OrderSide(r.Side),
		OrderType:      eventmodels.OrderType(r.OrderType),
		Quantity:       r.Quantity,
		Price:          r.Price,
		Status:         eventmodels.OrderStatus(r.Status),
		FilledQuantity: r.FilledQuantity,
		FilledPrice:    r.FilledPrice,
		CreatedAt:      r.PlacedAt,
		UpdatedAt:      r.LastUpdatedAt,
	}
}

func newOrderRecord(o eventmodels.OrderResponse) OrderRecord {
	return OrderRecord{
		OrderID:        o.OrderID,
		Symbol:         o.Symbol,
		Side:           string(o.Side),
		OrderType:      string(o.OrderType),
		Quantity:       o.Quantity,
		Price:          o.Price,
		Status:         string(o.Status),
		FilledQuantity: o.FilledQuantity,
		FilledPrice:    o.FilledPrice,
		PlacedAt:       o.CreatedAt.UTC(),
		LastUpdatedAt:  o.UpdatedAt.UTC(),
	}
}

type TradeRecord struct {
	gorm.Model
	OrderID    string    `gorm:"column:order_id;type:text;not null;index"`
	Symbol     string    `gorm:"column:symbol;type:text;not null;index"`
	Side       string    `gorm:"column:side;type:text;not null"`
	Quantity   int64     `gorm:"column:quantity;not null"`
	Price      float64   `gorm:"column:price;not null"`
	Amount     int64     `gorm:"column:amount;not null"`
	Commission int64     `gorm:"column:commission;not null;default:0"`
	ExecutedAt time.Time `gorm:"column:executed_at;not null;index"`
}

func (TradeRecord) TableName() string {
	return "trades"
}

func (r TradeRecord) ToModel() eventmodels.Trade {
	return eventmodels.Trade{
		OrderID:    r.OrderID,
		Symbol:     r.Symbol,
		Side:       eventmodels.OrderSide(r.Side),
		Quantity:   r.Quantity,
		Price:      r.Price,
		Amount:     r.Amount,
		Commission: r.Commission,
		ExecutedAt: r.ExecutedAt,
	}
}

func newTradeRecord(t eventmodels.Trade) TradeRecord {
	return TradeRecord{
		OrderID:    t.OrderID,
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		Quantity:   t.Quantity,
		Price:      t.Price,
		Amount:     t.Amount,
		Commission: t.Commission,
		ExecutedAt: t.ExecutedAt.UTC(),
	}
}

// PositionRecord rows are hard deleted, so it does not embed gorm.Model.
type PositionRecord struct {
	ID             uint      `gorm:"primarykey"`
	Symbol         string    `gorm:"column:symbol;type:text;not null;uniqueIndex"`
	Name           string    `gorm:"column:name;type:text;not null;default:''"`
	Quantity       int64     `gorm:"column:quantity;not null;default:0"`
	AvgPrice       float64   `gorm:"column:avg_price;not null;default:0"`
	CurrentPrice   float64   `gorm:"column:current_price;not null;default:0"`
	MarketValue    int64     `gorm:"column:market_value;not null;default:0"`
	ProfitLoss     int64     `gorm:"column:profit_loss;not null;default:0"`
	ProfitLossRate float64   `gorm:"column:profit_loss_rate;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (PositionRecord) TableName() string {
	return "positions"
}

func (r PositionRecord) ToModel() eventmodels.Position {
	return eventmodels.Position{
		Symbol:         r.Symbol,
		Name:           r.Name,
		Quantity:       r.Quantity,
		AvgPrice:       r.AvgPrice,
		CurrentPrice:   r.CurrentPrice,
		MarketValue:    r.MarketValue,
		ProfitLoss:     r.ProfitLoss,
		ProfitLossRate: r.ProfitLossRate,
	}
}

func newPositionRecord(p eventmodels.Position, now time.Time) PositionRecord {
	return PositionRecord{
		Symbol:         p.Symbol,
		Name:           p.Name,
		Quantity:       p.Quantity,
		AvgPrice:       p.AvgPrice,
		CurrentPrice:   p.CurrentPrice,
		MarketValue:    p.MarketValue,
		ProfitLoss:     p.ProfitLoss,
		ProfitLossRate: p.ProfitLossRate,
		UpdatedAt:      now.UTC(),
	}
}

type tradeSummaryRow struct {
	Symbol          string
	TotalTrades     int64
	TotalQuantity   int64
	TotalAmount     int64
	TotalCommission int64
	AvgPrice        float64
}

// Models lists the records to migrate.
func Models() []interface{} {
	return []interface{}{
		&OrderRecord{},
		&TradeRecord{},
		&PositionRecord{},
	}
}
