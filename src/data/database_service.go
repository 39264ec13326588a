package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const (
	DefaultOrderListLimit = 100
	DefaultTradeListLimit = 500
)

var (
	ErrNotFound = fmt.Errorf("record not found")
)

type OrderFilter struct {
	Symbol string
	Status eventmodels.OrderStatus
	Limit  int
}

type TradeFilter struct {
	Symbol string
	Start  *time.Time
	End    *time.Time
	Limit  int
}

// DatabaseService persists orders, trades and positions. Orders and positions are
// upserted by their natural keys; trades are append-only.
type DatabaseService struct {
	db  *gorm.DB
	now func() time.Time
}

func (s *DatabaseService) SaveOrder(ctx context.Context, order eventmodels.OrderResponse) error {
	rec := newOrderRecord(order)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "side", "order_type", "quantity", "price", "status",
			"filled_qty", "filled_price", "placed_at", "last_updated_at", "updated_at",
		}),
	}).Create(&rec).Error

	if err != nil {
		return fmt.Errorf("SaveOrder: failed to save order %s: %w", order.OrderID, err)
	}

	return nil
}

func (s *DatabaseService) GetOrder(ctx context.Context, orderID string) (eventmodels.OrderResponse, error) {
	var rec OrderRecord
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return eventmodels.OrderResponse{}, fmt.Errorf("GetOrder: order %s: %w", orderID, ErrNotFound)
		}

		return eventmodels.OrderResponse{}, fmt.Errorf("GetOrder: failed to fetch order %s: %w", orderID, err)
	}

	return rec.ToModel(), nil
}

func (s *DatabaseService) ListOrders(ctx context.Context, filter OrderFilter) ([]eventmodels.OrderResponse, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultOrderListLimit
	}

	q := s.db.WithContext(ctx).Model(&OrderRecord{})
	if filter.Symbol != "" {
		q = q.Where("symbol = ?", filter.Symbol)
	}

	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var records []OrderRecord
	if err := q.Order("placed_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("ListOrders: %w", err)
	}

	orders := make([]eventmodels.OrderResponse, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.ToModel())
	}

	return orders, nil
}

// UpdateOrderStatus moves an order to a new status and reports whether the order exists.
func (s *DatabaseService) UpdateOrderStatus(ctx context.Context, orderID string, status eventmodels.OrderStatus, filledQty int64, filledPrice *float64) (bool, error) {
	if err := status.Validate(); err != nil {
		return false, fmt.Errorf("UpdateOrderStatus: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&OrderRecord{}).Where("order_id = ?", orderID).Updates(map[string]interface{}{
		"status":          string(status),
		"filled_qty":      filledQty,
		"filled_price":    filledPrice,
		"last_updated_at": s.now().UTC(),
	})

	if res.Error != nil {
		return false, fmt.Errorf("UpdateOrderStatus: failed to update order %s: %w", orderID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (s *DatabaseService) SaveTrade(ctx context.Context, trade eventmodels.Trade) error {
	rec := newTradeRecord(trade)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("SaveTrade: failed to save trade for order %s: %w", trade.OrderID, err)
	}

	return nil
}

func (s *DatabaseService) ListTrades(ctx context.Context, filter TradeFilter) ([]eventmodels.Trade, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTradeListLimit
	}

	q := s.db.WithContext(ctx).Model(&TradeRecord{})
	if filter.Symbol != "" {
		q = q.Where("symbol = ?", filter.Symbol)
	}

	if filter.Start != nil {
		q = q.Where("executed_at >= ?", filter.Start.UTC())
	}

	if filter.End != nil {
		q = q.Where("executed_at <= ?", filter.End.UTC())
	}

	var records []TradeRecord
	if err := q.Order("executed_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("ListTrades: %w", err)
	}

	trades := make([]eventmodels.Trade, 0, len(records))
	for _, r := range records {
		trades = append(trades, r.ToModel())
	}

	return trades, nil
}

// GetTradeSummary aggregates trades per symbol, largest total amount first. An empty
// symbol summarizes every symbol.
func (s *DatabaseService) GetTradeSummary(ctx context.Context, symbol string) ([]eventmodels.TradeSummary, error) {
	q := s.db.WithContext(ctx).Model(&TradeRecord{}).Select(
		"symbol, COUNT(*) AS total_trades, SUM(quantity) AS total_quantity, SUM(amount) AS total_amount, " +
			"SUM(commission) AS total_commission, AVG(price) AS avg_price")

	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}

	var rows []tradeSummaryRow
	if err := q.Group("symbol").Order("total_amount DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("GetTradeSummary: %w", err)
	}

	summaries := make([]eventmodels.TradeSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, eventmodels.TradeSummary{
			Symbol:          r.Symbol,
			TotalTrades:     r.TotalTrades,
			TotalQuantity:   r.TotalQuantity,
			TotalAmount:     r.TotalAmount,
			TotalCommission: r.TotalCommission,
			AvgPrice:        r.AvgPrice,
		})
	}

	return summaries, nil
}

func (s *DatabaseService) SavePosition(ctx context.Context, position eventmodels.Position) error {
	rec := newPositionRecord(position, s.now())

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "quantity", "avg_price", "current_price", "market_value",
			"profit_loss", "profit_loss_rate", "updated_at",
		}),
	}).Create(&rec).Error

	if err != nil {
		return fmt.Errorf("SavePosition: failed to save position %s: %w", position.Symbol, err)
	}

	return nil
}

func (s *DatabaseService) GetPosition(ctx context.Context, symbol string) (eventmodels.Position, error) {
	var rec PositionRecord
	if err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return eventmodels.Position{}, fmt.Errorf("GetPosition: %s: %w", symbol, ErrNotFound)
		}

		return eventmodels.Position{}, fmt.Errorf("GetPosition: failed to fetch %s: %w", symbol, err)
	}

	return rec.ToModel(), nil
}

// ListPositions returns stored positions with a non-zero quantity, ordered by symbol.
func (s *DatabaseService) ListPositions(ctx context.Context) ([]eventmodels.Position, error) {
	var records []PositionRecord
	if err := s.db.WithContext(ctx).Where("quantity > 0").Order("symbol").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("ListPositions: %w", err)
	}

	positions := make([]eventmodels.Position, 0, len(records))
	for _, r := range records {
		positions = append(positions, r.ToModel())
	}

	return positions, nil
}

func (s *DatabaseService) DeletePosition(ctx context.Context, symbol string) (bool, error) {
	res := s.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&PositionRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("DeletePosition: failed to delete %s: %w", symbol, res.Error)
	}

	if res.RowsAffected > 0 {
		log.WithContext(ctx).Debugf("DeletePosition: removed %s", symbol)
	}

	return res.RowsAffected > 0, nil
}

func NewDatabaseService(db *gorm.DB) *DatabaseService {
	return &DatabaseService{
		db:  db,
		now: time.Now,
	}
}
