package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

// FallbackPrice stands in for an unknown price. It only feeds risk arithmetic and dry-run
// fills.
const FallbackPrice = 1.0

const dryRunOrderPrefix = "DRY_"

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order eventmodels.OrderRequest) (eventmodels.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
}

type OrderStore interface {
	SaveOrder(ctx context.Context, order eventmodels.OrderResponse) error
	SaveTrade(ctx context.Context, trade eventmodels.Trade) error
}

type PositionReader interface {
	GetCurrentPosition(symbol string) (eventmodels.Position, bool)
	GetAllPositions() []eventmodels.Position
}

// OrderManager turns signals into orders. BUY signals pass through the risk limits
// first; in dry-run mode nothing reaches the broker and fills are simulated.
type OrderManager struct {
	broker        OrderPlacer
	risk          *RiskManager
	positions     PositionReader
	store         OrderStore
	accountNumber string
	dryRun        bool
	now           func() time.Time
	newOrderID    func() string
	orderCounter  metric.Int64Counter
}

// ExecuteSignal acts on one signal. Risk rejections and non-actionable signals are
// reported in the result; errors are reserved for broker and storage failures.
func (m *OrderManager) ExecuteSignal(ctx context.Context, signal eventmodels.Signal) (eventmodels.ExecutionResult, error) {
	if !signal.IsActionable() {
		return m.record(ctx, eventmodels.NewSkippedResult(fmt.Sprintf("%s signal with quantity %d", signal.Type, signal.Quantity))), nil
	}

	price := resolvePrice(signal)

	if signal.Type == eventmodels.SignalTypeBuy {
		adjusted, err := m.applyRiskLimits(signal, price)
		if err != nil {
			log.WithContext(ctx).WithField("symbol", signal.Symbol).Warnf("OrderManager: BUY rejected: %v", err)
			return m.record(ctx, eventmodels.NewRejectedResult(err.Error())), nil
		}

		signal = adjusted
	}

	req := eventmodels.OrderRequest{
		Symbol:        signal.Symbol,
		Side:          sideFor(signal.Type),
		OrderType:     eventmodels.OrderTypeMarket,
		Quantity:      signal.Quantity,
		Price:         signal.Price,
		AccountNumber: m.accountNumber,
	}

	if signal.Price != nil {
		req.OrderType = eventmodels.OrderTypeLimit
	}

	var order eventmodels.OrderResponse
	if m.dryRun {
		order = m.simulateFill(req, price)
		log.WithContext(ctx).Infof("[DRY RUN] %s %s x%d @%.2f -> %s", req.Side, req.Symbol, req.Quantity, price, order.OrderID)
	} else {
		var err error
		if order, err = m.broker.PlaceOrder(ctx, req); err != nil {
			return eventmodels.ExecutionResult{}, fmt.Errorf("ExecuteSignal: %w", err)
		}

		log.WithContext(ctx).Infof("OrderManager: placed %v", order)
	}

	if err := m.store.SaveOrder(ctx, order); err != nil {
		return eventmodels.ExecutionResult{}, fmt.Errorf("ExecuteSignal: %w", err)
	}

	if trade, ok := eventmodels.NewTradeFromFill(order, m.now()); ok {
		if err := m.store.SaveTrade(ctx, trade); err != nil {
			return eventmodels.ExecutionResult{}, fmt.Errorf("ExecuteSignal: %w", err)
		}
	}

	return m.record(ctx, eventmodels.NewPlacedResult(order)), nil
}

func (m *OrderManager) applyRiskLimits(signal eventmodels.Signal, price float64) (eventmodels.Signal, error) {
	quantity := m.risk.ValidateSignalQuantity(signal.Quantity, price)
	if quantity <= 0 {
		return eventmodels.Signal{}, fmt.Errorf("%s: quantity capped to 0 at price %.2f", signal.Symbol, price)
	}

	var current *eventmodels.Position
	if p, found := m.positions.GetCurrentPosition(signal.Symbol); found {
		current = &p
	}

	if err := m.risk.CheckPositionLimit(signal.Symbol, quantity, price, current); err != nil {
		return eventmodels.Signal{}, err
	}

	if err := m.risk.CheckTotalExposure(int64(float64(quantity)*price), m.positions.GetAllPositions()); err != nil {
		return eventmodels.Signal{}, err
	}

	if quantity != signal.Quantity {
		log.Infof("OrderManager: %s quantity adjusted %d -> %d", signal.Symbol, signal.Quantity, quantity)
	}

	return signal.WithQuantity(quantity), nil
}

func (m *OrderManager) simulateFill(req eventmodels.OrderRequest, price float64) eventmodels.OrderResponse {
	now := m.now()
	filledPrice := price

	return eventmodels.OrderResponse{
		OrderID:        dryRunOrderPrefix + m.newOrderID(),
		Symbol:         req.Symbol,
		Side:           req.Side,
		OrderType:      req.OrderType,
		Quantity:       req.Quantity,
		Price:          req.Price,
		Status:         eventmodels.OrderStatusFilled,
		FilledQuantity: req.Quantity,
		FilledPrice:    &filledPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CancelOrder asks the broker to cancel orderID and reports whether it did.
func (m *OrderManager) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	ok, err := m.broker.CancelOrder(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("CancelOrder: %w", err)
	}

	if ok {
		log.WithContext(ctx).Infof("OrderManager: cancelled %s", orderID)
	} else {
		log.WithContext(ctx).Warnf("OrderManager: failed to cancel %s", orderID)
	}

	return ok, nil
}

func (m *OrderManager) IsDryRun() bool {
	return m.dryRun
}

func (m *OrderManager) record(ctx context.Context, result eventmodels.ExecutionResult) eventmodels.ExecutionResult {
	if m.orderCounter != nil {
		m.orderCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", string(result.Outcome)),
			attribute.Bool("dry_run", m.dryRun),
		))
	}

	return result
}

// resolvePrice picks the signal's limit price, then its current_price metadata, then
// FallbackPrice.
func resolvePrice(signal eventmodels.Signal) float64 {
	if signal.Price != nil && *signal.Price > 0 {
		return *signal.Price
	}

	if p, ok := signal.MetadataPrice(); ok {
		return p
	}

	return FallbackPrice
}

func sideFor(t eventmodels.SignalType) eventmodels.OrderSide {
	if t == eventmodels.SignalTypeSell {
		return eventmodels.OrderSideSell
	}

	return eventmodels.OrderSideBuy
}

func newDryRunOrderID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func NewOrderManager(broker OrderPlacer, risk *RiskManager, positions PositionReader, store OrderStore, accountNumber string, cfg eventmodels.TradingConfig) *OrderManager {
	counter, err := otel.Meter("execution").Int64Counter("signals_executed",
		metric.WithDescription("Signals handled by the order manager, by outcome"))
	if err != nil {
		log.Warnf("NewOrderManager: failed to create counter: %v", err)
	}

	return &OrderManager{
		broker:        broker,
		risk:          risk,
		positions:     positions,
		store:         store,
		accountNumber: accountNumber,
		dryRun:        cfg.DryRun,
		now:           time.Now,
		newOrderID:    newDryRunOrderID,
		orderCounter:  counter,
	}
}
