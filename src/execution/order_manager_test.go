package execution

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type orderManagerFixture struct {
	broker  *MockBroker
	store   *MockStore
	tracker *PositionTracker
	manager *OrderManager
}

func newOrderManagerFixture(t *testing.T, dryRun bool, positions ...eventmodels.Position) orderManagerFixture {
	broker := &MockBroker{positions: positions}
	store := NewMockStore()
	tracker := NewPositionTracker(broker, store)
	_, err := tracker.UpdatePositions(context.Background())
	require.NoError(t, err)

	cfg := eventmodels.TradingConfig{
		DryRun:           dryRun,
		MaxPositionSize:  1_000_000,
		MaxTotalExposure: 5_000_000,
	}

	manager := NewOrderManager(broker, NewRiskManager(cfg), tracker, store, "1234", cfg)
	manager.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }

	return orderManagerFixture{broker: broker, store: store, tracker: tracker, manager: manager}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestExecuteSignal(t *testing.T) {
	ctx := context.Background()

	t.Run("hold signals are skipped", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)

		// act
		result, err := f.manager.ExecuteSignal(ctx, eventmodels.NewHoldSignal("X", "neutral"))

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeSkipped, result.Outcome)
		assert.Nil(t, result.Order)
		assert.Empty(t, f.broker.placed)
		assert.Empty(t, f.store.orders)
	})

	t.Run("zero quantity signals are skipped", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)

		// act
		result, err := f.manager.ExecuteSignal(ctx, eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X"})

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeSkipped, result.Outcome)
	})

	t.Run("buy quantity is clamped to the position limit", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 1000, Price: floatPtr(5000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomePlaced, result.Outcome)
		require.Len(t, f.broker.placed, 1)
		assert.Equal(t, int64(200), f.broker.placed[0].Quantity)
		assert.Equal(t, eventmodels.OrderTypeLimit, f.broker.placed[0].OrderType)
		assert.Equal(t, "1234", f.broker.placed[0].AccountNumber)
		assert.Equal(t, int64(1000), signal.Quantity)
	})

	t.Run("buy over the position limit is rejected without placing", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false, eventmodels.Position{Symbol: "X", Quantity: 45, MarketValue: 900_000})
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 10, Price: floatPtr(20_000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeRejected, result.Outcome)
		assert.Contains(t, result.Reason, "exceeds limit")
		assert.Empty(t, f.broker.placed)
		assert.Empty(t, f.store.orders)
		assert.Empty(t, f.store.trades)
	})

	t.Run("buy over total exposure is rejected", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false,
			eventmodels.Position{Symbol: "A", Quantity: 1, MarketValue: 1_000_000},
			eventmodels.Position{Symbol: "B", Quantity: 1, MarketValue: 1_000_000},
			eventmodels.Position{Symbol: "C", Quantity: 1, MarketValue: 1_000_000},
			eventmodels.Position{Symbol: "D", Quantity: 1, MarketValue: 1_000_000},
			eventmodels.Position{Symbol: "E", Quantity: 1, MarketValue: 900_000},
		)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 20, Price: floatPtr(10_000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeRejected, result.Outcome)
		assert.Empty(t, f.broker.placed)
	})

	t.Run("price above the position limit is rejected", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 1, Price: floatPtr(2_000_000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeRejected, result.Outcome)
		assert.Empty(t, f.broker.placed)
	})

	t.Run("dry run synthesizes a filled order and a trade", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, true)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 10, Price: floatPtr(1000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		require.Equal(t, eventmodels.ExecutionOutcomePlaced, result.Outcome)
		require.NotNil(t, result.Order)
		order := *result.Order
		assert.Regexp(t, regexp.MustCompile(`^DRY_[0-9A-F]{8}$`), order.OrderID)
		assert.Equal(t, eventmodels.OrderStatusFilled, order.Status)
		assert.Equal(t, int64(10), order.FilledQuantity)
		require.NotNil(t, order.FilledPrice)
		assert.Equal(t, 1000.0, *order.FilledPrice)

		assert.Empty(t, f.broker.placed)
		assert.Len(t, f.store.orders, 1)
		require.Len(t, f.store.trades, 1)
		assert.Equal(t, int64(10_000), f.store.trades[0].Amount)
		assert.Equal(t, order.OrderID, f.store.trades[0].OrderID)
		assert.Equal(t, int64(0), f.store.trades[0].Commission)
	})

	t.Run("dry run market order fills at the metadata price", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, true)
		signal := eventmodels.Signal{
			Type:     eventmodels.SignalTypeBuy,
			Symbol:   "X",
			Quantity: 3,
			Metadata: map[string]interface{}{eventmodels.MetadataCurrentPrice: 50_000.0},
		}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		require.NotNil(t, result.Order)
		assert.Equal(t, eventmodels.OrderTypeMarket, result.Order.OrderType)
		assert.Equal(t, 50_000.0, *result.Order.FilledPrice)
		assert.Equal(t, int64(150_000), f.store.trades[0].Amount)
	})

	t.Run("dry run without any price uses the fallback", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, true)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeSell, Symbol: "X", Quantity: 4}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		require.NotNil(t, result.Order)
		assert.Equal(t, eventmodels.OrderSideSell, result.Order.Side)
		assert.Equal(t, FallbackPrice, *result.Order.FilledPrice)
	})

	t.Run("sell signals bypass the risk limits", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false, eventmodels.Position{Symbol: "X", Quantity: 100, MarketValue: 2_000_000})
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeSell, Symbol: "X", Quantity: 100}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomePlaced, result.Outcome)
		require.Len(t, f.broker.placed, 1)
		assert.Equal(t, eventmodels.OrderSideSell, f.broker.placed[0].Side)
		assert.Equal(t, eventmodels.OrderTypeMarket, f.broker.placed[0].OrderType)
		assert.Nil(t, f.broker.placed[0].Price)
	})

	t.Run("live submitted orders are stored without a trade", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 1, Price: floatPtr(1000)}

		// act
		result, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		assert.Equal(t, "ORD-1", result.Order.OrderID)
		assert.Contains(t, f.store.orders, "ORD-1")
		assert.Empty(t, f.store.trades)
	})

	t.Run("live filled orders record a trade", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)
		f.broker.response = func(req eventmodels.OrderRequest) eventmodels.OrderResponse {
			return eventmodels.OrderResponse{
				OrderID: "ORD-F", Symbol: req.Symbol, Side: req.Side, OrderType: req.OrderType,
				Quantity: req.Quantity, Status: eventmodels.OrderStatusFilled,
				FilledQuantity: req.Quantity, FilledPrice: floatPtr(999.5),
			}
		}
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 2, Price: floatPtr(1000)}

		// act
		_, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.NoError(t, err)
		require.Len(t, f.store.trades, 1)
		assert.Equal(t, int64(1999), f.store.trades[0].Amount)
	})

	t.Run("broker failures are returned and nothing is stored", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)
		f.broker.placeErr = fmt.Errorf("broker api error [500]: boom")
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 1, Price: floatPtr(1000)}

		// act
		_, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.Error(t, err)
		assert.Empty(t, f.store.orders)
	})

	t.Run("storage failures are returned", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, true)
		f.store.saveErr = fmt.Errorf("disk full")
		signal := eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "X", Quantity: 1, Price: floatPtr(1000)}

		// act
		_, err := f.manager.ExecuteSignal(ctx, signal)

		// assert
		require.Error(t, err)
		assert.Empty(t, f.store.trades)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("reports broker result", func(t *testing.T) {
		// arrange
		f := newOrderManagerFixture(t, false)

		// act
		ok1, err1 := f.manager.CancelOrder(context.Background(), "ORD-1")
		ok2, err2 := f.manager.CancelOrder(context.Background(), "unknown")

		// assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, ok1)
		assert.False(t, ok2)
		assert.Equal(t, []string{"ORD-1", "unknown"}, f.broker.cancelled)
	})
}
