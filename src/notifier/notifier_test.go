package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/eventpubsub"
)

type webhookRecorder struct {
	mu       sync.Mutex
	messages []string
	status   int
}

func (r *webhookRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(req.Body).Decode(&body); err == nil {
		r.mu.Lock()
		r.messages = append(r.messages, body["text"].(string))
		r.mu.Unlock()
	}

	if r.status != 0 {
		w.WriteHeader(r.status)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (r *webhookRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func startSlack(t *testing.T, recorder *webhookRecorder) (*eventpubsub.Bus, func()) {
	srv := httptest.NewServer(recorder)
	bus := eventpubsub.New()

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	client := NewSlackNotifierClient(wg, bus, srv.URL)
	require.NoError(t, client.Start(ctx))

	return bus, func() {
		cancel()
		wg.Wait()
		srv.Close()
	}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	price := 71000.0

	t.Run("actionable signals reach the webhook", func(t *testing.T) {
		// arrange
		recorder := &webhookRecorder{}
		bus, stop := startSlack(t, recorder)
		defer stop()

		dispatcher := NewDispatcher(bus)

		// act
		dispatcher.SendSignal(ctx, eventmodels.Signal{
			Type:     eventmodels.SignalTypeBuy,
			Symbol:   "005930",
			Reason:   "RSI oversold (25.00)",
			Quantity: 10,
			Price:    &price,
		})
		bus.WaitAsync()

		// assert
		messages := recorder.Messages()
		require.Len(t, messages, 1)
		assert.Contains(t, messages[0], "[BUY] 005930")
		assert.Contains(t, messages[0], "71,000")
	})

	t.Run("hold signals are not announced", func(t *testing.T) {
		// arrange
		recorder := &webhookRecorder{}
		bus, stop := startSlack(t, recorder)
		defer stop()

		dispatcher := NewDispatcher(bus)

		// act
		dispatcher.SendSignal(ctx, eventmodels.NewHoldSignal("005930", "neutral"))
		bus.WaitAsync()

		// assert
		assert.Empty(t, recorder.Messages())
	})

	t.Run("webhook failures are swallowed", func(t *testing.T) {
		// arrange
		recorder := &webhookRecorder{status: http.StatusInternalServerError}
		bus, stop := startSlack(t, recorder)
		defer stop()

		dispatcher := NewDispatcher(bus)

		// act
		dispatcher.SendError(ctx, errors.New("boom"), "005930 strategy tick")
		dispatcher.SendRejection(ctx, eventmodels.Signal{Type: eventmodels.SignalTypeBuy, Symbol: "000660", Quantity: 5}, "position limit exceeded")
		bus.WaitAsync()

		// assert
		messages := recorder.Messages()
		assert.Len(t, messages, 2)
	})

	t.Run("stopping detaches the webhook", func(t *testing.T) {
		// arrange
		recorder := &webhookRecorder{}
		bus, stop := startSlack(t, recorder)
		dispatcher := NewDispatcher(bus)

		// act
		stop()
		dispatcher.SendError(ctx, errors.New("boom"), "005930 strategy tick")
		bus.WaitAsync()

		// assert
		assert.False(t, bus.HasSubscribers(eventpubsub.Error))
		assert.False(t, bus.HasSubscribers(eventpubsub.SignalGeneratedEvent))
		assert.Empty(t, recorder.Messages())
	})
}

func TestFormatDailySummary(t *testing.T) {
	// arrange
	date := time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC)
	balance := eventmodels.AccountBalance{
		TotalAssets:     10500000,
		AvailableCash:   4000000,
		TotalInvested:   6500000,
		TotalProfitLoss: 500000,
		ProfitLossRate:  5.0,
	}
	trades := []eventmodels.Trade{
		{Symbol: "005930", Side: eventmodels.OrderSideBuy, Amount: 700000},
		{Symbol: "005930", Side: eventmodels.OrderSideSell, Amount: 720000},
		{Symbol: "000660", Side: eventmodels.OrderSideBuy, Amount: 130000},
	}

	// act
	msg := FormatDailySummary(date, balance, trades)

	// assert
	assert.Contains(t, msg, "2024-03-04")
	assert.Contains(t, msg, "10,500,000 KRW")
	assert.Contains(t, msg, "+5.00%")
	assert.Contains(t, msg, "Trades: 3 (buy 2 / sell 1)")
	assert.Contains(t, msg, "1,550,000 KRW")
}

func TestFormatOrderResult(t *testing.T) {
	filled := 71000.0
	order := eventmodels.OrderResponse{
		OrderID:        "DRY_0A1B2C3D",
		Symbol:         "005930",
		Side:           eventmodels.OrderSideBuy,
		OrderType:      eventmodels.OrderTypeMarket,
		Quantity:       10,
		Status:         eventmodels.OrderStatusFilled,
		FilledQuantity: 10,
		FilledPrice:    &filled,
	}

	msg := FormatOrderResult(order)

	assert.Contains(t, msg, "Order FILLED")
	assert.Contains(t, msg, "DRY_0A1B2C3D")
	assert.Contains(t, msg, "Filled: 10 @ 71,000")
}
