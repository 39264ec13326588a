package notifier

import (
	"context"
	"time"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/eventpubsub"
)

const publisherName = "Dispatcher"

// Dispatcher publishes notifications on the bus and returns immediately. Delivery
// failures are handled, and swallowed, by the subscribers.
type Dispatcher struct {
	bus *eventpubsub.Bus
}

// SendSignal publishes actionable signals; HOLD signals are not announced.
func (d *Dispatcher) SendSignal(ctx context.Context, signal eventmodels.Signal) {
	if signal.Type == eventmodels.SignalTypeHold {
		return
	}

	d.bus.Publish(publisherName, eventpubsub.SignalGeneratedEvent, &eventmodels.SignalGeneratedEvent{Signal: signal})
}

func (d *Dispatcher) SendOrderResult(ctx context.Context, order eventmodels.OrderResponse) {
	d.bus.Publish(publisherName, eventpubsub.OrderResultEvent, &eventmodels.OrderResultEvent{Order: order})
}

func (d *Dispatcher) SendRejection(ctx context.Context, signal eventmodels.Signal, reason string) {
	d.bus.Publish(publisherName, eventpubsub.SignalRejectedEvent, &eventmodels.SignalRejectedEvent{Signal: signal, Reason: reason})
}

func (d *Dispatcher) SendError(ctx context.Context, err error, errContext string) {
	d.bus.Publish(publisherName, eventpubsub.Error, &eventmodels.ErrorEvent{Err: err, Context: errContext})
}

func (d *Dispatcher) SendDailySummary(ctx context.Context, date time.Time, balance eventmodels.AccountBalance, trades []eventmodels.Trade) {
	d.bus.Publish(publisherName, eventpubsub.DailySummaryEvent, &eventmodels.DailySummaryEvent{Date: date, Balance: balance, Trades: trades})
}

func NewDispatcher(bus *eventpubsub.Bus) *Dispatcher {
	return &Dispatcher{
		bus: bus,
	}
}
