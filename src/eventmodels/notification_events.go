package eventmodels

import "time"

type SignalGeneratedEvent struct {
	Signal Signal
}

type OrderResultEvent struct {
	Order OrderResponse
}

type SignalRejectedEvent struct {
	Signal Signal
	Reason string
}

type ErrorEvent struct {
	Err     error
	Context string
}

type DailySummaryEvent struct {
	Date    time.Time
	Balance AccountBalance
	Trades  []Trade
}
