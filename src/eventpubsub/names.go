package eventpubsub

const (
	SignalGeneratedEvent = "SignalGeneratedEvent"
	OrderResultEvent     = "OrderResultEvent"
	SignalRejectedEvent  = "SignalRejectedEvent"
	DailySummaryEvent    = "DailySummaryEvent"
	Error                = "DefaultError"
)
