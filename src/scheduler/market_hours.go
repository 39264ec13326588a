package scheduler

import (
	"time"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

// MarketHours is the regular session: weekdays, open and close inclusive.
type MarketHours struct {
	Open     eventmodels.ClockTime
	Close    eventmodels.ClockTime
	Location *time.Location
}

func (m MarketHours) IsOpen(t time.Time) bool {
	local := t.In(m.Location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	openAt := m.Open.On(local)
	closeAt := m.Close.On(local)

	return !local.Before(openAt) && !local.After(closeAt)
}

func NewMarketHours(cfg eventmodels.ScheduleConfig) MarketHours {
	loc := cfg.Location
	if loc == nil {
		loc = eventmodels.DefaultLocation()
	}

	return MarketHours{
		Open:     cfg.MarketOpen,
		Close:    cfg.MarketClose,
		Location: loc,
	}
}
