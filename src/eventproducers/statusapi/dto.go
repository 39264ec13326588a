package statusapi

import (
	"fmt"
	"time"

	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const dateLayout = "2006-01-02"

type StatusDTO struct {
	Time              time.Time `json:"time"`
	Strategy          string    `json:"strategy"`
	DryRun            bool      `json:"dry_run"`
	Symbols           []string  `json:"symbols"`
	MarketOpen        bool      `json:"market_open"`
	PositionCount     int       `json:"position_count"`
	TotalExposure     int64     `json:"total_exposure"`
	RemainingAPICalls int       `json:"remaining_api_calls"`
	MaxAPICalls       int       `json:"max_api_calls"`
	APICallPeriod     string    `json:"api_call_period"`
}

type PositionsDTO struct {
	Positions     []eventmodels.Position `json:"positions"`
	TotalExposure int64                  `json:"total_exposure"`
}

type TradeDTO struct {
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   int64     `json:"quantity"`
	Price      float64   `json:"price"`
	Amount     int64     `json:"amount"`
	Commission int64     `json:"commission"`
	ExecutedAt time.Time `json:"executed_at"`
}

type TradesDTO struct {
	Trades []TradeDTO `json:"trades"`
}

func newTradesDTO(trades []eventmodels.Trade) *TradesDTO {
	out := &TradesDTO{Trades: make([]TradeDTO, 0, len(trades))}
	for _, t := range trades {
		out.Trades = append(out.Trades, TradeDTO{
			OrderID:    t.OrderID,
			Symbol:     t.Symbol,
			Side:       string(t.Side),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Amount:     t.Amount,
			Commission: t.Commission,
			ExecutedAt: t.ExecutedAt,
		})
	}

	return out
}

// TradesQuery is decoded from the query string of GET /trades. Dates are inclusive calendar
// days in the bot's location.
type TradesQuery struct {
	Symbol string `schema:"symbol"`
	Start  string `schema:"start"`
	End    string `schema:"end"`
	Limit  int    `schema:"limit"`
}

func (q TradesQuery) ToFilter(loc *time.Location) (data.TradeFilter, error) {
	filter := data.TradeFilter{Symbol: q.Symbol, Limit: q.Limit}

	if q.Limit < 0 {
		return data.TradeFilter{}, fmt.Errorf("limit must not be negative")
	}

	if q.Start != "" {
		start, err := time.ParseInLocation(dateLayout, q.Start, loc)
		if err != nil {
			return data.TradeFilter{}, fmt.Errorf("invalid start %q: %w", q.Start, err)
		}

		filter.Start = &start
	}

	if q.End != "" {
		day, err := time.ParseInLocation(dateLayout, q.End, loc)
		if err != nil {
			return data.TradeFilter{}, fmt.Errorf("invalid end %q: %w", q.End, err)
		}

		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.End = &end
	}

	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return data.TradeFilter{}, fmt.Errorf("end is before start")
	}

	return filter, nil
}

type CancelOrderDTO struct {
	OrderID   string `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}
