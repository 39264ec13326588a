package eventmodels

// Position is the broker-reported holding for one symbol.
type Position struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Quantity       int64   `json:"quantity"`
	AvgPrice       float64 `json:"avg_price"`
	CurrentPrice   float64 `json:"current_price"`
	MarketValue    int64   `json:"market_value"`
	ProfitLoss     int64   `json:"profit_loss"`
	ProfitLossRate float64 `json:"profit_loss_rate"`
}

type PositionsResponseDTO struct {
	Positions []Position `json:"positions"`
}

func TotalMarketValue(positions []Position) int64 {
	var total int64
	for _, p := range positions {
		total += p.MarketValue
	}

	return total
}
