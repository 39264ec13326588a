package eventmodels

type AccountBalance struct {
	TotalAssets     int64   `json:"total_assets"`
	AvailableCash   int64   `json:"available_cash"`
	TotalInvested   int64   `json:"total_invested"`
	TotalProfitLoss int64   `json:"total_profit_loss"`
	ProfitLossRate  float64 `json:"profit_loss_rate"`
}
