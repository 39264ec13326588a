package run

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

var p = message.NewPrinter(language.English)

func RenderPositions(out io.Writer, positions []eventmodels.Position) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Symbol", "Name", "Qty", "Avg Price", "Current", "Value", "P&L", "P&L %"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	var total int64
	for _, pos := range positions {
		table.Append([]string{
			pos.Symbol,
			pos.Name,
			p.Sprintf("%d", pos.Quantity),
			p.Sprintf("%.0f", pos.AvgPrice),
			p.Sprintf("%.0f", pos.CurrentPrice),
			p.Sprintf("%d", pos.MarketValue),
			p.Sprintf("%d", pos.ProfitLoss),
			fmt.Sprintf("%+.2f%%", pos.ProfitLossRate),
		})

		total += pos.MarketValue
	}

	table.SetFooter([]string{"", "", "", "", "Total", p.Sprintf("%d", total), "", ""})
	table.Render()
}

func RenderTradeSummary(out io.Writer, summaries []eventmodels.TradeSummary) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Symbol", "Trades", "Qty", "Amount", "Commission", "Avg Price"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, s := range summaries {
		table.Append([]string{
			s.Symbol,
			p.Sprintf("%d", s.TotalTrades),
			p.Sprintf("%d", s.TotalQuantity),
			p.Sprintf("%d", s.TotalAmount),
			p.Sprintf("%d", s.TotalCommission),
			p.Sprintf("%.2f", s.AvgPrice),
		})
	}

	table.Render()
}
