package notifier

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

var printer = message.NewPrinter(language.English)

func won(amount int64) string {
	return printer.Sprintf("%d KRW", amount)
}

func price(p float64) string {
	return printer.Sprintf("%.0f", p)
}

func FormatSignal(signal eventmodels.Signal) string {
	var str strings.Builder

	str.WriteString(fmt.Sprintf("*[%s] %s*\n", signal.Type, signal.Symbol))
	str.WriteString(fmt.Sprintf("Quantity: %s\n", printer.Sprintf("%d", signal.Quantity)))

	if signal.Price != nil {
		str.WriteString(fmt.Sprintf("Price: %s\n", price(*signal.Price)))
	} else if p, ok := signal.MetadataPrice(); ok {
		str.WriteString(fmt.Sprintf("Last close: %s\n", price(p)))
	}

	str.WriteString(fmt.Sprintf("Reason: %s", signal.Reason))
	return str.String()
}

func FormatOrderResult(order eventmodels.OrderResponse) string {
	var str strings.Builder

	str.WriteString(fmt.Sprintf("*Order %s*\n", order.Status))
	str.WriteString(fmt.Sprintf("%s %s x%s (%s)\n", order.Side, order.Symbol, printer.Sprintf("%d", order.Quantity), order.OrderType))
	str.WriteString(fmt.Sprintf("Order ID: %s", order.OrderID))

	if order.FilledPrice != nil {
		str.WriteString(fmt.Sprintf("\nFilled: %s @ %s", printer.Sprintf("%d", order.FilledQuantity), price(*order.FilledPrice)))
	}

	return str.String()
}

func FormatRejection(signal eventmodels.Signal, reason string) string {
	return fmt.Sprintf("*Signal rejected* %s %s x%d\nReason: %s", signal.Type, signal.Symbol, signal.Quantity, reason)
}

func FormatError(err error, context string) string {
	if context == "" {
		return fmt.Sprintf("*Error*\n%v", err)
	}

	return fmt.Sprintf("*Error* (%s)\n%v", context, err)
}

func FormatDailySummary(date time.Time, balance eventmodels.AccountBalance, trades []eventmodels.Trade) string {
	stats := eventmodels.NewDailyTradeStats(trades)

	var str strings.Builder
	str.WriteString(fmt.Sprintf("*Daily summary %s*\n", date.Format("2006-01-02")))
	str.WriteString("------------------------\n")
	str.WriteString(fmt.Sprintf("Total assets: %s\n", won(balance.TotalAssets)))
	str.WriteString(fmt.Sprintf("Available cash: %s\n", won(balance.AvailableCash)))
	str.WriteString(fmt.Sprintf("Invested: %s\n", won(balance.TotalInvested)))
	str.WriteString(fmt.Sprintf("P&L: %s (%+.2f%%)\n", won(balance.TotalProfitLoss), balance.ProfitLossRate))
	str.WriteString(fmt.Sprintf("Trades: %d (buy %d / sell %d), volume %s", len(trades), stats.BuyCount, stats.SellCount, won(stats.TotalAmount)))

	return str.String()
}
