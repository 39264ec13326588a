package eventmodels

import (
	"fmt"

	"github.com/jinzhu/copier"
)

type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
	SignalTypeHold SignalType = "HOLD"
)

// MetadataCurrentPrice is the metadata key strategies use to pass the latest close
// to the order manager when the signal itself carries no limit price.
const MetadataCurrentPrice = "current_price"

// Signal is a strategy's decision for one symbol. Signals are values: use WithQuantity
// to derive an adjusted copy instead of mutating one.
type Signal struct {
	Type     SignalType
	Symbol   string
	Reason   string
	Quantity int64
	Price    *float64
	Metadata map[string]interface{}
}

func (s Signal) String() string {
	if s.Price != nil {
		return fmt.Sprintf("%s %s x%d @%.2f (%s)", s.Type, s.Symbol, s.Quantity, *s.Price, s.Reason)
	}

	return fmt.Sprintf("%s %s x%d (%s)", s.Type, s.Symbol, s.Quantity, s.Reason)
}

func (s Signal) IsActionable() bool {
	return s.Type != SignalTypeHold && s.Quantity > 0
}

// MetadataPrice returns the current_price metadata entry when it holds a positive number.
func (s Signal) MetadataPrice() (float64, bool) {
	v, found := s.Metadata[MetadataCurrentPrice]
	if !found {
		return 0, false
	}

	var price float64
	switch p := v.(type) {
	case float64:
		price = p
	case float32:
		price = float64(p)
	case int:
		price = float64(p)
	case int64:
		price = float64(p)
	default:
		return 0, false
	}

	if price <= 0 {
		return 0, false
	}

	return price, true
}

// WithQuantity returns a deep copy of the signal with its quantity replaced.
func (s Signal) WithQuantity(quantity int64) Signal {
	var out Signal
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		out = s
		out.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}

	out.Quantity = quantity
	return out
}

func NewHoldSignal(symbol, reason string) Signal {
	return Signal{
		Type:   SignalTypeHold,
		Symbol: symbol,
		Reason: reason,
	}
}
