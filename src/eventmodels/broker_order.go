package eventmodels

import (
	"fmt"
	"time"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusPartial   OrderStatus = "PARTIAL"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusPending, OrderStatusSubmitted, OrderStatusFilled, OrderStatusPartial, OrderStatusCancelled, OrderStatusRejected:
		return nil
	}

	return fmt.Errorf("invalid order status: %q", string(s))
}

type OrderRequest struct {
	Symbol        string    `json:"symbol"`
	Side          OrderSide `json:"side"`
	OrderType     OrderType `json:"order_type"`
	Quantity      int64     `json:"quantity"`
	Price         *float64  `json:"price"`
	AccountNumber string    `json:"account_number"`
}

func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("OrderRequest.Validate: symbol is required")
	}

	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return fmt.Errorf("OrderRequest.Validate: invalid side %q", r.Side)
	}

	if r.Quantity <= 0 {
		return fmt.Errorf("OrderRequest.Validate: quantity must be positive, got %d", r.Quantity)
	}

	if r.OrderType == OrderTypeLimit && r.Price == nil {
		return fmt.Errorf("OrderRequest.Validate: limit order requires a price")
	}

	return nil
}

// OrderResponse is the broker's view of an order. Orders are never deleted; only their
// status moves forward.
type OrderResponse struct {
	OrderID        string
	Symbol         string
	Side           OrderSide
	OrderType      OrderType
	Quantity       int64
	Price          *float64
	Status         OrderStatus
	FilledQuantity int64
	FilledPrice    *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (o OrderResponse) String() string {
	filled := "-"
	if o.FilledPrice != nil {
		filled = fmt.Sprintf("%.2f", *o.FilledPrice)
	}

	return fmt.Sprintf("%s %s %s x%d [%s] filled %d @%s", o.OrderID, o.Side, o.Symbol, o.Quantity, o.Status, o.FilledQuantity, filled)
}

type OrderResponseDTO struct {
	OrderID        string   `json:"order_id"`
	Symbol         string   `json:"symbol"`
	Side           string   `json:"side"`
	OrderType      string   `json:"order_type"`
	Quantity       int64    `json:"quantity"`
	Price          *float64 `json:"price"`
	Status         string   `json:"status"`
	FilledQuantity int64    `json:"filled_quantity"`
	FilledPrice    *float64 `json:"filled_price"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func (dto OrderResponseDTO) ToModel(now time.Time) (OrderResponse, error) {
	status := OrderStatus(dto.Status)
	if err := status.Validate(); err != nil {
		return OrderResponse{}, fmt.Errorf("OrderResponseDTO.ToModel: %w", err)
	}

	createdAt, err := parseOptionalBrokerTime(dto.CreatedAt, now)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("OrderResponseDTO.ToModel: failed to parse created_at: %w", err)
	}

	updatedAt, err := parseOptionalBrokerTime(dto.UpdatedAt, now)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("OrderResponseDTO.ToModel: failed to parse updated_at: %w", err)
	}

	return OrderResponse{
		OrderID:        dto.OrderID,
		Symbol:         dto.Symbol,
		Side:           OrderSide(dto.Side),
		OrderType:      OrderType(dto.OrderType),
		Quantity:       dto.Quantity,
		Price:          dto.Price,
		Status:         status,
		FilledQuantity: dto.FilledQuantity,
		FilledPrice:    dto.FilledPrice,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}
