package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type MockBroker struct {
	mu        sync.Mutex
	positions []eventmodels.Position
	fetchErr  error
	placeErr  error
	placed    []eventmodels.OrderRequest
	cancelled []string
	response  func(req eventmodels.OrderRequest) eventmodels.OrderResponse
}

func (m *MockBroker) GetPositions(ctx context.Context) ([]eventmodels.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	out := make([]eventmodels.Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

func (m *MockBroker) PlaceOrder(ctx context.Context, req eventmodels.OrderRequest) (eventmodels.OrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.placeErr != nil {
		return eventmodels.OrderResponse{}, m.placeErr
	}

	m.placed = append(m.placed, req)
	if m.response != nil {
		return m.response(req), nil
	}

	return eventmodels.OrderResponse{
		OrderID:   fmt.Sprintf("ORD-%d", len(m.placed)),
		Symbol:    req.Symbol,
		Side:      req.Side,
		OrderType: req.OrderType,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Status:    eventmodels.OrderStatusSubmitted,
	}, nil
}

func (m *MockBroker) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelled = append(m.cancelled, orderID)
	return orderID != "unknown", nil
}

type MockStore struct {
	mu        sync.Mutex
	orders    map[string]eventmodels.OrderResponse
	trades    []eventmodels.Trade
	positions map[string]eventmodels.Position
	deleted   []string
	saveErr   error
}

func (m *MockStore) SaveOrder(ctx context.Context, order eventmodels.OrderResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.orders[order.OrderID] = order
	return nil
}

func (m *MockStore) SaveTrade(ctx context.Context, trade eventmodels.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades = append(m.trades, trade)
	return nil
}

func (m *MockStore) SavePosition(ctx context.Context, position eventmodels.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions[position.Symbol] = position
	return nil
}

func (m *MockStore) DeletePosition(ctx context.Context, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, found := m.positions[symbol]
	delete(m.positions, symbol)
	m.deleted = append(m.deleted, symbol)
	return found, nil
}

func NewMockStore() *MockStore {
	return &MockStore{
		orders:    make(map[string]eventmodels.OrderResponse),
		positions: make(map[string]eventmodels.Position),
	}
}
