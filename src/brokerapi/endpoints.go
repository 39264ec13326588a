package brokerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const (
	DefaultOHLCVInterval = "1D"
	DefaultOHLCVCount    = 50
)

// GetOHLCV returns bars for symbol, newest first.
func (c *Client) GetOHLCV(ctx context.Context, symbol, interval string, count int) ([]eventmodels.OHLCVBar, error) {
	query := url.Values{}
	query.Set("interval", interval)
	query.Set("count", strconv.Itoa(count))

	body, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/market/ohlcv/%s", url.PathEscape(symbol)), query, nil, true)
	if err != nil {
		return nil, fmt.Errorf("GetOHLCV: %s: %w", symbol, err)
	}

	var dto eventmodels.OHLCVResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("GetOHLCV: failed to decode response: %w", err)
	}

	bars, err := dto.ToModel()
	if err != nil {
		return nil, fmt.Errorf("GetOHLCV: %s: %w", symbol, err)
	}

	return bars, nil
}

func (c *Client) GetAccountBalance(ctx context.Context) (eventmodels.AccountBalance, error) {
	body, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%s/balance", url.PathEscape(c.accountNumber)), nil, nil, true)
	if err != nil {
		return eventmodels.AccountBalance{}, fmt.Errorf("GetAccountBalance: %w", err)
	}

	var balance eventmodels.AccountBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		return eventmodels.AccountBalance{}, fmt.Errorf("GetAccountBalance: failed to decode response: %w", err)
	}

	return balance, nil
}

func (c *Client) GetPositions(ctx context.Context) ([]eventmodels.Position, error) {
	body, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%s/positions", url.PathEscape(c.accountNumber)), nil, nil, true)
	if err != nil {
		return nil, fmt.Errorf("GetPositions: %w", err)
	}

	var dto eventmodels.PositionsResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("GetPositions: failed to decode response: %w", err)
	}

	for _, p := range dto.Positions {
		if p.Quantity < 0 {
			return nil, fmt.Errorf("GetPositions: negative quantity %d for %s", p.Quantity, p.Symbol)
		}
	}

	return dto.Positions, nil
}

func (c *Client) PlaceOrder(ctx context.Context, order eventmodels.OrderRequest) (eventmodels.OrderResponse, error) {
	if err := order.Validate(); err != nil {
		return eventmodels.OrderResponse{}, fmt.Errorf("PlaceOrder: %w", err)
	}

	body, err := c.Request(ctx, http.MethodPost, "/api/v1/orders", nil, order, true)
	if err != nil {
		return eventmodels.OrderResponse{}, fmt.Errorf("PlaceOrder: %s %s: %w", order.Side, order.Symbol, err)
	}

	var dto eventmodels.OrderResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return eventmodels.OrderResponse{}, fmt.Errorf("PlaceOrder: failed to decode response: %w", err)
	}

	resp, err := dto.ToModel(c.now())
	if err != nil {
		return eventmodels.OrderResponse{}, fmt.Errorf("PlaceOrder: %w", err)
	}

	return resp, nil
}

// CancelOrder reports whether the broker accepted the cancellation. API failures are
// logged and reported as false; other failures are returned.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%s", url.PathEscape(orderID)), nil, nil, true)
	if err != nil {
		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			log.WithContext(ctx).WithError(err).Warnf("CancelOrder: broker refused to cancel %s", orderID)
			return false, nil
		}

		return false, fmt.Errorf("CancelOrder: %w", err)
	}

	return true, nil
}
